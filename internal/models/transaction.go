package models

import "time"

type Transaction struct {
	TransactionID      string     `json:"transaction_id"`
	SourceAccount      string     `json:"source_account"`
	DestinationAccount string     `json:"destination_account"`
	Amount             float64    `json:"amount"`
	Currency           string     `json:"currency"`
	Status             StatusType `json:"status"`
	CreatedAt          time.Time  `json:"created_at"`
	ProcessedAt        *time.Time `json:"processed_at"`
}

type StatusType string

const (
	StatusProcessing StatusType = "PROCESSING"
	StatusProcessed  StatusType = "PROCESSED"
)
