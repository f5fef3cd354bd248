package events

import "time"

// TransactionProcessed is published after a transaction reaches its terminal state.
type TransactionProcessed struct {
	EventID            string    `json:"event_id"`
	TransactionID      string    `json:"transaction_id"`
	SourceAccount      string    `json:"source_account"`
	DestinationAccount string    `json:"destination_account"`
	Amount             float64   `json:"amount"`
	Currency           string    `json:"currency"`
	ProcessedAt        time.Time `json:"processed_at"`
}
