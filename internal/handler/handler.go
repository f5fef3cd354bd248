package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	service "github.com/novapay/txgate/internal/services"
	pkgerrors "github.com/novapay/txgate/pkg/errors"
)

type Handler struct {
	service service.TransactionService
}

func NewHandler(s service.TransactionService) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/", h.Health).Methods("GET")
	r.HandleFunc("/v1/webhooks/transactions", h.ReceiveWebhook).Methods("POST")
	r.HandleFunc("/v1/transactions/{transaction_id}", h.GetTransaction).Methods("GET")
}

type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type detailResponse struct {
	Detail string `json:"detail"`
}

type webhookRequest struct {
	TransactionID      string   `json:"transaction_id"`
	SourceAccount      string   `json:"source_account"`
	DestinationAccount string   `json:"destination_account"`
	Amount             *float64 `json:"amount"`
	Currency           string   `json:"currency"`
}

type transactionResponse struct {
	TransactionID      string  `json:"transaction_id"`
	SourceAccount      string  `json:"source_account"`
	DestinationAccount string  `json:"destination_account"`
	Amount             float64 `json:"amount"`
	Currency           string  `json:"currency"`
	Status             string  `json:"status"`
	CreatedAt          string  `json:"created_at"`
	ProcessedAt        *string `json:"processed_at"`
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"status":       "HEALTHY",
		"current_time": formatTimestamp(time.Now().UTC()),
	})
}

// ReceiveWebhook acknowledges a submission without waiting for settlement.
// Both a fresh insert and a replay answer 202: real webhook senders retry on
// timeout, so the duplicate is a confirmation, not an error.
func (h *Handler) ReceiveWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.TransactionID == "" || req.SourceAccount == "" || req.DestinationAccount == "" || req.Currency == "" || req.Amount == nil {
		h.writeError(w, http.StatusBadRequest, errors.New("transaction_id, source_account, destination_account, amount and currency are required"))
		return
	}

	result, err := h.service.Ingest(r.Context(), service.Submission{
		TransactionID:      req.TransactionID,
		SourceAccount:      req.SourceAccount,
		DestinationAccount: req.DestinationAccount,
		Amount:             *req.Amount,
		Currency:           req.Currency,
	})
	if err != nil {
		if errors.Is(err, pkgerrors.ErrInvalidInput) {
			h.writeError(w, http.StatusBadRequest, err)
		} else {
			h.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	if result == service.IngestDuplicate {
		h.writeJSON(w, http.StatusAccepted, messageResponse{Message: "Transaction already received"})
		return
	}
	h.writeJSON(w, http.StatusAccepted, messageResponse{Message: "Accepted"})
}

func (h *Handler) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["transaction_id"]

	tx, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrTransactionNotFound) {
			h.writeJSON(w, http.StatusNotFound, detailResponse{Detail: "Transaction not found"})
		} else {
			h.writeError(w, http.StatusInternalServerError, err)
		}
		return
	}

	resp := transactionResponse{
		TransactionID:      tx.TransactionID,
		SourceAccount:      tx.SourceAccount,
		DestinationAccount: tx.DestinationAccount,
		Amount:             tx.Amount,
		Currency:           tx.Currency,
		Status:             string(tx.Status),
		CreatedAt:          formatTimestamp(tx.CreatedAt),
	}
	if tx.ProcessedAt != nil {
		s := formatTimestamp(*tx.ProcessedAt)
		resp.ProcessedAt = &s
	}

	h.writeJSON(w, http.StatusOK, []transactionResponse{resp})
}

// formatTimestamp renders an ISO-8601 UTC timestamp with a trailing "Z".
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
