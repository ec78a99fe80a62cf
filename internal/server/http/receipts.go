package http

import (
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/guardget/guardget/internal/server/models"
)

type receiptSummary struct {
	ID          string    `json:"id"`
	PlanID      string    `json:"planId"`
	Months      int       `json:"months"`
	Amount      int64     `json:"amount"`
	Status      string    `json:"status"`
	Reference   string    `json:"reference"`
	HasDocument bool      `json:"hasDocument"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toReceiptSummary(r *models.Receipt) receiptSummary {
	return receiptSummary{
		ID:          r.ID,
		PlanID:      r.PlanID,
		Months:      r.Months,
		Amount:      r.Amount,
		Status:      string(r.Status),
		Reference:   r.Reference,
		HasDocument: r.DocumentKey != "",
		CreatedAt:   r.CreatedAt,
	}
}

func toReceiptSummaries(receipts []*models.Receipt) []receiptSummary {
	out := make([]receiptSummary, 0, len(receipts))
	for _, r := range receipts {
		out = append(out, toReceiptSummary(r))
	}
	return out
}

func (s *Server) handleListReceipts(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	receipts, err := s.receipts.ListByUser(r.Context(), claims.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptSummaries(receipts))
}

func (s *Server) handleGetReceipt(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	receipt, err := s.receipts.Get(r.Context(), claims.UserID, isAdmin(claims), chi.URLParam(r, "receiptID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptSummary(receipt))
}

func (s *Server) handleDownloadReceipt(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	body, err := s.receipts.Download(r.Context(), claims.UserID, isAdmin(claims), chi.URLParam(r, "receiptID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	defer body.Close()

	w.Header().Set("Content-Type", "application/pdf")
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, body); err != nil {
		s.logger.Error(r.Context(), "streaming receipt document", "error", err)
	}
}
