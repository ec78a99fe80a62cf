package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/guardget/guardget/internal/server/models"
)

type transferSummary struct {
	ID             string     `json:"id"`
	DeviceID       string     `json:"deviceId"`
	RecipientEmail string     `json:"recipientEmail,omitempty"`
	RecipientPhone string     `json:"recipientPhone,omitempty"`
	Status         string     `json:"status"`
	CreatedAt      time.Time  `json:"createdAt"`
	ExpiresAt      time.Time  `json:"expiresAt"`
	AcceptedAt     *time.Time `json:"acceptedAt,omitempty"`
}

func toTransferSummary(t *models.Transfer) transferSummary {
	return transferSummary{
		ID:             t.ID,
		DeviceID:       t.DeviceID,
		RecipientEmail: t.RecipientEmail,
		RecipientPhone: t.RecipientPhone,
		Status:         string(t.Status),
		CreatedAt:      t.CreatedAt,
		ExpiresAt:      t.ExpiresAt,
		AcceptedAt:     t.AcceptedAt,
	}
}

func (s *Server) handleInitiateTransfer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DeviceID       string `json:"deviceId"`
		RecipientEmail string `json:"recipientEmail"`
		RecipientPhone string `json:"recipientPhone"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := claimsFromContext(r.Context())
	transfer, err := s.transfers.Initiate(r.Context(), claims.UserID, req.DeviceID, req.RecipientEmail, req.RecipientPhone)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTransferSummary(transfer))
}

func (s *Server) handleAcceptTransfer(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	transfer, err := s.transfers.Accept(r.Context(), claims.UserID, chi.URLParam(r, "transferID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferSummary(transfer))
}

func (s *Server) handleGetTransfer(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	transfer, err := s.transfers.Get(r.Context(), claims.UserID, isAdmin(claims), chi.URLParam(r, "transferID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toTransferSummary(transfer))
}

func (s *Server) handleCancelTransfer(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	if err := s.transfers.Cancel(r.Context(), claims.UserID, chi.URLParam(r, "transferID")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "transfer cancelled"})
}
