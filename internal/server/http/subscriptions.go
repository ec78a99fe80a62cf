package http

import (
	"net/http"
	"time"

	"github.com/guardget/guardget/internal/server/models"
)

type planSummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DeviceLimit int    `json:"deviceLimit"`
	// NoOfDevices duplicates DeviceLimit under the field names older mobile
	// clients read; NoOfDecives keeps the historical misspelling alive.
	NoOfDevices int    `json:"NoOfDevices"`
	NoOfDecives int    `json:"NoOfDecives"`
	Price       int64  `json:"price"`
	Description string `json:"description,omitempty"`
}

type subscriptionSummary struct {
	ID            string    `json:"id"`
	PlanID        string    `json:"planId"`
	StartDate     time.Time `json:"startDate"`
	EndDate       time.Time `json:"endDate"`
	AutoRenew     bool      `json:"autoRenew"`
	PaymentMethod string    `json:"paymentMethod,omitempty"`
}

func toPlanSummary(p *models.Plan) planSummary {
	return planSummary{
		ID:          p.ID,
		Name:        p.Name,
		DeviceLimit: p.DeviceLimit,
		NoOfDevices: p.DeviceLimit,
		NoOfDecives: p.DeviceLimit,
		Price:       p.Price,
		Description: p.Description,
	}
}

func toSubscriptionSummary(s *models.Subscription) subscriptionSummary {
	return subscriptionSummary{
		ID:            s.ID,
		PlanID:        s.PlanID,
		StartDate:     s.StartDate,
		EndDate:       s.EndDate,
		AutoRenew:     s.AutoRenew,
		PaymentMethod: s.PaymentMethod,
	}
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.subscriptions.Plans(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]planSummary, 0, len(plans))
	for _, p := range plans {
		out = append(out, toPlanSummary(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUserSubscription(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	sub, plan, err := s.subscriptions.Current(r.Context(), claims.UserID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"subscription": toSubscriptionSummary(sub),
		"plan":         toPlanSummary(plan),
	})
}

func (s *Server) handleInitiatePayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PlanID string `json:"planId"`
		Months int    `json:"months"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := claimsFromContext(r.Context())
	checkout, err := s.subscriptions.InitiatePayment(r.Context(), claims.UserID, req.PlanID, req.Months)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"reference":   checkout.Reference,
		"checkoutUrl": checkout.URL,
		"amount":      checkout.Amount,
	})
}

func (s *Server) handleVerifyPayment(w http.ResponseWriter, r *http.Request) {
	reference := r.URL.Query().Get("reference")
	if reference == "" {
		writeError(w, http.StatusBadRequest, "reference is required")
		return
	}

	claims := claimsFromContext(r.Context())
	outcome, err := s.subscriptions.VerifyPayment(r.Context(), claims.UserID, reference)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := map[string]any{
		"reference": outcome.Reference,
		"status":    string(outcome.Status),
	}
	if outcome.Subscription != nil {
		resp["subscription"] = toSubscriptionSummary(outcome.Subscription)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelSubscription(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	if err := s.subscriptions.CancelAutoRenew(r.Context(), claims.UserID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "auto-renew cancelled"})
}
