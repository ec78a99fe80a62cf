package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.admin.ListUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]userSummary, 0, len(users))
	for _, u := range users {
		out = append(out, toUserSummary(u))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.admin.GetUser(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toUserSummary(user))
}

type userDetailsResponse struct {
	User         userSummary          `json:"user"`
	Subscription *subscriptionSummary `json:"subscription,omitempty"`
	Plan         *planSummary         `json:"plan,omitempty"`
	DeviceCount  int                  `json:"deviceCount"`
	ReceiptCount int                  `json:"receiptCount"`
}

func (s *Server) handleAdminUserDetails(w http.ResponseWriter, r *http.Request) {
	details, err := s.admin.UserDetails(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := userDetailsResponse{
		User:         toUserSummary(details.User),
		DeviceCount:  details.DeviceCount,
		ReceiptCount: details.ReceiptCount,
	}
	if details.Subscription != nil {
		sub := toSubscriptionSummary(details.Subscription)
		out.Subscription = &sub
	}
	if details.Plan != nil {
		plan := toPlanSummary(details.Plan)
		out.Plan = &plan
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminUserDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.admin.UserDevices(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]deviceSummary, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDeviceSummary(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminUserReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.admin.UserReceipts(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptSummaries(receipts))
}

func (s *Server) handleAdminListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.admin.ListDevices(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]deviceSummary, 0, len(devices))
	for _, d := range devices {
		out = append(out, toDeviceSummary(d))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAdminListReceipts(w http.ResponseWriter, r *http.Request) {
	receipts, err := s.admin.ListReceipts(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toReceiptSummaries(receipts))
}

func (s *Server) handleAdminListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := s.admin.ListSubscriptions(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	out := make([]subscriptionSummary, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubscriptionSummary(sub))
	}
	writeJSON(w, http.StatusOK, out)
}
