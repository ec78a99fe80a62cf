package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/guardget/guardget/internal/server/models"
	"github.com/guardget/guardget/internal/server/services"
)

type incidentSummary struct {
	Location     string    `json:"location"`
	Country      string    `json:"country,omitempty"`
	State        string    `json:"state,omitempty"`
	Date         time.Time `json:"date"`
	ContactPhone string    `json:"contactPhone,omitempty"`
	Description  string    `json:"description,omitempty"`
	PhotoURL     string    `json:"photoUrl,omitempty"`
}

type deviceSummary struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         string           `json:"type"`
	IMEI1        string           `json:"imei1,omitempty"`
	IMEI2        string           `json:"imei2,omitempty"`
	SerialNumber string           `json:"serialNumber,omitempty"`
	Status       string           `json:"status"`
	Incident     *incidentSummary `json:"incident,omitempty"`
	RegisteredAt time.Time        `json:"registeredAt"`
	UpdatedAt    time.Time        `json:"updatedAt"`
}

func toDeviceSummary(d *models.Device) deviceSummary {
	out := deviceSummary{
		ID:           d.ID,
		Name:         d.Name,
		Type:         string(d.Type),
		IMEI1:        d.IMEI1,
		IMEI2:        d.IMEI2,
		SerialNumber: d.SerialNumber,
		Status:       string(d.Status),
		RegisteredAt: d.RegisteredAt,
		UpdatedAt:    d.UpdatedAt,
	}
	if d.Incident != nil {
		out.Incident = &incidentSummary{
			Location:     d.Incident.Location,
			Country:      d.Incident.Country,
			State:        d.Incident.State,
			Date:         d.Incident.Date,
			ContactPhone: d.Incident.ContactPhone,
			Description:  d.Incident.Description,
		}
	}
	return out
}

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string `json:"name"`
		Type         string `json:"type"`
		IMEI1        string `json:"imei1"`
		IMEI2        string `json:"imei2"`
		SerialNumber string `json:"serialNumber"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := claimsFromContext(r.Context())
	device, err := s.devices.Register(r.Context(), claims.UserID, services.RegisterDeviceInput{
		Name:         req.Name,
		Type:         models.DeviceType(req.Type),
		IMEI1:        req.IMEI1,
		IMEI2:        req.IMEI2,
		SerialNumber: req.SerialNumber,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toDeviceSummary(device))
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	devices, err := s.devices.List(r.Context(), claims.UserID)
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

func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	claims := claimsFromContext(r.Context())

	device, err := s.devices.Get(r.Context(), claims.UserID, isAdmin(claims), chi.URLParam(r, "deviceID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeviceSummary(device))
}

type checkResponse struct {
	Found    bool             `json:"found"`
	Name     string           `json:"name,omitempty"`
	Type     string           `json:"type,omitempty"`
	Status   string           `json:"status,omitempty"`
	Reported bool             `json:"reported"`
	Incident *incidentSummary `json:"incident,omitempty"`
}

func (s *Server) handleCheckDevice(w http.ResponseWriter, r *http.Request) {
	result, err := s.devices.Check(r.Context(), r.URL.Query().Get("identifier"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	resp := checkResponse{
		Found:    result.Found,
		Name:     result.Name,
		Type:     string(result.Type),
		Status:   string(result.Status),
		Reported: result.Reported,
	}
	if result.Incident != nil {
		resp.Incident = &incidentSummary{
			Location:     result.Incident.Location,
			Country:      result.Incident.Country,
			State:        result.Incident.State,
			Date:         result.Incident.Date,
			ContactPhone: result.Incident.ContactPhone,
			Description:  result.Incident.Description,
			PhotoURL:     result.Incident.PhotoURL,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleDeviceStatus serves both the report workflow (stolen/missing, with
// incident details) and recovery back to active or inactive.
func (s *Server) handleDeviceStatus(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status       string    `json:"status"`
		Location     string    `json:"location"`
		Country      string    `json:"country"`
		State        string    `json:"state"`
		Date         time.Time `json:"date"`
		ContactPhone string    `json:"contactPhone"`
		Description  string    `json:"description"`
		PhotoKey     string    `json:"photoKey"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	claims := claimsFromContext(r.Context())
	deviceID := chi.URLParam(r, "deviceID")
	status := models.DeviceStatus(req.Status)

	var (
		device *models.Device
		err    error
	)
	switch status {
	case models.DeviceStatusStolen, models.DeviceStatusMissing:
		device, err = s.devices.Report(r.Context(), claims.UserID, deviceID, status, services.ReportInput{
			Location:     req.Location,
			Country:      req.Country,
			State:        req.State,
			Date:         req.Date,
			ContactPhone: req.ContactPhone,
			Description:  req.Description,
			PhotoKey:     req.PhotoKey,
		})
	default:
		device, err = s.devices.SetStatus(r.Context(), claims.UserID, isAdmin(claims), deviceID, status)
	}
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toDeviceSummary(device))
}

func (s *Server) handlePhotoUploadURL(w http.ResponseWriter, r *http.Request) {
	key, url, err := s.devices.PhotoUploadURL(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"key": key, "uploadUrl": url})
}
