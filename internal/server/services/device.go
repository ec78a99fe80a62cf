package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/guardget/guardget/internal/common"
	sc "github.com/guardget/guardget/internal/server/config"
	"github.com/guardget/guardget/internal/server/models"
	"github.com/guardget/guardget/internal/server/repositories/repomanager"
)

// DeviceService owns the device registry: registration against the plan
// entitlement, the anonymous pre-purchase check, and incident reporting.
type DeviceService struct {
	db      *sql.DB
	rm      repomanager.RepositoryManager
	config  *sc.Config
	storage Storage
	now     func() time.Time
}

func NewDeviceService(db *sql.DB, rm repomanager.RepositoryManager, config *sc.Config, storage Storage) *DeviceService {
	return &DeviceService{db: db, rm: rm, config: config, storage: storage, now: time.Now}
}

type RegisterDeviceInput struct {
	Name         string
	Type         models.DeviceType
	IMEI1        string
	IMEI2        string
	SerialNumber string
}

// ReportInput carries the incident details for a stolen or missing report.
type ReportInput struct {
	Location     string
	Country      string
	State        string
	Date         time.Time
	ContactPhone string
	Description  string
	PhotoKey     string
}

// CheckIncident is the public portion of an incident, shown to anonymous
// checkers. ContactPhone is the only owner PII that ever crosses this
// boundary, and only while the device is reported.
type CheckIncident struct {
	Location     string
	Country      string
	State        string
	Date         time.Time
	ContactPhone string
	Description  string
	PhotoURL     string
}

// CheckResult answers the anonymous "is this device safe to buy" question.
type CheckResult struct {
	Found    bool
	Name     string
	Type     models.DeviceType
	Status   models.DeviceStatus
	Reported bool
	Incident *CheckIncident
}

func validateRegisterDevice(in *RegisterDeviceInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.IMEI1 = strings.TrimSpace(in.IMEI1)
	in.IMEI2 = strings.TrimSpace(in.IMEI2)
	in.SerialNumber = strings.TrimSpace(in.SerialNumber)

	switch {
	case in.Name == "":
		return fmt.Errorf("%w: device name is required", common.ErrorValidation)
	case !models.ValidDeviceType(in.Type):
		return fmt.Errorf("%w: unknown device type %q", common.ErrorValidation, in.Type)
	case in.IMEI1 == "" && in.IMEI2 == "" && in.SerialNumber == "":
		return fmt.Errorf("%w: at least one of imei or serial number is required", common.ErrorValidation)
	}
	return nil
}

// deviceLimit resolves how many devices the user may hold: the active plan's
// limit, or the free-tier limit when no subscription covers now.
func (s *DeviceService) deviceLimit(ctx context.Context, userID string) (int, error) {
	sub, err := s.rm.Subscriptions(s.db).GetActiveByUser(ctx, userID, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return models.FreeTierDeviceLimit, nil
		}
		return 0, err
	}
	plan, err := s.rm.Plans(s.db).GetByID(ctx, sub.PlanID)
	if err != nil {
		return 0, err
	}
	return plan.DeviceLimit, nil
}

// Register adds a device to the caller's account, enforcing the plan's
// device limit and identifier uniqueness.
func (s *DeviceService) Register(ctx context.Context, ownerID string, in RegisterDeviceInput) (*models.Device, error) {
	if err := validateRegisterDevice(&in); err != nil {
		return nil, err
	}

	limit, err := s.deviceLimit(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	count, err := s.rm.Devices(s.db).CountByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if count >= limit {
		return nil, fmt.Errorf("%w: plan allows %d device(s)", common.ErrorDeviceLimitReached, limit)
	}

	device := &models.Device{
		Name:         in.Name,
		Type:         in.Type,
		IMEI1:        in.IMEI1,
		IMEI2:        in.IMEI2,
		SerialNumber: in.SerialNumber,
		Status:       models.DeviceStatusActive,
		OwnerID:      ownerID,
	}
	return s.rm.Devices(s.db).Create(ctx, device)
}

func (s *DeviceService) List(ctx context.Context, ownerID string) ([]*models.Device, error) {
	return s.rm.Devices(s.db).ListByOwner(ctx, ownerID)
}

// Get returns a device to its owner or to an admin.
func (s *DeviceService) Get(ctx context.Context, userID string, isAdmin bool, deviceID string) (*models.Device, error) {
	device, err := s.rm.Devices(s.db).GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.OwnerID != userID && !isAdmin {
		return nil, common.ErrorForbidden
	}
	return device, nil
}

// Check answers an anonymous identifier lookup. An unregistered identifier
// is an affirmative "not found" answer, not an error. Owner contact data is
// disclosed only while the device is reported stolen or missing.
func (s *DeviceService) Check(ctx context.Context, identifier string) (*CheckResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, fmt.Errorf("%w: identifier is required", common.ErrorValidation)
	}

	device, err := s.rm.Devices(s.db).FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return &CheckResult{Found: false}, nil
		}
		return nil, err
	}

	result := &CheckResult{
		Found:    true,
		Name:     device.Name,
		Type:     device.Type,
		Status:   device.Status,
		Reported: device.Reported(),
	}
	if !device.Reported() || device.Incident == nil {
		return result, nil
	}

	incident := &CheckIncident{
		Location:     device.Incident.Location,
		Country:      device.Incident.Country,
		State:        device.Incident.State,
		Date:         device.Incident.Date,
		ContactPhone: device.Incident.ContactPhone,
		Description:  device.Incident.Description,
	}
	if device.Incident.PhotoKey != "" {
		url, err := s.storage.PresignedGetURL(ctx, device.Incident.PhotoKey)
		if err == nil {
			incident.PhotoURL = url
		}
	}
	result.Incident = incident
	return result, nil
}

func validateReport(in *ReportInput, now time.Time) error {
	in.Location = strings.TrimSpace(in.Location)
	switch {
	case in.Location == "":
		return fmt.Errorf("%w: incident location is required", common.ErrorValidation)
	case in.Date.IsZero():
		return fmt.Errorf("%w: incident date is required", common.ErrorValidation)
	case in.Date.After(now):
		return fmt.Errorf("%w: incident date cannot be in the future", common.ErrorValidation)
	}
	return nil
}

// Report marks an owned device stolen or missing and attaches the incident.
func (s *DeviceService) Report(ctx context.Context, userID, deviceID string, status models.DeviceStatus, in ReportInput) (*models.Device, error) {
	if status != models.DeviceStatusStolen && status != models.DeviceStatusMissing {
		return nil, fmt.Errorf("%w: report status must be stolen or missing", common.ErrorValidation)
	}
	if err := validateReport(&in, s.now()); err != nil {
		return nil, err
	}

	device, err := s.rm.Devices(s.db).GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.OwnerID != userID {
		return nil, common.ErrorForbidden
	}

	device.Status = status
	device.Incident = &models.Incident{
		Location:     in.Location,
		Country:      in.Country,
		State:        in.State,
		Date:         in.Date,
		ContactPhone: in.ContactPhone,
		Description:  in.Description,
		PhotoKey:     in.PhotoKey,
	}
	if err := s.rm.Devices(s.db).UpdateStatus(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// SetStatus moves a device to active or inactive, clearing any incident.
// Stolen and missing are set through Report, which requires the incident
// details.
func (s *DeviceService) SetStatus(ctx context.Context, userID string, isAdmin bool, deviceID string, status models.DeviceStatus) (*models.Device, error) {
	if status != models.DeviceStatusActive && status != models.DeviceStatusInactive {
		return nil, fmt.Errorf("%w: status must be active or inactive", common.ErrorValidation)
	}

	device, err := s.rm.Devices(s.db).GetByID(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.OwnerID != userID && !isAdmin {
		return nil, common.ErrorForbidden
	}

	device.Status = status
	device.Incident = nil
	if err := s.rm.Devices(s.db).UpdateStatus(ctx, device); err != nil {
		return nil, err
	}
	return device, nil
}

// PhotoUploadURL hands out a presigned PUT URL for an incident photo. The
// returned key is what the subsequent report should carry.
func (s *DeviceService) PhotoUploadURL(ctx context.Context) (string, string, error) {
	return s.storage.PresignedPutURL(ctx)
}
