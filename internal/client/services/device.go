package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/guardget/guardget/internal/client/api"
	"github.com/guardget/guardget/internal/client/cache"
	"github.com/guardget/guardget/internal/client/models"
	"github.com/guardget/guardget/internal/netx"
)

// uploadToPresignedURL is an indirection for netx.UploadToPresignedURL so
// tests can intercept the photo upload.
var uploadToPresignedURL = netx.UploadToPresignedURL

type deviceAPI interface {
	ListDevices(ctx context.Context) ([]models.Device, error)
	RegisterDevice(ctx context.Context, req api.RegisterDeviceRequest) (*models.Device, error)
	SetDeviceStatus(ctx context.Context, deviceID string, req api.DeviceStatusRequest) (*models.Device, error)
	PhotoUploadURL(ctx context.Context) (key, uploadURL string, err error)
}

// DeviceList is the outcome of a device listing. Stale is set when the rows
// came from the local cache because the backend was unreachable; FetchedAt
// then says how old they are.
type DeviceList struct {
	Devices   []models.Device
	Stale     bool
	FetchedAt time.Time
}

// ReportInput describes a stolen/missing report.
type ReportInput struct {
	Status       string
	Location     string
	Country      string
	State        string
	Date         time.Time
	ContactPhone string
	Description  string
	PhotoKey     string
}

// DeviceService manages the user's devices, keeping the local SQLite cache
// in step with the backend. The cache may be nil; listing then has no
// offline fallback.
type DeviceService struct {
	api   deviceAPI
	cache *cache.DeviceCache
	now   func() time.Time
}

func NewDeviceService(a deviceAPI, c *cache.DeviceCache) *DeviceService {
	return &DeviceService{api: a, cache: c, now: time.Now}
}

// List fetches the device list from the backend. On success the cache is
// replaced with the fresh snapshot. When the backend is unreachable the
// cached snapshot is served instead, marked stale.
func (s *DeviceService) List(ctx context.Context) (*DeviceList, error) {
	devices, err := s.api.ListDevices(ctx)
	if err == nil {
		if s.cache != nil {
			// Caching is best effort; a cache write failure must not hide
			// a successful fetch.
			_ = s.cache.Replace(ctx, devices, s.now())
		}
		return &DeviceList{Devices: devices}, nil
	}

	if !errors.Is(err, api.ErrUnavailable) || s.cache == nil {
		return nil, err
	}

	cached, fetchedAt, cacheErr := s.cache.Devices(ctx)
	if cacheErr != nil {
		return nil, err
	}
	return &DeviceList{Devices: cached, Stale: true, FetchedAt: fetchedAt}, nil
}

// Register validates the input locally and adds the device.
func (s *DeviceService) Register(ctx context.Context, req api.RegisterDeviceRequest) (*models.Device, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(req.IMEI1) == "" && strings.TrimSpace(req.IMEI2) == "" && strings.TrimSpace(req.SerialNumber) == "" {
		return nil, ErrIdentifierRequired
	}
	return s.api.RegisterDevice(ctx, req)
}

// Report marks a device stolen or missing. Location and a non-future date
// are required before anything goes over the wire.
func (s *DeviceService) Report(ctx context.Context, deviceID string, input ReportInput) (*models.Device, error) {
	if strings.TrimSpace(input.Location) == "" {
		return nil, ErrLocationRequired
	}
	if input.Date.IsZero() {
		return nil, ErrDateRequired
	}
	if input.Date.After(s.now()) {
		return nil, ErrDateInFuture
	}

	return s.api.SetDeviceStatus(ctx, deviceID, api.DeviceStatusRequest{
		Status:       input.Status,
		Location:     input.Location,
		Country:      input.Country,
		State:        input.State,
		Date:         input.Date,
		ContactPhone: input.ContactPhone,
		Description:  input.Description,
		PhotoKey:     input.PhotoKey,
	})
}

// SetStatus marks a device active (recovered) or inactive.
func (s *DeviceService) SetStatus(ctx context.Context, deviceID, status string) (*models.Device, error) {
	return s.api.SetDeviceStatus(ctx, deviceID, api.DeviceStatusRequest{Status: status})
}

// UploadPhoto pushes an incident photo to object storage through a presigned
// URL and returns the key to reference in the report.
func (s *DeviceService) UploadPhoto(ctx context.Context, contentType string, data []byte) (string, error) {
	key, uploadURL, err := s.api.PhotoUploadURL(ctx)
	if err != nil {
		return "", err
	}
	if err := uploadToPresignedURL(ctx, uploadURL, contentType, data); err != nil {
		return "", err
	}
	return key, nil
}
