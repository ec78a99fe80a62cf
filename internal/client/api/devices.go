package api

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/guardget/guardget/internal/client/models"
)

// RegisterDeviceRequest is the payload for adding a device. At least one of
// the identifiers must be present.
type RegisterDeviceRequest struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	IMEI1        string `json:"imei1"`
	IMEI2        string `json:"imei2"`
	SerialNumber string `json:"serialNumber"`
}

// DeviceStatusRequest updates a device's status. The incident fields only
// matter when the status is stolen or missing.
type DeviceStatusRequest struct {
	Status       string    `json:"status"`
	Location     string    `json:"location"`
	Country      string    `json:"country"`
	State        string    `json:"state"`
	Date         time.Time `json:"date"`
	ContactPhone string    `json:"contactPhone"`
	Description  string    `json:"description"`
	PhotoKey     string    `json:"photoKey"`
}

// CheckDevice looks an identifier up anonymously. The backend answers even
// for unknown identifiers; Found distinguishes the cases.
func (c *Client) CheckDevice(ctx context.Context, identifier string) (*models.CheckResult, error) {
	query := url.Values{"identifier": []string{identifier}}
	var result models.CheckResult
	if err := c.do(ctx, http.MethodGet, "/users/devices/check", query, nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RegisterDevice adds a device to the logged-in account.
func (c *Client) RegisterDevice(ctx context.Context, req RegisterDeviceRequest) (*models.Device, error) {
	var device models.Device
	if err := c.do(ctx, http.MethodPost, "/devices/", nil, req, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// ListDevices returns the account's devices.
func (c *Client) ListDevices(ctx context.Context) ([]models.Device, error) {
	var devices []models.Device
	if err := c.do(ctx, http.MethodGet, "/devices/", nil, nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// GetDevice returns one device by id.
func (c *Client) GetDevice(ctx context.Context, deviceID string) (*models.Device, error) {
	var device models.Device
	if err := c.do(ctx, http.MethodGet, "/devices/"+deviceID, nil, nil, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// SetDeviceStatus reports a device stolen/missing or marks it recovered.
func (c *Client) SetDeviceStatus(ctx context.Context, deviceID string, req DeviceStatusRequest) (*models.Device, error) {
	var device models.Device
	if err := c.do(ctx, http.MethodPut, "/users/devices/"+deviceID+"/status", nil, req, &device); err != nil {
		return nil, err
	}
	return &device, nil
}

// PhotoUploadURL asks the backend for a presigned upload slot for an
// incident photo. The returned key goes into the status report.
func (c *Client) PhotoUploadURL(ctx context.Context) (key, uploadURL string, err error) {
	var resp struct {
		Key       string `json:"key"`
		UploadURL string `json:"uploadUrl"`
	}
	if err := c.do(ctx, http.MethodPost, "/devices/photo-upload-url", nil, nil, &resp); err != nil {
		return "", "", err
	}
	return resp.Key, resp.UploadURL, nil
}
