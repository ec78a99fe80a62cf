package services

import (
	"context"
	"fmt"

	"github.com/guardget/guardget/internal/client/api"
	"github.com/guardget/guardget/internal/client/models"
)

type fakeCheckAPI struct {
	calls  int
	result *models.CheckResult
	err    error
}

func (f *fakeCheckAPI) CheckDevice(_ context.Context, identifier string) (*models.CheckResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeDeviceAPI struct {
	devices    []models.Device
	listErr    error
	listCalls  int
	registered []api.RegisterDeviceRequest
	statusReqs map[string]api.DeviceStatusRequest
	photoKey   string
	photoURL   string
}

func (f *fakeDeviceAPI) ListDevices(_ context.Context) ([]models.Device, error) {
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.devices, nil
}

func (f *fakeDeviceAPI) RegisterDevice(_ context.Context, req api.RegisterDeviceRequest) (*models.Device, error) {
	f.registered = append(f.registered, req)
	return &models.Device{ID: fmt.Sprintf("d%d", len(f.registered)), Name: req.Name, Status: "active"}, nil
}

func (f *fakeDeviceAPI) SetDeviceStatus(_ context.Context, deviceID string, req api.DeviceStatusRequest) (*models.Device, error) {
	if f.statusReqs == nil {
		f.statusReqs = make(map[string]api.DeviceStatusRequest)
	}
	f.statusReqs[deviceID] = req
	return &models.Device{ID: deviceID, Status: req.Status}, nil
}

func (f *fakeDeviceAPI) PhotoUploadURL(_ context.Context) (string, string, error) {
	return f.photoKey, f.photoURL, nil
}

type fakeTransferAPI struct {
	initiated []api.InitiateTransferRequest
	accepted  []string
	cancelled []string
}

func (f *fakeTransferAPI) InitiateTransfer(_ context.Context, req api.InitiateTransferRequest) (*models.Transfer, error) {
	f.initiated = append(f.initiated, req)
	return &models.Transfer{ID: "t1", DeviceID: req.DeviceID, Status: "pending"}, nil
}

func (f *fakeTransferAPI) AcceptTransfer(_ context.Context, transferID string) (*models.Transfer, error) {
	f.accepted = append(f.accepted, transferID)
	return &models.Transfer{ID: transferID, Status: "accepted"}, nil
}

func (f *fakeTransferAPI) GetTransfer(_ context.Context, transferID string) (*models.Transfer, error) {
	return &models.Transfer{ID: transferID, Status: "pending"}, nil
}

func (f *fakeTransferAPI) CancelTransfer(_ context.Context, transferID string) error {
	f.cancelled = append(f.cancelled, transferID)
	return nil
}

type fakePaymentAPI struct {
	checkout    *models.Checkout
	outcome     *api.PaymentOutcome
	verifyErr   error
	verifyCalls int
}

func (f *fakePaymentAPI) InitiatePayment(_ context.Context, planID string, months int) (*models.Checkout, error) {
	return f.checkout, nil
}

func (f *fakePaymentAPI) VerifyPayment(_ context.Context, reference string) (*api.PaymentOutcome, error) {
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.outcome, nil
}
