package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/guardget/guardget/internal/common"
	"github.com/guardget/guardget/internal/logging"
	"github.com/guardget/guardget/internal/server/auth"
	sc "github.com/guardget/guardget/internal/server/config"
	"github.com/guardget/guardget/internal/server/models"
	"github.com/guardget/guardget/internal/server/services"
)

func testLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewJSONHandler(io.Discard, nil)))
}

// Fake services returning canned values. Handlers only route, decode and
// encode; behavior lives in the services package and is tested there.

type fakeUserSvc struct {
	registerOut *models.User
	registerErr error
	loginOut    *services.TokenPair
	loginErr    error
	profile     *services.Profile
}

func (f *fakeUserSvc) Register(context.Context, services.RegisterInput) (*models.User, error) {
	return f.registerOut, f.registerErr
}
func (f *fakeUserSvc) VerifyOTP(context.Context, string, string) (*services.TokenPair, error) {
	return f.loginOut, f.loginErr
}
func (f *fakeUserSvc) ResendOTP(context.Context, string) error { return nil }
func (f *fakeUserSvc) Login(context.Context, string, string) (*services.TokenPair, error) {
	return f.loginOut, f.loginErr
}
func (f *fakeUserSvc) Refresh(context.Context, string) (*services.TokenPair, error) {
	return f.loginOut, f.loginErr
}
func (f *fakeUserSvc) Logout(context.Context, string) error         { return nil }
func (f *fakeUserSvc) ForgotPassword(context.Context, string) error { return nil }
func (f *fakeUserSvc) ResetPassword(context.Context, string, string, string) error {
	return nil
}
func (f *fakeUserSvc) UpdateKeyholders(context.Context, string, []string) error { return nil }
func (f *fakeUserSvc) GetMe(context.Context, string) (*services.Profile, error) {
	return f.profile, nil
}

type fakeDeviceSvc struct {
	checkOut  *services.CheckResult
	checkErr  error
	device    *models.Device
	deviceErr error

	lastReportStatus models.DeviceStatus
	lastSetStatus    models.DeviceStatus
}

func (f *fakeDeviceSvc) Register(context.Context, string, services.RegisterDeviceInput) (*models.Device, error) {
	return f.device, f.deviceErr
}
func (f *fakeDeviceSvc) List(context.Context, string) ([]*models.Device, error) {
	return []*models.Device{f.device}, nil
}
func (f *fakeDeviceSvc) Get(context.Context, string, bool, string) (*models.Device, error) {
	return f.device, f.deviceErr
}
func (f *fakeDeviceSvc) Check(context.Context, string) (*services.CheckResult, error) {
	return f.checkOut, f.checkErr
}
func (f *fakeDeviceSvc) Report(_ context.Context, _, _ string, status models.DeviceStatus, _ services.ReportInput) (*models.Device, error) {
	f.lastReportStatus = status
	return f.device, f.deviceErr
}
func (f *fakeDeviceSvc) SetStatus(_ context.Context, _ string, _ bool, _ string, status models.DeviceStatus) (*models.Device, error) {
	f.lastSetStatus = status
	return f.device, f.deviceErr
}
func (f *fakeDeviceSvc) PhotoUploadURL(context.Context) (string, string, error) {
	return "photos/k", "http://s3/put", nil
}

type fakeTransferSvc struct {
	transfer *models.Transfer
	err      error
}

func (f *fakeTransferSvc) Initiate(context.Context, string, string, string, string) (*models.Transfer, error) {
	return f.transfer, f.err
}
func (f *fakeTransferSvc) Accept(context.Context, string, string) (*models.Transfer, error) {
	return f.transfer, f.err
}
func (f *fakeTransferSvc) Cancel(context.Context, string, string) error { return f.err }
func (f *fakeTransferSvc) Get(context.Context, string, bool, string) (*models.Transfer, error) {
	return f.transfer, f.err
}

type fakeSubscriptionSvc struct {
	plans    []*models.Plan
	checkout *services.Checkout
	outcome  *services.PaymentOutcome
	err      error
}

func (f *fakeSubscriptionSvc) Plans(context.Context) ([]*models.Plan, error) {
	return f.plans, f.err
}
func (f *fakeSubscriptionSvc) Current(context.Context, string) (*models.Subscription, *models.Plan, error) {
	return nil, nil, common.ErrorNotFound
}
func (f *fakeSubscriptionSvc) InitiatePayment(context.Context, string, string, int) (*services.Checkout, error) {
	return f.checkout, f.err
}
func (f *fakeSubscriptionSvc) VerifyPayment(context.Context, string, string) (*services.PaymentOutcome, error) {
	return f.outcome, f.err
}
func (f *fakeSubscriptionSvc) CancelAutoRenew(context.Context, string) error { return f.err }

type fakeReceiptSvc struct {
	receipts []*models.Receipt
	body     string
	err      error
}

func (f *fakeReceiptSvc) ListByUser(context.Context, string) ([]*models.Receipt, error) {
	return f.receipts, f.err
}
func (f *fakeReceiptSvc) Get(context.Context, string, bool, string) (*models.Receipt, error) {
	if len(f.receipts) == 0 {
		return nil, common.ErrorNotFound
	}
	return f.receipts[0], f.err
}
func (f *fakeReceiptSvc) Download(context.Context, string, bool, string) (io.ReadCloser, error) {
	if f.err != nil {
		return nil, f.err
	}
	return io.NopCloser(strings.NewReader(f.body)), nil
}

type fakeAdminSvc struct {
	users   []*models.User
	details *services.UserDetails
	lastQ   string
}

func (f *fakeAdminSvc) ListUsers(_ context.Context, q string) ([]*models.User, error) {
	f.lastQ = q
	return f.users, nil
}
func (f *fakeAdminSvc) GetUser(context.Context, string) (*models.User, error) {
	if len(f.users) == 0 {
		return nil, common.ErrorNotFound
	}
	return f.users[0], nil
}
func (f *fakeAdminSvc) UserDetails(context.Context, string) (*services.UserDetails, error) {
	if f.details == nil {
		return nil, common.ErrorNotFound
	}
	return f.details, nil
}
func (f *fakeAdminSvc) UserDevices(context.Context, string) ([]*models.Device, error) {
	return nil, nil
}
func (f *fakeAdminSvc) UserReceipts(context.Context, string) ([]*models.Receipt, error) {
	return nil, nil
}
func (f *fakeAdminSvc) ListDevices(context.Context) ([]*models.Device, error)   { return nil, nil }
func (f *fakeAdminSvc) ListReceipts(context.Context) ([]*models.Receipt, error) { return nil, nil }
func (f *fakeAdminSvc) ListSubscriptions(context.Context) ([]*models.Subscription, error) {
	return nil, nil
}

type serverFakes struct {
	users         *fakeUserSvc
	devices       *fakeDeviceSvc
	transfers     *fakeTransferSvc
	subscriptions *fakeSubscriptionSvc
	receipts      *fakeReceiptSvc
	admin         *fakeAdminSvc
}

func newTestServer(t *testing.T) (*httptest.Server, *serverFakes, *sc.Config) {
	t.Helper()
	cfg := &sc.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		CheckRatePerSecond:          100,
		CheckRateBurst:              100,
	}
	fakes := &serverFakes{
		users:         &fakeUserSvc{},
		devices:       &fakeDeviceSvc{},
		transfers:     &fakeTransferSvc{},
		subscriptions: &fakeSubscriptionSvc{},
		receipts:      &fakeReceiptSvc{},
		admin:         &fakeAdminSvc{},
	}
	srv := NewServer(cfg, testLogger(), fakes.users, fakes.devices, fakes.transfers,
		fakes.subscriptions, fakes.receipts, fakes.admin)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return ts, fakes, cfg
}

func tokenFor(t *testing.T, cfg *sc.Config, userID string, role models.Role) string {
	t.Helper()
	token, err := auth.GenerateToken(userID, role, []byte(cfg.SecretKey), cfg.AccessTokenValidityDuration)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return token
}

func doJSON(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("NewRequest error: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestHealth(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/health", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestMetricsExposed(t *testing.T) {
	ts, _, _ := newTestServer(t)

	resp := doJSON(t, http.MethodGet, ts.URL+"/metrics", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}

func TestCheckDevice_Anonymous(t *testing.T) {
	ts, fakes, _ := newTestServer(t)
	fakes.devices.checkOut = &services.CheckResult{Found: false}

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/devices/check?identifier=123", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("anonymous check must not require auth, got %d", resp.StatusCode)
	}

	var out checkResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if out.Found {
		t.Error("expected not found")
	}
}

func TestCheckDevice_ValidationMapsTo400(t *testing.T) {
	ts, fakes, _ := newTestServer(t)
	fakes.devices.checkErr = fmt.Errorf("%w: identifier is required", common.ErrorValidation)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/devices/check?identifier=", "", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}

	var out map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if !strings.Contains(out["message"], "identifier is required") {
		t.Errorf("error body must carry the message: %v", out)
	}
}

func TestCheckDevice_RateLimited(t *testing.T) {
	cfg := &sc.Config{
		SecretKey:                   "k",
		AccessTokenValidityDuration: time.Hour,
		CheckRatePerSecond:          1,
		CheckRateBurst:              2,
	}
	devices := &fakeDeviceSvc{checkOut: &services.CheckResult{Found: false}}
	srv := NewServer(cfg, testLogger(), &fakeUserSvc{}, devices, &fakeTransferSvc{},
		&fakeSubscriptionSvc{}, &fakeReceiptSvc{}, &fakeAdminSvc{})
	ts := httptest.NewServer(srv.Router())
	defer ts.Close()

	var last int
	for i := 0; i < 3; i++ {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/devices/check?identifier=1", "", nil)
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after exhausting the burst, got %d", last)
	}
}

func TestAuthMiddleware(t *testing.T) {
	ts, fakes, cfg := newTestServer(t)
	fakes.devices.device = &models.Device{ID: "d1", Name: "Pixel", Type: models.DeviceTypePhone, Status: models.DeviceStatusActive}

	t.Run("missing token", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/devices/", "", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/devices/", "not-a-jwt", nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		token := tokenFor(t, cfg, "u1", models.RoleUser)
		resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/devices/", token, nil)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected 200, got %d", resp.StatusCode)
		}
	})
}

func TestAdminRoutes_RequireAdminRole(t *testing.T) {
	ts, _, cfg := newTestServer(t)

	userToken := tokenFor(t, cfg, "u1", models.RoleUser)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/users", userToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for role user, got %d", resp.StatusCode)
	}

	adminToken := tokenFor(t, cfg, "a1", models.RoleAdmin)
	resp = doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/users", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for role admin, got %d", resp.StatusCode)
	}
}

func TestAdminUserSearch(t *testing.T) {
	ts, fakes, cfg := newTestServer(t)
	fakes.admin.users = []*models.User{{ID: "u1", UserName: "ada", Email: "ada@example.com"}}

	adminToken := tokenFor(t, cfg, "a1", models.RoleAdmin)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/users/search?q=ada", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if fakes.admin.lastQ != "ada" {
		t.Errorf("search term = %q", fakes.admin.lastQ)
	}

	var out []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(out) != 1 || out[0]["username"] != "ada" {
		t.Errorf("body = %v", out)
	}
}

func TestAdminUserDetails(t *testing.T) {
	ts, fakes, cfg := newTestServer(t)
	fakes.admin.details = &services.UserDetails{
		User:         &models.User{ID: "u1", UserName: "ada", Email: "ada@example.com"},
		Subscription: &models.Subscription{ID: "sub-1", PlanID: "plan-1"},
		Plan:         &models.Plan{ID: "plan-1", Name: "Standard", DeviceLimit: 3},
		DeviceCount:  2,
		ReceiptCount: 4,
	}

	adminToken := tokenFor(t, cfg, "a1", models.RoleAdmin)
	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/admin/users/u1/details", adminToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out struct {
		User struct {
			UserName string `json:"username"`
		} `json:"user"`
		Subscription *struct {
			PlanID string `json:"planId"`
		} `json:"subscription"`
		Plan *struct {
			ID string `json:"id"`
		} `json:"plan"`
		DeviceCount  int `json:"deviceCount"`
		ReceiptCount int `json:"receiptCount"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if out.User.UserName != "ada" {
		t.Errorf("username = %q", out.User.UserName)
	}
	if out.Subscription == nil || out.Subscription.PlanID != "plan-1" {
		t.Errorf("subscription = %+v", out.Subscription)
	}
	if out.Plan == nil || out.Plan.ID != "plan-1" {
		t.Errorf("plan = %+v", out.Plan)
	}
	if out.DeviceCount != 2 || out.ReceiptCount != 4 {
		t.Errorf("counts = %d devices, %d receipts", out.DeviceCount, out.ReceiptCount)
	}
}

func TestRegister_Statuses(t *testing.T) {
	ts, fakes, _ := newTestServer(t)

	t.Run("created", func(t *testing.T) {
		fakes.users.registerOut = &models.User{ID: "u1", UserName: "ada", Email: "ada@example.com", Role: models.RoleUser}
		fakes.users.registerErr = nil
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/auth/register", "",
			map[string]string{"username": "ada"})
		if resp.StatusCode != http.StatusCreated {
			t.Errorf("expected 201, got %d", resp.StatusCode)
		}
	})

	t.Run("duplicate maps to 409", func(t *testing.T) {
		fakes.users.registerErr = common.ErrorAlreadyExists
		resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/auth/register", "",
			map[string]string{"username": "ada"})
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("expected 409, got %d", resp.StatusCode)
		}
	})
}

func TestLogin_UnauthorizedMapsTo401(t *testing.T) {
	ts, fakes, _ := newTestServer(t)
	fakes.users.loginErr = common.ErrorUnauthorized

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/login", "",
		map[string]string{"username": "ada", "password": "bad"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", resp.StatusCode)
	}
}

func TestDeviceStatus_RoutesReportsAndRecovery(t *testing.T) {
	ts, fakes, cfg := newTestServer(t)
	fakes.devices.device = &models.Device{ID: "d1", Name: "Pixel", Type: models.DeviceTypePhone, Status: models.DeviceStatusStolen}
	token := tokenFor(t, cfg, "u1", models.RoleUser)

	resp := doJSON(t, http.MethodPut, ts.URL+"/api/v1/users/devices/d1/status", token, map[string]any{
		"status": "stolen", "location": "Lagos", "date": time.Now().Add(-time.Hour),
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if fakes.devices.lastReportStatus != models.DeviceStatusStolen {
		t.Errorf("stolen must dispatch to Report, got %q", fakes.devices.lastReportStatus)
	}

	resp = doJSON(t, http.MethodPut, ts.URL+"/api/v1/users/devices/d1/status", token, map[string]any{
		"status": "active",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if fakes.devices.lastSetStatus != models.DeviceStatusActive {
		t.Errorf("active must dispatch to SetStatus, got %q", fakes.devices.lastSetStatus)
	}
}

func TestVerifyPayment_RequiresReference(t *testing.T) {
	ts, _, cfg := newTestServer(t)
	token := tokenFor(t, cfg, "u1", models.RoleUser)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/subscriptions/verify-payment", token, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 without a reference, got %d", resp.StatusCode)
	}
}

func TestDownloadReceipt_StreamsPDF(t *testing.T) {
	ts, fakes, cfg := newTestServer(t)
	fakes.receipts.receipts = []*models.Receipt{{ID: "r1", UserID: "u1", DocumentKey: "receipts/r1.pdf"}}
	fakes.receipts.body = "%PDF-1.7 data"
	token := tokenFor(t, cfg, "u1", models.RoleUser)

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/users/receipts/r1/download", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("expected application/pdf, got %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "%PDF-1.7 data" {
		t.Errorf("unexpected body: %q", body)
	}
}

func TestPlans_EmitLegacyDeviceCountFields(t *testing.T) {
	ts, fakes, _ := newTestServer(t)
	fakes.subscriptions.plans = []*models.Plan{{ID: "p1", Name: "Basic", DeviceLimit: 3, Price: 50000}}

	resp := doJSON(t, http.MethodGet, ts.URL+"/api/v1/subscriptions/plans", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var out []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected one plan, got %d", len(out))
	}
	if out[0]["NoOfDevices"] != float64(3) || out[0]["NoOfDecives"] != float64(3) {
		t.Errorf("legacy device-count fields missing: %v", out[0])
	}
}

func TestTransferExpired_MapsTo410(t *testing.T) {
	ts, fakes, cfg := newTestServer(t)
	fakes.transfers.err = common.ErrorTransferExpired
	token := tokenFor(t, cfg, "u1", models.RoleUser)

	resp := doJSON(t, http.MethodPost, ts.URL+"/api/v1/users/devices/transfer/t1/accept", token, nil)
	if resp.StatusCode != http.StatusGone {
		t.Errorf("expected 410, got %d", resp.StatusCode)
	}
}
