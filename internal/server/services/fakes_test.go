package services

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/guardget/guardget/internal/common"
	"github.com/guardget/guardget/internal/dbx"
	"github.com/guardget/guardget/internal/server/models"
	"github.com/guardget/guardget/internal/server/payments"
	devicesrepo "github.com/guardget/guardget/internal/server/repositories/devices"
	plansrepo "github.com/guardget/guardget/internal/server/repositories/plans"
	receiptsrepo "github.com/guardget/guardget/internal/server/repositories/receipts"
	refreshtokensrepo "github.com/guardget/guardget/internal/server/repositories/refreshtokens"
	subscriptionsrepo "github.com/guardget/guardget/internal/server/repositories/subscriptions"
	transfersrepo "github.com/guardget/guardget/internal/server/repositories/transfers"
	usersrepo "github.com/guardget/guardget/internal/server/repositories/users"
)

// In-memory repository fakes shared by the service tests. They emulate the
// behavior the services rely on (sentinel errors, the one-pending-transfer
// rule) without a database.

func newSQLMockDB(t interface {
	Helper()
	Fatalf(string, ...any)
}) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

type fakeUsersRepo struct {
	mu     sync.Mutex
	users  map[string]*models.User
	nextID int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}}
}

func (f *fakeUsersRepo) Create(_ context.Context, u *models.User) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.users {
		if existing.Email == u.Email || existing.UserName == u.UserName {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.nextID++
	cp := *u
	cp.ID = fmt.Sprintf("user-%d", f.nextID)
	f.users[cp.ID] = &cp
	return &cp, nil
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email == email })
}

func (f *fakeUsersRepo) GetByUserName(_ context.Context, userName string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.UserName == userName })
}

func (f *fakeUsersRepo) GetByContact(_ context.Context, email, phone string) (*models.User, error) {
	return f.find(func(u *models.User) bool {
		return (email != "" && u.Email == email) || (phone != "" && u.Phone == phone)
	})
}

func (f *fakeUsersRepo) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) SetEmailVerified(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.EmailVerified = true
	return nil
}

func (f *fakeUsersRepo) UpdatePasswordHash(_ context.Context, id, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (f *fakeUsersRepo) UpdateKeyholders(_ context.Context, id string, keyholders []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Keyholders = keyholders
	return nil
}

func (f *fakeUsersRepo) List(_ context.Context) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	for _, u := range f.users {
		cp := *u
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeUsersRepo) Search(_ context.Context, q string) ([]*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.User
	q = strings.ToLower(q)
	for _, u := range f.users {
		if strings.Contains(strings.ToLower(u.Email), q) || strings.Contains(strings.ToLower(u.UserName), q) {
			cp := *u
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeDevicesRepo struct {
	mu      sync.Mutex
	devices map[string]*models.Device
	nextID  int
}

func newFakeDevicesRepo() *fakeDevicesRepo {
	return &fakeDevicesRepo{devices: map[string]*models.Device{}}
}

func (f *fakeDevicesRepo) Create(_ context.Context, d *models.Device) (*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.devices {
		for _, id := range []string{d.IMEI1, d.IMEI2, d.SerialNumber} {
			if id != "" && (existing.IMEI1 == id || existing.IMEI2 == id || existing.SerialNumber == id) {
				return nil, common.ErrorAlreadyExists
			}
		}
	}
	f.nextID++
	cp := *d
	cp.ID = fmt.Sprintf("device-%d", f.nextID)
	f.devices[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeDevicesRepo) GetByID(_ context.Context, id string) (*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.devices[id]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeDevicesRepo) FindByIdentifier(_ context.Context, identifier string) (*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, d := range f.devices {
		if d.IMEI1 == identifier || d.IMEI2 == identifier || d.SerialNumber == identifier {
			cp := *d
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeDevicesRepo) ListByOwner(_ context.Context, ownerID string) ([]*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Device
	for _, d := range f.devices {
		if d.OwnerID == ownerID {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeDevicesRepo) CountByOwner(ctx context.Context, ownerID string) (int, error) {
	list, _ := f.ListByOwner(ctx, ownerID)
	return len(list), nil
}

func (f *fakeDevicesRepo) UpdateStatus(_ context.Context, device *models.Device) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[device.ID]
	if !ok {
		return common.ErrorNotFound
	}
	d.Status = device.Status
	d.Incident = device.Incident
	return nil
}

func (f *fakeDevicesRepo) UpdateOwner(_ context.Context, deviceID, newOwnerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.devices[deviceID]
	if !ok {
		return common.ErrorNotFound
	}
	d.OwnerID = newOwnerID
	return nil
}

func (f *fakeDevicesRepo) List(_ context.Context) ([]*models.Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Device
	for _, d := range f.devices {
		cp := *d
		out = append(out, &cp)
	}
	return out, nil
}

type fakePlansRepo struct {
	plans []*models.Plan
}

func (f *fakePlansRepo) List(_ context.Context) ([]*models.Plan, error) {
	return f.plans, nil
}

func (f *fakePlansRepo) GetByID(_ context.Context, id string) (*models.Plan, error) {
	for _, p := range f.plans {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, common.ErrorNotFound
}

type fakeSubscriptionsRepo struct {
	mu     sync.Mutex
	subs   []*models.Subscription
	nextID int
}

func (f *fakeSubscriptionsRepo) Create(_ context.Context, sub *models.Subscription) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *sub
	cp.ID = fmt.Sprintf("sub-%d", f.nextID)
	f.subs = append(f.subs, &cp)
	out := cp
	return &out, nil
}

func (f *fakeSubscriptionsRepo) GetActiveByUser(_ context.Context, userID string, now time.Time) (*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var best *models.Subscription
	for _, s := range f.subs {
		if s.UserID == userID && s.ActiveAt(now) {
			if best == nil || s.EndDate.After(best.EndDate) {
				best = s
			}
		}
	}
	if best == nil {
		return nil, common.ErrorNotFound
	}
	cp := *best
	return &cp, nil
}

func (f *fakeSubscriptionsRepo) ClearAutoRenew(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for _, s := range f.subs {
		if s.UserID == userID {
			s.AutoRenew = false
			found = true
		}
	}
	if !found {
		return common.ErrorNotFound
	}
	return nil
}

func (f *fakeSubscriptionsRepo) List(_ context.Context) ([]*models.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Subscription, len(f.subs))
	copy(out, f.subs)
	return out, nil
}

type fakeReceiptsRepo struct {
	mu       sync.Mutex
	receipts map[string]*models.Receipt
	nextID   int
}

func newFakeReceiptsRepo() *fakeReceiptsRepo {
	return &fakeReceiptsRepo{receipts: map[string]*models.Receipt{}}
}

func (f *fakeReceiptsRepo) Create(_ context.Context, receipt *models.Receipt) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.receipts {
		if r.Reference == receipt.Reference {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.nextID++
	cp := *receipt
	cp.ID = fmt.Sprintf("receipt-%d", f.nextID)
	f.receipts[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeReceiptsRepo) GetByID(_ context.Context, id string) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r, ok := f.receipts[id]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeReceiptsRepo) GetByReference(_ context.Context, reference string) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.receipts {
		if r.Reference == reference {
			cp := *r
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeReceiptsRepo) ListByUser(_ context.Context, userID string) ([]*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Receipt
	for _, r := range f.receipts {
		if r.UserID == userID {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeReceiptsRepo) List(_ context.Context) ([]*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.Receipt
	for _, r := range f.receipts {
		cp := *r
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeReceiptsRepo) UpdateStatus(_ context.Context, id string, status models.ReceiptStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[id]
	if !ok {
		return common.ErrorNotFound
	}
	r.Status = status
	return nil
}

func (f *fakeReceiptsRepo) SetDocumentKey(_ context.Context, id, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.receipts[id]
	if !ok {
		return common.ErrorNotFound
	}
	r.DocumentKey = key
	return nil
}

type fakeTransfersRepo struct {
	mu        sync.Mutex
	transfers map[string]*models.Transfer
	nextID    int
}

func newFakeTransfersRepo() *fakeTransfersRepo {
	return &fakeTransfersRepo{transfers: map[string]*models.Transfer{}}
}

func (f *fakeTransfersRepo) Create(_ context.Context, transfer *models.Transfer) (*models.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tr := range f.transfers {
		if tr.DeviceID == transfer.DeviceID && tr.Status == models.TransferStatusPending {
			return nil, common.ErrorTransferPending
		}
	}
	f.nextID++
	cp := *transfer
	cp.ID = fmt.Sprintf("transfer-%d", f.nextID)
	cp.CreatedAt = time.Now()
	f.transfers[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (f *fakeTransfersRepo) GetByID(_ context.Context, id string) (*models.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if tr, ok := f.transfers[id]; ok {
		cp := *tr
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTransfersRepo) GetPendingByDevice(_ context.Context, deviceID string) (*models.Transfer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, tr := range f.transfers {
		if tr.DeviceID == deviceID && tr.Status == models.TransferStatusPending {
			cp := *tr
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTransfersRepo) MarkAccepted(_ context.Context, id, acceptedBy string, acceptedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tr, ok := f.transfers[id]
	if !ok || tr.Status != models.TransferStatusPending {
		return common.ErrorNotFound
	}
	tr.Status = models.TransferStatusAccepted
	tr.AcceptedBy = acceptedBy
	tr.AcceptedAt = &acceptedAt
	return nil
}

func (f *fakeTransfersRepo) UpdateStatus(_ context.Context, id string, status models.TransferStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tr, ok := f.transfers[id]
	if !ok {
		return common.ErrorNotFound
	}
	tr.Status = status
	return nil
}

type fakeRefreshTokensRepo struct {
	mu     sync.Mutex
	tokens map[string]*models.RefreshToken
	nextID int
}

func newFakeRefreshTokensRepo() *fakeRefreshTokensRepo {
	return &fakeRefreshTokensRepo{tokens: map[string]*models.RefreshToken{}}
}

func (f *fakeRefreshTokensRepo) Create(_ context.Context, userID, tokenHash string, expiresAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.tokens[tokenHash] = &models.RefreshToken{
		ID:        fmt.Sprintf("rt-%d", f.nextID),
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	return nil
}

func (f *fakeRefreshTokensRepo) GetByHash(_ context.Context, tokenHash string) (*models.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if rt, ok := f.tokens[tokenHash]; ok {
		cp := *rt
		return &cp, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeRefreshTokensRepo) Revoke(_ context.Context, tokenHash string, revokedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rt, ok := f.tokens[tokenHash]
	if !ok {
		return common.ErrorNotFound
	}
	rt.RevokedAt = &revokedAt
	return nil
}

// fakeRepoManager hands out the same fake repositories regardless of the
// database handle, so code running inside dbx.WithTx sees shared state.
type fakeRepoManager struct {
	users         *fakeUsersRepo
	devices       *fakeDevicesRepo
	plans         *fakePlansRepo
	subscriptions *fakeSubscriptionsRepo
	receipts      *fakeReceiptsRepo
	transfers     *fakeTransfersRepo
	refreshTokens *fakeRefreshTokensRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:         newFakeUsersRepo(),
		devices:       newFakeDevicesRepo(),
		plans:         &fakePlansRepo{},
		subscriptions: &fakeSubscriptionsRepo{},
		receipts:      newFakeReceiptsRepo(),
		transfers:     newFakeTransfersRepo(),
		refreshTokens: newFakeRefreshTokensRepo(),
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) usersrepo.Repository          { return m.users }
func (m *fakeRepoManager) Devices(dbx.DBTX) devicesrepo.Repository      { return m.devices }
func (m *fakeRepoManager) Plans(dbx.DBTX) plansrepo.Repository          { return m.plans }
func (m *fakeRepoManager) Subscriptions(dbx.DBTX) subscriptionsrepo.Repository {
	return m.subscriptions
}
func (m *fakeRepoManager) Receipts(dbx.DBTX) receiptsrepo.Repository { return m.receipts }
func (m *fakeRepoManager) Transfers(dbx.DBTX) transfersrepo.Repository {
	return m.transfers
}
func (m *fakeRepoManager) RefreshTokens(dbx.DBTX) refreshtokensrepo.Repository {
	return m.refreshTokens
}

type fakeStorage struct {
	putKey   string
	putURL   string
	getURL   string
	content  string
	fetchErr error
}

func (f *fakeStorage) PresignedPutURL(context.Context) (string, string, error) {
	return f.putKey, f.putURL, nil
}

func (f *fakeStorage) PresignedGetURL(_ context.Context, key string) (string, error) {
	return f.getURL + key, nil
}

func (f *fakeStorage) Fetch(context.Context, string) (io.ReadCloser, error) {
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return io.NopCloser(strings.NewReader(f.content)), nil
}

type fakeNotifier struct {
	mu           sync.Mutex
	destinations []string
	messages     []string
}

func (f *fakeNotifier) Send(_ context.Context, destination, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.destinations = append(f.destinations, destination)
	f.messages = append(f.messages, message)
	return nil
}

func (f *fakeNotifier) lastCode() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.messages) == 0 {
		return ""
	}
	msg := f.messages[len(f.messages)-1]
	fields := strings.Fields(msg)
	return fields[len(fields)-1]
}

type fakeProvider struct {
	mu          sync.Mutex
	checkoutURL string
	initiateErr error
	result      *payments.VerificationResult
	verifyErr   error
	verifyCalls int
}

func (f *fakeProvider) InitiateCheckout(_ context.Context, req payments.CheckoutRequest) (string, error) {
	if f.initiateErr != nil {
		return "", f.initiateErr
	}
	return f.checkoutURL, nil
}

func (f *fakeProvider) VerifyReference(_ context.Context, reference string) (*payments.VerificationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifyCalls++
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	return f.result, nil
}
