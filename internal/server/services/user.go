package services

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/guardget/guardget/internal/common"
	"github.com/guardget/guardget/internal/server/auth"
	sc "github.com/guardget/guardget/internal/server/config"
	"github.com/guardget/guardget/internal/server/models"
	"github.com/guardget/guardget/internal/server/otp"
	"github.com/guardget/guardget/internal/server/repositories/repomanager"
)

const minPasswordLength = 8

// UserService covers registration, email verification, login, session
// revocation and account recovery through keyholder contacts.
type UserService struct {
	db       *sql.DB
	rm       repomanager.RepositoryManager
	config   *sc.Config
	otps     otp.Store
	notifier Notifier
	now      func() time.Time
}

func NewUserService(db *sql.DB, rm repomanager.RepositoryManager, config *sc.Config, otps otp.Store, notifier Notifier) *UserService {
	return &UserService{db: db, rm: rm, config: config, otps: otps, notifier: notifier, now: time.Now}
}

// TokenPair is what a successful login or refresh hands back. The refresh
// token is opaque; only its hash is persisted.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

type RegisterInput struct {
	FirstName  string
	LastName   string
	UserName   string
	Email      string
	Phone      string
	Password   string
	Keyholders []string
}

// Profile is the authenticated user's own view of their account.
type Profile struct {
	User         *models.User
	DeviceCount  int
	Subscription *models.Subscription
	Plan         *models.Plan
}

func (s *UserService) validateRegistration(in *RegisterInput) error {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.UserName = strings.TrimSpace(in.UserName)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	in.Phone = strings.TrimSpace(in.Phone)

	switch {
	case in.FirstName == "" || in.LastName == "":
		return fmt.Errorf("%w: first and last name are required", common.ErrorValidation)
	case in.UserName == "":
		return fmt.Errorf("%w: username is required", common.ErrorValidation)
	case !strings.Contains(in.Email, "@"):
		return fmt.Errorf("%w: a valid email is required", common.ErrorValidation)
	case len(in.Password) < minPasswordLength:
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}
	for _, kh := range in.Keyholders {
		if strings.TrimSpace(kh) == "" {
			return fmt.Errorf("%w: keyholder phone cannot be blank", common.ErrorValidation)
		}
	}
	return nil
}

// Register creates an unverified account and sends a registration code to
// the new user's email address.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	if err := s.validateRegistration(&in); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	user := &models.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		UserName:     in.UserName,
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         models.RoleUser,
		PasswordHash: string(hash),
		Keyholders:   in.Keyholders,
	}

	user, err = s.rm.Users(s.db).Create(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := s.issueCode(ctx, otp.PurposeRegistration, user.Email, user.Email); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) issueCode(ctx context.Context, purpose otp.Purpose, subject, destination string) error {
	code, err := common.MakeRandDigits(common.OTPLength)
	if err != nil {
		return fmt.Errorf("generating code: %w", err)
	}
	if err := s.otps.Put(ctx, purpose, subject, code, s.config.OTPValidityDuration); err != nil {
		return err
	}
	return s.notifier.Send(ctx, destination, fmt.Sprintf("Your Guardget verification code is %s", code))
}

// VerifyOTP confirms a registration code, marks the email verified and logs
// the user in.
func (s *UserService) VerifyOTP(ctx context.Context, email, code string) (*TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.rm.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	ok, err := s.otps.Consume(ctx, otp.PurposeRegistration, email, code)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.ErrOTPInvalid
	}

	if err := s.rm.Users(s.db).SetEmailVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// ResendOTP issues a fresh registration code, replacing the outstanding one.
func (s *UserService) ResendOTP(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.rm.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return fmt.Errorf("%w: email is already verified", common.ErrorValidation)
	}
	return s.issueCode(ctx, otp.PurposeRegistration, user.Email, user.Email)
}

// Login accepts a username or an email address.
func (s *UserService) Login(ctx context.Context, login, password string) (*TokenPair, error) {
	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, fmt.Errorf("%w: login and password are required", common.ErrorValidation)
	}

	user, err := s.rm.Users(s.db).GetByUserName(ctx, login)
	if errors.Is(err, common.ErrorNotFound) {
		user, err = s.rm.Users(s.db).GetByEmail(ctx, strings.ToLower(login))
	}
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, common.ErrorUnauthorized
	}
	if !user.EmailVerified {
		return nil, fmt.Errorf("%w: email is not verified", common.ErrorUnauthorized)
	}
	return s.issueTokens(ctx, user)
}

func (s *UserService) issueTokens(ctx context.Context, user *models.User) (*TokenPair, error) {
	access, err := auth.GenerateToken(user.ID, user.Role, []byte(s.config.SecretKey), s.config.AccessTokenValidityDuration)
	if err != nil {
		return nil, fmt.Errorf("signing token: %w", err)
	}

	refresh, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("generating refresh token: %w", err)
	}

	expiresAt := s.now().Add(s.config.RefreshTokenValidityDuration)
	if err := s.rm.RefreshTokens(s.db).Create(ctx, user.ID, hashRefreshToken(refresh), expiresAt); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	stored, err := s.rm.RefreshTokens(s.db).GetByHash(ctx, hashRefreshToken(refreshToken))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrRefreshTokenExpired
		}
		return nil, err
	}
	if stored.RevokedAt != nil || !s.now().Before(stored.ExpiresAt) {
		return nil, common.ErrRefreshTokenExpired
	}

	user, err := s.rm.Users(s.db).GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.rm.RefreshTokens(s.db).Revoke(ctx, stored.TokenHash, s.now()); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, user)
}

// Logout revokes the refresh token. Revoking an unknown token is not an
// error so logout stays idempotent.
func (s *UserService) Logout(ctx context.Context, refreshToken string) error {
	err := s.rm.RefreshTokens(s.db).Revoke(ctx, hashRefreshToken(refreshToken), s.now())
	if errors.Is(err, common.ErrorNotFound) {
		return nil
	}
	return err
}

// ForgotPassword sends a reset code to the account's recovery contact. The
// first keyholder phone is preferred over the user's own contact details so
// a thief holding the device cannot complete the reset alone.
func (s *UserService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	user, err := s.rm.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	destination := user.Email
	if len(user.Keyholders) > 0 {
		destination = user.Keyholders[0]
	} else if user.Phone != "" {
		destination = user.Phone
	}
	return s.issueCode(ctx, otp.PurposePasswordReset, user.Email, destination)
}

// ResetPassword consumes a reset code and replaces the password hash.
func (s *UserService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if len(newPassword) < minPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorValidation, minPasswordLength)
	}

	user, err := s.rm.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	ok, err := s.otps.Consume(ctx, otp.PurposePasswordReset, email, code)
	if err != nil {
		return err
	}
	if !ok {
		return common.ErrOTPInvalid
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	return s.rm.Users(s.db).UpdatePasswordHash(ctx, user.ID, string(hash))
}

// UpdateKeyholders replaces the account's recovery contact list.
func (s *UserService) UpdateKeyholders(ctx context.Context, userID string, keyholders []string) error {
	for _, kh := range keyholders {
		if strings.TrimSpace(kh) == "" {
			return fmt.Errorf("%w: keyholder phone cannot be blank", common.ErrorValidation)
		}
	}
	return s.rm.Users(s.db).UpdateKeyholders(ctx, userID, keyholders)
}

// GetMe assembles the authenticated user's profile with their device count
// and current plan.
func (s *UserService) GetMe(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.rm.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	count, err := s.rm.Devices(s.db).CountByOwner(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile := &Profile{User: user, DeviceCount: count}

	sub, err := s.rm.Subscriptions(s.db).GetActiveByUser(ctx, userID, s.now())
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return profile, nil
		}
		return nil, err
	}
	profile.Subscription = sub

	plan, err := s.rm.Plans(s.db).GetByID(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	profile.Plan = plan
	return profile, nil
}

func hashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return base64.StdEncoding.EncodeToString(sum[:])
}
