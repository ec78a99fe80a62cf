// Package http is the public REST surface of the Guardget server. Handlers
// translate between JSON and the service layer; authorization decisions
// above "who are you" live in the services.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/guardget/guardget/internal/common"
	"github.com/guardget/guardget/internal/logging"
	"github.com/guardget/guardget/internal/server/auth"
	sc "github.com/guardget/guardget/internal/server/config"
	"github.com/guardget/guardget/internal/server/models"
	"github.com/guardget/guardget/internal/server/services"
)

// Service interfaces consumed by the handlers. The concrete implementations
// live in the services package; tests substitute fakes.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (*models.User, error)
	VerifyOTP(ctx context.Context, email, code string) (*services.TokenPair, error)
	ResendOTP(ctx context.Context, email string) error
	Login(ctx context.Context, login, password string) (*services.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	UpdateKeyholders(ctx context.Context, userID string, keyholders []string) error
	GetMe(ctx context.Context, userID string) (*services.Profile, error)
}

type DeviceService interface {
	Register(ctx context.Context, ownerID string, in services.RegisterDeviceInput) (*models.Device, error)
	List(ctx context.Context, ownerID string) ([]*models.Device, error)
	Get(ctx context.Context, userID string, isAdmin bool, deviceID string) (*models.Device, error)
	Check(ctx context.Context, identifier string) (*services.CheckResult, error)
	Report(ctx context.Context, userID, deviceID string, status models.DeviceStatus, in services.ReportInput) (*models.Device, error)
	SetStatus(ctx context.Context, userID string, isAdmin bool, deviceID string, status models.DeviceStatus) (*models.Device, error)
	PhotoUploadURL(ctx context.Context) (string, string, error)
}

type TransferService interface {
	Initiate(ctx context.Context, userID, deviceID, recipientEmail, recipientPhone string) (*models.Transfer, error)
	Accept(ctx context.Context, userID, transferID string) (*models.Transfer, error)
	Cancel(ctx context.Context, userID, transferID string) error
	Get(ctx context.Context, userID string, isAdmin bool, transferID string) (*models.Transfer, error)
}

type SubscriptionService interface {
	Plans(ctx context.Context) ([]*models.Plan, error)
	Current(ctx context.Context, userID string) (*models.Subscription, *models.Plan, error)
	InitiatePayment(ctx context.Context, userID, planID string, months int) (*services.Checkout, error)
	VerifyPayment(ctx context.Context, userID, reference string) (*services.PaymentOutcome, error)
	CancelAutoRenew(ctx context.Context, userID string) error
}

type ReceiptService interface {
	ListByUser(ctx context.Context, userID string) ([]*models.Receipt, error)
	Get(ctx context.Context, userID string, isAdmin bool, receiptID string) (*models.Receipt, error)
	Download(ctx context.Context, userID string, isAdmin bool, receiptID string) (io.ReadCloser, error)
}

type AdminService interface {
	ListUsers(ctx context.Context, q string) ([]*models.User, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
	UserDetails(ctx context.Context, id string) (*services.UserDetails, error)
	UserDevices(ctx context.Context, userID string) ([]*models.Device, error)
	UserReceipts(ctx context.Context, userID string) ([]*models.Receipt, error)
	ListDevices(ctx context.Context) ([]*models.Device, error)
	ListReceipts(ctx context.Context) ([]*models.Receipt, error)
	ListSubscriptions(ctx context.Context) ([]*models.Subscription, error)
}

type Server struct {
	config        *sc.Config
	logger        logging.Logger
	users         UserService
	devices       DeviceService
	transfers     TransferService
	subscriptions SubscriptionService
	receipts      ReceiptService
	admin         AdminService
	checkLimiter  *ipRateLimiter
}

func NewServer(
	config *sc.Config,
	logger logging.Logger,
	users UserService,
	devices DeviceService,
	transfers TransferService,
	subscriptions SubscriptionService,
	receipts ReceiptService,
	admin AdminService,
) *Server {
	return &Server{
		config:        config,
		logger:        logger,
		users:         users,
		devices:       devices,
		transfers:     transfers,
		subscriptions: subscriptions,
		receipts:      receipts,
		admin:         admin,
		checkLimiter:  newIPRateLimiter(config.CheckRatePerSecond, config.CheckRateBurst),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.metricsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/verify-otp", s.handleVerifyOTP)
			r.Post("/auth/resend-otp", s.handleResendOTP)
			r.Post("/login", s.handleLogin)
			r.Post("/auth/refresh", s.handleRefresh)
			r.Post("/auth/forgot-password", s.handleForgotPassword)
			r.Post("/auth/reset-password", s.handleResetPassword)
			r.With(s.authMiddleware).Post("/auth/logout", s.handleLogout)
			r.With(s.authMiddleware).Get("/getme", s.handleGetMe)
			r.With(s.authMiddleware).Put("/keyholders", s.handleUpdateKeyholders)

			// Anonymous pre-purchase check, rate limited per IP. The
			// authenticated variant below skips the limiter.
			r.With(s.rateLimitMiddleware).Get("/devices/check", s.handleCheckDevice)

			r.Route("/devices", func(r chi.Router) {
				r.Use(s.authMiddleware)
				r.Put("/{deviceID}/status", s.handleDeviceStatus)
				r.Post("/transfer", s.handleInitiateTransfer)
				r.Post("/transfer/{transferID}/accept", s.handleAcceptTransfer)
				r.Get("/transfer/{transferID}", s.handleGetTransfer)
				r.Delete("/transfer/{transferID}", s.handleCancelTransfer)
			})

			r.Route("/receipts", func(r chi.Router) {
				r.Use(s.authMiddleware)
				r.Get("/", s.handleListReceipts)
				r.Get("/{receiptID}", s.handleGetReceipt)
				r.Get("/{receiptID}/download", s.handleDownloadReceipt)
			})
		})

		r.Route("/devices", func(r chi.Router) {
			r.Use(s.authMiddleware)
			r.Post("/", s.handleRegisterDevice)
			r.Get("/", s.handleListDevices)
			r.Get("/check", s.handleCheckDevice)
			r.Post("/photo-upload-url", s.handlePhotoUploadURL)
			r.Get("/{deviceID}", s.handleGetDevice)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Get("/plans", s.handleListPlans)
			r.With(s.authMiddleware).Get("/user", s.handleUserSubscription)
			r.With(s.authMiddleware).Post("/initiate-payment", s.handleInitiatePayment)
			r.With(s.authMiddleware).Get("/verify-payment", s.handleVerifyPayment)
			r.With(s.authMiddleware).Post("/cancel", s.handleCancelSubscription)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.authMiddleware, s.requireAdmin)
			r.Get("/users", s.handleAdminListUsers)
			r.Get("/users/search", s.handleAdminListUsers)
			r.Get("/users/{userID}", s.handleAdminGetUser)
			r.Get("/users/{userID}/details", s.handleAdminUserDetails)
			r.Get("/users/{userID}/devices", s.handleAdminUserDevices)
			r.Get("/users/{userID}/receipts", s.handleAdminUserReceipts)
			r.Get("/devices", s.handleAdminListDevices)
			r.Get("/receipts", s.handleAdminListReceipts)
			r.Get("/subscriptions", s.handleAdminListSubscriptions)
		})
	})

	return r
}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get(common.AuthorizationHeaderName))
		if token == "" {
			writeError(w, http.StatusUnauthorized, "missing token")
			return
		}

		claims, err := auth.ParseToken(token, []byte(s.config.SecretKey))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFromContext(r.Context())
		if claims == nil || claims.Role != models.RoleAdmin {
			writeError(w, http.StatusForbidden, "admin only")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.checkLimiter.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type claimsKey struct{}

func claimsFromContext(ctx context.Context) *auth.Claims {
	value := ctx.Value(claimsKey{})
	claims, _ := value.(*auth.Claims)
	return claims
}

func isAdmin(claims *auth.Claims) bool {
	return claims != nil && claims.Role == models.RoleAdmin
}

func bearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func decodeJSON(r *http.Request, out any) error {
	decoder := json.NewDecoder(r.Body)
	return decoder.Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError emits the {message} body every client of this API expects.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeServiceError maps service sentinels to HTTP statuses. Unknown errors
// become an opaque 500; their details stay in the log, not the response.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, common.ErrorValidation), errors.Is(err, common.ErrOTPInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, common.ErrorUnauthorized),
		errors.Is(err, common.ErrInvalidToken),
		errors.Is(err, common.ErrTokenExpired),
		errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, common.ErrorForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, common.ErrorNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, common.ErrorAlreadyExists),
		errors.Is(err, common.ErrorTransferPending),
		errors.Is(err, common.ErrorDeviceLimitReached):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, common.ErrorTransferExpired):
		writeError(w, http.StatusGone, err.Error())
	default:
		s.logger.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		return strings.TrimSpace(parts[0])
	}
	if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
		return realIP
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}
