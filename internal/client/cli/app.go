// Package cli implements the interactive Guardget terminal client.
package cli

import (
	"bufio"
	"context"
	"log"
	"os"

	"github.com/guardget/guardget/internal/client/api"
	"github.com/guardget/guardget/internal/client/cache"
	"github.com/guardget/guardget/internal/client/config"
	"github.com/guardget/guardget/internal/client/services"
	"github.com/guardget/guardget/internal/client/session"

	_ "modernc.org/sqlite"
)

type App struct {
	config    *config.Config
	sessions  session.Store
	api       *api.Client
	checker   *services.Checker
	devices   *services.DeviceService
	transfers *services.TransferService
	payments  *services.PaymentFlow
	reader    *bufio.Reader
}

func NewApp(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	sessions := session.NewFileStore(cfg.SessionFile)

	// A broken cache only costs the offline fallback, not the CLI.
	var deviceCache *cache.DeviceCache
	db, err := cache.InitDatabase(ctx, cfg.CacheFile)
	if err != nil {
		log.Printf("error initializing local cache: %s", err.Error())
	} else {
		deviceCache = cache.NewDeviceCache(db)
	}

	apiClient := api.New(cfg.BaseURL, cfg.RequestTimeout, sessions,
		api.WithOnUnauthorized(func() {
			log.Println("Session expired, please log in again")
		}),
	)

	return &App{
		config:    cfg,
		sessions:  sessions,
		api:       apiClient,
		checker:   services.NewChecker(apiClient),
		devices:   services.NewDeviceService(apiClient, deviceCache),
		transfers: services.NewTransferService(apiClient),
		payments:  services.NewPaymentFlow(apiClient),
		reader:    bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.getStatus, scanner)
}

func (a *App) isLoggedIn() bool {
	sess, err := a.sessions.Load()
	return err == nil && sess.LoggedIn()
}

func (a *App) getStatus() string {
	sess, err := a.sessions.Load()
	if err != nil || !sess.LoggedIn() {
		return ""
	}
	if sess.User != nil && sess.User.UserName != "" {
		return "(" + sess.User.UserName + ")"
	}
	return "(logged in)"
}
