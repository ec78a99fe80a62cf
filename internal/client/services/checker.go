// Package services implements the CLI-side workflows on top of the REST
// client: the anonymous device check, device management with the local
// cache fallback, ownership transfers and the payment flow.
package services

import (
	"context"
	"strings"

	"github.com/guardget/guardget/internal/client/models"
)

type checkAPI interface {
	CheckDevice(ctx context.Context, identifier string) (*models.CheckResult, error)
}

// Checker runs the pre-purchase identifier lookup.
type Checker struct {
	api checkAPI
}

func NewChecker(api checkAPI) *Checker {
	return &Checker{api: api}
}

// Check looks up an IMEI or serial number. Blank input is rejected locally
// and never reaches the network.
func (c *Checker) Check(ctx context.Context, identifier string) (*models.CheckResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, ErrIdentifierRequired
	}
	return c.api.CheckDevice(ctx, identifier)
}
