// Package repomanager wires the per-domain repositories to a database handle.
// Repositories are bound to a dbx.DBTX so services can hand them either the
// shared *sql.DB or an open transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/guardget/guardget/internal/dbx"
	"github.com/guardget/guardget/internal/server/repositories/devices"
	"github.com/guardget/guardget/internal/server/repositories/plans"
	"github.com/guardget/guardget/internal/server/repositories/receipts"
	"github.com/guardget/guardget/internal/server/repositories/refreshtokens"
	"github.com/guardget/guardget/internal/server/repositories/subscriptions"
	"github.com/guardget/guardget/internal/server/repositories/transfers"
	"github.com/guardget/guardget/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Devices(db dbx.DBTX) devices.Repository
	Plans(db dbx.DBTX) plans.Repository
	Subscriptions(db dbx.DBTX) subscriptions.Repository
	Receipts(db dbx.DBTX) receipts.Repository
	Transfers(db dbx.DBTX) transfers.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
