package store

import (
	"context"
	"errors"
	"fmt"

	"storefront-bot/internal/models"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence error")
)

// Ledger is the durable per-user order log. Order numbers are 1-based and
// contiguous per user; Append assigns the next one atomically.
type Ledger interface {
	NextOrderNumber(ctx context.Context, userID int64) (int, error)
	Append(ctx context.Context, rec models.OrderRecord) (models.OrderRecord, error)
	ListForUser(ctx context.Context, userID int64) ([]models.OrderRecord, error)
	ListAll(ctx context.Context) (map[int64][]models.OrderRecord, error)
	UpdateStatus(ctx context.Context, userID int64, orderNumber int, status string) error
	Close() error
}

// Supported ledger drivers
const (
	DriverFile     = "file"
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
)

// Open creates the ledger selected by driver
func Open(driver, dsn, dir string) (Ledger, error) {
	switch driver {
	case DriverFile:
		return NewFileLedger(dir)
	case DriverSQLite, DriverPostgres:
		return NewStore(driver, dsn)
	default:
		return nil, fmt.Errorf("unsupported ledger driver %q", driver)
	}
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
