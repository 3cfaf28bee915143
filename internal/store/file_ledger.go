package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"storefront-bot/internal/models"
	"storefront-bot/internal/util"

	"go.uber.org/zap"
)

// FileLedger keeps one JSON-lines file per user, one order per line.
// Writes for a user are serialized by a per-user mutex. A trailing line
// without its newline is an interrupted append: it is ignored on read and
// cut off by the next append.
type FileLedger struct {
	dir    string
	locks  sync.Map // int64 -> *sync.Mutex
	logger *zap.Logger
}

// NewFileLedger creates dir if needed and returns a ledger rooted there
func NewFileLedger(dir string) (*FileLedger, error) {
	if dir == "" {
		return nil, errors.New("file ledger directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, persistenceError("create ledger dir", err)
	}
	return &FileLedger{dir: dir, logger: util.GetLogger()}, nil
}

// Close is a no-op; every operation opens and closes its own file
func (l *FileLedger) Close() error {
	return nil
}

func (l *FileLedger) path(userID int64) string {
	return filepath.Join(l.dir, strconv.FormatInt(userID, 10)+".jsonl")
}

func (l *FileLedger) lock(userID int64) func() {
	m, _ := l.locks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// NextOrderNumber returns the number the user's next order will get
func (l *FileLedger) NextOrderNumber(_ context.Context, userID int64) (int, error) {
	unlock := l.lock(userID)
	defer unlock()

	records, _, err := l.read(userID)
	if err != nil {
		return 0, err
	}
	return len(records) + 1, nil
}

// Append writes rec as a new line under the user's next order number
func (l *FileLedger) Append(ctx context.Context, rec models.OrderRecord) (models.OrderRecord, error) {
	_, span := util.StartSpan(ctx, "FileLedger.Append")
	defer span.End()

	unlock := l.lock(rec.UserID)
	defer unlock()

	records, size, err := l.read(rec.UserID)
	if err != nil {
		return models.OrderRecord{}, err
	}

	rec.OrderNumber = len(records) + 1
	if rec.Status == "" {
		rec.Status = models.OrderStatusCreated
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	rec.CreatedAt = rec.CreatedAt.UTC()
	rec.UpdatedAt = rec.CreatedAt

	line, err := json.Marshal(rec)
	if err != nil {
		return models.OrderRecord{}, persistenceError("encode order", err)
	}
	line = append(line, '\n')

	f, err := os.OpenFile(l.path(rec.UserID), os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return models.OrderRecord{}, persistenceError("open ledger", err)
	}
	// drops any interrupted line left by an earlier append
	if err := f.Truncate(size); err != nil {
		f.Close()
		return models.OrderRecord{}, persistenceError("truncate ledger", err)
	}
	if _, err := f.WriteAt(line, size); err != nil {
		_ = f.Truncate(size)
		f.Close()
		return models.OrderRecord{}, persistenceError("write order", err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Truncate(size)
		f.Close()
		return models.OrderRecord{}, persistenceError("sync ledger", err)
	}
	if err := f.Close(); err != nil {
		return models.OrderRecord{}, persistenceError("close ledger", err)
	}
	return rec, nil
}

// ListForUser returns the user's orders by order number; empty when none
func (l *FileLedger) ListForUser(_ context.Context, userID int64) ([]models.OrderRecord, error) {
	unlock := l.lock(userID)
	defer unlock()

	records, _, err := l.read(userID)
	return records, err
}

// ListAll returns every user's orders. A user file that cannot be read is
// logged and left out so one damaged file does not hide everyone else's orders.
func (l *FileLedger) ListAll(_ context.Context) (map[int64][]models.OrderRecord, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		return nil, persistenceError("read ledger dir", err)
	}

	byUser := make(map[int64][]models.OrderRecord)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		userID, err := strconv.ParseInt(strings.TrimSuffix(name, ".jsonl"), 10, 64)
		if err != nil {
			continue
		}

		unlock := l.lock(userID)
		records, _, err := l.read(userID)
		unlock()
		if err != nil {
			l.logger.Error("Skipping unreadable ledger file",
				zap.Int64("user_id", userID),
				zap.Error(err))
			continue
		}
		if len(records) > 0 {
			byUser[userID] = records
		}
	}
	return byUser, nil
}

// UpdateStatus rewrites the user's file with the order's new status. The
// file is replaced atomically via rename.
func (l *FileLedger) UpdateStatus(_ context.Context, userID int64, orderNumber int, status string) error {
	unlock := l.lock(userID)
	defer unlock()

	records, _, err := l.read(userID)
	if err != nil {
		return err
	}

	idx := sort.Search(len(records), func(i int) bool { return records[i].OrderNumber >= orderNumber })
	if idx == len(records) || records[idx].OrderNumber != orderNumber {
		return fmt.Errorf("%w: order %d for user %d", ErrNotFound, orderNumber, userID)
	}
	records[idx].Status = status
	records[idx].UpdatedAt = time.Now().UTC()

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return persistenceError("encode order", err)
		}
	}

	tmp, err := os.CreateTemp(l.dir, ".ledger-*")
	if err != nil {
		return persistenceError("create temp file", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return persistenceError("write temp file", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return persistenceError("sync temp file", err)
	}
	if err := tmp.Close(); err != nil {
		return persistenceError("close temp file", err)
	}
	if err := os.Rename(tmp.Name(), l.path(userID)); err != nil {
		return persistenceError("replace ledger", err)
	}
	return nil
}

// read loads a user's records and returns the byte length of the complete
// lines. The caller holds the user's lock.
func (l *FileLedger) read(userID int64) ([]models.OrderRecord, int64, error) {
	records := []models.OrderRecord{}

	data, err := os.ReadFile(l.path(userID))
	if errors.Is(err, fs.ErrNotExist) {
		return records, 0, nil
	}
	if err != nil {
		return nil, 0, persistenceError("read ledger", err)
	}

	var size int64
	for len(data) > 0 {
		end := bytes.IndexByte(data, '\n')
		if end < 0 {
			l.logger.Warn("Ignoring interrupted ledger line",
				zap.Int64("user_id", userID),
				zap.Int("bytes", len(data)))
			break
		}
		line := bytes.TrimSpace(data[:end])
		data = data[end+1:]
		size += int64(end + 1)
		if len(line) == 0 {
			continue
		}

		var rec models.OrderRecord
		if err := json.Unmarshal(line, &rec); err != nil {
			return nil, 0, persistenceError("decode order", err)
		}
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool { return records[i].OrderNumber < records[j].OrderNumber })
	return records, size, nil
}
