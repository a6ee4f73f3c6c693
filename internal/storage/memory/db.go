package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/avstrong/resortslots/internal/booking"
	"github.com/avstrong/resortslots/internal/logger"
	"github.com/avstrong/resortslots/internal/picker"
)

type Config struct {
	L *logger.Logger
	// TTL is how long an untouched picker or stored confirmation survives.
	TTL time.Duration
	Now func() time.Time
}

type pickerEntry struct {
	p        *picker.Picker
	lastUsed time.Time
}

// confirmationEntry with a nil c is a reservation whose request is in flight.
type confirmationEntry struct {
	c       *booking.Confirmation
	savedAt time.Time
}

type DB struct {
	mu                          sync.Mutex
	l                           *logger.Logger
	ttl                         time.Duration
	now                         func() time.Time
	pickers                     map[string]*pickerEntry
	confirmationIdempotencyKeys map[string]*confirmationEntry
}

func New(conf Config) *DB {
	now := conf.Now
	if now == nil {
		now = time.Now
	}

	//nolint:exhaustruct
	return &DB{
		l:                           conf.L,
		ttl:                         conf.TTL,
		now:                         now,
		pickers:                     make(map[string]*pickerEntry),
		confirmationIdempotencyKeys: make(map[string]*confirmationEntry),
	}
}

func (db *DB) SavePicker(_ context.Context, id string, p *picker.Picker) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.pickers[id]; exists {
		return fmt.Errorf("save picker %s: id already taken", id)
	}

	db.pickers[id] = &pickerEntry{p: p, lastUsed: db.now()}

	return nil
}

// GetPicker returns the picker stored under id and extends its lifetime.
func (db *DB) GetPicker(_ context.Context, id string) (*picker.Picker, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	entry, ok := db.pickers[id]
	if !ok {
		return nil, fmt.Errorf("get picker %s: %w", id, ErrPickerNotFound)
	}

	entry.lastUsed = db.now()

	return entry.p, nil
}

func (db *DB) DeletePicker(_ context.Context, id string) error {
	db.mu.Lock()
	entry, ok := db.pickers[id]
	delete(db.pickers, id)
	db.mu.Unlock()

	if !ok {
		return fmt.Errorf("delete picker %s: %w", id, ErrPickerNotFound)
	}

	entry.p.Close()

	return nil
}

func confirmationKey(ctx context.Context, pickerID string) (string, error) {
	key, ok := booking.IdempotencyKeyFromContext(ctx)
	if !ok || key == "" {
		return "", booking.ErrIdempotencyKey
	}

	return pickerID + ":" + key, nil
}

// ReserveConfirmation claims the idempotency key found in ctx for pickerID.
// It returns the booking already created under the key, or nil once the
// caller holds the reservation and must either save or release it. A key
// still held by another request yields ErrRequestInProgress.
func (db *DB) ReserveConfirmation(ctx context.Context, pickerID string) (*booking.Confirmation, error) {
	key, err := confirmationKey(ctx, pickerID)
	if err != nil {
		return nil, err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	if entry, exists := db.confirmationIdempotencyKeys[key]; exists {
		if entry.c == nil {
			return nil, fmt.Errorf("reserve %s: %w", key, ErrRequestInProgress)
		}

		return entry.c, nil
	}

	db.confirmationIdempotencyKeys[key] = &confirmationEntry{savedAt: db.now()}

	return nil, nil //nolint:nilnil
}

func (db *DB) SaveConfirmation(ctx context.Context, pickerID string, c *booking.Confirmation) error {
	key, err := confirmationKey(ctx, pickerID)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.confirmationIdempotencyKeys[key] = &confirmationEntry{c: c, savedAt: db.now()}

	return nil
}

// ReleaseConfirmation drops a reservation that produced no booking so the key
// can be retried. Saved confirmations are kept.
func (db *DB) ReleaseConfirmation(ctx context.Context, pickerID string) error {
	key, err := confirmationKey(ctx, pickerID)
	if err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	entry, exists := db.confirmationIdempotencyKeys[key]
	if !exists {
		return fmt.Errorf("release %s: %w", key, ErrRecordNotFound)
	}

	if entry.c == nil {
		delete(db.confirmationIdempotencyKeys, key)
	}

	return nil
}

// Evict closes and forgets every picker idle for longer than the TTL and
// drops confirmations and reservations older than it. It returns the number of pickers evicted.
func (db *DB) Evict() int {
	if db.ttl <= 0 {
		return 0
	}

	db.mu.Lock()

	deadline := db.now().Add(-db.ttl)

	var expired []*picker.Picker

	for id, entry := range db.pickers {
		if entry.lastUsed.Before(deadline) {
			expired = append(expired, entry.p)
			delete(db.pickers, id)
		}
	}

	for key, entry := range db.confirmationIdempotencyKeys {
		if entry.savedAt.Before(deadline) {
			delete(db.confirmationIdempotencyKeys, key)
		}
	}

	db.mu.Unlock()

	for _, p := range expired {
		p.Close()
	}

	return len(expired)
}

// RunJanitor evicts expired entries every interval until ctx is done.
func (db *DB) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := db.Evict(); n > 0 {
				db.l.LogDebugf("Evicted %d idle pickers", n)
			}
		}
	}
}

func (db *DB) Len() int {
	db.mu.Lock()
	defer db.mu.Unlock()

	return len(db.pickers)
}
