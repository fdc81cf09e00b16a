package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/platform/kv"
)

// ErrAlreadyPosted indicates an entry with the same reference pair exists.
// Callers running an idempotent sync treat it as success.
var ErrAlreadyPosted = errors.New("ledger: reference already posted")

// ErrEntryRequired indicates a malformed entry was rejected before append.
var ErrEntryRequired = errors.New("ledger: amount and reference required")

// Store is the single append-only cash-flow ledger. All writes go through the
// store's mutex so the existence-check-and-append sequence can never race
// within a process. The reference-pair index is rebuilt from the shared store
// on every load: the server and the worker both write the same ledger, so an
// index cached across calls would go stale the moment the other process
// appends or removes.
type Store struct {
	kv kv.Store

	mu    sync.Mutex
	byRef map[string]int
}

// NewStore constructs the ledger store.
func NewStore(store kv.Store) *Store {
	return &Store{kv: store}
}

func (s *Store) load(ctx context.Context) ([]Entry, error) {
	entries, err := kv.GetList[Entry](ctx, s.kv, Key)
	if err != nil {
		return nil, err
	}
	s.byRef = make(map[string]int, len(entries))
	for i, e := range entries {
		if e.ReferenceID != "" {
			s.byRef[RefKey(e.ReferenceID, e.ReferenceType)] = i
		}
	}
	return entries, nil
}

// Append adds an entry unless its reference pair is already posted.
func (s *Store) Append(ctx context.Context, entry Entry) (Entry, error) {
	if entry.Amount <= 0 || entry.ReferenceID == "" || entry.ReferenceType == "" {
		return Entry{}, ErrEntryRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return Entry{}, err
	}
	ref := RefKey(entry.ReferenceID, entry.ReferenceType)
	if _, ok := s.byRef[ref]; ok {
		return Entry{}, ErrAlreadyPosted
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	entries = append(entries, entry)
	if err := s.kv.Set(ctx, Key, entries); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// RemoveByReference deletes the entry carrying the reference pair. It reports
// whether an entry was removed; removing an absent pair is not an error.
func (s *Store) RemoveByReference(ctx context.Context, referenceID, referenceType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	ref := RefKey(referenceID, referenceType)
	idx, ok := s.byRef[ref]
	if !ok {
		return false, nil
	}
	entries = append(entries[:idx], entries[idx+1:]...)
	if err := s.kv.Set(ctx, Key, entries); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveByID deletes an entry by its own id, used by integrity repair when an
// entry's source record no longer exists.
func (s *Store) RemoveByID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return false, err
	}
	for i, e := range entries {
		if e.ID == id {
			entries = append(entries[:i], entries[i+1:]...)
			if err := s.kv.Set(ctx, Key, entries); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// ByReference returns the entry for a reference pair, if posted.
func (s *Store) ByReference(ctx context.Context, referenceID, referenceType string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	idx, ok := s.byRef[RefKey(referenceID, referenceType)]
	if !ok {
		return Entry{}, false, nil
	}
	return entries[idx], true, nil
}

// List returns every ledger entry.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// ByDateRange returns entries dated within [from, to] inclusive.
func (s *Store) ByDateRange(ctx context.Context, from, to time.Time) ([]Entry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Date.Before(from) || e.Date.After(to) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
