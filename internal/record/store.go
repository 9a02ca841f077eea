package record

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/apptrack/apptrack/internal/bus"
)

// Origin identifies who caused a table change.
type Origin string

const (
	// OriginUser marks a change issued through the engine boundary
	// (Add/Update/Delete).
	OriginUser Origin = "user"
	// OriginSync marks a wholesale replace adopted from the remote sheet.
	OriginSync Origin = "sync"
)

// Change is the payload of records.* bus events.
type Change struct {
	Origin Origin
	Size   int // table size after the change
}

// Store is the authoritative in-memory table of application records.
// Every mutation is serialized under one mutex, so a pull-driven Replace
// can never interleave with a user-issued Add and expose partial state.
type Store struct {
	mu   sync.RWMutex
	apps Snapshot
	bus  *bus.Bus
}

// NewStore creates an empty store. Change notifications go out on b;
// a nil bus is allowed (silent store, used in tests).
func NewStore(b *bus.Bus) *Store {
	return &Store{bus: b}
}

// Seed installs the snapshot loaded from persistence at startup. No
// change notification is emitted.
func (s *Store) Seed(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps = Normalize(snap)
}

// List returns a deep copy of the table, safe to iterate without a lock.
func (s *Store) List() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.apps.Clone()
}

// Len returns the current table size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.apps)
}

// Add validates and appends a record, assigning id = current length.
// Company and Position are required; Status defaults to Submitted and
// DateApplied to today when unset.
func (s *Store) Add(app Application) (int, error) {
	app.Company = strings.TrimSpace(app.Company)
	app.Position = strings.TrimSpace(app.Position)
	app.PortalURL = strings.TrimSpace(app.PortalURL)

	if app.Company == "" {
		return 0, &ValidationError{Field: FieldCompany, Reason: "must not be empty"}
	}
	if app.Position == "" {
		return 0, &ValidationError{Field: FieldPosition, Reason: "must not be empty"}
	}
	if app.Status == "" {
		app.Status = StatusSubmitted
	}
	if !app.Status.Valid() {
		return 0, &ValidationError{Field: FieldStatus, Reason: "must be one of Submitted, Rejected, Interview, Offer"}
	}
	if app.DateApplied == "" {
		app.DateApplied = Today()
	}

	s.mu.Lock()
	app.ID = len(s.apps)
	s.apps = append(s.apps, app)
	size := len(s.apps)
	s.mu.Unlock()

	s.publish(bus.KindRecordsAdded, Change{Origin: OriginUser, Size: size})
	return app.ID, nil
}

// Update sets a single field of the record with the given id. Fields are
// addressed by column name (Field* constants).
func (s *Store) Update(id int, field, value string) error {
	s.mu.Lock()
	if id < 0 || id >= len(s.apps) {
		s.mu.Unlock()
		return &NotFoundError{ID: id}
	}

	app := &s.apps[id]
	switch field {
	case FieldCompany:
		v := strings.TrimSpace(value)
		if v == "" {
			s.mu.Unlock()
			return &ValidationError{Field: FieldCompany, Reason: "must not be empty"}
		}
		app.Company = v
	case FieldPosition:
		v := strings.TrimSpace(value)
		if v == "" {
			s.mu.Unlock()
			return &ValidationError{Field: FieldPosition, Reason: "must not be empty"}
		}
		app.Position = v
	case FieldPortalURL:
		app.PortalURL = strings.TrimSpace(value)
	case FieldDateApplied:
		app.DateApplied = strings.TrimSpace(value)
	case FieldStatus:
		st := Status(value)
		if !st.Valid() {
			s.mu.Unlock()
			return &ValidationError{Field: FieldStatus, Reason: "must be one of Submitted, Rejected, Interview, Offer"}
		}
		app.Status = st
	default:
		s.mu.Unlock()
		return &ValidationError{Field: field, Reason: "unknown field"}
	}
	size := len(s.apps)
	s.mu.Unlock()

	s.publish(bus.KindRecordsUpdated, Change{Origin: OriginUser, Size: size})
	return nil
}

// Delete removes the records with the given ids and renumbers the
// remainder so ids stay contiguous from 0, preserving relative order.
func (s *Store) Delete(ids []int) error {
	s.mu.Lock()
	for _, id := range ids {
		if id < 0 || id >= len(s.apps) {
			s.mu.Unlock()
			return &NotFoundError{ID: id}
		}
	}

	drop := make(map[int]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := make(Snapshot, 0, len(s.apps)-len(drop))
	for _, app := range s.apps {
		if drop[app.ID] {
			continue
		}
		app.ID = len(kept)
		kept = append(kept, app)
	}
	s.apps = kept
	size := len(s.apps)
	s.mu.Unlock()

	s.publish(bus.KindRecordsDeleted, Change{Origin: OriginUser, Size: size})
	return nil
}

// Replace atomically swaps the entire table for the given snapshot and
// emits exactly one change notification. Used by the sync engine after a
// pull adopts the remote table.
func (s *Store) Replace(snap Snapshot, origin Origin) {
	normalized := Normalize(snap)

	s.mu.Lock()
	s.apps = normalized
	size := len(s.apps)
	s.mu.Unlock()

	s.publish(bus.KindRecordsReplaced, Change{Origin: origin, Size: size})
}

// Filter returns copies of the records matching pred. Read-only.
func (s *Store) Filter(pred func(Application) bool) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out Snapshot
	for _, app := range s.apps {
		if pred(app) {
			out = append(out, app)
		}
	}
	return out
}

// Search returns the records containing term (case-insensitive) in any
// field. An empty term matches everything.
func (s *Store) Search(term string) Snapshot {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return s.List()
	}
	return s.Filter(func(app Application) bool {
		return MatchAny(app, term)
	})
}

// MatchAny reports whether any field of app contains the lowercase term.
func MatchAny(app Application, term string) bool {
	for _, v := range []string{app.Company, app.Position, app.PortalURL, app.DateApplied, string(app.Status)} {
		if strings.Contains(strings.ToLower(v), term) {
			return true
		}
	}
	return false
}

// StatusCounts tallies the records in each status. Every known status is
// present in the result, zero or not, so presentation stays stable.
func StatusCounts(snap Snapshot) map[Status]int {
	counts := make(map[Status]int, len(Statuses))
	for _, st := range Statuses {
		counts[st] = 0
	}
	for _, app := range snap {
		counts[app.Status]++
	}
	return counts
}

// DateCount is one point of the submissions-over-time series.
type DateCount struct {
	Date  time.Time
	Count int
}

// SubmissionsByDate groups records by DateApplied day, skipping values
// that do not parse as calendar dates, sorted ascending.
func SubmissionsByDate(snap Snapshot) []DateCount {
	byDay := make(map[time.Time]int)
	for _, app := range snap {
		d, err := time.Parse(DateLayout, app.DateApplied)
		if err != nil {
			continue
		}
		byDay[d]++
	}
	out := make([]DateCount, 0, len(byDay))
	for d, n := range byDay {
		out = append(out, DateCount{Date: d, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out
}

func (s *Store) publish(kind string, change Change) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{Kind: kind, Timestamp: time.Now(), Payload: change})
}
