package record

import (
	"net/url"
	"time"
)

// Status is the lifecycle stage of a job application.
type Status string

const (
	StatusSubmitted Status = "Submitted"
	StatusRejected  Status = "Rejected"
	StatusInterview Status = "Interview"
	StatusOffer     Status = "Offer"
)

// Statuses lists the valid statuses in display order.
var Statuses = []Status{StatusSubmitted, StatusRejected, StatusInterview, StatusOffer}

// Valid reports whether s is one of the four known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusSubmitted, StatusRejected, StatusInterview, StatusOffer:
		return true
	}
	return false
}

// DateLayout is the calendar-date format used for DateApplied.
const DateLayout = "2006-01-02"

// Today returns the current date in DateLayout.
func Today() string {
	return time.Now().Format(DateLayout)
}

// Application is a single job-application record. ID doubles as display
// position: ids are contiguous 0..n-1 at all times and are renumbered
// after deletions.
type Application struct {
	ID          int
	Company     string
	Position    string
	PortalURL   string
	DateApplied string
	Status      Status
}

// Field names accepted by Store.Update. They match the persisted column
// headers so the UI can address cells by the column it displays.
const (
	FieldCompany     = "Company"
	FieldPosition    = "Position"
	FieldPortalURL   = "Application Portal URL"
	FieldDateApplied = "Date Applied"
	FieldStatus      = "Status"
)

// Columns is the fixed persisted column order. The displayed "No" column
// is derived from position and never stored.
var Columns = []string{FieldCompany, FieldPosition, FieldPortalURL, FieldDateApplied, FieldStatus}

// NavigableURL returns the portal URL when it can be handed to a browser
// (absolute http or https), or "" otherwise. Records may hold any text in
// PortalURL; only navigation requires a well-formed URL.
func NavigableURL(app Application) string {
	u, err := url.Parse(app.PortalURL)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	return app.PortalURL
}

// Snapshot is a full ordered copy of the record table at one instant. It
// is the unit exchanged with local persistence and the remote sheet.
type Snapshot []Application

// Clone returns a deep copy of the snapshot.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}

// Equal reports structural equality: same records, same order, identical
// field values.
func (s Snapshot) Equal(other Snapshot) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Normalize renumbers ids positionally and coerces each record back onto
// the store invariants: unknown statuses become Submitted, an absent date
// stays absent. Used when adopting rows from disk or from the remote
// sheet, which may hold anything.
func Normalize(s Snapshot) Snapshot {
	out := s.Clone()
	for i := range out {
		out[i].ID = i
		if !out[i].Status.Valid() {
			out[i].Status = StatusSubmitted
		}
	}
	return out
}
