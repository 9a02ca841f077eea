package sync

import "github.com/apptrack/apptrack/internal/record"

// Decision is the outcome of comparing a local and a remote snapshot.
type Decision int

const (
	// NoChange: the snapshots are structurally equal; leave the store alone.
	NoChange Decision = iota
	// AdoptRemote: wholesale-replace the local table with the remote one.
	AdoptRemote
)

func (d Decision) String() string {
	if d == AdoptRemote {
		return "adopt_remote"
	}
	return "no_change"
}

// Resolve decides whether the remote snapshot supersedes the local one.
// A pull is always remote-authoritative: any structural difference means
// AdoptRemote. There is no adopt-local outcome here — local state only
// reaches the remote through an explicit push. No per-row or per-field
// merge is computed; concurrent edits on another client are overwritten
// in full by whichever side syncs last.
func Resolve(local, remote record.Snapshot) Decision {
	if local.Equal(remote) {
		return NoChange
	}
	return AdoptRemote
}
