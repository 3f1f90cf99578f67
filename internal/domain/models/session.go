// internal/domain/models/session.go
package models

import "time"

// SnapshotSchemaVersion is stamped into every persisted snapshot so a
// future release can detect and migrate older cached shapes instead of
// failing to parse them.
const SnapshotSchemaVersion = 1

// Session is the single active identity state of one app instance.
//
// IsLoading and LastError are transient: they exist only in memory and
// are never persisted.
type Session struct {
	Mode      IdentityMode  `json:"identity_mode"`
	User      *User         `json:"user,omitempty"`
	IsLoading bool          `json:"is_loading"`
	LastError *SessionError `json:"last_error,omitempty"`
}

// Snapshot is the persistable subset of a Session.
type Snapshot struct {
	SchemaVersion int          `bson:"schema_version" json:"schema_version"`
	Mode          IdentityMode `bson:"identity_mode" json:"identity_mode"`
	User          *User        `bson:"user,omitempty" json:"user,omitempty"`
	UpdatedAt     time.Time    `bson:"updated_at" json:"updated_at"`
}

// Snapshot strips the transient fields and stamps the current schema
// version.
func (s Session) Snapshot() Snapshot {
	return Snapshot{
		SchemaVersion: SnapshotSchemaVersion,
		Mode:          s.Mode,
		User:          s.User,
		UpdatedAt:     time.Now().UTC(),
	}
}

// Valid reports whether the snapshot satisfies the session invariants:
// a known mode, a user exactly when the mode is not unauthenticated, and
// demo/guest flags consistent with the mode. Invalid snapshots are
// discarded at load time so a corrupt cache degrades to a signed-out
// session instead of crashing the app at boot.
func (s Snapshot) Valid() bool {
	if s.SchemaVersion != SnapshotSchemaVersion || !s.Mode.Valid() {
		return false
	}
	if s.Mode == ModeUnauthenticated {
		return s.User == nil
	}
	if s.User == nil {
		return false
	}
	switch s.Mode {
	case ModeRegistered:
		return !s.User.IsDemo && !s.User.IsGuest
	case ModeDemo:
		return s.User.IsDemo && !s.User.IsGuest
	case ModeGuest:
		return s.User.IsGuest && !s.User.IsDemo
	}
	return false
}
