package models

import (
	"testing"
	"time"
)

func registeredUser() *User {
	now := time.Now().UTC()
	return &User{
		ID:          "user-1",
		Email:       "alex@example.com",
		DisplayName: "Alex",
		Role:        RoleUser,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestSnapshotValid(t *testing.T) {
	now := time.Now().UTC()

	guest := registeredUser()
	guest.IsGuest = true
	demoUser := registeredUser()
	demoUser.IsDemo = true
	both := registeredUser()
	both.IsDemo = true
	both.IsGuest = true

	tests := []struct {
		name string
		snap Snapshot
		want bool
	}{
		{
			name: "unauthenticated without user",
			snap: Snapshot{SchemaVersion: SnapshotSchemaVersion, Mode: ModeUnauthenticated, UpdatedAt: now},
			want: true,
		},
		{
			name: "unauthenticated with user",
			snap: Snapshot{SchemaVersion: SnapshotSchemaVersion, Mode: ModeUnauthenticated, User: registeredUser(), UpdatedAt: now},
			want: false,
		},
		{
			name: "registered with user",
			snap: Snapshot{SchemaVersion: SnapshotSchemaVersion, Mode: ModeRegistered, User: registeredUser(), UpdatedAt: now},
			want: true,
		},
		{
			name: "registered without user",
			snap: Snapshot{SchemaVersion: SnapshotSchemaVersion, Mode: ModeRegistered, UpdatedAt: now},
			want: false,
		},
		{
			name: "registered with guest flag",
			snap: Snapshot{SchemaVersion: SnapshotSchemaVersion, Mode: ModeRegistered, User: guest, UpdatedAt: now},
			want: false,
		},
		{
			name: "guest with guest flag",
			snap: Snapshot{SchemaVersion: SnapshotSchemaVersion, Mode: ModeGuest, User: guest, UpdatedAt: now},
			want: true,
		},
		{
			name: "demo with demo flag",
			snap: Snapshot{SchemaVersion: SnapshotSchemaVersion, Mode: ModeDemo, User: demoUser, UpdatedAt: now},
			want: true,
		},
		{
			name: "demo and guest flags together",
			snap: Snapshot{SchemaVersion: SnapshotSchemaVersion, Mode: ModeDemo, User: both, UpdatedAt: now},
			want: false,
		},
		{
			name: "unknown mode",
			snap: Snapshot{SchemaVersion: SnapshotSchemaVersion, Mode: "superuser", User: registeredUser(), UpdatedAt: now},
			want: false,
		},
		{
			name: "wrong schema version",
			snap: Snapshot{SchemaVersion: 99, Mode: ModeRegistered, User: registeredUser(), UpdatedAt: now},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.snap.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSessionSnapshotStripsTransientFields(t *testing.T) {
	sess := Session{
		Mode:      ModeRegistered,
		User:      registeredUser(),
		IsLoading: true,
		LastError: NewNetworkError(""),
	}

	snap := sess.Snapshot()
	if snap.SchemaVersion != SnapshotSchemaVersion {
		t.Errorf("SchemaVersion = %d, want %d", snap.SchemaVersion, SnapshotSchemaVersion)
	}
	if snap.Mode != ModeRegistered || snap.User == nil {
		t.Errorf("snapshot = %+v, want mode/user carried over", snap)
	}
	if snap.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not stamped")
	}
	if !snap.Valid() {
		t.Errorf("snapshot of a valid session must be valid: %+v", snap)
	}
}
