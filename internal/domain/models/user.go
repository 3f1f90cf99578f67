// internal/domain/models/user.go
package models

import "time"

// Identity modes. Exactly one mode is active at a time; every mode except
// ModeUnauthenticated carries a non-nil User.
type IdentityMode string

const (
	ModeUnauthenticated IdentityMode = "unauthenticated"
	ModeRegistered      IdentityMode = "registered"
	ModeDemo            IdentityMode = "demo"
	ModeGuest           IdentityMode = "guest"
)

// Valid reports whether m is one of the known identity modes.
func (m IdentityMode) Valid() bool {
	switch m {
	case ModeUnauthenticated, ModeRegistered, ModeDemo, ModeGuest:
		return true
	}
	return false
}

// User roles. The identity provider assigns roles to registered accounts;
// demo and guest users are always plain users.
const (
	RoleUser    = "user"
	RoleAdmin   = "admin"
	RoleTrainer = "trainer"
)

// Profile is the user-editable profile record, mirroring the provider's
// profiles table. Nil on a User means the record has not been fetched or
// does not exist.
type Profile struct {
	DisplayName     string    `bson:"display_name" json:"display_name"`
	AvatarURL       string    `bson:"avatar_url,omitempty" json:"avatar_url,omitempty"`
	Goal            string    `bson:"goal,omitempty" json:"goal,omitempty"`
	ExperienceLevel string    `bson:"experience_level,omitempty" json:"experience_level,omitempty"` // beginner | intermediate | advanced
	CreatedAt       time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time `bson:"updated_at" json:"updated_at"`
}

// Preferences mirrors the provider's preferences table.
type Preferences struct {
	Theme         string    `bson:"theme,omitempty" json:"theme,omitempty"` // light | dark | system
	Language      string    `bson:"language,omitempty" json:"language,omitempty"`
	Units         string    `bson:"units,omitempty" json:"units,omitempty"` // metric | imperial
	Notifications bool      `bson:"notifications" json:"notifications"`
	CreatedAt     time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt     time.Time `bson:"updated_at" json:"updated_at"`
}

// Stats mirrors the provider's workout stats table.
type Stats struct {
	WorkoutsCompleted int       `bson:"workouts_completed" json:"workouts_completed"`
	TotalMinutes      int       `bson:"total_minutes" json:"total_minutes"`
	StreakDays        int       `bson:"streak_days" json:"streak_days"`
	PersonalRecords   int       `bson:"personal_records" json:"personal_records"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt         time.Time `bson:"updated_at" json:"updated_at"`
}

// User is the identity plus profile snapshot carried by a session.
//
// Registered users get their ID from the identity provider. Demo users
// have deterministic ids ("demo-<level>"); guest users get a freshly
// generated id containing the creation timestamp so guest ids are never
// reused.
//
// IsDemo/IsGuest are derived from the session's identity mode: at most
// one is true, and both are false for registered users.
type User struct {
	ID          string       `bson:"id" json:"id"`
	Email       string       `bson:"email" json:"email"`
	DisplayName string       `bson:"display_name" json:"display_name"`
	Role        string       `bson:"role" json:"role"`
	IsDemo      bool         `bson:"is_demo" json:"is_demo"`
	IsGuest     bool         `bson:"is_guest" json:"is_guest"`
	Profile     *Profile     `bson:"profile,omitempty" json:"profile,omitempty"`
	Preferences *Preferences `bson:"preferences,omitempty" json:"preferences,omitempty"`
	Stats       *Stats       `bson:"stats,omitempty" json:"stats,omitempty"`
	CreatedAt   time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `bson:"updated_at" json:"updated_at"`
}
