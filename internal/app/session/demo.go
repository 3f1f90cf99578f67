// internal/app/session/demo.go
package session

import (
	"sort"
	"time"

	"github.com/gymovoo/gymovoo/internal/domain/models"
)

// Demo identities are canned, deterministic users keyed by experience
// level. The same level always yields the same id and stats so demo
// walkthroughs and screenshots are reproducible.

var demoCreated = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

type demoTemplate struct {
	displayName string
	goal        string
	stats       models.Stats
}

var demoTemplates = map[string]demoTemplate{
	"beginner": {
		displayName: "Demo Beginner",
		goal:        "build_habit",
		stats: models.Stats{
			WorkoutsCompleted: 12,
			TotalMinutes:      540,
			StreakDays:        4,
			PersonalRecords:   2,
			CreatedAt:         demoCreated,
			UpdatedAt:         demoCreated,
		},
	},
	"intermediate": {
		displayName: "Demo Intermediate",
		goal:        "gain_muscle",
		stats: models.Stats{
			WorkoutsCompleted: 86,
			TotalMinutes:      4310,
			StreakDays:        11,
			PersonalRecords:   9,
			CreatedAt:         demoCreated,
			UpdatedAt:         demoCreated,
		},
	},
	"advanced": {
		displayName: "Demo Advanced",
		goal:        "compete",
		stats: models.Stats{
			WorkoutsCompleted: 412,
			TotalMinutes:      21650,
			StreakDays:        37,
			PersonalRecords:   28,
			CreatedAt:         demoCreated,
			UpdatedAt:         demoCreated,
		},
	},
}

// DemoLevels returns the available demo levels in sorted order.
func DemoLevels() []string {
	levels := make([]string, 0, len(demoTemplates))
	for level := range demoTemplates {
		levels = append(levels, level)
	}
	sort.Strings(levels)
	return levels
}

// DemoUser builds the demo user for a level. The second return is false
// when the level has no template.
func DemoUser(level string) (*models.User, bool) {
	tmpl, ok := demoTemplates[level]
	if !ok {
		return nil, false
	}

	id := "demo-" + level
	stats := tmpl.stats
	return &models.User{
		ID:          id,
		Email:       id + "@demo.gymovoo.app",
		DisplayName: tmpl.displayName,
		Role:        models.RoleUser,
		IsDemo:      true,
		Profile: &models.Profile{
			DisplayName:     tmpl.displayName,
			Goal:            tmpl.goal,
			ExperienceLevel: level,
			CreatedAt:       demoCreated,
			UpdatedAt:       demoCreated,
		},
		Preferences: &models.Preferences{
			Theme:         "system",
			Units:         "metric",
			Notifications: true,
			CreatedAt:     demoCreated,
			UpdatedAt:     demoCreated,
		},
		Stats:     &stats,
		CreatedAt: demoCreated,
		UpdatedAt: demoCreated,
	}, true
}
