// internal/domain/plan.go
package domain

import (
	"errors"
	"fmt"
	"time"
)

// PlanType is the category of a workout plan. The set is closed: values are
// case-sensitive tokens and anything outside it is rejected.
type PlanType string

const (
	PlanTypeCurrentWeeks PlanType = "CURRENT_WEEKS"
	PlanTypeNextWeeks    PlanType = "NEXT_WEEKS"
	PlanTypeTemplate     PlanType = "TEMPLATE"

	// DefaultPlanType is used when a request omits the type.
	DefaultPlanType = PlanTypeCurrentWeeks
)

// ErrInvalidPlanType is returned by ParsePlanType for unknown tokens.
var ErrInvalidPlanType = errors.New("invalid plan type")

// PlanTypes lists every accepted plan type.
func PlanTypes() []PlanType {
	return []PlanType{PlanTypeCurrentWeeks, PlanTypeNextWeeks, PlanTypeTemplate}
}

// ParsePlanType validates a raw token. An empty string yields DefaultPlanType.
func ParsePlanType(raw string) (PlanType, error) {
	if raw == "" {
		return DefaultPlanType, nil
	}
	for _, t := range PlanTypes() {
		if string(t) == raw {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPlanType, raw)
}

// PlanStatus tracks the lifecycle of a plan. Only ACTIVE exists today:
// a plan is either present (active) or deleted outright.
type PlanStatus string

const (
	PlanStatusActive PlanStatus = "ACTIVE"
)

// WorkoutPlan is the aggregate root. At most one plan exists per (UserID, Type).
type WorkoutPlan struct {
	ID        string     `bson:"_id" json:"id"`
	UserID    string     `bson:"userId" json:"userId"`
	Type      PlanType   `bson:"type" json:"type"`
	Status    PlanStatus `bson:"status" json:"status"`
	CreatedAt time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time  `bson:"updatedAt" json:"updatedAt"`

	// Weeks is populated when the full tree is loaded; it is never persisted on the root.
	Weeks []PlanWeek `bson:"-" json:"weeks"`
}

// PlanWeek is owned by exactly one plan.
type PlanWeek struct {
	ID        string    `bson:"_id" json:"id"`
	PlanID    string    `bson:"planId" json:"planId"`
	Number    int       `bson:"number" json:"number"` // 1-based, unique within the plan
	Label     string    `bson:"label,omitempty" json:"label,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`

	Days []PlanDay `bson:"-" json:"days"`
}

// PlanDay belongs to a week. PlanID is denormalized so the whole subtree can be
// removed by plan id.
type PlanDay struct {
	ID        string    `bson:"_id" json:"id"`
	PlanID    string    `bson:"planId" json:"planId"`
	WeekID    string    `bson:"weekId" json:"weekId"`
	Number    int       `bson:"number" json:"number"` // 1 (Mon) - 7 (Sun), unique within the week
	Name      string    `bson:"name,omitempty" json:"name,omitempty"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`

	Workouts []Workout `bson:"-" json:"workouts"`
}

// Workout is a single prescribed exercise block within a day.
type Workout struct {
	ID       string  `bson:"_id" json:"id"`
	PlanID   string  `bson:"planId" json:"planId"`
	WeekID   string  `bson:"weekId" json:"weekId"`
	DayID    string  `bson:"dayId" json:"dayId"`
	Name     string  `bson:"name" json:"name"` // e.g., "Back Squat", "Tempo Run"
	Notes    string  `bson:"notes,omitempty" json:"notes,omitempty"`
	Sets     *int    `bson:"sets,omitempty" json:"sets,omitempty"`
	Reps     *string `bson:"reps,omitempty" json:"reps,omitempty"`         // "8-12", "AMRAP"
	Rest     *string `bson:"rest,omitempty" json:"rest,omitempty"`         // "90s"
	Tempo    *string `bson:"tempo,omitempty" json:"tempo,omitempty"`       // "3-1-X-1"
	Weight   *string `bson:"weight,omitempty" json:"weight,omitempty"`     // "70% 1RM"
	Duration *string `bson:"duration,omitempty" json:"duration,omitempty"` // "20min"
	Sequence int     `bson:"sequence" json:"sequence"`                     // Order within the day

	// VideoKey is the object storage key of an optional demo video. Internal only.
	VideoKey string `bson:"videoKey,omitempty" json:"-"`
	// PendingVideoKey is the target of an issued upload URL. It replaces
	// VideoKey once the object is found in storage.
	PendingVideoKey string `bson:"pendingVideoKey,omitempty" json:"-"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// HasVideo reports whether a video object was attached to the workout.
func (w *Workout) HasVideo() bool {
	return w.VideoKey != ""
}

// PlanDeletion is the outcome of a cascading delete.
type PlanDeletion struct {
	PlanID    string
	VideoKeys []string // confirmed and pending objects of deleted workouts, removed after commit
}
