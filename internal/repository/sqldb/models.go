package sqldb

import (
	"alcyxob/coaching-platform/internal/domain"
	"time"

	"gorm.io/datatypes"
)

// Row types mirror the domain structs. None embeds gorm.Model, so deletes
// are hard deletes.

type userRow struct {
	ID           string `gorm:"primaryKey;size:36"`
	Name         string
	Email        string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Role         string `gorm:"index;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (userRow) TableName() string { return "users" }

type planRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    string `gorm:"uniqueIndex:idx_plan_user_type;not null"`
	Type      string `gorm:"uniqueIndex:idx_plan_user_type;not null"`
	Status    string `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (planRow) TableName() string { return "workout_plans" }

type weekRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	PlanID    string `gorm:"uniqueIndex:idx_week_plan_number;not null"`
	Number    int    `gorm:"uniqueIndex:idx_week_plan_number;not null"`
	Label     string
	CreatedAt time.Time
}

func (weekRow) TableName() string { return "plan_weeks" }

type dayRow struct {
	ID        string `gorm:"primaryKey;size:36"`
	PlanID    string `gorm:"index;not null"`
	WeekID    string `gorm:"uniqueIndex:idx_day_week_number;not null"`
	Number    int    `gorm:"uniqueIndex:idx_day_week_number;not null"`
	Name      string
	CreatedAt time.Time
}

func (dayRow) TableName() string { return "plan_days" }

type workoutRow struct {
	ID              string `gorm:"primaryKey;size:36"`
	PlanID          string `gorm:"index:idx_workout_plan_sequence;not null"`
	WeekID          string `gorm:"not null"`
	DayID           string `gorm:"index;not null"`
	Name            string `gorm:"not null"`
	Notes           string
	Sets            *int
	Reps            *string
	Rest            *string
	Tempo           *string
	Weight          *string
	Duration        *string
	Sequence        int `gorm:"index:idx_workout_plan_sequence"`
	VideoKey        string
	PendingVideoKey string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (workoutRow) TableName() string { return "plan_workouts" }

type defaultsRow struct {
	Kind      string         `gorm:"primaryKey;size:32"`
	Language  string         `gorm:"primaryKey;size:35"`
	Data      datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (defaultsRow) TableName() string { return "defaults" }

func userToRow(u *domain.User) *userRow {
	return &userRow{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (r *userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Name:         r.Name,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		Role:         domain.Role(r.Role),
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func (r *planRow) toDomain() *domain.WorkoutPlan {
	return &domain.WorkoutPlan{
		ID:        r.ID,
		UserID:    r.UserID,
		Type:      domain.PlanType(r.Type),
		Status:    domain.PlanStatus(r.Status),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func (r weekRow) toDomain() domain.PlanWeek {
	return domain.PlanWeek{
		ID:        r.ID,
		PlanID:    r.PlanID,
		Number:    r.Number,
		Label:     r.Label,
		CreatedAt: r.CreatedAt,
	}
}

func (r dayRow) toDomain() domain.PlanDay {
	return domain.PlanDay{
		ID:        r.ID,
		PlanID:    r.PlanID,
		WeekID:    r.WeekID,
		Number:    r.Number,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
	}
}

func workoutToRow(w *domain.Workout) *workoutRow {
	return &workoutRow{
		ID:              w.ID,
		PlanID:          w.PlanID,
		WeekID:          w.WeekID,
		DayID:           w.DayID,
		Name:            w.Name,
		Notes:           w.Notes,
		Sets:            w.Sets,
		Reps:            w.Reps,
		Rest:            w.Rest,
		Tempo:           w.Tempo,
		Weight:          w.Weight,
		Duration:        w.Duration,
		Sequence:        w.Sequence,
		VideoKey:        w.VideoKey,
		PendingVideoKey: w.PendingVideoKey,
		CreatedAt:       w.CreatedAt,
		UpdatedAt:       w.UpdatedAt,
	}
}

func (r workoutRow) toDomain() domain.Workout {
	return domain.Workout{
		ID:              r.ID,
		PlanID:          r.PlanID,
		WeekID:          r.WeekID,
		DayID:           r.DayID,
		Name:            r.Name,
		Notes:           r.Notes,
		Sets:            r.Sets,
		Reps:            r.Reps,
		Rest:            r.Rest,
		Tempo:           r.Tempo,
		Weight:          r.Weight,
		Duration:        r.Duration,
		Sequence:        r.Sequence,
		VideoKey:        r.VideoKey,
		PendingVideoKey: r.PendingVideoKey,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}

func (r *defaultsRow) toDomain() *domain.Defaults {
	return &domain.Defaults{
		Kind:      domain.DefaultsKind(r.Kind),
		Language:  r.Language,
		Data:      []byte(r.Data),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}
