package sqldb

import (
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type planRepository struct {
	db *gorm.DB
}

// GetOrCreate inserts the plan unless (user_id, type) already exists, then
// reads back whichever row won.
func (r *planRepository) GetOrCreate(ctx context.Context, userID string, planType domain.PlanType) (*domain.WorkoutPlan, error) {
	now := time.Now().UTC()
	row := planRow{
		ID:        uuid.NewString(),
		UserID:    userID,
		Type:      string(planType),
		Status:    string(domain.PlanStatusActive),
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "type"}},
			DoNothing: true,
		}).
		Create(&row).Error
	if err != nil {
		return nil, err
	}
	return r.FindByUserAndType(ctx, userID, planType)
}

func (r *planRepository) FindByUserAndType(ctx context.Context, userID string, planType domain.PlanType) (*domain.WorkoutPlan, error) {
	var row planRow
	if err := r.db.WithContext(ctx).Where("user_id = ? AND type = ?", userID, string(planType)).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

func (r *planRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutPlan, error) {
	var row planRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	return row.toDomain(), nil
}

// FindTree reads the root and its descendants inside one read-only
// repeatable-read transaction.
func (r *planRepository) FindTree(ctx context.Context, userID string, planType domain.PlanType) (*domain.WorkoutPlan, error) {
	var plan *domain.WorkoutPlan
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row planRow
		if err := tx.Where("user_id = ? AND type = ?", userID, string(planType)).Take(&row).Error; err != nil {
			return translate(err)
		}
		plan = row.toDomain()

		weeks, err := loadTree(tx, plan.ID)
		if err != nil {
			return err
		}
		plan.Weeks = weeks
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func loadTree(tx *gorm.DB, planID string) ([]domain.PlanWeek, error) {
	var weeks []weekRow
	if err := tx.Where("plan_id = ?", planID).Order("number").Find(&weeks).Error; err != nil {
		return nil, fmt.Errorf("load weeks: %w", err)
	}
	var days []dayRow
	if err := tx.Where("plan_id = ?", planID).Order("number").Find(&days).Error; err != nil {
		return nil, fmt.Errorf("load days: %w", err)
	}
	var workouts []workoutRow
	if err := tx.Where("plan_id = ?", planID).Order("sequence").Find(&workouts).Error; err != nil {
		return nil, fmt.Errorf("load workouts: %w", err)
	}

	return repository.AssembleTree(
		lo.Map(weeks, func(w weekRow, _ int) domain.PlanWeek { return w.toDomain() }),
		lo.Map(days, func(d dayRow, _ int) domain.PlanDay { return d.toDomain() }),
		lo.Map(workouts, func(w workoutRow, _ int) domain.Workout { return w.toDomain() }),
	), nil
}

func (r *planRepository) AddWeek(ctx context.Context, week *domain.PlanWeek) error {
	if week.PlanID == "" || week.Number < 1 {
		return errors.New("week requires planId and a positive number")
	}
	week.ID = uuid.NewString()
	week.CreatedAt = time.Now().UTC()

	row := weekRow{ID: week.ID, PlanID: week.PlanID, Number: week.Number, Label: week.Label, CreatedAt: week.CreatedAt}
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *planRepository) GetWeek(ctx context.Context, id string) (*domain.PlanWeek, error) {
	var row weekRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	week := row.toDomain()
	return &week, nil
}

func (r *planRepository) CountWeeks(ctx context.Context, planID string) (int, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&weekRow{}).Where("plan_id = ?", planID).Count(&n).Error; err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *planRepository) AddDay(ctx context.Context, day *domain.PlanDay) error {
	if day.PlanID == "" || day.WeekID == "" {
		return errors.New("day requires planId and weekId")
	}
	day.ID = uuid.NewString()
	day.CreatedAt = time.Now().UTC()

	row := dayRow{ID: day.ID, PlanID: day.PlanID, WeekID: day.WeekID, Number: day.Number, Name: day.Name, CreatedAt: day.CreatedAt}
	return translate(r.db.WithContext(ctx).Create(&row).Error)
}

func (r *planRepository) GetDay(ctx context.Context, id string) (*domain.PlanDay, error) {
	var row dayRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	day := row.toDomain()
	return &day, nil
}

func (r *planRepository) AddWorkout(ctx context.Context, workout *domain.Workout) error {
	if workout.PlanID == "" || workout.WeekID == "" || workout.DayID == "" || workout.Name == "" {
		return errors.New("workout requires planId, weekId, dayId, and name")
	}
	workout.ID = uuid.NewString()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	return translate(r.db.WithContext(ctx).Create(workoutToRow(workout)).Error)
}

func (r *planRepository) GetWorkout(ctx context.Context, id string) (*domain.Workout, error) {
	var row workoutRow
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return nil, translate(err)
	}
	workout := row.toDomain()
	return &workout, nil
}

func (r *planRepository) SetPendingVideoKey(ctx context.Context, workoutID, videoKey string) error {
	res := r.db.WithContext(ctx).Model(&workoutRow{}).
		Where("id = ?", workoutID).
		Updates(map[string]interface{}{"pending_video_key": videoKey, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *planRepository) PromotePendingVideo(ctx context.Context, workoutID, videoKey string) (bool, error) {
	if videoKey == "" {
		return false, nil
	}
	res := r.db.WithContext(ctx).Model(&workoutRow{}).
		Where("id = ? AND pending_video_key = ?", workoutID, videoKey).
		Updates(map[string]interface{}{"video_key": videoKey, "pending_video_key": "", "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// DeleteCascade removes workouts, days, weeks and finally the plan row inside
// one transaction. Every statement goes through tx; a failure at any step
// rolls the whole subtree back.
func (r *planRepository) DeleteCascade(ctx context.Context, planID, userID string) (*domain.PlanDeletion, error) {
	deletion := &domain.PlanDeletion{PlanID: planID}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plan planRow
		if err := tx.Where("id = ? AND user_id = ?", planID, userID).Take(&plan).Error; err != nil {
			return translate(err)
		}

		for _, column := range []string{"video_key", "pending_video_key"} {
			var keys []string
			if err := tx.Model(&workoutRow{}).
				Where("plan_id = ? AND "+column+" <> ''", planID).
				Pluck(column, &keys).Error; err != nil {
				return fmt.Errorf("collect video keys: %w", err)
			}
			deletion.VideoKeys = append(deletion.VideoKeys, keys...)
		}

		for _, child := range []interface{}{&workoutRow{}, &dayRow{}, &weekRow{}} {
			if err := tx.Where("plan_id = ?", planID).Delete(child).Error; err != nil {
				return fmt.Errorf("delete plan children: %w", err)
			}
		}

		res := tx.Where("id = ? AND user_id = ?", planID, userID).Delete(&planRow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return repository.ErrNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return deletion, nil
}
