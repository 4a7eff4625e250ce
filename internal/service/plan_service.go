package service

import (
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	"alcyxob/coaching-platform/internal/storage"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// objectCleanupTimeout bounds the best-effort removal of video objects after
// a plan delete has committed.
const objectCleanupTimeout = 30 * time.Second

// WorkoutInput carries the caller-supplied fields of a new workout.
type WorkoutInput struct {
	Name     string
	Notes    string
	Sets     *int
	Reps     *string
	Rest     *string
	Tempo    *string
	Weight   *string
	Duration *string
	Sequence int
}

type PlanService interface {
	FindActivePlan(ctx context.Context, userID string, planType domain.PlanType) (*domain.WorkoutPlan, error)
	// DeletePlan removes the plan and its whole tree, returning the deleted plan id.
	DeletePlan(ctx context.Context, userID string, planType domain.PlanType) (string, error)

	AddWeek(ctx context.Context, userID string, planType domain.PlanType, label string) (*domain.PlanWeek, error)
	AddDay(ctx context.Context, userID, weekID string, number int, name string) (*domain.PlanDay, error)
	AddWorkout(ctx context.Context, userID, dayID string, input WorkoutInput) (*domain.Workout, error)

	// WorkoutVideoUploadURL issues a PUT URL for a new video. The current
	// video is kept until the new object shows up in storage.
	WorkoutVideoUploadURL(ctx context.Context, userID, workoutID, contentType string) (uploadURL, objectKey string, err error)
	WorkoutVideoDownloadURL(ctx context.Context, userID, workoutID string) (string, error)
}

type planService struct {
	planRepo    repository.PlanRepository
	fileStorage storage.FileStorage // nil when object storage is not configured
	urlExpiry   time.Duration
	logger      *zap.Logger
}

// NewPlanService creates the plan service. fileStorage may be nil.
func NewPlanService(planRepo repository.PlanRepository, fileStorage storage.FileStorage, urlExpiry time.Duration, logger *zap.Logger) PlanService {
	return &planService{
		planRepo:    planRepo,
		fileStorage: fileStorage,
		urlExpiry:   urlExpiry,
		logger:      logger.Named("plans"),
	}
}

func (s *planService) FindActivePlan(ctx context.Context, userID string, planType domain.PlanType) (*domain.WorkoutPlan, error) {
	plan, err := s.planRepo.FindTree(ctx, userID, planType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return plan, nil
}

func (s *planService) DeletePlan(ctx context.Context, userID string, planType domain.PlanType) (string, error) {
	plan, err := s.planRepo.FindByUserAndType(ctx, userID, planType)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrPlanNotFound
		}
		return "", err
	}

	deletion, err := s.planRepo.DeleteCascade(ctx, plan.ID, userID)
	if err != nil {
		// a concurrent delete got there first
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrPlanNotFound
		}
		return "", fmt.Errorf("delete plan %s: %w", plan.ID, err)
	}

	s.logger.Info("plan deleted",
		zap.String("planId", deletion.PlanID),
		zap.String("userId", userID),
		zap.String("type", string(planType)),
	)
	s.removeObjects(ctx, deletion.VideoKeys)
	return deletion.PlanID, nil
}

// removeObjects deletes storage objects that no longer have an owning row.
// The rows are already gone, so failures are only logged.
func (s *planService) removeObjects(ctx context.Context, keys []string) {
	if s.fileStorage == nil || len(keys) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), objectCleanupTimeout)
	defer cancel()

	for _, key := range keys {
		if err := s.fileStorage.DeleteObject(ctx, key); err != nil {
			s.logger.Warn("failed to remove orphaned video object", zap.String("key", key), zap.Error(err))
		}
	}
}

func (s *planService) AddWeek(ctx context.Context, userID string, planType domain.PlanType, label string) (*domain.PlanWeek, error) {
	plan, err := s.planRepo.GetOrCreate(ctx, userID, planType)
	if err != nil {
		return nil, err
	}

	count, err := s.planRepo.CountWeeks(ctx, plan.ID)
	if err != nil {
		return nil, err
	}

	week := &domain.PlanWeek{PlanID: plan.ID, Number: count + 1, Label: label}
	if err := s.planRepo.AddWeek(ctx, week); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateNumber
		}
		return nil, err
	}
	week.Days = []domain.PlanDay{}
	return week, nil
}

func (s *planService) AddDay(ctx context.Context, userID, weekID string, number int, name string) (*domain.PlanDay, error) {
	if number < 1 || number > 7 {
		return nil, ErrInvalidDayNumber
	}

	week, err := s.planRepo.GetWeek(ctx, weekID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWeekNotFound
		}
		return nil, err
	}
	if err := s.checkOwner(ctx, week.PlanID, userID, ErrWeekNotFound); err != nil {
		return nil, err
	}

	day := &domain.PlanDay{PlanID: week.PlanID, WeekID: week.ID, Number: number, Name: name}
	if err := s.planRepo.AddDay(ctx, day); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrDuplicateNumber
		}
		return nil, err
	}
	day.Workouts = []domain.Workout{}
	return day, nil
}

func (s *planService) AddWorkout(ctx context.Context, userID, dayID string, input WorkoutInput) (*domain.Workout, error) {
	if input.Name == "" {
		return nil, ErrInvalidWorkout
	}

	day, err := s.planRepo.GetDay(ctx, dayID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrDayNotFound
		}
		return nil, err
	}
	if err := s.checkOwner(ctx, day.PlanID, userID, ErrDayNotFound); err != nil {
		return nil, err
	}

	workout := &domain.Workout{
		PlanID:   day.PlanID,
		WeekID:   day.WeekID,
		DayID:    day.ID,
		Name:     input.Name,
		Notes:    input.Notes,
		Sets:     input.Sets,
		Reps:     input.Reps,
		Rest:     input.Rest,
		Tempo:    input.Tempo,
		Weight:   input.Weight,
		Duration: input.Duration,
		Sequence: input.Sequence,
	}
	if err := s.planRepo.AddWorkout(ctx, workout); err != nil {
		return nil, err
	}
	return workout, nil
}

func (s *planService) WorkoutVideoUploadURL(ctx context.Context, userID, workoutID, contentType string) (string, string, error) {
	if s.fileStorage == nil {
		return "", "", ErrStorageDisabled
	}
	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return "", "", err
	}

	objectKey, err := storage.VideoObjectKey(workout.PlanID, workout.ID, uuid.NewString(), contentType)
	if err != nil {
		return "", "", ErrInvalidVideoType
	}

	uploadURL, err := s.fileStorage.GeneratePresignedUploadURL(ctx, objectKey, contentType, s.urlExpiry)
	if err != nil {
		return "", "", err
	}

	// A finished upload under the previous URL is kept before the pending
	// slot is overwritten.
	if err := s.confirmVideo(ctx, workout); err != nil {
		return "", "", err
	}
	if err := s.planRepo.SetPendingVideoKey(ctx, workout.ID, objectKey); err != nil {
		return "", "", err
	}
	if workout.PendingVideoKey != "" {
		s.removeObjects(ctx, []string{workout.PendingVideoKey})
	}
	return uploadURL, objectKey, nil
}

func (s *planService) WorkoutVideoDownloadURL(ctx context.Context, userID, workoutID string) (string, error) {
	if s.fileStorage == nil {
		return "", ErrStorageDisabled
	}
	workout, err := s.ownedWorkout(ctx, userID, workoutID)
	if err != nil {
		return "", err
	}
	if err := s.confirmVideo(ctx, workout); err != nil {
		s.logger.Warn("failed to confirm pending video", zap.String("workoutId", workout.ID), zap.Error(err))
	}
	if !workout.HasVideo() {
		return "", ErrNoVideo
	}
	return s.fileStorage.GeneratePresignedDownloadURL(ctx, workout.VideoKey, s.urlExpiry)
}

// confirmVideo promotes the pending key once its object exists in storage and
// removes the video it replaced. workout is updated in place.
func (s *planService) confirmVideo(ctx context.Context, workout *domain.Workout) error {
	if workout.PendingVideoKey == "" {
		return nil
	}
	uploaded, err := s.fileStorage.ObjectExists(ctx, workout.PendingVideoKey)
	if err != nil {
		return fmt.Errorf("check pending video: %w", err)
	}
	if !uploaded {
		return nil
	}

	promoted, err := s.planRepo.PromotePendingVideo(ctx, workout.ID, workout.PendingVideoKey)
	if err != nil {
		return err
	}
	if !promoted {
		// someone else moved the pending key
		current, err := s.planRepo.GetWorkout(ctx, workout.ID)
		if err != nil {
			return err
		}
		*workout = *current
		return nil
	}

	replaced := workout.VideoKey
	workout.VideoKey, workout.PendingVideoKey = workout.PendingVideoKey, ""
	if replaced != "" && replaced != workout.VideoKey {
		s.removeObjects(ctx, []string{replaced})
	}
	return nil
}

func (s *planService) ownedWorkout(ctx context.Context, userID, workoutID string) (*domain.Workout, error) {
	workout, err := s.planRepo.GetWorkout(ctx, workoutID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkoutNotFound
		}
		return nil, err
	}
	if err := s.checkOwner(ctx, workout.PlanID, userID, ErrWorkoutNotFound); err != nil {
		return nil, err
	}
	return workout, nil
}

// checkOwner returns notFound unless planID belongs to userID, so callers
// cannot discover other users' entries.
func (s *planService) checkOwner(ctx context.Context, planID, userID string, notFound error) error {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFound
		}
		return err
	}
	if plan.UserID != userID {
		return notFound
	}
	return nil
}
