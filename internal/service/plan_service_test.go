package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	"alcyxob/coaching-platform/internal/testutil"

	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

type PlanServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	repo    repository.PlanRepository
	storage *fakeStorage
	svc     PlanService
}

func (s *PlanServiceTestSuite) SetupTest() {
	client := testutil.SetupTestDB(s.T())
	s.ctx = context.Background()
	s.repo = client.Plans()
	s.storage = &fakeStorage{failKeys: map[string]bool{}}
	s.svc = NewPlanService(s.repo, s.storage, time.Minute, zap.NewNop())
}

func TestPlanServiceTestSuite(t *testing.T) {
	suite.Run(t, new(PlanServiceTestSuite))
}

// seed builds weeks x 7 days with one workout per day for the user.
func (s *PlanServiceTestSuite) seed(userID string, planType domain.PlanType, weeks int) string {
	var planID string
	for w := 0; w < weeks; w++ {
		week, err := s.svc.AddWeek(s.ctx, userID, planType, "")
		s.Require().NoError(err)
		planID = week.PlanID
		for d := 1; d <= 7; d++ {
			day, err := s.svc.AddDay(s.ctx, userID, week.ID, d, "")
			s.Require().NoError(err)
			_, err = s.svc.AddWorkout(s.ctx, userID, day.ID, WorkoutInput{Name: "Squat", Sequence: 1})
			s.Require().NoError(err)
		}
	}
	return planID
}

func (s *PlanServiceTestSuite) TestFindActivePlanMissing() {
	_, err := s.svc.FindActivePlan(s.ctx, "user42", domain.PlanTypeCurrentWeeks)
	s.ErrorIs(err, ErrPlanNotFound)
}

func (s *PlanServiceTestSuite) TestAddWeekCreatesPlanAndNumbersSequentially() {
	first, err := s.svc.AddWeek(s.ctx, "user42", domain.PlanTypeCurrentWeeks, "Base")
	s.Require().NoError(err)
	second, err := s.svc.AddWeek(s.ctx, "user42", domain.PlanTypeCurrentWeeks, "")
	s.Require().NoError(err)

	s.Equal(first.PlanID, second.PlanID)
	s.Equal(1, first.Number)
	s.Equal(2, second.Number)

	plan, err := s.svc.FindActivePlan(s.ctx, "user42", domain.PlanTypeCurrentWeeks)
	s.Require().NoError(err)
	s.Equal(first.PlanID, plan.ID)
	s.Len(plan.Weeks, 2)
	s.Equal("Base", plan.Weeks[0].Label)
}

func (s *PlanServiceTestSuite) TestAddDayValidation() {
	week, err := s.svc.AddWeek(s.ctx, "user42", domain.PlanTypeCurrentWeeks, "")
	s.Require().NoError(err)

	_, err = s.svc.AddDay(s.ctx, "user42", week.ID, 0, "")
	s.ErrorIs(err, ErrInvalidDayNumber)
	_, err = s.svc.AddDay(s.ctx, "user42", week.ID, 8, "")
	s.ErrorIs(err, ErrInvalidDayNumber)

	_, err = s.svc.AddDay(s.ctx, "user42", week.ID, 1, "Monday")
	s.Require().NoError(err)
	_, err = s.svc.AddDay(s.ctx, "user42", week.ID, 1, "Monday again")
	s.ErrorIs(err, ErrDuplicateNumber)

	_, err = s.svc.AddDay(s.ctx, "user42", "missing-week", 2, "")
	s.ErrorIs(err, ErrWeekNotFound)
}

func (s *PlanServiceTestSuite) TestForeignEntriesLookMissing() {
	week, err := s.svc.AddWeek(s.ctx, "owner", domain.PlanTypeCurrentWeeks, "")
	s.Require().NoError(err)
	day, err := s.svc.AddDay(s.ctx, "owner", week.ID, 1, "")
	s.Require().NoError(err)
	workout, err := s.svc.AddWorkout(s.ctx, "owner", day.ID, WorkoutInput{Name: "Row"})
	s.Require().NoError(err)

	_, err = s.svc.AddDay(s.ctx, "intruder", week.ID, 2, "")
	s.ErrorIs(err, ErrWeekNotFound)
	_, err = s.svc.AddWorkout(s.ctx, "intruder", day.ID, WorkoutInput{Name: "Row"})
	s.ErrorIs(err, ErrDayNotFound)
	_, _, err = s.svc.WorkoutVideoUploadURL(s.ctx, "intruder", workout.ID, "video/mp4")
	s.ErrorIs(err, ErrWorkoutNotFound)
}

func (s *PlanServiceTestSuite) TestAddWorkoutRequiresName() {
	week, err := s.svc.AddWeek(s.ctx, "user42", domain.PlanTypeCurrentWeeks, "")
	s.Require().NoError(err)
	day, err := s.svc.AddDay(s.ctx, "user42", week.ID, 1, "")
	s.Require().NoError(err)

	_, err = s.svc.AddWorkout(s.ctx, "user42", day.ID, WorkoutInput{})
	s.ErrorIs(err, ErrInvalidWorkout)
}

func (s *PlanServiceTestSuite) TestDeletePlanScenario() {
	planID := s.seed("user42", domain.PlanTypeCurrentWeeks, 2)

	plan, err := s.svc.FindActivePlan(s.ctx, "user42", domain.PlanTypeCurrentWeeks)
	s.Require().NoError(err)
	s.Require().Len(plan.Weeks, 2)
	days := 0
	for _, w := range plan.Weeks {
		days += len(w.Days)
	}
	s.Equal(14, days)

	deletedID, err := s.svc.DeletePlan(s.ctx, "user42", domain.PlanTypeCurrentWeeks)
	s.Require().NoError(err)
	s.Equal(planID, deletedID)

	_, err = s.svc.FindActivePlan(s.ctx, "user42", domain.PlanTypeCurrentWeeks)
	s.ErrorIs(err, ErrPlanNotFound)

	count, err := s.repo.CountWeeks(s.ctx, planID)
	s.Require().NoError(err)
	s.Zero(count)
	for _, w := range plan.Weeks {
		_, err := s.repo.GetWeek(s.ctx, w.ID)
		s.ErrorIs(err, repository.ErrNotFound)
		for _, d := range w.Days {
			_, err := s.repo.GetDay(s.ctx, d.ID)
			s.ErrorIs(err, repository.ErrNotFound)
			for _, wo := range d.Workouts {
				_, err := s.repo.GetWorkout(s.ctx, wo.ID)
				s.ErrorIs(err, repository.ErrNotFound)
			}
		}
	}
}

func (s *PlanServiceTestSuite) TestDeletePlanIsIdempotent() {
	s.seed("user42", domain.PlanTypeNextWeeks, 1)

	_, err := s.svc.DeletePlan(s.ctx, "user42", domain.PlanTypeNextWeeks)
	s.Require().NoError(err)

	for i := 0; i < 3; i++ {
		_, err = s.svc.DeletePlan(s.ctx, "user42", domain.PlanTypeNextWeeks)
		s.ErrorIs(err, ErrPlanNotFound)
	}
}

func (s *PlanServiceTestSuite) TestDeletePlanOnlyTouchesRequestedType() {
	s.seed("user42", domain.PlanTypeCurrentWeeks, 1)
	templateID := s.seed("user42", domain.PlanTypeTemplate, 1)

	_, err := s.svc.DeletePlan(s.ctx, "user42", domain.PlanTypeCurrentWeeks)
	s.Require().NoError(err)

	plan, err := s.svc.FindActivePlan(s.ctx, "user42", domain.PlanTypeTemplate)
	s.Require().NoError(err)
	s.Equal(templateID, plan.ID)
	s.Len(plan.Weeks, 1)
}

func (s *PlanServiceTestSuite) TestDeletePlanRemovesVideosBestEffort() {
	week, err := s.svc.AddWeek(s.ctx, "user42", domain.PlanTypeCurrentWeeks, "")
	s.Require().NoError(err)
	day, err := s.svc.AddDay(s.ctx, "user42", week.ID, 1, "")
	s.Require().NoError(err)

	var keys []string
	for i := 0; i < 2; i++ {
		workout, err := s.svc.AddWorkout(s.ctx, "user42", day.ID, WorkoutInput{Name: "Clean", Sequence: i})
		s.Require().NoError(err)
		_, key, err := s.svc.WorkoutVideoUploadURL(s.ctx, "user42", workout.ID, "video/mp4")
		s.Require().NoError(err)
		keys = append(keys, key)
	}
	s.storage.failKeys[keys[0]] = true

	_, err = s.svc.DeletePlan(s.ctx, "user42", domain.PlanTypeCurrentWeeks)
	s.Require().NoError(err, "storage failures do not fail the delete")
	s.Equal([]string{keys[1]}, s.storage.deletedKeys())
}

func (s *PlanServiceTestSuite) TestWorkoutVideoURLs() {
	week, err := s.svc.AddWeek(s.ctx, "user42", domain.PlanTypeCurrentWeeks, "")
	s.Require().NoError(err)
	day, err := s.svc.AddDay(s.ctx, "user42", week.ID, 1, "")
	s.Require().NoError(err)
	workout, err := s.svc.AddWorkout(s.ctx, "user42", day.ID, WorkoutInput{Name: "Snatch"})
	s.Require().NoError(err)

	_, err = s.svc.WorkoutVideoDownloadURL(s.ctx, "user42", workout.ID)
	s.ErrorIs(err, ErrNoVideo)

	_, _, err = s.svc.WorkoutVideoUploadURL(s.ctx, "user42", workout.ID, "image/gif")
	s.ErrorIs(err, ErrInvalidVideoType)

	uploadURL, key, err := s.svc.WorkoutVideoUploadURL(s.ctx, "user42", workout.ID, "video/webm")
	s.Require().NoError(err)
	s.Contains(key, "workouts/"+workout.PlanID+"/"+workout.ID+"/")
	s.Equal("https://storage.test/put/"+key, uploadURL)

	_, err = s.svc.WorkoutVideoDownloadURL(s.ctx, "user42", workout.ID)
	s.ErrorIs(err, ErrNoVideo, "nothing uploaded yet")

	s.storage.upload(key)
	downloadURL, err := s.svc.WorkoutVideoDownloadURL(s.ctx, "user42", workout.ID)
	s.Require().NoError(err)
	s.Equal("https://storage.test/get/"+key, downloadURL)

	_, newKey, err := s.svc.WorkoutVideoUploadURL(s.ctx, "user42", workout.ID, "video/mp4")
	s.Require().NoError(err)
	s.NotEqual(key, newKey)
	s.Empty(s.storage.deletedKeys(), "current video survives a new upload URL")

	downloadURL, err = s.svc.WorkoutVideoDownloadURL(s.ctx, "user42", workout.ID)
	s.Require().NoError(err)
	s.Equal("https://storage.test/get/"+key, downloadURL, "served until the replacement lands")

	s.storage.upload(newKey)
	downloadURL, err = s.svc.WorkoutVideoDownloadURL(s.ctx, "user42", workout.ID)
	s.Require().NoError(err)
	s.Equal("https://storage.test/get/"+newKey, downloadURL)
	s.Equal([]string{key}, s.storage.deletedKeys(), "replaced video is removed once confirmed")
}

func (s *PlanServiceTestSuite) TestUploadURLKeepsVideoUntilReplacementArrives() {
	week, err := s.svc.AddWeek(s.ctx, "user42", domain.PlanTypeCurrentWeeks, "")
	s.Require().NoError(err)
	day, err := s.svc.AddDay(s.ctx, "user42", week.ID, 1, "")
	s.Require().NoError(err)
	workout, err := s.svc.AddWorkout(s.ctx, "user42", day.ID, WorkoutInput{Name: "Jerk"})
	s.Require().NoError(err)

	_, first, err := s.svc.WorkoutVideoUploadURL(s.ctx, "user42", workout.ID, "video/mp4")
	s.Require().NoError(err)
	s.storage.upload(first)

	// The finished upload is confirmed by the next URL request.
	_, abandoned, err := s.svc.WorkoutVideoUploadURL(s.ctx, "user42", workout.ID, "video/mp4")
	s.Require().NoError(err)
	stored, err := s.repo.GetWorkout(s.ctx, workout.ID)
	s.Require().NoError(err)
	s.Equal(first, stored.VideoKey)
	s.Equal(abandoned, stored.PendingVideoKey)
	s.Empty(s.storage.deletedKeys())

	// An upload URL that was never used is dropped by the next request.
	_, latest, err := s.svc.WorkoutVideoUploadURL(s.ctx, "user42", workout.ID, "video/mp4")
	s.Require().NoError(err)
	stored, err = s.repo.GetWorkout(s.ctx, workout.ID)
	s.Require().NoError(err)
	s.Equal(first, stored.VideoKey)
	s.Equal(latest, stored.PendingVideoKey)
	s.Equal([]string{abandoned}, s.storage.deletedKeys())

	_, err = s.svc.DeletePlan(s.ctx, "user42", domain.PlanTypeCurrentWeeks)
	s.Require().NoError(err)
	s.ElementsMatch([]string{abandoned, first, latest}, s.storage.deletedKeys())
}

func (s *PlanServiceTestSuite) TestUploadURLFailsWhenStorageCheckFails() {
	week, err := s.svc.AddWeek(s.ctx, "user42", domain.PlanTypeCurrentWeeks, "")
	s.Require().NoError(err)
	day, err := s.svc.AddDay(s.ctx, "user42", week.ID, 1, "")
	s.Require().NoError(err)
	workout, err := s.svc.AddWorkout(s.ctx, "user42", day.ID, WorkoutInput{Name: "Press"})
	s.Require().NoError(err)

	_, pending, err := s.svc.WorkoutVideoUploadURL(s.ctx, "user42", workout.ID, "video/mp4")
	s.Require().NoError(err)

	s.storage.headErr = errors.New("storage unavailable")
	_, _, err = s.svc.WorkoutVideoUploadURL(s.ctx, "user42", workout.ID, "video/mp4")
	s.Error(err)

	stored, err := s.repo.GetWorkout(s.ctx, workout.ID)
	s.Require().NoError(err)
	s.Equal(pending, stored.PendingVideoKey, "pending upload is not overwritten blindly")
	s.Empty(s.storage.deletedKeys())

	_, err = s.svc.WorkoutVideoDownloadURL(s.ctx, "user42", workout.ID)
	s.ErrorIs(err, ErrNoVideo)
}

func (s *PlanServiceTestSuite) TestVideoURLsWithoutStorage() {
	svc := NewPlanService(s.repo, nil, time.Minute, zap.NewNop())
	_, _, err := svc.WorkoutVideoUploadURL(s.ctx, "user42", "w", "video/mp4")
	s.ErrorIs(err, ErrStorageDisabled)
	_, err = svc.WorkoutVideoDownloadURL(s.ctx, "user42", "w")
	s.ErrorIs(err, ErrStorageDisabled)
}
