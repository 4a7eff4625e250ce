package repository

import (
	"alcyxob/coaching-platform/internal/domain"
	"sort"

	"github.com/samber/lo"
)

// AssembleTree nests days under weeks and workouts under days. Weeks keep the
// order they were given in; days are ordered by number and workouts by
// sequence. Empty levels are returned as empty slices, not nil.
func AssembleTree(weeks []domain.PlanWeek, days []domain.PlanDay, workouts []domain.Workout) []domain.PlanWeek {
	workoutsByDay := lo.GroupBy(workouts, func(w domain.Workout) string { return w.DayID })
	daysByWeek := lo.GroupBy(days, func(d domain.PlanDay) string { return d.WeekID })

	out := make([]domain.PlanWeek, 0, len(weeks))
	for _, week := range weeks {
		weekDays := daysByWeek[week.ID]
		sort.SliceStable(weekDays, func(i, j int) bool { return weekDays[i].Number < weekDays[j].Number })

		week.Days = make([]domain.PlanDay, 0, len(weekDays))
		for _, day := range weekDays {
			dayWorkouts := workoutsByDay[day.ID]
			sort.SliceStable(dayWorkouts, func(i, j int) bool { return dayWorkouts[i].Sequence < dayWorkouts[j].Sequence })
			day.Workouts = append([]domain.Workout{}, dayWorkouts...)
			week.Days = append(week.Days, day)
		}
		out = append(out, week)
	}
	return out
}
