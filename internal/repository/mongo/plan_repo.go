package mongo

import (
	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// mongoPlanRepository implements repository.PlanRepository. The aggregate is
// split across four collections linked by planId.
type mongoPlanRepository struct {
	client   *mongo.Client
	plans    *mongo.Collection
	weeks    *mongo.Collection
	days     *mongo.Collection
	workouts *mongo.Collection
}

// NewMongoPlanRepository creates a new plan repository.
func NewMongoPlanRepository(db *mongo.Database) repository.PlanRepository {
	return &mongoPlanRepository{
		client:   db.Client(),
		plans:    db.Collection(planCollectionName),
		weeks:    db.Collection(weekCollectionName),
		days:     db.Collection(dayCollectionName),
		workouts: db.Collection(workoutCollectionName),
	}
}

// GetOrCreate upserts the (userId, type) plan in one round trip. Two callers
// racing on an absent plan can both attempt the insert; the unique index
// rejects the loser, which then simply reads the winner's document.
func (r *mongoPlanRepository) GetOrCreate(ctx context.Context, userID string, planType domain.PlanType) (*domain.WorkoutPlan, error) {
	now := time.Now().UTC()
	filter := bson.M{"userId": userID, "type": planType}
	update := bson.M{
		"$setOnInsert": bson.M{
			"_id":       primitive.NewObjectID().Hex(),
			"status":    domain.PlanStatusActive,
			"createdAt": now,
		},
		"$set": bson.M{"updatedAt": now},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var plan domain.WorkoutPlan
	err := r.plans.FindOneAndUpdate(ctx, filter, update, opts).Decode(&plan)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return r.FindByUserAndType(ctx, userID, planType)
		}
		return nil, err
	}
	return &plan, nil
}

// FindByUserAndType returns the plan without creating it.
func (r *mongoPlanRepository) FindByUserAndType(ctx context.Context, userID string, planType domain.PlanType) (*domain.WorkoutPlan, error) {
	return r.findPlan(ctx, bson.M{"userId": userID, "type": planType})
}

// GetByID retrieves a plan root by id.
func (r *mongoPlanRepository) GetByID(ctx context.Context, id string) (*domain.WorkoutPlan, error) {
	return r.findPlan(ctx, bson.M{"_id": id})
}

func (r *mongoPlanRepository) findPlan(ctx context.Context, filter bson.M) (*domain.WorkoutPlan, error) {
	var plan domain.WorkoutPlan
	if err := r.plans.FindOne(ctx, filter).Decode(&plan); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// FindTree reads the root and the three child collections through one
// snapshot session, so every read sees the same point in time.
func (r *mongoPlanRepository) FindTree(ctx context.Context, userID string, planType domain.PlanType) (*domain.WorkoutPlan, error) {
	session, err := r.client.StartSession(options.Session().SetSnapshot(true))
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	var plan *domain.WorkoutPlan
	err = mongo.WithSession(ctx, session, func(sc mongo.SessionContext) error {
		var err error
		if plan, err = r.FindByUserAndType(sc, userID, planType); err != nil {
			return err
		}

		byPlan := bson.M{"planId": plan.ID}
		var weeks []domain.PlanWeek
		if err := findAll(sc, r.weeks, byPlan, options.Find().SetSort(bson.D{{Key: "number", Value: 1}}), &weeks); err != nil {
			return fmt.Errorf("load weeks: %w", err)
		}
		var days []domain.PlanDay
		if err := findAll(sc, r.days, byPlan, options.Find().SetSort(bson.D{{Key: "number", Value: 1}}), &days); err != nil {
			return fmt.Errorf("load days: %w", err)
		}
		var workouts []domain.Workout
		if err := findAll(sc, r.workouts, byPlan, options.Find().SetSort(bson.D{{Key: "sequence", Value: 1}}), &workouts); err != nil {
			return fmt.Errorf("load workouts: %w", err)
		}

		plan.Weeks = repository.AssembleTree(weeks, days, workouts)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return plan, nil
}

func findAll(ctx context.Context, coll *mongo.Collection, filter bson.M, opts *options.FindOptions, out interface{}) error {
	cursor, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)
	return cursor.All(ctx, out)
}

// AddWeek inserts a week; a duplicate (planId, number) yields ErrConflict.
func (r *mongoPlanRepository) AddWeek(ctx context.Context, week *domain.PlanWeek) error {
	if week.PlanID == "" || week.Number < 1 {
		return errors.New("week requires planId and a positive number")
	}
	week.ID = primitive.NewObjectID().Hex()
	week.CreatedAt = time.Now().UTC()
	return insert(ctx, r.weeks, week)
}

// GetWeek retrieves a week by id.
func (r *mongoPlanRepository) GetWeek(ctx context.Context, id string) (*domain.PlanWeek, error) {
	var week domain.PlanWeek
	if err := findByID(ctx, r.weeks, id, &week); err != nil {
		return nil, err
	}
	return &week, nil
}

// CountWeeks returns how many weeks the plan holds.
func (r *mongoPlanRepository) CountWeeks(ctx context.Context, planID string) (int, error) {
	n, err := r.weeks.CountDocuments(ctx, bson.M{"planId": planID})
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// AddDay inserts a day; a duplicate (weekId, number) yields ErrConflict.
func (r *mongoPlanRepository) AddDay(ctx context.Context, day *domain.PlanDay) error {
	if day.PlanID == "" || day.WeekID == "" {
		return errors.New("day requires planId and weekId")
	}
	day.ID = primitive.NewObjectID().Hex()
	day.CreatedAt = time.Now().UTC()
	return insert(ctx, r.days, day)
}

// GetDay retrieves a day by id.
func (r *mongoPlanRepository) GetDay(ctx context.Context, id string) (*domain.PlanDay, error) {
	var day domain.PlanDay
	if err := findByID(ctx, r.days, id, &day); err != nil {
		return nil, err
	}
	return &day, nil
}

// AddWorkout inserts a workout under an existing day.
func (r *mongoPlanRepository) AddWorkout(ctx context.Context, workout *domain.Workout) error {
	if workout.PlanID == "" || workout.WeekID == "" || workout.DayID == "" || workout.Name == "" {
		return errors.New("workout requires planId, weekId, dayId, and name")
	}
	workout.ID = primitive.NewObjectID().Hex()
	now := time.Now().UTC()
	workout.CreatedAt = now
	workout.UpdatedAt = now
	return insert(ctx, r.workouts, workout)
}

// GetWorkout retrieves a workout by id.
func (r *mongoPlanRepository) GetWorkout(ctx context.Context, id string) (*domain.Workout, error) {
	var workout domain.Workout
	if err := findByID(ctx, r.workouts, id, &workout); err != nil {
		return nil, err
	}
	return &workout, nil
}

// SetPendingVideoKey records the key an upload URL was issued for.
func (r *mongoPlanRepository) SetPendingVideoKey(ctx context.Context, workoutID, videoKey string) error {
	update := bson.M{"$set": bson.M{"pendingVideoKey": videoKey, "updatedAt": time.Now().UTC()}}
	result, err := r.workouts.UpdateOne(ctx, bson.M{"_id": workoutID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// PromotePendingVideo confirms an uploaded video. The filter on the pending
// key makes concurrent promotions and newer upload URLs lose cleanly.
func (r *mongoPlanRepository) PromotePendingVideo(ctx context.Context, workoutID, videoKey string) (bool, error) {
	if videoKey == "" {
		return false, nil
	}
	update := bson.M{
		"$set":   bson.M{"videoKey": videoKey, "updatedAt": time.Now().UTC()},
		"$unset": bson.M{"pendingVideoKey": ""},
	}
	result, err := r.workouts.UpdateOne(ctx, bson.M{"_id": workoutID, "pendingVideoKey": videoKey}, update)
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// DeleteCascade removes the plan and its subtree in one transaction. The
// children go first and the root last, so an aborted run leaves nothing
// orphaned. The root delete is scoped by owner; a plan that vanished (or was
// never owned by userID) aborts the transaction with ErrNotFound.
func (r *mongoPlanRepository) DeleteCascade(ctx context.Context, planID, userID string) (*domain.PlanDeletion, error) {
	session, err := r.client.StartSession()
	if err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		var plan domain.WorkoutPlan
		if err := r.plans.FindOne(sc, bson.M{"_id": planID, "userId": userID}).Decode(&plan); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return nil, repository.ErrNotFound
			}
			return nil, err
		}

		byPlan := bson.M{"planId": planID}
		var withVideo []domain.Workout
		videoFilter := bson.M{"planId": planID, "$or": bson.A{
			bson.M{"videoKey": bson.M{"$nin": bson.A{nil, ""}}},
			bson.M{"pendingVideoKey": bson.M{"$nin": bson.A{nil, ""}}},
		}}
		projection := bson.M{"videoKey": 1, "pendingVideoKey": 1}
		if err := findAll(sc, r.workouts, videoFilter, options.Find().SetProjection(projection), &withVideo); err != nil {
			return nil, err
		}

		for _, coll := range []*mongo.Collection{r.workouts, r.days, r.weeks} {
			if _, err := coll.DeleteMany(sc, byPlan); err != nil {
				return nil, fmt.Errorf("delete from %s: %w", coll.Name(), err)
			}
		}

		res, err := r.plans.DeleteOne(sc, bson.M{"_id": planID, "userId": userID})
		if err != nil {
			return nil, err
		}
		if res.DeletedCount == 0 {
			return nil, repository.ErrNotFound
		}

		return &domain.PlanDeletion{
			PlanID: planID,
			VideoKeys: lo.FlatMap(withVideo, func(w domain.Workout, _ int) []string {
				return lo.Compact([]string{w.VideoKey, w.PendingVideoKey})
			}),
		}, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*domain.PlanDeletion), nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc interface{}) error {
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

func findByID(ctx context.Context, coll *mongo.Collection, id string, out interface{}) error {
	if err := coll.FindOne(ctx, bson.M{"_id": id}).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		return err
	}
	return nil
}

func ensurePlanIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "type", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func ensureWeekIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "planId", Value: 1}, {Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func ensureDayIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "weekId", Value: 1}, {Key: "number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "planId", Value: 1}},
		},
	})
	return err
}

func ensureWorkoutIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "planId", Value: 1}, {Key: "sequence", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "dayId", Value: 1}},
		},
	})
	return err
}
