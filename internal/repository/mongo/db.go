package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Default connection timeout
const defaultTimeout = 10 * time.Second

// Collection names
const (
	userCollectionName     = "users"
	planCollectionName     = "workout_plans"
	weekCollectionName     = "plan_weeks"
	dayCollectionName      = "plan_days"
	workoutCollectionName  = "plan_workouts"
	defaultsCollectionName = "defaults"
)

// ConnectDB establishes a connection to MongoDB using the provided URI and
// verifies it with a ping against the primary. The cascade delete relies on
// multi-document transactions, so the deployment must be a replica set.
func ConnectDB(uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer pingCancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = DisconnectDB(client)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return client, nil
}

// DisconnectDB gracefully disconnects the MongoDB client.
func DisconnectDB(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()
	return client.Disconnect(ctx)
}

// EnsureIndexes creates every index the repositories depend on. The unique
// indexes carry the store invariants (one plan per user/type, one defaults
// blob per kind/language), so failures are returned rather than swallowed.
func EnsureIndexes(ctx context.Context, db *mongo.Database, logger *zap.Logger) error {
	g, ctx := errgroup.WithContext(ctx)
	steps := map[string]func(context.Context, *mongo.Collection) error{
		userCollectionName:     ensureUserIndexes,
		planCollectionName:     ensurePlanIndexes,
		weekCollectionName:     ensureWeekIndexes,
		dayCollectionName:      ensureDayIndexes,
		workoutCollectionName:  ensureWorkoutIndexes,
		defaultsCollectionName: ensureDefaultsIndexes,
	}
	for name, ensure := range steps {
		g.Go(func() error {
			if err := ensure(ctx, db.Collection(name)); err != nil {
				return fmt.Errorf("failed to create indexes for collection %s: %w", name, err)
			}
			logger.Debug("indexes ensured", zap.String("collection", name))
			return nil
		})
	}
	return g.Wait()
}
