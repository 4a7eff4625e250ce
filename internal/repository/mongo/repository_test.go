package mongo_test

import (
	"context"
	"testing"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"
	mongorepo "alcyxob/coaching-platform/internal/repository/mongo"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

const ns = "coaching.test"

func planDoc(id, userID string) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "userId", Value: userID},
		{Key: "type", Value: string(domain.PlanTypeCurrentWeeks)},
		{Key: "status", Value: string(domain.PlanStatusActive)},
		{Key: "createdAt", Value: time.Now().UTC()},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}
}

func duplicateKey() mtest.WriteError {
	return mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}
}

func commandNames(mt *mtest.T) []string {
	var names []string
	for _, evt := range mt.GetAllStartedEvents() {
		names = append(names, evt.CommandName)
	}
	return names
}

func TestPlanRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("find missing plan", func(mt *mtest.T) {
		repo := mongorepo.NewMongoPlanRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		plan, err := repo.FindByUserAndType(ctx, "u1", domain.PlanTypeCurrentWeeks)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
		assert.Nil(mt, plan)
	})

	mt.Run("get or create upserts", func(mt *mtest.T) {
		repo := mongorepo.NewMongoPlanRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: planDoc("p1", "u1")}))

		plan, err := repo.GetOrCreate(ctx, "u1", domain.PlanTypeCurrentWeeks)
		require.NoError(mt, err)
		assert.Equal(mt, "p1", plan.ID)
		assert.Equal(mt, domain.PlanTypeCurrentWeeks, plan.Type)
		assert.Equal(mt, []string{"findAndModify"}, commandNames(mt))
	})

	mt.Run("get or create reads the winner after a duplicate key", func(mt *mtest.T) {
		repo := mongorepo.NewMongoPlanRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 11000, Name: "DuplicateKey", Message: "E11000 duplicate key error"}),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, planDoc("p-winner", "u1")),
		)

		plan, err := repo.GetOrCreate(ctx, "u1", domain.PlanTypeCurrentWeeks)
		require.NoError(mt, err)
		assert.Equal(mt, "p-winner", plan.ID)
		assert.Equal(mt, []string{"findAndModify", "find"}, commandNames(mt))
	})

	mt.Run("add week duplicate number is a conflict", func(mt *mtest.T) {
		repo := mongorepo.NewMongoPlanRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(duplicateKey()))

		err := repo.AddWeek(ctx, &domain.PlanWeek{PlanID: "p1", Number: 1})
		assert.ErrorIs(mt, err, repository.ErrConflict)
	})

	mt.Run("pending video key on missing workout", func(mt *mtest.T) {
		repo := mongorepo.NewMongoPlanRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		err := repo.SetPendingVideoKey(ctx, "missing", "videos/x.mp4")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("promote pending video", func(mt *mtest.T) {
		repo := mongorepo.NewMongoPlanRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)

		promoted, err := repo.PromotePendingVideo(ctx, "x1", "videos/new.mp4")
		require.NoError(mt, err)
		assert.True(mt, promoted)

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		pending, ok := evt.Command.Lookup("updates", "0", "q", "pendingVideoKey").StringValueOK()
		assert.True(mt, ok)
		assert.Equal(mt, "videos/new.mp4", pending)

		promoted, err = repo.PromotePendingVideo(ctx, "x1", "videos/new.mp4")
		require.NoError(mt, err)
		assert.False(mt, promoted, "pending key moved on")
	})

	mt.Run("find tree reads through a snapshot", func(mt *mtest.T) {
		repo := mongorepo.NewMongoPlanRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, planDoc("p1", "u1")),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "w1"}, {Key: "planId", Value: "p1"}, {Key: "number", Value: 1}},
				bson.D{{Key: "_id", Value: "w2"}, {Key: "planId", Value: "p1"}, {Key: "number", Value: 2}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "d1"}, {Key: "planId", Value: "p1"}, {Key: "weekId", Value: "w1"}, {Key: "number", Value: 3}},
			),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "x2"}, {Key: "planId", Value: "p1"}, {Key: "weekId", Value: "w1"}, {Key: "dayId", Value: "d1"}, {Key: "name", Value: "Row"}, {Key: "sequence", Value: 2}},
				bson.D{{Key: "_id", Value: "x1"}, {Key: "planId", Value: "p1"}, {Key: "weekId", Value: "w1"}, {Key: "dayId", Value: "d1"}, {Key: "name", Value: "Squat"}, {Key: "sequence", Value: 1}},
			),
		)

		plan, err := repo.FindTree(ctx, "u1", domain.PlanTypeCurrentWeeks)
		require.NoError(mt, err)
		assert.Equal(mt, "p1", plan.ID)
		require.Len(mt, plan.Weeks, 2)
		assert.Empty(mt, plan.Weeks[1].Days)

		week1 := plan.Weeks[0]
		assert.Equal(mt, "w1", week1.ID)
		require.Len(mt, week1.Days, 1)
		require.Len(mt, week1.Days[0].Workouts, 2)
		assert.Equal(mt, "Squat", week1.Days[0].Workouts[0].Name)
		assert.Equal(mt, "Row", week1.Days[0].Workouts[1].Name)

		events := mt.GetAllStartedEvents()
		require.Len(mt, events, 4)
		for _, evt := range events {
			assert.Equal(mt, "find", evt.CommandName)
			level, ok := evt.Command.Lookup("readConcern", "level").StringValueOK()
			assert.True(mt, ok, "readConcern missing on %s", evt.CommandName)
			assert.Equal(mt, "snapshot", level)
		}
	})

	mt.Run("find tree for missing plan", func(mt *mtest.T) {
		repo := mongorepo.NewMongoPlanRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		plan, err := repo.FindTree(ctx, "u1", domain.PlanTypeCurrentWeeks)
		assert.ErrorIs(mt, err, repository.ErrNotFound)
		assert.Nil(mt, plan)
	})

	mt.Run("delete cascade", func(mt *mtest.T) {
		repo := mongorepo.NewMongoPlanRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, planDoc("p1", "u1")),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch,
				bson.D{{Key: "_id", Value: "x1"}, {Key: "videoKey", Value: "videos/a.mp4"}},
				bson.D{{Key: "_id", Value: "x4"}, {Key: "videoKey", Value: "videos/b.mp4"}, {Key: "pendingVideoKey", Value: "videos/c.mp4"}},
				bson.D{{Key: "_id", Value: "x5"}, {Key: "pendingVideoKey", Value: "videos/d.mp4"}},
			),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 7}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 7}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}),
			mtest.CreateSuccessResponse(),
		)

		deletion, err := repo.DeleteCascade(ctx, "p1", "u1")
		require.NoError(mt, err)
		assert.Equal(mt, "p1", deletion.PlanID)
		assert.Equal(mt, []string{"videos/a.mp4", "videos/b.mp4", "videos/c.mp4", "videos/d.mp4"}, deletion.VideoKeys)
		assert.Equal(mt, []string{"find", "find", "delete", "delete", "delete", "delete", "commitTransaction"}, commandNames(mt))
	})

	mt.Run("delete cascade of missing plan aborts", func(mt *mtest.T) {
		repo := mongorepo.NewMongoPlanRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
		)

		deletion, err := repo.DeleteCascade(ctx, "p1", "intruder")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
		assert.Nil(mt, deletion)
		assert.NotContains(mt, commandNames(mt), "delete")
	})

	mt.Run("delete cascade root already gone", func(mt *mtest.T) {
		repo := mongorepo.NewMongoPlanRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, planDoc("p1", "u1")),
			mtest.CreateCursorResponse(0, ns, mtest.FirstBatch),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
			mtest.CreateSuccessResponse(),
		)

		_, err := repo.DeleteCascade(ctx, "p1", "u1")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
		assert.NotContains(mt, commandNames(mt), "commitTransaction")
	})
}

func TestDefaultsRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("get missing", func(mt *mtest.T) {
		repo := mongorepo.NewMongoDefaultsRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.Get(ctx, domain.DefaultsColors, "en")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("get decodes the blob", func(mt *mtest.T) {
		repo := mongorepo.NewMongoDefaultsRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "kind", Value: string(domain.DefaultsTools)},
			{Key: "language", Value: "de"},
			{Key: "data", Value: []byte(`["hammer"]`)},
		}))

		d, err := repo.Get(ctx, domain.DefaultsTools, "de")
		require.NoError(mt, err)
		assert.Equal(mt, domain.DefaultsTools, d.Kind)
		assert.JSONEq(mt, `["hammer"]`, string(d.Data))
	})

	mt.Run("upsert", func(mt *mtest.T) {
		repo := mongorepo.NewMongoDefaultsRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 0}))

		d := &domain.Defaults{Kind: domain.DefaultsColors, Language: "en", Data: []byte(`{"a":1}`)}
		require.NoError(mt, repo.Upsert(ctx, d))
		assert.False(mt, d.UpdatedAt.IsZero())

		evt := mt.GetStartedEvent()
		require.NotNil(mt, evt)
		assert.Equal(mt, "update", evt.CommandName)
		upsert, ok := evt.Command.Lookup("updates", "0", "upsert").BooleanOK()
		assert.True(mt, ok)
		assert.True(mt, upsert)
	})

	mt.Run("upsert retries a lost insert race as an update", func(mt *mtest.T) {
		repo := mongorepo.NewMongoDefaultsRepository(mt.DB)
		mt.AddMockResponses(
			mtest.CreateWriteErrorsResponse(duplicateKey()),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)

		d := &domain.Defaults{Kind: domain.DefaultsColors, Language: "en", Data: []byte(`{"a":2}`)}
		require.NoError(mt, repo.Upsert(ctx, d))
		assert.Equal(mt, []string{"update", "update"}, commandNames(mt))
	})
}

func TestUserRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create", func(mt *mtest.T) {
		repo := mongorepo.NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		id, err := repo.Create(ctx, &domain.User{Email: "a@example.com", PasswordHash: "hash", Role: domain.RoleAthlete})
		require.NoError(mt, err)
		assert.NotEmpty(mt, id)
	})

	mt.Run("duplicate email", func(mt *mtest.T) {
		repo := mongorepo.NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(duplicateKey()))

		_, err := repo.Create(ctx, &domain.User{Email: "a@example.com", PasswordHash: "hash", Role: domain.RoleAthlete})
		assert.ErrorIs(mt, err, repository.ErrConflict)
	})

	mt.Run("missing user", func(mt *mtest.T) {
		repo := mongorepo.NewMongoUserRepository(mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := repo.GetByEmail(ctx, "nobody@example.com")
		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})
}
