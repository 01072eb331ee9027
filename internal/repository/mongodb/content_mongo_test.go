package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"studioapi/internal/model"
	"studioapi/internal/repository"
)

func ns(mt *mtest.T) string {
	return mt.Coll.Database().Name() + "." + mt.Coll.Name()
}

func heroDoc(id, title string, created time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "title", Value: title},
		{Key: "created_at", Value: created},
		{Key: "updated_at", Value: created},
		{Key: "media", Value: bson.D{{Key: "url", Value: "https://cdn/x.jpg"}, {Key: "public_id", Value: "studio/hero/x"}}},
	}
}

func TestContentMongo(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("create", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse())
		repo := NewContentMongo[model.Hero](mt.Coll)

		h := &model.Hero{Base: model.Base{ID: "h1", CreatedAt: created}, Title: "Golden hour"}
		got, err := repo.Create(ctx, h)

		require.NoError(mt, err)
		assert.Same(mt, h, got)
	})

	mt.Run("create duplicate", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))
		repo := NewContentMongo[model.Admin](mt.Coll)

		_, err := repo.Create(ctx, &model.Admin{Base: model.Base{ID: "a1"}, Email: "a@b.c"})

		require.Error(mt, err)
		assert.True(mt, mongo.IsDuplicateKeyError(err))
	})

	mt.Run("find by id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, heroDoc("h1", "Golden hour", created)))
		repo := NewContentMongo[model.Hero](mt.Coll)

		got, err := repo.FindByID(ctx, "h1")

		require.NoError(mt, err)
		assert.Equal(mt, "h1", got.ID)
		assert.Equal(mt, "Golden hour", got.Title)
		assert.Equal(mt, "studio/hero/x", got.Media.PublicID)
		assert.True(mt, created.Equal(got.CreatedAt))
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch))
		repo := NewContentMongo[model.Hero](mt.Coll)

		got, err := repo.FindByID(ctx, "nope")

		assert.ErrorIs(mt, err, repository.ErrNotFound)
		assert.Nil(mt, got)
	})

	mt.Run("list", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(2)}}),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch,
				heroDoc("h2", "second", created.Add(time.Hour)),
				heroDoc("h1", "first", created),
			),
		)
		repo := NewContentMongo[model.Hero](mt.Coll)

		res, err := repo.List(ctx, repository.PageQuery{Limit: 10, Filter: map[string]string{"title": "x"}})

		require.NoError(mt, err)
		assert.Equal(mt, 2, res.Total)
		require.Len(mt, res.Items, 2)
		assert.Equal(mt, "h2", res.Items[0].ID)
	})

	mt.Run("update", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))
		repo := NewContentMongo[model.Hero](mt.Coll)

		h := &model.Hero{Base: model.Base{ID: "h1"}, Title: "renamed"}
		got, err := repo.Update(ctx, h)

		require.NoError(mt, err)
		assert.Equal(mt, "renamed", got.Title)
	})

	mt.Run("update missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))
		repo := NewContentMongo[model.Hero](mt.Coll)

		_, err := repo.Update(ctx, &model.Hero{Base: model.Base{ID: "gone"}})

		assert.ErrorIs(mt, err, repository.ErrNotFound)
	})

	mt.Run("delete", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		repo := NewContentMongo[model.Hero](mt.Coll)

		assert.NoError(mt, repo.Delete(ctx, "h1"))
	})

	mt.Run("count and oldest", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, bson.D{{Key: "n", Value: int32(4)}}),
			mtest.CreateCursorResponse(0, ns(mt), mtest.FirstBatch, heroDoc("h1", "first", created)),
		)
		repo := NewContentMongo[model.Hero](mt.Coll)

		n, err := repo.Count(ctx)
		require.NoError(mt, err)
		assert.Equal(mt, 4, n)

		old, err := repo.Oldest(ctx, 1)
		require.NoError(mt, err)
		require.Len(mt, old, 1)
		assert.Equal(mt, "h1", old[0].ID)
	})
}

func TestSortFor(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}, sortFor(""))
	assert.Equal(t, bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}, sortFor(repository.SortOldest))
	assert.Equal(t, "order", sortFor(repository.SortOrder)[0].Key)
}
