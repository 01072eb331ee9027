package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"studioapi/internal/model"
	"studioapi/internal/repository"
)

// ContentMongo is a MongoDB implementation of repository.Repository.
// Every kind maps to one collection; documents use the entity's string id as _id.
type ContentMongo[T any, PT model.Entity[T]] struct {
	coll *mongo.Collection
}

// NewContentMongo creates a repository over the given collection.
func NewContentMongo[T any, PT model.Entity[T]](coll *mongo.Collection) *ContentMongo[T, PT] {
	return &ContentMongo[T, PT]{coll: coll}
}

var _ repository.Repository[model.Hero] = (*ContentMongo[model.Hero, *model.Hero])(nil)

// Create inserts a new document.
func (r *ContentMongo[T, PT]) Create(ctx context.Context, item *T) (*T, error) {
	if _, err := r.coll.InsertOne(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// FindByID fetches a single document by its ID.
func (r *ContentMongo[T, PT]) FindByID(ctx context.Context, id string) (*T, error) {
	out := new(T)
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

// List returns a page of documents and the total for the filter.
func (r *ContentMongo[T, PT]) List(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[T], error) {
	filter := bson.M{}
	for k, v := range pq.Filter {
		filter[k] = v
	}

	total, err := r.coll.CountDocuments(ctx, filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().
		SetSort(sortFor(pq.Sort)).
		SetSkip(int64(pq.Offset)).
		SetLimit(int64(pq.Limit))

	items, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return &repository.PageResult[T]{Items: items, Total: int(total)}, nil
}

// Update replaces the document with the same ID.
func (r *ContentMongo[T, PT]) Update(ctx context.Context, item *T) (*T, error) {
	id := PT(item).Meta().ID
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, item)
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, repository.ErrNotFound
	}
	return item, nil
}

// Delete removes a document by ID. Missing documents are not an error.
func (r *ContentMongo[T, PT]) Delete(ctx context.Context, id string) error {
	_, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// Count returns the number of documents in the collection.
func (r *ContentMongo[T, PT]) Count(ctx context.Context) (int, error) {
	n, err := r.coll.CountDocuments(ctx, bson.M{})
	return int(n), err
}

// Oldest returns up to n documents ordered by creation time ascending.
func (r *ContentMongo[T, PT]) Oldest(ctx context.Context, n int) ([]T, error) {
	opts := options.Find().
		SetSort(sortFor(repository.SortOldest)).
		SetLimit(int64(n))
	return r.find(ctx, bson.M{}, opts)
}

func (r *ContentMongo[T, PT]) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]T, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0)
	if err := cur.All(ctx, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func sortFor(s string) bson.D {
	switch s {
	case repository.SortOldest:
		return bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}}
	case repository.SortOrder:
		return bson.D{{Key: "order", Value: 1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	default:
		return bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}
	}
}
