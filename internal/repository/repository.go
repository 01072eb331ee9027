package repository

import (
	"context"
	"errors"
)

// Package repository contains data access layer abstractions.
// Implementations live in subpackages (postgres, mongo) inside this directory.

// ErrNotFound is returned when a record with the requested id does not exist.
var ErrNotFound = errors.New("record not found")

// Sort orders accepted by List.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
	SortOrder  = "order"
)

// Repository defines data access for one content kind. No business logic here,
// strictly persistence operations.
type Repository[T any] interface {
	// Create inserts a new record. The caller assigns ID and timestamps.
	Create(ctx context.Context, item *T) (*T, error)

	// FindByID returns a record by its ID or ErrNotFound.
	FindByID(ctx context.Context, id string) (*T, error)

	// List returns a page of records and the total count for the given filter.
	List(ctx context.Context, pq PageQuery) (*PageResult[T], error)

	// Update replaces the stored record with the same ID. Returns ErrNotFound if absent.
	Update(ctx context.Context, item *T) (*T, error)

	// Delete removes a record by ID. It returns nil if the record did not exist.
	Delete(ctx context.Context, id string) error

	// Count returns the number of stored records.
	Count(ctx context.Context) (int, error)

	// Oldest returns up to n records, oldest first.
	Oldest(ctx context.Context, n int) ([]T, error)
}

// PageQuery holds limit/offset pagination, equality filters on top-level
// string fields and the sort order.
type PageQuery struct {
	Limit  int
	Offset int
	Filter map[string]string
	Sort   string
}

// PageResult is a generic pagination result wrapper.
// T is typically a model type.
type PageResult[T any] struct {
	Items []T
	Total int
}
