// Package reconcile applies single-record edits to a collection: upsert by
// id and removal by id.
package reconcile

import (
	"context"
	"slices"
	"strings"

	"github.com/louisbranch/postshelf/internal/services/content/collection"
	"github.com/louisbranch/postshelf/internal/services/content/domain"
)

// Result reports what an edit did.
type Result[T any] struct {
	Items   []T
	Record  T
	Created bool
	Removed bool
}

// Upsert replaces the record whose id matches record's id in place. A record
// with an empty or unknown id gets a fresh id and is appended.
func Upsert[T domain.Record[T]](ctx context.Context, store *collection.Store, key collection.Key[T], record T) (Result[T], error) {
	var result Result[T]
	items, err := collection.Update(ctx, store, key, func(items []T, nextID func() string) ([]T, error) {
		id := strings.TrimSpace(record.RecordID())
		if id != "" {
			if index := slices.IndexFunc(items, func(item T) bool { return item.RecordID() == id }); index >= 0 {
				record = record.WithID(id)
				items[index] = record
				result.Record = record
				return items, nil
			}
		}
		created := record.WithID(nextID())
		result.Record = created
		result.Created = true
		return append(items, created), nil
	})
	if err != nil {
		return Result[T]{}, err
	}
	result.Items = items
	return result, nil
}

// Remove drops the record with id. Removing an id that is not present leaves
// the collection unchanged.
func Remove[T domain.Record[T]](ctx context.Context, store *collection.Store, key collection.Key[T], id string) (Result[T], error) {
	var result Result[T]
	items, err := collection.Update(ctx, store, key, func(items []T, _ func() string) ([]T, error) {
		return slices.DeleteFunc(items, func(item T) bool {
			if item.RecordID() != id {
				return false
			}
			result.Record = item
			result.Removed = true
			return true
		}), nil
	})
	if err != nil {
		return Result[T]{}, err
	}
	result.Items = items
	return result, nil
}
