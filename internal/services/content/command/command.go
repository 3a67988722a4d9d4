// Package command exposes the content operations the web surface invokes.
// Handlers work on the Store of the scope the caller resolved.
package command

import (
	"context"
	"fmt"
	"strings"

	apperrors "github.com/louisbranch/postshelf/internal/platform/errors"
	"github.com/louisbranch/postshelf/internal/services/content/collection"
	"github.com/louisbranch/postshelf/internal/services/content/domain"
	"github.com/louisbranch/postshelf/internal/services/content/reconcile"
)

// SaveResult reports the stored record and whether it was created.
type SaveResult[T any] struct {
	Record  T
	Created bool
}

// ListPosts returns every post in stored order.
func ListPosts(store *collection.Store) []domain.Post {
	return collection.GetAll(store, collection.Posts)
}

// ListDownloads returns every download in stored order.
func ListDownloads(store *collection.Store) []domain.Download {
	return collection.GetAll(store, collection.Downloads)
}

// FindPost returns the post with id or a POST_NOT_FOUND error.
func FindPost(store *collection.Store, id string) (domain.Post, error) {
	post, ok := collection.Find(store, collection.Posts, strings.TrimSpace(id))
	if !ok {
		return domain.Post{}, notFound(apperrors.CodePostNotFound, "post", id)
	}
	return post, nil
}

// FindDownload returns the download with id or a DOWNLOAD_NOT_FOUND error.
func FindDownload(store *collection.Store, id string) (domain.Download, error) {
	download, ok := collection.Find(store, collection.Downloads, strings.TrimSpace(id))
	if !ok {
		return domain.Download{}, notFound(apperrors.CodeDownloadNotFound, "download", id)
	}
	return download, nil
}

// OnSavePost upserts post: an id of an existing post edits it, anything else
// creates a new post.
func OnSavePost(ctx context.Context, store *collection.Store, post domain.Post) (SaveResult[domain.Post], error) {
	post.ID = strings.TrimSpace(post.ID)
	result, err := reconcile.Upsert(ctx, store, collection.Posts, post)
	if err != nil {
		return SaveResult[domain.Post]{}, fmt.Errorf("save post: %w", err)
	}
	return SaveResult[domain.Post]{Record: result.Record, Created: result.Created}, nil
}

// OnDeletePost removes the post with id and reports whether one was removed.
func OnDeletePost(ctx context.Context, store *collection.Store, id string) (bool, error) {
	result, err := reconcile.Remove(ctx, store, collection.Posts, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return result.Removed, nil
}

// OnSaveDownload upserts download.
func OnSaveDownload(ctx context.Context, store *collection.Store, download domain.Download) (SaveResult[domain.Download], error) {
	download.ID = strings.TrimSpace(download.ID)
	result, err := reconcile.Upsert(ctx, store, collection.Downloads, download)
	if err != nil {
		return SaveResult[domain.Download]{}, fmt.Errorf("save download: %w", err)
	}
	return SaveResult[domain.Download]{Record: result.Record, Created: result.Created}, nil
}

// OnDeleteDownload removes the download with id and reports whether one was
// removed.
func OnDeleteDownload(ctx context.Context, store *collection.Store, id string) (bool, error) {
	result, err := reconcile.Remove(ctx, store, collection.Downloads, strings.TrimSpace(id))
	if err != nil {
		return false, fmt.Errorf("delete download: %w", err)
	}
	return result.Removed, nil
}

func notFound(code apperrors.Code, kind, id string) error {
	return apperrors.WithMetadata(code, fmt.Sprintf("%s %q not found", kind, id), map[string]string{"id": id})
}
