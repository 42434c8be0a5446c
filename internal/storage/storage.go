package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/visibility"
)

var ErrNotFound = errors.New("record not found")

// Mutator changes a post in place. Returning false skips the write.
type Mutator func(post *models.ContentPost) (bool, error)

// PostStore persists content posts scoped by school and kind.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.ContentPost) error
	GetPost(ctx context.Context, schoolID string, kind models.ContentKind, id uuid.UUID) (*models.ContentPost, error)
	// ModifyPost loads the post, applies fn and writes the result as one
	// atomic unit. Concurrent modifications of the same post are serialized.
	ModifyPost(ctx context.Context, schoolID string, kind models.ContentKind, id uuid.UUID, fn Mutator) (*models.ContentPost, error)
	IncrementViews(ctx context.Context, schoolID string, id uuid.UUID) error
	// DeletePost removes the post together with its comments and returns the
	// removed row.
	DeletePost(ctx context.Context, schoolID string, kind models.ContentKind, id uuid.UUID) (*models.ContentPost, error)
	ListPosts(ctx context.Context, q visibility.Query) ([]models.ContentPost, int64, error)
}

// CommentStore persists comments as flat (id, post_id, parent_id) rows.
type CommentStore interface {
	// CreateComment inserts a comment. A reply whose parent is not a comment
	// of the same post (or is being deleted) fails with ErrNotFound.
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, schoolID string, id uuid.UUID) (*models.Comment, error)
	// ListComments returns every comment of a post ordered by creation time.
	ListComments(ctx context.Context, schoolID string, postID uuid.UUID) ([]models.Comment, error)
	// DeleteCommentTree removes root and every reply below it as one atomic
	// unit and returns the removed ids. Replies created concurrently under the
	// subtree are either removed too or rejected.
	DeleteCommentTree(ctx context.Context, schoolID string, postID, rootID uuid.UUID) ([]uuid.UUID, error)
}

type Storage interface {
	PostStore
	CommentStore
}
