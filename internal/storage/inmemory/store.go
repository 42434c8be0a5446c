package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/storage"
	"github.com/bensalemboualem/ifactory-school/internal/visibility"
)

// Store implements storage.Storage in memory. Rows are copied in and out so
// callers never alias stored values.
type Store struct {
	mu       sync.RWMutex
	posts    map[uuid.UUID]*models.ContentPost
	comments map[uuid.UUID]*models.Comment
	now      func() time.Time
}

var _ storage.Storage = (*Store)(nil)

func New() *Store {
	return &Store{
		posts:    make(map[uuid.UUID]*models.ContentPost),
		comments: make(map[uuid.UUID]*models.Comment),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// === Posts ===

func (s *Store) CreatePost(_ context.Context, post *models.ContentPost) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if post.ID == uuid.Nil {
		post.ID = uuid.New()
	}
	now := s.now()
	if post.CreatedAt.IsZero() {
		post.CreatedAt = now
	}
	post.UpdatedAt = now
	s.posts[post.ID] = clonePost(post)
	return nil
}

func (s *Store) GetPost(_ context.Context, schoolID string, kind models.ContentKind, id uuid.UUID) (*models.ContentPost, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.lookupPost(schoolID, kind, id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	return clonePost(p), nil
}

func (s *Store) ModifyPost(_ context.Context, schoolID string, kind models.ContentKind, id uuid.UUID, fn storage.Mutator) (*models.ContentPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.lookupPost(schoolID, kind, id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	working := clonePost(p)
	changed, err := fn(working)
	if err != nil {
		return nil, err
	}
	if !changed {
		return clonePost(p), nil
	}
	working.ID, working.SchoolID, working.Kind = p.ID, p.SchoolID, p.Kind
	working.UpdatedAt = s.now()
	s.posts[id] = working
	return clonePost(working), nil
}

func (s *Store) IncrementViews(_ context.Context, schoolID string, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.posts[id]
	if !ok || p.SchoolID != schoolID {
		return storage.ErrNotFound
	}
	p.ViewsCount++
	return nil
}

func (s *Store) DeletePost(_ context.Context, schoolID string, kind models.ContentKind, id uuid.UUID) (*models.ContentPost, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.lookupPost(schoolID, kind, id)
	if !ok {
		return nil, storage.ErrNotFound
	}
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	return p, nil
}

func (s *Store) ListPosts(_ context.Context, q visibility.Query) ([]models.ContentPost, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]*models.ContentPost, 0)
	for _, p := range s.posts {
		if q.Matches(p) {
			matched = append(matched, p)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID.String() > matched[j].ID.String()
	})

	total := int64(len(matched))
	start := q.Offset()
	if start >= len(matched) {
		return []models.ContentPost{}, total, nil
	}
	end := start + q.PageSize
	if end > len(matched) {
		end = len(matched)
	}

	page := make([]models.ContentPost, 0, end-start)
	for _, p := range matched[start:end] {
		page = append(page, *clonePost(p))
	}
	return page, total, nil
}

func (s *Store) lookupPost(schoolID string, kind models.ContentKind, id uuid.UUID) (*models.ContentPost, bool) {
	p, ok := s.posts[id]
	if !ok || p.SchoolID != schoolID || p.Kind != kind {
		return nil, false
	}
	return p, true
}

// === Comments ===

func (s *Store) CreateComment(_ context.Context, comment *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if comment.ParentID != nil {
		parent, ok := s.comments[*comment.ParentID]
		if !ok || parent.SchoolID != comment.SchoolID || parent.PostID != comment.PostID {
			return storage.ErrNotFound
		}
	}
	if comment.ID == uuid.Nil {
		comment.ID = uuid.New()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = s.now()
	}
	c := *comment
	s.comments[c.ID] = &c
	return nil
}

func (s *Store) GetComment(_ context.Context, schoolID string, id uuid.UUID) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok || c.SchoolID != schoolID {
		return nil, storage.ErrNotFound
	}
	out := *c
	return &out, nil
}

func (s *Store) ListComments(_ context.Context, schoolID string, postID uuid.UUID) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Comment, 0)
	for _, c := range s.comments {
		if c.SchoolID == schoolID && c.PostID == postID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (s *Store) DeleteCommentTree(_ context.Context, schoolID string, postID, rootID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	root, ok := s.comments[rootID]
	if !ok || root.SchoolID != schoolID || root.PostID != postID {
		return nil, storage.ErrNotFound
	}
	rows := make([]models.Comment, 0)
	for _, c := range s.comments {
		if c.SchoolID == schoolID && c.PostID == postID {
			rows = append(rows, *c)
		}
	}
	ids := storage.Subtree(rows, rootID)
	for _, id := range ids {
		delete(s.comments, id)
	}
	return ids, nil
}

func clonePost(p *models.ContentPost) *models.ContentPost {
	out := *p
	out.TargetRoles = append([]string(nil), p.TargetRoles...)
	out.UploadRef = cloneString(p.UploadRef)
	out.ApprovedBy, out.ApprovedAt = cloneID(p.ApprovedBy), cloneTime(p.ApprovedAt)
	out.RejectedBy, out.RejectedAt = cloneID(p.RejectedBy), cloneTime(p.RejectedAt)
	out.PendingBy, out.PendingAt = cloneID(p.PendingBy), cloneTime(p.PendingAt)
	out.PublishedBy, out.PublishedAt = cloneID(p.PublishedBy), cloneTime(p.PublishedAt)
	return &out
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneID(id *uuid.UUID) *uuid.UUID {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
