package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/dto"
	"github.com/bensalemboualem/ifactory-school/internal/media"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/storage"
	"github.com/bensalemboualem/ifactory-school/internal/validation"
	"github.com/bensalemboualem/ifactory-school/internal/visibility"
	"github.com/bensalemboualem/ifactory-school/internal/workflow"
)

// ContentService runs the moderated lifecycle of forum posts and memories.
type ContentService struct {
	store         storage.Storage
	media         media.Store
	checker       authz.Checker
	maxMediaBytes int64
	mediaTTL      time.Duration
	now           func() time.Time
}

// NewContentService builds the service. Media links it hands out expire
// after mediaTTL.
func NewContentService(store storage.Storage, mediaStore media.Store, checker authz.Checker, maxMediaBytes int64, mediaTTL time.Duration) *ContentService {
	return &ContentService{
		store:         store,
		media:         mediaStore,
		checker:       checker,
		maxMediaBytes: maxMediaBytes,
		mediaTTL:      mediaTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CanModerate exposes the capability check to the HTTP layer.
func (s *ContentService) CanModerate(actor authz.Actor) bool {
	return s.checker.CanModerate(actor)
}

func (s *ContentService) Create(ctx context.Context, actor authz.Actor, kind models.ContentKind, req *dto.PostRequest, upload *media.Upload) (*models.ContentPost, error) {
	if err := s.validatePost(req, upload); err != nil {
		return nil, err
	}
	privileged := s.checker.CanModerate(actor)
	now := s.now()

	post := &models.ContentPost{
		ID:            uuid.New(),
		SchoolID:      actor.SchoolID,
		Kind:          kind,
		CreatedBy:     actor.ID,
		CreatedByRole: actor.Role,
		Status:        models.StatusActive,
		CreatedAt:     now,
	}
	applyPostRequest(post, kind, req, privileged)
	workflow.Initialize(post, actor.ID, privileged, now)

	if upload != nil {
		ref, err := s.media.Put(ctx, actor.SchoolID, upload)
		if err != nil {
			return nil, failed(ctx, "content.create.media", actor, err)
		}
		post.UploadRef = &ref
	}

	if err := s.store.CreatePost(ctx, post); err != nil {
		if post.UploadRef != nil {
			s.release(ctx, actor, *post.UploadRef)
		}
		return nil, failed(ctx, "content.create", actor, err)
	}

	slog.InfoContext(ctx, "content created",
		"school_id", actor.SchoolID, "kind", string(kind), "post_id", post.ID.String(),
		"approval_status", post.ApprovalStatus)
	return post, nil
}

// Update replaces the editable fields. The lifecycle state is untouched and
// the existing media is kept unless a new upload is given.
func (s *ContentService) Update(ctx context.Context, actor authz.Actor, kind models.ContentKind, id uuid.UUID, req *dto.PostRequest, upload *media.Upload) (*models.ContentPost, error) {
	if err := s.validatePost(req, upload); err != nil {
		return nil, err
	}
	privileged := s.checker.CanModerate(actor)

	var newRef string
	if upload != nil {
		ref, err := s.media.Put(ctx, actor.SchoolID, upload)
		if err != nil {
			return nil, failed(ctx, "content.update.media", actor, err)
		}
		newRef = ref
	}

	var oldRef string
	post, err := s.store.ModifyPost(ctx, actor.SchoolID, kind, id, func(p *models.ContentPost) (bool, error) {
		if !privileged && p.CreatedBy != actor.ID {
			return false, ErrForbidden
		}
		applyPostRequest(p, kind, req, privileged)
		if newRef != "" {
			if p.UploadRef != nil {
				oldRef = *p.UploadRef
			}
			ref := newRef
			p.UploadRef = &ref
		}
		return true, nil
	})
	if err != nil {
		if newRef != "" {
			s.release(ctx, actor, newRef)
		}
		return nil, s.mapStoreErr(ctx, "content.update", actor, err)
	}
	if oldRef != "" {
		s.release(ctx, actor, oldRef)
	}
	return post, nil
}

// Get returns a post visible to actor. Reads by anyone but the author count
// as one view.
func (s *ContentService) Get(ctx context.Context, actor authz.Actor, kind models.ContentKind, id uuid.UUID) (*models.ContentPost, error) {
	post, err := s.store.GetPost(ctx, actor.SchoolID, kind, id)
	if err != nil {
		return nil, s.mapStoreErr(ctx, "content.get", actor, err)
	}
	if !canView(s.checker, actor, post) {
		return nil, ErrPostNotFound
	}
	if post.CreatedBy == actor.ID {
		return post, nil
	}
	if err := s.store.IncrementViews(ctx, actor.SchoolID, post.ID); err != nil {
		slog.WarnContext(ctx, "failed to count view",
			"school_id", actor.SchoolID, "post_id", post.ID.String(), "error", err)
		return post, nil
	}
	post.ViewsCount++
	return post, nil
}

// MediaLink returns a short-lived download link for the post's media. It
// applies the same visibility as Get but does not count a view.
func (s *ContentService) MediaLink(ctx context.Context, actor authz.Actor, kind models.ContentKind, id uuid.UUID) (string, error) {
	post, err := s.store.GetPost(ctx, actor.SchoolID, kind, id)
	if err != nil {
		return "", s.mapStoreErr(ctx, "content.media", actor, err)
	}
	if !canView(s.checker, actor, post) || post.UploadRef == nil {
		return "", ErrPostNotFound
	}
	link, err := s.media.SignedURL(ctx, *post.UploadRef, s.mediaTTL)
	if err != nil {
		if errors.Is(err, media.ErrNotFound) {
			return "", ErrPostNotFound
		}
		return "", failed(ctx, "content.media", actor, err)
	}
	return link, nil
}

// ChangeStatus applies one lifecycle transition. Only moderators may call it.
func (s *ContentService) ChangeStatus(ctx context.Context, actor authz.Actor, kind models.ContentKind, id uuid.UUID, token string) (*models.ContentPost, bool, error) {
	if !s.checker.CanModerate(actor) {
		return nil, false, ErrForbidden
	}
	transition, err := workflow.ParseTransition(token)
	if err != nil {
		return nil, false, validation.Field("status", "must be one of: approved, rejected, pending, published, unpublished")
	}

	now := s.now()
	changed := false
	post, err := s.store.ModifyPost(ctx, actor.SchoolID, kind, id, func(p *models.ContentPost) (bool, error) {
		ok, err := workflow.Apply(p, transition, actor.ID, now)
		if err != nil || !ok {
			return false, err
		}
		if err := workflow.Validate(p); err != nil {
			return false, err
		}
		changed = true
		return true, nil
	})
	if err != nil {
		return nil, false, s.mapStoreErr(ctx, "content.change_status", actor, err)
	}

	if changed {
		slog.InfoContext(ctx, "content status changed",
			"school_id", actor.SchoolID, "kind", string(kind), "post_id", id.String(),
			"transition", string(transition), "user_id", actor.ID.String())
	}
	return post, changed, nil
}

func (s *ContentService) List(ctx context.Context, actor authz.Actor, kind models.ContentKind, params visibility.Params) ([]models.ContentPost, dto.Pagination, error) {
	q, err := visibility.Build(actor, kind, params, s.checker.CanModerate(actor))
	if err != nil {
		if errors.Is(err, visibility.ErrViewForbidden) {
			return nil, dto.Pagination{}, ErrForbidden
		}
		return nil, dto.Pagination{}, err
	}

	posts, total, err := s.store.ListPosts(ctx, q)
	if err != nil {
		return nil, dto.Pagination{}, failed(ctx, "content.list", actor, err)
	}
	return posts, dto.NewPagination(q.Page, q.PageSize, total), nil
}

// Delete removes the post and its comments, then releases its media.
func (s *ContentService) Delete(ctx context.Context, actor authz.Actor, kind models.ContentKind, id uuid.UUID) error {
	post, err := s.store.GetPost(ctx, actor.SchoolID, kind, id)
	if err != nil {
		return s.mapStoreErr(ctx, "content.delete", actor, err)
	}
	if !s.checker.CanModerate(actor) && post.CreatedBy != actor.ID {
		return ErrForbidden
	}

	removed, err := s.store.DeletePost(ctx, actor.SchoolID, kind, id)
	if err != nil {
		return s.mapStoreErr(ctx, "content.delete", actor, err)
	}
	if removed.UploadRef != nil {
		s.release(ctx, actor, *removed.UploadRef)
	}

	slog.InfoContext(ctx, "content deleted",
		"school_id", actor.SchoolID, "kind", string(kind), "post_id", id.String(),
		"user_id", actor.ID.String())
	return nil
}

func (s *ContentService) validatePost(req *dto.PostRequest, upload *media.Upload) error {
	verr := &validation.Error{}
	if err := validation.Struct(req); err != nil {
		var fields *validation.Error
		if !errors.As(err, &fields) {
			return err
		}
		verr = fields
	}
	if strings.TrimSpace(req.Description) == "" {
		verr.Add("description", "is required")
	}
	if upload != nil {
		switch err := media.Validate(upload, s.maxMediaBytes); {
		case errors.Is(err, media.ErrUnsupportedType):
			verr.Add("media", "must be a jpeg, png, gif, webp image or an mp4 video")
		case errors.Is(err, media.ErrTooLarge):
			verr.Add("media", "is too large")
		}
	}
	return verr.OrNil()
}

func (s *ContentService) release(ctx context.Context, actor authz.Actor, ref string) {
	if err := s.media.Release(ctx, ref); err != nil {
		slog.ErrorContext(ctx, "failed to release media",
			"action", "media.release",
			"school_id", actor.SchoolID,
			"user_id", actor.ID.String(),
			"ref", ref,
			"error", err.Error(),
		)
	}
}

func (s *ContentService) mapStoreErr(ctx context.Context, action string, actor authz.Actor, err error) error {
	var verr *validation.Error
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return ErrPostNotFound
	case errors.Is(err, ErrForbidden):
		return ErrForbidden
	case errors.As(err, &verr):
		return err
	}
	return failed(ctx, action, actor, err)
}

// canView reports whether actor may read post and its comments: the author,
// any moderator, or a member of one of the target roles.
func canView(checker authz.Checker, actor authz.Actor, post *models.ContentPost) bool {
	return post.CreatedBy == actor.ID || checker.CanModerate(actor) || post.HasTargetRole(actor.Role)
}

// applyPostRequest copies the editable fields of req onto p.
func applyPostRequest(p *models.ContentPost, kind models.ContentKind, req *dto.PostRequest, privileged bool) {
	p.Title = strings.TrimSpace(req.Title)
	p.Description = strings.TrimSpace(req.Description)
	p.RichText = kind == models.KindForum && privileged
	if req.Status != "" {
		p.Status = req.Status
	}
	if req.ViewsCount != nil && privileged {
		p.ViewsCount = *req.ViewsCount
	}
	p.TargetRoles = dedupe(req.TargetRoles)
}

func dedupe(roles []string) []string {
	seen := make(map[string]bool, len(roles))
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	return out
}
