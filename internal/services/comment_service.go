package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/dto"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/storage"
	"github.com/bensalemboualem/ifactory-school/internal/validation"
)

var filterMessages = map[string]string{
	ReasonInappropriate: "contains inappropriate language",
	ReasonSpam:          "looks like spam",
}

type CommentService struct {
	store   storage.Storage
	checker authz.Checker
	filter  *ContentFilter
	now     func() time.Time
}

func NewCommentService(store storage.Storage, checker authz.Checker, filter *ContentFilter) *CommentService {
	return &CommentService{
		store:   store,
		checker: checker,
		filter:  filter,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a comment to a post, or a reply when req.ParentID is set. The
// parent must belong to the same post.
func (s *CommentService) Create(ctx context.Context, actor authz.Actor, kind models.ContentKind, postID uuid.UUID, req *dto.CommentRequest) (*models.Comment, error) {
	if err := s.validateBody(actor, req); err != nil {
		return nil, err
	}
	if err := s.visiblePost(ctx, "comment.create", actor, kind, postID); err != nil {
		return nil, err
	}

	if req.ParentID != nil {
		parent, err := s.store.GetComment(ctx, actor.SchoolID, *req.ParentID)
		switch {
		case errors.Is(err, storage.ErrNotFound):
			return nil, validation.Field("parent_id", "does not exist")
		case err != nil:
			return nil, failed(ctx, "comment.create", actor, err)
		case parent.PostID != postID:
			return nil, validation.Field("parent_id", "belongs to another post")
		}
	}

	comment := &models.Comment{
		ID:        uuid.New(),
		SchoolID:  actor.SchoolID,
		PostID:    postID,
		ParentID:  req.ParentID,
		AuthorID:  actor.ID,
		Body:      strings.TrimSpace(req.Body),
		CreatedAt: s.now(),
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		if errors.Is(err, storage.ErrNotFound) && req.ParentID != nil {
			return nil, validation.Field("parent_id", "does not exist")
		}
		return nil, failed(ctx, "comment.create", actor, err)
	}
	return comment, nil
}

// Thread returns the comments of a post as a nested tree.
func (s *CommentService) Thread(ctx context.Context, actor authz.Actor, kind models.ContentKind, postID uuid.UUID) ([]*dto.CommentNode, error) {
	if err := s.visiblePost(ctx, "comment.thread", actor, kind, postID); err != nil {
		return nil, err
	}
	rows, err := s.store.ListComments(ctx, actor.SchoolID, postID)
	if err != nil {
		return nil, failed(ctx, "comment.thread", actor, err)
	}
	return BuildThread(rows), nil
}

// Delete removes a comment and every reply below it. Authors may delete their
// own comments, moderators any comment. It returns the number of removed rows.
func (s *CommentService) Delete(ctx context.Context, actor authz.Actor, kind models.ContentKind, postID, commentID uuid.UUID) (int, error) {
	if err := s.visiblePost(ctx, "comment.delete", actor, kind, postID); err != nil {
		return 0, err
	}
	target, err := s.store.GetComment(ctx, actor.SchoolID, commentID)
	if err != nil {
		return 0, s.mapStoreErr(ctx, "comment.delete", actor, err, ErrCommentNotFound)
	}
	if target.PostID != postID {
		return 0, ErrCommentNotFound
	}
	if target.AuthorID != actor.ID && !s.checker.CanModerate(actor) {
		return 0, ErrForbidden
	}

	ids, err := s.store.DeleteCommentTree(ctx, actor.SchoolID, postID, commentID)
	if err != nil {
		return 0, s.mapStoreErr(ctx, "comment.delete", actor, err, ErrCommentNotFound)
	}
	return len(ids), nil
}

// visiblePost fails with ErrPostNotFound unless the post exists and actor may
// read it.
func (s *CommentService) visiblePost(ctx context.Context, action string, actor authz.Actor, kind models.ContentKind, postID uuid.UUID) error {
	post, err := s.store.GetPost(ctx, actor.SchoolID, kind, postID)
	if err != nil {
		return s.mapStoreErr(ctx, action, actor, err, ErrPostNotFound)
	}
	if !canView(s.checker, actor, post) {
		return ErrPostNotFound
	}
	return nil
}

func (s *CommentService) validateBody(actor authz.Actor, req *dto.CommentRequest) error {
	verr := &validation.Error{}
	if err := validation.Struct(req); err != nil {
		var fields *validation.Error
		if !errors.As(err, &fields) {
			return err
		}
		verr = fields
	}
	body := strings.TrimSpace(req.Body)
	if body == "" {
		verr.Add("body", "is required")
	}
	if s.filter != nil && !s.checker.CanModerate(actor) {
		if reason := s.filter.Check(body); reason != "" {
			verr.Add("body", filterMessages[reason])
		}
	}
	return verr.OrNil()
}

func (s *CommentService) mapStoreErr(ctx context.Context, action string, actor authz.Actor, err error, notFound error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return notFound
	}
	return failed(ctx, action, actor, err)
}

// BuildThread assembles flat, chronologically ordered rows into a forest.
// Siblings keep row order. Rows whose parent is missing become roots, and so
// does the earliest row of any parent cycle.
func BuildThread(rows []models.Comment) []*dto.CommentNode {
	index := make(map[uuid.UUID]int, len(rows))
	for i := range rows {
		index[rows[i].ID] = i
	}

	children := make(map[uuid.UUID][]int, len(rows))
	var rootRows []int
	for i := range rows {
		pid := rows[i].ParentID
		if pid != nil && *pid != rows[i].ID {
			if _, ok := index[*pid]; ok {
				children[*pid] = append(children[*pid], i)
				continue
			}
		}
		rootRows = append(rootRows, i)
	}

	type item struct {
		row  int
		node *dto.CommentNode
	}
	visited := make([]bool, len(rows))
	roots := make([]*dto.CommentNode, 0, len(rootRows))

	attach := func(start int) {
		root := newNode(&rows[start])
		visited[start] = true
		queue := []item{{start, root}}
		for len(queue) > 0 {
			cur := queue[0]
			queue = queue[1:]
			for _, ci := range children[rows[cur.row].ID] {
				if visited[ci] {
					continue
				}
				visited[ci] = true
				n := newNode(&rows[ci])
				cur.node.Replies = append(cur.node.Replies, n)
				queue = append(queue, item{ci, n})
			}
		}
		roots = append(roots, root)
	}

	for _, i := range rootRows {
		attach(i)
	}
	for i := range rows {
		if !visited[i] {
			attach(i)
		}
	}
	return roots
}

func newNode(c *models.Comment) *dto.CommentNode {
	return &dto.CommentNode{
		CommentResponse: dto.ToCommentResponse(c),
		Replies:         []*dto.CommentNode{},
	}
}
