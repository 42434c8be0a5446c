package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/storage"
	"github.com/bensalemboualem/ifactory-school/internal/tenant"
	"github.com/bensalemboualem/ifactory-school/internal/visibility"
)

// Store implements storage.Storage on PostgreSQL through GORM.
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Models lists the tables owned by this store, for AutoMigrate.
func Models() []any {
	return []any{&models.ContentPost{}, &models.Comment{}}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return err
}

// === Posts ===

func (s *Store) CreatePost(ctx context.Context, post *models.ContentPost) error {
	return s.db.WithContext(ctx).Create(post).Error
}

func (s *Store) GetPost(ctx context.Context, schoolID string, kind models.ContentKind, id uuid.UUID) (*models.ContentPost, error) {
	var post models.ContentPost
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForTenant(schoolID), ofKind(kind)).
		First(&post, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &post, nil
}

func (s *Store) ModifyPost(ctx context.Context, schoolID string, kind models.ContentKind, id uuid.UUID, fn storage.Mutator) (*models.ContentPost, error) {
	var post models.ContentPost
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(tenant.ForTenant(schoolID), ofKind(kind)).
			First(&post, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		changed, err := fn(&post)
		if err != nil || !changed {
			return err
		}
		post.ID, post.SchoolID, post.Kind = id, schoolID, kind
		return tx.Save(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) IncrementViews(ctx context.Context, schoolID string, id uuid.UUID) error {
	result := s.db.WithContext(ctx).Model(&models.ContentPost{}).
		Scopes(tenant.ForTenant(schoolID)).
		Where("id = ?", id).
		UpdateColumn("views_count", gorm.Expr("views_count + 1"))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, schoolID string, kind models.ContentKind, id uuid.UUID) (*models.ContentPost, error) {
	var post models.ContentPost
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Scopes(tenant.ForTenant(schoolID), ofKind(kind)).First(&post, "id = ?", id).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("post_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return fmt.Errorf("delete comments: %w", err)
		}
		return tx.Delete(&post).Error
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

func (s *Store) ListPosts(ctx context.Context, q visibility.Query) ([]models.ContentPost, int64, error) {
	var posts []models.ContentPost
	var total int64

	filtered, err := applyQuery(q)
	if err != nil {
		return nil, 0, err
	}

	db := s.db.WithContext(ctx).Model(&models.ContentPost{}).Scopes(filtered)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err = s.db.WithContext(ctx).Scopes(filtered).
		Order("created_at DESC").
		Order("id DESC").
		Offset(q.Offset()).
		Limit(q.PageSize).
		Find(&posts).Error
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

func ofKind(kind models.ContentKind) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("kind = ?", kind)
	}
}

// applyQuery translates a visibility query into a GORM scope. Absent filters
// add no condition.
func applyQuery(q visibility.Query) (func(db *gorm.DB) *gorm.DB, error) {
	var roleJSON string
	if q.View == visibility.ViewFeed {
		b, err := json.Marshal([]string{q.Role})
		if err != nil {
			return nil, err
		}
		roleJSON = string(b)
	}

	return func(db *gorm.DB) *gorm.DB {
		db = db.Scopes(tenant.ForTenant(q.SchoolID), ofKind(q.Kind))

		switch q.View {
		case visibility.ViewMine:
			db = db.Where("created_by = ?", q.OwnerID)
		case visibility.ViewFeed:
			db = db.Where("target_roles @> ?::jsonb", roleJSON)
		}
		if q.Status != "" {
			db = db.Where("status = ?", q.Status)
		}
		if q.Published != nil {
			db = db.Where("is_published = ?", *q.Published)
		}
		if q.ApprovalStatus != "" {
			db = db.Where("approval_status = ?", q.ApprovalStatus)
		}
		if q.PublisherRole != "" {
			db = db.Where("created_by_role = ?", q.PublisherRole)
		}
		if q.Keyword != "" {
			db = db.Where("description ILIKE ?", "%"+escapeLike(q.Keyword)+"%")
		}
		return db
	}, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// === Comments ===

// CreateComment holds a share lock on the parent while inserting, so a reply
// cannot slip in under a subtree that DeleteCommentTree is removing.
func (s *Store) CreateComment(ctx context.Context, comment *models.Comment) error {
	if comment.ParentID == nil {
		return s.db.WithContext(ctx).Create(comment).Error
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent models.Comment
		if err := tx.Clauses(clause.Locking{Strength: "SHARE"}).
			Scopes(tenant.ForTenant(comment.SchoolID)).
			Where("post_id = ?", comment.PostID).
			First(&parent, "id = ?", *comment.ParentID).Error; err != nil {
			return notFound(err)
		}
		return tx.Create(comment).Error
	})
}

func (s *Store) GetComment(ctx context.Context, schoolID string, id uuid.UUID) (*models.Comment, error) {
	var comment models.Comment
	if err := s.db.WithContext(ctx).Scopes(tenant.ForTenant(schoolID)).First(&comment, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &comment, nil
}

func (s *Store) ListComments(ctx context.Context, schoolID string, postID uuid.UUID) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Scopes(tenant.ForTenant(schoolID)).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	return comments, err
}

// DeleteCommentTree locks every comment of the post, then re-reads them so
// replies committed while it waited for the locks are part of the subtree.
func (s *Store) DeleteCommentTree(ctx context.Context, schoolID string, postID, rootID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked []uuid.UUID
		if err := tx.Model(&models.Comment{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Scopes(tenant.ForTenant(schoolID)).
			Where("post_id = ?", postID).
			Pluck("id", &locked).Error; err != nil {
			return err
		}

		var rows []models.Comment
		if err := tx.Scopes(tenant.ForTenant(schoolID)).
			Where("post_id = ?", postID).
			Find(&rows).Error; err != nil {
			return err
		}
		found := false
		for _, c := range rows {
			if c.ID == rootID {
				found = true
				break
			}
		}
		if !found {
			return storage.ErrNotFound
		}

		ids = storage.Subtree(rows, rootID)
		return tx.Scopes(tenant.ForTenant(schoolID)).
			Where("id IN ?", ids).
			Delete(&models.Comment{}).Error
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
