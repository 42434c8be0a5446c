package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/bensalemboualem/ifactory-school/internal/models"
)

type CommentRequest struct {
	Body     string     `json:"body" form:"body" validate:"required,max=2000"`
	ParentID *uuid.UUID `json:"parent_id" form:"parent_id"`
}

type CommentResponse struct {
	ID        uuid.UUID  `json:"id"`
	PostID    uuid.UUID  `json:"post_id"`
	ParentID  *uuid.UUID `json:"parent_id"`
	AuthorID  uuid.UUID  `json:"author_id"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
}

// CommentNode is a comment with its replies, built at read time.
type CommentNode struct {
	CommentResponse
	Replies []*CommentNode `json:"replies"`
}

func ToCommentResponse(c *models.Comment) CommentResponse {
	var out CommentResponse
	_ = copier.Copy(&out, c)
	return out
}
