package dto

import (
	"html"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"

	"github.com/bensalemboualem/ifactory-school/internal/models"
)

// PostRequest is the body of create and update. JSON and multipart forms are
// both accepted; target_roles repeats in forms.
type PostRequest struct {
	Title       string   `json:"title" form:"title" validate:"max=255"`
	Description string   `json:"description" form:"description" validate:"required,max=20000"`
	Status      string   `json:"status" form:"status" validate:"omitempty,oneof=active inactive"`
	ViewsCount  *int     `json:"views_count" form:"views_count" validate:"omitempty,min=0"`
	TargetRoles []string `json:"target_roles" form:"target_roles" validate:"required,min=1,dive,oneof=superadmin staff student parent"`
}

type StatusRequest struct {
	Status string `json:"status" form:"status" validate:"required"`
}

type PostResponse struct {
	ID             uuid.UUID  `json:"id"`
	Kind           string     `json:"kind"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	RichText       bool       `json:"rich_text"`
	MediaURL       string     `json:"media_url,omitempty"`
	Status         string     `json:"status"`
	ApprovalStatus string     `json:"approval_status"`
	IsPublished    bool       `json:"is_published"`
	TargetRoles    []string   `json:"target_roles"`
	ViewsCount     int        `json:"views_count"`
	CreatedBy      uuid.UUID  `json:"created_by"`
	CreatedByRole  string     `json:"created_by_role"`
	ApprovedBy     *uuid.UUID `json:"approved_by"`
	ApprovedAt     *time.Time `json:"approved_at"`
	RejectedBy     *uuid.UUID `json:"rejected_by"`
	RejectedAt     *time.Time `json:"rejected_at"`
	PendingBy      *uuid.UUID `json:"pending_by"`
	PendingAt      *time.Time `json:"pending_at"`
	PublishedBy    *uuid.UUID `json:"published_by"`
	PublishedAt    *time.Time `json:"published_at"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func NewPagination(page, limit int, total int64) Pagination {
	pages := 0
	if limit > 0 {
		pages = int((total + int64(limit) - 1) / int64(limit))
	}
	return Pagination{Page: page, Limit: limit, Total: total, TotalPages: pages}
}

type PostListResponse struct {
	Posts      []PostResponse `json:"posts"`
	Pagination Pagination     `json:"pagination"`
}

// ToPostResponse maps a stored post. mediaURL gives the link of a post that
// carries media. Plain-text descriptions are HTML-escaped; moderator forum
// HTML is passed through.
func ToPostResponse(p *models.ContentPost, mediaURL func(*models.ContentPost) string) PostResponse {
	var out PostResponse
	_ = copier.Copy(&out, p)
	out.Kind = string(p.Kind)
	if !p.RichText {
		out.Description = html.EscapeString(p.Description)
	}
	out.TargetRoles = append([]string{}, p.TargetRoles...)
	if p.UploadRef != nil && mediaURL != nil {
		out.MediaURL = mediaURL(p)
	}
	return out
}

func ToPostResponses(posts []models.ContentPost, mediaURL func(*models.ContentPost) string) []PostResponse {
	out := make([]PostResponse, 0, len(posts))
	for i := range posts {
		out = append(out, ToPostResponse(&posts[i], mediaURL))
	}
	return out
}
