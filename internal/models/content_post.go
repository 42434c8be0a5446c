package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ContentKind separates forum posts from memories. Both share one lifecycle.
type ContentKind string

const (
	KindForum  ContentKind = "forum"
	KindMemory ContentKind = "memory"
)

func (k ContentKind) Valid() bool {
	return k == KindForum || k == KindMemory
}

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// Approval axis.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// ContentPost is a moderated, publishable forum post or memory entry.
//
// Exactly one of the approved/rejected/pending audit pairs is set, the one
// matching ApprovalStatus. PublishedBy and PublishedAt are set iff IsPublished.
// Description is stored as submitted; RichText marks forum HTML written by a
// moderator, everything else is plain text and escaped on output.
type ContentPost struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID       string                      `gorm:"size:50;not null;index:idx_content_school_kind" json:"-"`
	Kind           ContentKind                 `gorm:"size:20;not null;index:idx_content_school_kind" json:"kind"`
	Title          string                      `gorm:"size:255" json:"title"`
	Description    string                      `gorm:"type:text;not null" json:"description"`
	RichText       bool                        `gorm:"not null;default:false" json:"rich_text"`
	UploadRef      *string                     `gorm:"size:255" json:"upload_ref,omitempty"`
	Status         string                      `gorm:"size:20;not null;default:'active';index" json:"status"`
	ApprovalStatus string                      `gorm:"size:20;not null;default:'pending';index" json:"approval_status"`
	IsPublished    bool                        `gorm:"not null;default:false;index" json:"is_published"`
	TargetRoles    datatypes.JSONSlice[string] `gorm:"type:jsonb;not null;default:'[]'" json:"target_roles"`
	ViewsCount     int                         `gorm:"not null;default:0" json:"views_count"`
	CreatedBy      uuid.UUID                   `gorm:"type:uuid;not null;index" json:"created_by"`
	CreatedByRole  string                      `gorm:"size:20;not null;index" json:"created_by_role"`
	ApprovedBy     *uuid.UUID                  `gorm:"type:uuid" json:"approved_by"`
	ApprovedAt     *time.Time                  `json:"approved_at"`
	RejectedBy     *uuid.UUID                  `gorm:"type:uuid" json:"rejected_by"`
	RejectedAt     *time.Time                  `json:"rejected_at"`
	PendingBy      *uuid.UUID                  `gorm:"type:uuid" json:"pending_by"`
	PendingAt      *time.Time                  `json:"pending_at"`
	PublishedBy    *uuid.UUID                  `gorm:"type:uuid" json:"published_by"`
	PublishedAt    *time.Time                  `json:"published_at"`
	CreatedAt      time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time                   `json:"updated_at"`
}

func (ContentPost) TableName() string {
	return "content_posts"
}

// BeforeCreate ensures a UUID is set before insert.
func (p *ContentPost) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasTargetRole reports whether role is one of the post's target roles.
func (p *ContentPost) HasTargetRole(role string) bool {
	for _, r := range p.TargetRoles {
		if r == role {
			return true
		}
	}
	return false
}
