package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Comment is a discussion entry on a ContentPost. ParentID nil means top-level;
// otherwise it references a comment of the same post.
type Comment struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SchoolID  string     `gorm:"size:50;not null;index" json:"-"`
	PostID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"post_id"`
	ParentID  *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	AuthorID  uuid.UUID  `gorm:"type:uuid;not null" json:"author_id"`
	Body      string     `gorm:"type:varchar(2000);not null" json:"body"`
	CreatedAt time.Time  `gorm:"index" json:"created_at"`
}

func (Comment) TableName() string {
	return "content_comments"
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
