package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is a member of one school: superadmin, staff, student or parent.
type User struct {
	ID        uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SchoolID  string         `gorm:"size:50;not null;uniqueIndex:idx_users_school_email" json:"-"`
	Email     string         `gorm:"not null;size:255;uniqueIndex:idx_users_school_email" json:"email"`
	Name      string         `gorm:"size:255" json:"name"`
	Password  string         `gorm:"not null" json:"-"`
	Role      string         `gorm:"size:20;not null;index" json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
