package tenant

import "gorm.io/gorm"

// ForTenant returns a GORM scope that filters by school_id.
func ForTenant(schoolID string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("school_id = ?", schoolID)
	}
}
