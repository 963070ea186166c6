package models

import "time"

// Admin is an entry of the dedicated admin registry. A user listed here is an
// administrator regardless of the role stored on the user record.
type Admin struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex" json:"user_id"`
	GrantedBy string    `gorm:"type:varchar(200);default:null" json:"granted_by"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
