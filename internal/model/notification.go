package model

import "time"

// Notification 站内通知
// 同一行对管理员视图和归属客户都可见，读标记彼此独立且只会 false→true
type Notification struct {
	ID             string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID         string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	Event          EventKind `gorm:"type:varchar(48);index;not null" json:"event"`
	Title          string    `gorm:"type:varchar(128);not null" json:"title"`
	Message        string    `gorm:"type:text;not null" json:"message"`
	Metadata       JSONMap   `gorm:"type:text" json:"metadata,omitempty"`
	IsAdminRead    bool      `gorm:"not null;default:false" json:"isAdminRead"`
	IsCustomerRead bool      `gorm:"not null;default:false" json:"isCustomerRead"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`
}

func (Notification) TableName() string { return "notifications" }
