package model

import "time"

// Activity 操作流水，只追加不修改
type Activity struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Event     EventKind `gorm:"type:varchar(48);index;not null" json:"event"`
	EntityID  string    `gorm:"type:varchar(36);index" json:"entityId"`
	ActorID   string    `gorm:"type:varchar(36);index" json:"actorId"`
	UserID    string    `gorm:"type:varchar(36);index;not null" json:"userId"`
	Metadata  JSONMap   `gorm:"type:text" json:"metadata,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
}

func (Activity) TableName() string { return "activities" }
