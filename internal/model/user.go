package model

import (
	"time"

	"gorm.io/gorm"
)

// UserRole 用户角色
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleCustomer UserRole = "CUSTOMER"
)

// User 平台用户
type User struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Username  string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"username"`
	Email     string         `gorm:"type:varchar(128);uniqueIndex;not null" json:"email"`
	Password  string         `gorm:"type:varchar(128);not null" json:"-"`
	Role      UserRole       `gorm:"type:varchar(16);index;not null;default:CUSTOMER" json:"role"`
	IsBlocked bool           `gorm:"not null;default:false" json:"isBlocked"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string { return "users" }

func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }
