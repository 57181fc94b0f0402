package storage

import (
	"time"

	"gorm.io/plugin/soft_delete"
)

type GormModel struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt soft_delete.DeletedAt
}

type LoginRecord struct {
	GormModel
	UserId       string `gorm:"size:64;not null;uniqueIndex"` // 用户唯一索引
	Account      string `gorm:"size:64;not null;uniqueIndex"` // 用户唯一登录账号
	PasswordHash string `gorm:"size:128;not null"`
	PasswordSalt string `gorm:"size:64;not null"`
	State        int8   `gorm:"not null;default:1"`
	Phone        string `gorm:"size:32;not null;default:''"`
}

func (LoginRecord) TableName() string {
	return "login"
}
