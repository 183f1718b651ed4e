package database

import (
	"time"

	"gorm.io/gorm"
)

// User is an account row of the development API.
type User struct {
	ID             uint   `gorm:"primaryKey"`
	Email          string `gorm:"uniqueIndex;size:255;not null"`
	Nickname       string `gorm:"uniqueIndex;size:32;not null"`
	Password       string `gorm:"not null"`
	ProfilePicture string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Post is a blog post row.
type Post struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"index;not null"`
	Title       string `gorm:"size:255;not null"`
	Article     string `gorm:"type:text;not null"`
	PostPicture string
	Likes       int `gorm:"not null;default:0"`
	Views       int `gorm:"not null;default:0"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// Comment is a comment row. Edited is set once the text has been changed.
type Comment struct {
	ID        uint   `gorm:"primaryKey"`
	PostID    uint   `gorm:"index;not null"`
	UserID    uint   `gorm:"index;not null"`
	Content   string `gorm:"type:text;not null"`
	Edited    bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// AllModels lists the models AutoMigrate manages.
func AllModels() []any {
	return []any{&User{}, &Post{}, &Comment{}}
}
