package models

import "time"

// User represents a registered account in the system.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:255;unique;not null"`
	Email        string `gorm:"size:255;unique;not null"`
	PasswordHash string `gorm:"size:255;not null"`
	FullName     string `gorm:"size:255"`
	Phone        string `gorm:"size:50"`
	Avatar       string `gorm:"size:512"`
	Bio          string
	Gender       string `gorm:"size:20"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
