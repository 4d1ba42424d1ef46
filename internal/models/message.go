package models

import "time"

// Message is one entry in a chat's append-only log. Rows are never updated or
// deleted; ordering is (created_at, id) ascending.
type Message struct {
	ID        uint      `gorm:"primaryKey"`
	ChatID    uint      `gorm:"not null;index"`
	SenderID  uint      `gorm:"not null"`
	Content   string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"index"`

	Sender User `gorm:"foreignKey:SenderID"`
}
