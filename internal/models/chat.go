package models

import (
	"fmt"
	"time"
)

// Chat represents a conversation, either a two-member direct chat or a named
// group. Membership is fixed at creation.
type Chat struct {
	ID        uint   `gorm:"primaryKey"`
	IsGroup   bool   `gorm:"not null;default:false"`
	Name      string `gorm:"size:255"` // empty for direct chats; display name derives from the other member
	CreatedBy uint   `gorm:"not null"`

	// DirectKey is the normalized unordered member pair ("lo:hi") for direct
	// chats and nil for groups. The unique index is what makes concurrent
	// get-or-create yield at most one chat per pair.
	DirectKey *string `gorm:"size:64;uniqueIndex"`

	CreatedAt time.Time
	Members   []User `gorm:"many2many:chat_members;"`
}

// DirectChatKey normalizes an unordered user pair into the DirectKey form.
func DirectChatKey(a, b uint) string {
	if a > b {
		a, b = b, a
	}
	return fmt.Sprintf("%d:%d", a, b)
}
