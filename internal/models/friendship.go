package models

import "time"

// Friendship is one direction of an accepted friend pair. Accepting a request
// writes both directions, so friend lookups only ever filter on UserID.
// The composite primary key keeps the pair unique per direction.
type Friendship struct {
	UserID    uint `gorm:"primaryKey"`
	FriendID  uint `gorm:"primaryKey"`
	CreatedAt time.Time

	User   User `gorm:"foreignKey:UserID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Friend User `gorm:"foreignKey:FriendID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
