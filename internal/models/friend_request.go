package models

import "time"

// RequestStatus defines the lifecycle state of a friend request.
type RequestStatus string

const (
	// RequestPending means the request has been sent but not yet answered.
	RequestPending RequestStatus = "pending"

	// RequestAccepted is terminal: the receiver accepted and the pair are friends.
	RequestAccepted RequestStatus = "accepted"

	// RequestRejected is terminal. A new request may be sent afterwards.
	RequestRejected RequestStatus = "rejected"
)

// FriendRequest represents one send/respond cycle between two users.
// Only the receiver may transition it, and only once.
type FriendRequest struct {
	ID          uint          `gorm:"primaryKey"`
	SenderID    uint          `gorm:"not null;index"`
	ReceiverID  uint          `gorm:"not null;index"`
	Status      RequestStatus `gorm:"type:varchar(20);not null;default:'pending'"`
	CreatedAt   time.Time
	RespondedAt *time.Time

	Sender   User `gorm:"foreignKey:SenderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	Receiver User `gorm:"foreignKey:ReceiverID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}
