package store

import (
	"errors"
	"time"

	"chatwave/backend/internal/models"
	apperrors "chatwave/backend/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationState is the derived relationship between two users as seen by one
// of them. It is asymmetric: a pending request reads "sent" to the sender and
// "pending" to the receiver.
type RelationState string

const (
	RelationNone    RelationState = "none"
	RelationSent    RelationState = "sent"
	RelationPending RelationState = "pending"
	RelationFriends RelationState = "friends"
)

// SendFriendRequest creates a new pending request from sender to receiver.
// At most one pending request may exist per pair at a time, in either
// direction, and an existing friendship blocks new requests entirely.
func SendFriendRequest(db *gorm.DB, senderID, receiverID uint) (*models.FriendRequest, error) {
	if senderID == receiverID {
		return nil, apperrors.ErrSelfRequest
	}

	var request models.FriendRequest
	err := db.Transaction(func(tx *gorm.DB) error {
		var receiver models.User
		if err := tx.First(&receiver, receiverID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrReceiverNotFound
			}
			return apperrors.Wrap(apperrors.CodeInternal, "failed to look up receiver", err)
		}

		var friendCount int64
		if err := tx.Model(&models.Friendship{}).
			Where("user_id = ? AND friend_id = ?", senderID, receiverID).
			Count(&friendCount).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to check friendship", err)
		}
		if friendCount > 0 {
			return apperrors.ErrAlreadyFriends
		}

		var pendingCount int64
		if err := tx.Model(&models.FriendRequest{}).
			Where("status = ?", models.RequestPending).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				senderID, receiverID, receiverID, senderID).
			Count(&pendingCount).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to check pending requests", err)
		}
		if pendingCount > 0 {
			return apperrors.ErrRequestPending
		}

		request = models.FriendRequest{
			SenderID:   senderID,
			ReceiverID: receiverID,
			Status:     models.RequestPending,
		}
		if err := tx.Create(&request).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to create friend request", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return reloadRequest(db, request.ID)
}

// RespondToFriendRequest applies the receiver's accept or reject decision.
// The pending-status check and the status write happen as one conditional
// update, so two concurrent responses can never both take effect. Accepting
// creates the symmetric friendship rows and the pair's direct chat in the
// same transaction.
func RespondToFriendRequest(db *gorm.DB, requestID, actorID uint, accept bool) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := db.First(&request, requestID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRequestNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load friend request", err)
	}

	if request.ReceiverID != actorID {
		return nil, apperrors.ErrNotReceiver
	}

	newStatus := models.RequestRejected
	if accept {
		newStatus = models.RequestAccepted
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&models.FriendRequest{}).
			Where("id = ? AND status = ?", requestID, models.RequestPending).
			Updates(map[string]interface{}{
				"status":       newStatus,
				"responded_at": &now,
			})
		if result.Error != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to update friend request", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrRequestSettled
		}

		if !accept {
			return nil
		}

		friendships := []models.Friendship{
			{UserID: request.SenderID, FriendID: request.ReceiverID},
			{UserID: request.ReceiverID, FriendID: request.SenderID},
		}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&friendships).Error; err != nil {
			return apperrors.Wrap(apperrors.CodeInternal, "failed to create friendship", err)
		}

		if _, _, err := GetOrCreateDirectChat(tx, request.SenderID, request.ReceiverID); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return reloadRequest(db, requestID)
}

// FriendRequestsFor returns every request involving the user, partitioned
// into incoming and outgoing, newest first, hydrated with both profiles.
func FriendRequestsFor(db *gorm.DB, userID uint) (incoming, outgoing []models.FriendRequest, err error) {
	var requests []models.FriendRequest
	err = db.Preload("Sender").Preload("Receiver").
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Find(&requests).Error
	if err != nil {
		return nil, nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list friend requests", err)
	}

	incoming = []models.FriendRequest{}
	outgoing = []models.FriendRequest{}
	for _, r := range requests {
		if r.ReceiverID == userID {
			incoming = append(incoming, r)
		}
		if r.SenderID == userID {
			outgoing = append(outgoing, r)
		}
	}
	return incoming, outgoing, nil
}

// FriendsOf returns the profiles of every friend of the user. Friendships are
// stored in both directions, so a single join suffices.
func FriendsOf(db *gorm.DB, userID uint) ([]models.User, error) {
	var friends []models.User
	err := db.
		Joins("JOIN friendships ON friendships.friend_id = users.id").
		Where("friendships.user_id = ?", userID).
		Find(&friends).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list friends", err)
	}
	return friends, nil
}

// RelationStatus derives the relationship state between userID and otherID
// from the viewpoint of userID. An existing friendship wins; otherwise the
// most recent request decides. A rejected request reads as "none" so the
// pair may try again.
func RelationStatus(db *gorm.DB, userID, otherID uint) (RelationState, *uint, error) {
	var friendCount int64
	if err := db.Model(&models.Friendship{}).
		Where("user_id = ? AND friend_id = ?", userID, otherID).
		Count(&friendCount).Error; err != nil {
		return RelationNone, nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check friendship", err)
	}
	if friendCount > 0 {
		return RelationFriends, nil, nil
	}

	var request models.FriendRequest
	err := db.
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			userID, otherID, otherID, userID).
		Order("created_at DESC, id DESC").
		First(&request).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RelationNone, nil, nil
		}
		return RelationNone, nil, apperrors.Wrap(apperrors.CodeInternal, "failed to look up requests", err)
	}

	switch request.Status {
	case models.RequestPending:
		if request.SenderID == userID {
			return RelationSent, &request.ID, nil
		}
		return RelationPending, &request.ID, nil
	case models.RequestAccepted:
		return RelationFriends, &request.ID, nil
	default: // rejected
		return RelationNone, nil, nil
	}
}

func reloadRequest(db *gorm.DB, id uint) (*models.FriendRequest, error) {
	var request models.FriendRequest
	if err := db.Preload("Sender").Preload("Receiver").First(&request, id).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to reload friend request", err)
	}
	return &request, nil
}
