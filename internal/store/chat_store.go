package store

import (
	"errors"
	"sort"
	"strings"

	"chatwave/backend/internal/models"
	apperrors "chatwave/backend/pkg/errors"

	"gorm.io/gorm"
)

// DefaultMessageLimit is the page size used when the caller supplies no
// usable limit.
const DefaultMessageLimit = 20

// ChatSummary is a chat hydrated with its members and, when the chat has any
// traffic, its most recent message.
type ChatSummary struct {
	Chat        models.Chat
	LastMessage *models.Message
}

// ChatsFor returns every chat the user belongs to, ordered by last-message
// recency with message-less chats sorted last.
func ChatsFor(db *gorm.DB, userID uint) ([]ChatSummary, error) {
	var chatIDs []uint
	if err := db.Table("chat_members").
		Where("user_id = ?", userID).
		Pluck("chat_id", &chatIDs).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to list chat memberships", err)
	}
	if len(chatIDs) == 0 {
		return []ChatSummary{}, nil
	}

	var chats []models.Chat
	if err := db.Preload("Members").Where("id IN ?", chatIDs).Find(&chats).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load chats", err)
	}

	summaries := make([]ChatSummary, 0, len(chats))
	for _, chat := range chats {
		var last models.Message
		err := db.Where("chat_id = ?", chat.ID).
			Order("created_at DESC, id DESC").
			First(&last).Error
		summary := ChatSummary{Chat: chat}
		if err == nil {
			summary.LastMessage = &last
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load last message", err)
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i].LastMessage, summaries[j].LastMessage
		switch {
		case a == nil && b == nil:
			return summaries[i].Chat.ID > summaries[j].Chat.ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.CreatedAt.Equal(b.CreatedAt):
			return a.ID > b.ID
		default:
			return a.CreatedAt.After(b.CreatedAt)
		}
	})

	return summaries, nil
}

// GetOrCreateDirectChat returns the direct chat for the unordered pair (a, b),
// creating it if absent. The unique index on the normalized pair key makes
// this safe under concurrency: when two calls race, one insert loses with a
// duplicate-key error and re-reads the winner's chat.
func GetOrCreateDirectChat(db *gorm.DB, a, b uint) (*models.Chat, bool, error) {
	key := models.DirectChatKey(a, b)

	if chat, err := directChatByKey(db, key); err != nil {
		return nil, false, err
	} else if chat != nil {
		return chat, false, nil
	}

	chat := models.Chat{
		IsGroup:   false,
		CreatedBy: a,
		DirectKey: &key,
		Members:   []models.User{{ID: a}, {ID: b}},
	}
	if err := db.Create(&chat).Error; err != nil {
		if isDuplicateKey(err) {
			existing, lookupErr := directChatByKey(db, key)
			if lookupErr != nil {
				return nil, false, lookupErr
			}
			if existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, apperrors.Wrap(apperrors.CodeInternal, "failed to create direct chat", err)
	}

	created, err := chatByID(db, chat.ID)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// CreateGroupChat creates a named group chat owned by creatorID. Membership
// is fixed at creation; the creator is always included.
func CreateGroupChat(db *gorm.DB, creatorID uint, name string, memberIDs []uint) (*models.Chat, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrEmptyGroupName
	}

	seen := map[uint]bool{creatorID: true}
	members := []models.User{{ID: creatorID}}
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, models.User{ID: id})
	}
	if len(members) < 3 {
		return nil, apperrors.ErrTooFewGroupMembers
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	var userCount int64
	if err := db.Model(&models.User{}).Where("id IN ?", ids).Count(&userCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to verify members", err)
	}
	if userCount != int64(len(ids)) {
		return nil, apperrors.ErrUserNotFound
	}

	chat := models.Chat{
		IsGroup:   true,
		Name:      name,
		CreatedBy: creatorID,
		Members:   members,
	}
	if err := db.Create(&chat).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create group chat", err)
	}

	return chatByID(db, chat.ID)
}

// ChatMessages returns up to limit messages of the chat, oldest first. When
// beforeID is non-zero only messages strictly older than it are returned,
// which is what backward infinite scroll needs.
func ChatMessages(db *gorm.DB, chatID uint, limit int, beforeID uint) ([]models.Message, error) {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}

	query := db.Where("chat_id = ?", chatID)
	if beforeID > 0 {
		query = query.Where("id < ?", beforeID)
	}

	var messages []models.Message
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&messages).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load messages", err)
	}

	// Fetched newest-first to apply the limit; flip to oldest-first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// PostMessage appends a message to the chat's log. The sender must be a
// current member.
func PostMessage(db *gorm.DB, chatID, senderID uint, content string) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.ErrEmptyMessage
	}

	var chat models.Chat
	if err := db.First(&chat, chatID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrChatNotFound
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to load chat", err)
	}

	var memberCount int64
	if err := db.Table("chat_members").
		Where("chat_id = ? AND user_id = ?", chatID, senderID).
		Count(&memberCount).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to check membership", err)
	}
	if memberCount == 0 {
		return nil, apperrors.ErrNotChatMember
	}

	message := models.Message{
		ChatID:   chatID,
		SenderID: senderID,
		Content:  content,
	}
	if err := db.Create(&message).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to create message", err)
	}
	return &message, nil
}

func directChatByKey(db *gorm.DB, key string) (*models.Chat, error) {
	var chat models.Chat
	err := db.Preload("Members").Where("direct_key = ?", key).First(&chat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to look up direct chat", err)
	}
	return &chat, nil
}

func chatByID(db *gorm.DB, id uint) (*models.Chat, error) {
	var chat models.Chat
	if err := db.Preload("Members").First(&chat, id).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "failed to reload chat", err)
	}
	return &chat, nil
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate key")
}
