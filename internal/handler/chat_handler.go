package handler

import (
	"net/http"
	"strconv"
	"time"

	"chatwave/backend/internal/database"
	"chatwave/backend/internal/hub"
	"chatwave/backend/internal/models"
	"chatwave/backend/internal/store"

	"github.com/gin-gonic/gin"
)

// region --- DTOs ---

// StartChatInput defines the body for starting (or resuming) a direct chat.
type StartChatInput struct {
	FriendID uint `json:"friendId" binding:"required" example:"2"`
}

// GroupChatInput defines the body for creating a group chat.
type GroupChatInput struct {
	Name      string `json:"name" binding:"required" example:"weekend plans"`
	MemberIDs []uint `json:"member_ids" binding:"required"`
}

// MessageInput defines the body for posting a message.
type MessageInput struct {
	Content string `json:"content" example:"hello"`
}

// MessageResponse is one entry of a chat's message log.
type MessageResponse struct {
	ID        uint      `json:"id"`
	ChatID    uint      `json:"chat_id"`
	SenderID  uint      `json:"sender_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatResponse is a chat hydrated with members, the derived display name and
// the most recent message. For direct chats, Friend is the non-self member.
type ChatResponse struct {
	ID          uint             `json:"id"`
	Name        string           `json:"name"`
	IsGroup     bool             `json:"is_group"`
	Members     []UserResponse   `json:"members"`
	Friend      *UserResponse    `json:"friend,omitempty"`
	LastMessage *MessageResponse `json:"last_message,omitempty"`
}

func newMessageResponse(message models.Message) MessageResponse {
	return MessageResponse{
		ID:        message.ID,
		ChatID:    message.ChatID,
		SenderID:  message.SenderID,
		Content:   message.Content,
		CreatedAt: message.CreatedAt,
	}
}

// newChatResponse shapes a chat for the given viewer. Direct chats derive
// their display name from the other member.
func newChatResponse(chat models.Chat, lastMessage *models.Message, viewerID uint) ChatResponse {
	response := ChatResponse{
		ID:      chat.ID,
		Name:    chat.Name,
		IsGroup: chat.IsGroup,
		Members: make([]UserResponse, 0, len(chat.Members)),
	}

	for _, member := range chat.Members {
		memberResponse := newUserResponse(member)
		response.Members = append(response.Members, memberResponse)
		if !chat.IsGroup && member.ID != viewerID {
			friend := memberResponse
			response.Friend = &friend
			response.Name = member.Username
		}
	}

	if lastMessage != nil {
		last := newMessageResponse(*lastMessage)
		response.LastMessage = &last
	}
	return response
}

// endregion

// GetChats godoc
// @Summary      List chats
// @Description  Returns every chat the user belongs to, most recently active first.
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ChatResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /chats [get]
func GetChats(c *gin.Context) {
	viewerID := currentUserID(c)

	summaries, err := store.ChatsFor(database.DB, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]ChatResponse, 0, len(summaries))
	for _, summary := range summaries {
		responses = append(responses, newChatResponse(summary.Chat, summary.LastMessage, viewerID))
	}
	c.JSON(http.StatusOK, responses)
}

// StartDirectChat godoc
// @Summary      Start a direct chat
// @Description  Returns the direct chat with the given user, creating it if it does not exist. Idempotent.
// @Tags         chats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body StartChatInput true "Chat partner"
// @Success      200  {object}  ChatResponse
// @Failure      400  {object}  ErrorResponse "Missing friendId"
// @Failure      404  {object}  ErrorResponse "User not found"
// @Router       /chats/start [post]
func StartDirectChat(c *gin.Context) {
	viewerID := currentUserID(c)

	var input StartChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "friendId required"})
		return
	}

	var friend models.User
	if err := database.DB.First(&friend, input.FriendID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	chat, _, err := store.GetOrCreateDirectChat(database.DB, viewerID, input.FriendID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newChatResponse(*chat, nil, viewerID))
}

// CreateGroupChat godoc
// @Summary      Create a group chat
// @Description  Creates a named group chat with a fixed member list including the creator.
// @Tags         chats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body GroupChatInput true "Group info"
// @Success      201  {object}  ChatResponse
// @Failure      400  {object}  ErrorResponse "Empty name or too few members"
// @Failure      404  {object}  ErrorResponse "Member not found"
// @Router       /chats/group [post]
func CreateGroupChat(c *gin.Context) {
	viewerID := currentUserID(c)

	var input GroupChatInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and member_ids required"})
		return
	}

	chat, err := store.CreateGroupChat(database.DB, viewerID, input.Name, input.MemberIDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, newChatResponse(*chat, nil, viewerID))
}

// GetChatMessages godoc
// @Summary      List chat messages
// @Description  Returns up to limit messages oldest-first. Pass before=<messageId> to page backwards.
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Param        chatId path  int true  "Chat ID"
// @Param        limit  query int false "Page size" default(20)
// @Param        before query int false "Return messages older than this message ID"
// @Success      200  {array}   MessageResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /chats/{chatId}/messages [get]
func GetChatMessages(c *gin.Context) {
	chatID, err := strconv.ParseUint(c.Param("chatId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	// Non-numeric or non-positive values fall back to the default limit.
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(store.DefaultMessageLimit)))
	if err != nil {
		limit = store.DefaultMessageLimit
	}
	before, err := strconv.ParseUint(c.DefaultQuery("before", "0"), 10, 32)
	if err != nil {
		before = 0
	}

	messages, err := store.ChatMessages(database.DB, uint(chatID), limit, uint(before))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]MessageResponse, 0, len(messages))
	for _, message := range messages {
		responses = append(responses, newMessageResponse(message))
	}
	c.JSON(http.StatusOK, responses)
}

// PostChatMessage godoc
// @Summary      Post a message
// @Description  Appends a message to the chat and broadcasts it to the chat's live room.
// @Tags         chats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        chatId path int          true "Chat ID"
// @Param        input  body MessageInput true "Message"
// @Success      201  {object}  MessageResponse
// @Failure      400  {object}  ErrorResponse "Empty content"
// @Failure      403  {object}  ErrorResponse "Sender is not a member"
// @Failure      404  {object}  ErrorResponse "Chat not found"
// @Router       /chats/{chatId}/messages [post]
func PostChatMessage(c *gin.Context) {
	viewerID := currentUserID(c)
	chatID, err := strconv.ParseUint(c.Param("chatId"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return
	}

	var input MessageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message content required"})
		return
	}

	message, err := store.PostMessage(database.DB, uint(chatID), viewerID, input.Content)
	if err != nil {
		respondError(c, err)
		return
	}

	// Live delivery is best-effort and decoupled from the write; a missed
	// broadcast is reconciled by the next messages poll.
	response := newMessageResponse(*message)
	hub.GlobalHub.EmitToRoom(message.ChatID, hub.Event{
		Type:    hub.EventNewMessage,
		Payload: response,
	})

	c.JSON(http.StatusCreated, response)
}
