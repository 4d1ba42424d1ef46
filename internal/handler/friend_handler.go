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

// FriendRequestInput defines the body for sending a friend request.
type FriendRequestInput struct {
	ReceiverID uint `json:"receiver_id" binding:"required" example:"2"`
}

// FriendRequestResponse is a request hydrated with both profiles.
type FriendRequestResponse struct {
	ID          uint         `json:"id"`
	Status      string       `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
	RespondedAt *time.Time   `json:"responded_at,omitempty"`
	Sender      UserResponse `json:"sender"`
	Receiver    UserResponse `json:"receiver"`
}

// FriendRequestsResponse partitions a user's requests by direction.
type FriendRequestsResponse struct {
	Incoming []FriendRequestResponse `json:"incoming"`
	Outgoing []FriendRequestResponse `json:"outgoing"`
}

// RelationStatusResponse is the derived relationship with another user.
type RelationStatusResponse struct {
	Status    string `json:"status"`
	RequestID *uint  `json:"requestId"`
}

func newFriendRequestResponse(request models.FriendRequest) FriendRequestResponse {
	return FriendRequestResponse{
		ID:          request.ID,
		Status:      string(request.Status),
		CreatedAt:   request.CreatedAt,
		RespondedAt: request.RespondedAt,
		Sender:      newUserResponse(request.Sender),
		Receiver:    newUserResponse(request.Receiver),
	}
}

func newFriendRequestsResponse(incoming, outgoing []models.FriendRequest) FriendRequestsResponse {
	response := FriendRequestsResponse{
		Incoming: make([]FriendRequestResponse, 0, len(incoming)),
		Outgoing: make([]FriendRequestResponse, 0, len(outgoing)),
	}
	for _, r := range incoming {
		response.Incoming = append(response.Incoming, newFriendRequestResponse(r))
	}
	for _, r := range outgoing {
		response.Outgoing = append(response.Outgoing, newFriendRequestResponse(r))
	}
	return response
}

// endregion

// GetFriends godoc
// @Summary      List friends
// @Description  Returns the profiles of all friends of the authenticated user.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   UserResponse
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /friends [get]
func GetFriends(c *gin.Context) {
	viewerID := currentUserID(c)

	friends, err := store.FriendsOf(database.DB, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]UserResponse, 0, len(friends))
	for _, friend := range friends {
		responses = append(responses, newUserResponse(friend))
	}
	c.JSON(http.StatusOK, responses)
}

// SendFriendRequest godoc
// @Summary      Send a friend request
// @Description  Creates a pending friend request and notifies the receiver's live connection.
// @Tags         friends
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        input body FriendRequestInput true "Receiver"
// @Success      201  {object}  FriendRequestResponse
// @Failure      400  {object}  ErrorResponse "Missing receiver, self-request"
// @Failure      404  {object}  ErrorResponse "Receiver not found"
// @Failure      409  {object}  ErrorResponse "Duplicate pending request or already friends"
// @Router       /friends/request [post]
func SendFriendRequest(c *gin.Context) {
	viewerID := currentUserID(c)

	var input FriendRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "receiver_id required"})
		return
	}

	request, err := store.SendFriendRequest(database.DB, viewerID, input.ReceiverID)
	if err != nil {
		respondError(c, err)
		return
	}

	response := newFriendRequestResponse(*request)
	hub.GlobalHub.EmitToUser(request.ReceiverID, hub.Event{
		Type:    hub.EventFriendRequestSent,
		Payload: response,
	})

	c.JSON(http.StatusCreated, response)
}

// GetFriendRequests godoc
// @Summary      List friend requests
// @Description  Returns all requests involving the user, split into incoming and outgoing.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  FriendRequestsResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/requests [get]
func GetFriendRequests(c *gin.Context) {
	viewerID := currentUserID(c)

	incoming, outgoing, err := store.FriendRequestsFor(database.DB, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newFriendRequestsResponse(incoming, outgoing))
}

// GetPendingFriendRequests godoc
// @Summary      List pending friend requests
// @Description  Same as /friends/requests but filtered to pending status.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  FriendRequestsResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/requests/pending [get]
func GetPendingFriendRequests(c *gin.Context) {
	viewerID := currentUserID(c)

	incoming, outgoing, err := store.FriendRequestsFor(database.DB, viewerID)
	if err != nil {
		respondError(c, err)
		return
	}

	incoming = filterPending(incoming)
	outgoing = filterPending(outgoing)
	c.JSON(http.StatusOK, newFriendRequestsResponse(incoming, outgoing))
}

func filterPending(requests []models.FriendRequest) []models.FriendRequest {
	pending := make([]models.FriendRequest, 0, len(requests))
	for _, r := range requests {
		if r.Status == models.RequestPending {
			pending = append(pending, r)
		}
	}
	return pending
}

// AcceptFriendRequest godoc
// @Summary      Accept a friend request
// @Description  Accepts a pending request, creating the friendship and the pair's direct chat.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  FriendRequestResponse
// @Failure      403  {object}  ErrorResponse "Caller is not the receiver"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      409  {object}  ErrorResponse "Request already processed"
// @Router       /friends/requests/{id}/accept [post]
func AcceptFriendRequest(c *gin.Context) {
	respondToFriendRequest(c, true)
}

// RejectFriendRequest godoc
// @Summary      Reject a friend request
// @Description  Rejects a pending request. The pair may send a new request afterwards.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Request ID"
// @Success      200  {object}  FriendRequestResponse
// @Failure      403  {object}  ErrorResponse "Caller is not the receiver"
// @Failure      404  {object}  ErrorResponse "Request not found"
// @Failure      409  {object}  ErrorResponse "Request already processed"
// @Router       /friends/requests/{id}/reject [post]
func RejectFriendRequest(c *gin.Context) {
	respondToFriendRequest(c, false)
}

func respondToFriendRequest(c *gin.Context, accept bool) {
	viewerID := currentUserID(c)
	requestID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request ID"})
		return
	}

	request, err := store.RespondToFriendRequest(database.DB, uint(requestID), viewerID, accept)
	if err != nil {
		respondError(c, err)
		return
	}

	response := newFriendRequestResponse(*request)
	eventType := hub.EventFriendRequestRejected
	if accept {
		eventType = hub.EventFriendRequestAccepted
	}
	event := hub.Event{Type: eventType, Payload: response}
	hub.GlobalHub.EmitToUser(request.SenderID, event)
	hub.GlobalHub.EmitToUser(request.ReceiverID, event)

	c.JSON(http.StatusOK, response)
}

// GetFriendStatus godoc
// @Summary      Relationship status with another user
// @Description  Derives one of none/sent/pending/friends from the friendship ledger and request history.
// @Tags         friends
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "Other User ID"
// @Success      200  {object}  RelationStatusResponse
// @Failure      400  {object}  ErrorResponse
// @Failure      401  {object}  ErrorResponse
// @Router       /friends/status/{id} [get]
func GetFriendStatus(c *gin.Context) {
	viewerID := currentUserID(c)
	otherID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	status, requestID, err := store.RelationStatus(database.DB, viewerID, uint(otherID))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, RelationStatusResponse{Status: string(status), RequestID: requestID})
}
