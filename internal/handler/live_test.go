package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"chatwave/backend/internal/hub"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialWS(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func writeFrame(t *testing.T, conn *websocket.Conn, event string, data interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{"event": event, "data": data}))
}

func readEvent(t *testing.T, conn *websocket.Conn) hub.Event {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, raw, err := conn.ReadMessage()
	require.NoError(t, err)
	var event hub.Event
	require.NoError(t, json.Unmarshal(raw, &event))
	return event
}

// waitOnline blocks until the hub has processed the connection's frames up to
// and including registerUser. Frames are handled in order, so anything sent
// before registerUser is applied once presence is visible.
func waitOnline(t *testing.T, userID uint) {
	t.Helper()
	require.Eventually(t, func() bool {
		return hub.GlobalHub.Online(userID)
	}, 2*time.Second, 10*time.Millisecond)
}

// TestLiveMessageDelivery verifies that a REST-posted message reaches a
// connected client that joined the chat's room.
func TestLiveMessageDelivery(t *testing.T) {
	router := setupRouter(t)
	router.GET("/ws", hub.ServeWS(hub.GlobalHub))
	server := httptest.NewServer(router)
	defer server.Close()

	alice, aliceToken := registerAndLogin(t, router, "alice")
	bob, _ := registerAndLogin(t, router, "bob")

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/chats/start", aliceToken,
		StartChatInput{FriendID: bob.ID})
	require.Equal(t, http.StatusOK, recorder.Code)
	chat := decode[ChatResponse](t, recorder)

	conn := dialWS(t, server)
	writeFrame(t, conn, "joinRoom", map[string]interface{}{"chatId": chat.ID})
	writeFrame(t, conn, "registerUser", map[string]interface{}{"userId": bob.ID})
	waitOnline(t, bob.ID)

	recorder = doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/api/v1/chats/%d/messages", chat.ID), aliceToken, MessageInput{Content: "hi"})
	require.Equal(t, http.StatusCreated, recorder.Code)

	event := readEvent(t, conn)
	assert.Equal(t, hub.EventNewMessage, event.Type)

	payload, ok := event.Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hi", payload["content"])
	assert.Equal(t, float64(alice.ID), payload["sender_id"])
}

// TestLiveFriendRequestDelivery verifies that sending and responding to a
// friend request pushes events to the registered parties.
func TestLiveFriendRequestDelivery(t *testing.T) {
	router := setupRouter(t)
	router.GET("/ws", hub.ServeWS(hub.GlobalHub))
	server := httptest.NewServer(router)
	defer server.Close()

	alice, aliceToken := registerAndLogin(t, router, "alice")
	bob, bobToken := registerAndLogin(t, router, "bob")

	bobConn := dialWS(t, server)
	writeFrame(t, bobConn, "registerUser", map[string]interface{}{"userId": bob.ID})
	waitOnline(t, bob.ID)

	recorder := doRequest(t, router, http.MethodPost, "/api/v1/friends/request", aliceToken,
		FriendRequestInput{ReceiverID: bob.ID})
	require.Equal(t, http.StatusCreated, recorder.Code)
	request := decode[FriendRequestResponse](t, recorder)

	event := readEvent(t, bobConn)
	assert.Equal(t, hub.EventFriendRequestSent, event.Type)
	payload, ok := event.Payload.(map[string]interface{})
	require.True(t, ok)
	sender, ok := payload["sender"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(alice.ID), sender["id"])

	// Bob accepts; both his own connection and Alice's would be notified.
	// Alice is offline here, which is a silent no-op.
	recorder = doRequest(t, router, http.MethodPost,
		fmt.Sprintf("/api/v1/friends/requests/%d/accept", request.ID), bobToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	event = readEvent(t, bobConn)
	assert.Equal(t, hub.EventFriendRequestAccepted, event.Type)
}
