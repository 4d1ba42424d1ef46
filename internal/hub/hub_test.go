package hub

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(h *Hub) *Client {
	return NewClient(h, nil)
}

// receivedEvent drains one queued event from the client, nil if none.
func receivedEvent(t *testing.T, c *Client) *Event {
	t.Helper()
	select {
	case raw := <-c.send:
		var event Event
		require.NoError(t, json.Unmarshal(raw, &event))
		return &event
	default:
		return nil
	}
}

func TestEmitToUser(t *testing.T) {
	h := NewHub()
	client := newTestClient(h)
	h.Register(7, client)

	h.EmitToUser(7, Event{Type: EventFriendRequestSent, Payload: map[string]any{"id": 1}})

	event := receivedEvent(t, client)
	require.NotNil(t, event)
	assert.Equal(t, EventFriendRequestSent, event.Type)
}

func TestEmitToUser_OfflineIsNoop(t *testing.T) {
	h := NewHub()

	// No registered connection: the event is silently dropped.
	h.EmitToUser(42, Event{Type: EventFriendRequestSent})
	assert.False(t, h.Online(42))
}

func TestRegister_LastSocketWins(t *testing.T) {
	h := NewHub()
	first := newTestClient(h)
	second := newTestClient(h)

	h.Register(7, first)
	h.Register(7, second)

	h.EmitToUser(7, Event{Type: EventNewMessage})

	assert.Nil(t, receivedEvent(t, first))
	assert.NotNil(t, receivedEvent(t, second))
}

func TestUnregister(t *testing.T) {
	h := NewHub()
	client := newTestClient(h)
	h.Register(7, client)
	h.JoinRoom(client, 1)

	h.Unregister(client)

	assert.False(t, h.Online(7))
	h.EmitToUser(7, Event{Type: EventNewMessage})
	h.EmitToRoom(1, Event{Type: EventNewMessage})
	assert.Nil(t, receivedEvent(t, client))
}

func TestEmitToRoom(t *testing.T) {
	h := NewHub()
	alice := newTestClient(h)
	bob := newTestClient(h)
	outsider := newTestClient(h)

	h.JoinRoom(alice, 5)
	h.JoinRoom(bob, 5)
	h.JoinRoom(outsider, 6)

	h.EmitToRoom(5, Event{Type: EventNewMessage, Payload: map[string]any{"content": "hi"}})

	// Every joined connection receives the event, including the sender's own.
	aliceEvent := receivedEvent(t, alice)
	require.NotNil(t, aliceEvent)
	assert.Equal(t, EventNewMessage, aliceEvent.Type)
	assert.NotNil(t, receivedEvent(t, bob))
	assert.Nil(t, receivedEvent(t, outsider))
}

func TestLeaveRoom(t *testing.T) {
	h := NewHub()
	alice := newTestClient(h)
	bob := newTestClient(h)
	h.JoinRoom(alice, 5)
	h.JoinRoom(bob, 5)

	h.LeaveRoom(alice, 5)
	h.EmitToRoom(5, Event{Type: EventNewMessage})

	assert.Nil(t, receivedEvent(t, alice))
	assert.NotNil(t, receivedEvent(t, bob))
}

func TestSlowClientDoesNotBlock(t *testing.T) {
	h := NewHub()
	slow := newTestClient(h)
	h.Register(9, slow)

	// Overflow the send buffer; extra events are dropped, not blocking.
	for i := 0; i < sendBufferSize+10; i++ {
		h.EmitToUser(9, Event{Type: EventNewMessage})
	}
	assert.Len(t, slow.send, sendBufferSize)
}

func TestHandleFrame(t *testing.T) {
	h := NewHub()
	sender := newTestClient(h)
	receiver := newTestClient(h)

	frame := func(event, data string) inboundFrame {
		return inboundFrame{Event: event, Data: json.RawMessage(data)}
	}

	sender.handleFrame(frame(inboundRegisterUser, `{"userId": 1}`))
	assert.True(t, h.Online(1))

	receiver.handleFrame(frame(inboundJoinRoom, `{"chatId": 3}`))
	sender.handleFrame(frame(inboundSendMessage, `{"id": 10, "chat_id": 3, "sender_id": 1, "content": "hi"}`))

	event := receivedEvent(t, receiver)
	require.NotNil(t, event)
	assert.Equal(t, EventNewMessage, event.Type)

	receiver.handleFrame(frame(inboundLeaveRoom, `{"chatId": 3}`))
	sender.handleFrame(frame(inboundSendMessage, `{"chat_id": 3, "content": "again"}`))
	assert.Nil(t, receivedEvent(t, receiver))
}

func TestHandleFrame_MalformedDropped(t *testing.T) {
	h := NewHub()
	client := newTestClient(h)

	client.handleFrame(inboundFrame{Event: inboundRegisterUser, Data: json.RawMessage(`{"userId": 0}`)})
	client.handleFrame(inboundFrame{Event: inboundJoinRoom, Data: json.RawMessage(`"not an object"`)})
	client.handleFrame(inboundFrame{Event: "unknown", Data: json.RawMessage(`{}`)})

	assert.False(t, h.Online(0))
	h.EmitToRoom(0, Event{Type: EventNewMessage})
	assert.Nil(t, receivedEvent(t, client))
}
