package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go hub.Run(ctx)
	return hub
}

func TestBroadcastToRoomReachesOnlyRoomMembers(t *testing.T) {
	hub := newTestHub(t)
	room := OccasionRoom("occ-1")

	inRoom := NewClient(hub, nil, room, "u1")
	otherRoom := NewClient(hub, nil, OccasionRoom("occ-2"), "u2")
	hub.Register(inRoom)
	hub.Register(otherRoom)
	require.Eventually(t, func() bool { return hub.ClientCount(room) == 1 }, time.Second, 5*time.Millisecond)

	hub.PublishOccasionEvent("occ-1", EventItemAdded, map[string]string{"id": "item-1"})

	select {
	case msg := <-inRoom.send:
		var event Event
		require.NoError(t, json.Unmarshal(msg, &event))
		require.Equal(t, EventItemAdded, event.Type)
		require.Equal(t, "occasion_occ-1", event.RoomID)
	case <-time.After(time.Second):
		t.Fatal("expected event in room")
	}

	require.Empty(t, otherRoom.send)
}

func TestBroadcastSkipsFullClients(t *testing.T) {
	hub := newTestHub(t)
	room := OccasionRoom("occ")

	slow := NewClient(hub, nil, room, "slow")
	hub.Register(slow)
	require.Eventually(t, func() bool { return hub.ClientCount(room) == 1 }, time.Second, 5*time.Millisecond)

	for i := 0; i < sendBufferSize+10; i++ {
		hub.BroadcastToRoom(room, Event{Type: EventItemUpdated})
	}
	require.Len(t, slow.send, sendBufferSize)
}

func TestUnregisterClosesSendAndDropsEmptyRoom(t *testing.T) {
	hub := newTestHub(t)
	room := OccasionRoom("occ")

	client := NewClient(hub, nil, room, "u1")
	hub.Register(client)
	require.Eventually(t, func() bool { return hub.ClientCount(room) == 1 }, time.Second, 5*time.Millisecond)

	hub.Unregister(client)
	require.Eventually(t, func() bool { return hub.ClientCount(room) == 0 }, time.Second, 5*time.Millisecond)

	_, ok := <-client.send
	require.False(t, ok)
}

func TestStoppedHubDoesNotBlock(t *testing.T) {
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	room := OccasionRoom("occ")
	registered := NewClient(hub, nil, room, "u1")
	hub.Register(registered)
	require.Eventually(t, func() bool { return hub.ClientCount(room) == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-stopped

	_, ok := <-registered.send
	require.False(t, ok)

	late := NewClient(hub, nil, room, "u2")
	finished := make(chan struct{})
	go func() {
		hub.Unregister(registered)
		hub.Register(late)
		hub.Unregister(late)
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("hub calls blocked after Run returned")
	}
	_, ok = <-late.send
	require.False(t, ok)
	require.Zero(t, hub.ClientCount(room))
}
