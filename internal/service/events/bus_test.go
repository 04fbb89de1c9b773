package events

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBusDeliversToSessionSubscribers(t *testing.T) {
	bus := NewInMemory(8, watermill.NopLogger{})
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mine, err := bus.Subscribe(ctx, "s-1")
	require.NoError(t, err)
	other, err := bus.Subscribe(ctx, "s-2")
	require.NoError(t, err)

	ev, err := New(TypingChanged, "s-1", TypingData{Typing: true})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, ev))

	select {
	case got := <-mine:
		assert.Equal(t, TypingChanged, got.Type)
		assert.Equal(t, "s-1", got.SessionID)
		assert.JSONEq(t, `{"typing":true}`, string(got.Data))
	case <-time.After(2 * time.Second):
		t.Fatal("event not delivered")
	}

	select {
	case got := <-other:
		t.Fatalf("unexpected event for other session: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestInMemoryBusKeepsPublishOrder(t *testing.T) {
	bus := NewInMemory(8, watermill.NopLogger{})
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := bus.Subscribe(ctx, "s-1")
	require.NoError(t, err)

	const total = 200
	published := make(chan error, 1)
	go func() {
		for i := 0; i < total; i++ {
			ev, err := New(MessageAppended, "s-1", map[string]int{"seq": i})
			if err == nil {
				err = bus.Publish(ctx, ev)
			}
			if err != nil {
				published <- err
				return
			}
		}
		published <- nil
	}()

	for want := 0; want < total; want++ {
		select {
		case got := <-ch:
			assert.JSONEq(t, fmt.Sprintf(`{"seq":%d}`, want), string(got.Data))
		case <-time.After(2 * time.Second):
			t.Fatalf("event %d not delivered", want)
		}
	}
	require.NoError(t, <-published)
}

func TestSubscribeClosesWithContext(t *testing.T) {
	bus := NewInMemory(8, watermill.NopLogger{})
	defer bus.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := bus.Subscribe(ctx, "s-1")
	require.NoError(t, err)

	cancel()
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-ch:
			return !ok
		default:
			return false
		}
	}, 2*time.Second, 10*time.Millisecond)
}

func TestNewEventWithoutData(t *testing.T) {
	ev, err := New(SessionClosed, "s-1", nil)
	require.NoError(t, err)
	assert.Nil(t, ev.Data)
	assert.Equal(t, "session.s-1", Topic(ev.SessionID))
}
