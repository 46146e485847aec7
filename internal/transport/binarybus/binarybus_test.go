package binarybus_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dqm4hep/dqm4hep-go/internal/buffer"
	"github.com/dqm4hep/dqm4hep-go/internal/transport/binarybus"
)

func TestPublishSubscribeLocalFanout(t *testing.T) {
	bus := mustListenBus(t)
	defer bus.Close()

	svc, err := bus.NewService("occupancy")
	require.NoError(t, err)

	received := make(chan string, 1)
	sub, err := bus.Subscribe("occupancy", func(payload buffer.Buffer) {
		received <- payload.String()
	})
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.Publish(context.Background(), buffer.FromString("hello")))

	select {
	case got := <-received:
		assert.Equal(t, "hello", got)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for publication")
	}
}

func TestSubscriptionCloseStopsDelivery(t *testing.T) {
	bus := mustListenBus(t)
	defer bus.Close()

	svc, err := bus.NewService("occupancy")
	require.NoError(t, err)
	var count int
	sub, err := bus.Subscribe("occupancy", func(buffer.Buffer) { count++ })
	require.NoError(t, err)
	require.NoError(t, sub.Close())

	require.NoError(t, svc.Publish(context.Background(), buffer.FromString("x")))
	assert.Equal(t, 0, count)
}

func TestRequestAgainstLocalHandler(t *testing.T) {
	bus := mustListenBus(t)
	defer bus.Close()

	bus.HandleRequest("echo", func(ctx context.Context, req buffer.Buffer) (buffer.Buffer, error) {
		return buffer.FromString("echo:" + req.String()), nil
	})

	resp, err := bus.Request(context.Background(), "echo", buffer.FromString("ping"))
	require.NoError(t, err)
	assert.Equal(t, "echo:ping", resp.String())
}

func TestRequestUnknownNameIsNotFound(t *testing.T) {
	bus := mustListenBus(t)
	defer bus.Close()
	_, err := bus.Request(context.Background(), "no-such-handler", buffer.FromString("x"))
	assert.Error(t, err)
}

func TestBlockingCommandRunsSynchronously(t *testing.T) {
	bus := mustListenBus(t)
	defer bus.Close()

	var ran bool
	bus.HandleCommand("reset", func(ctx context.Context, cmd buffer.Buffer) error {
		ran = true
		return nil
	})
	require.NoError(t, bus.Command(context.Background(), "reset", buffer.NullBuffer(), true))
	assert.True(t, ran)
}

func TestNonBlockingCommandReturnsImmediately(t *testing.T) {
	bus := mustListenBus(t)
	defer bus.Close()

	done := make(chan struct{})
	bus.HandleCommand("slow", func(ctx context.Context, cmd buffer.Buffer) error {
		close(done)
		return nil
	})
	require.NoError(t, bus.Command(context.Background(), "slow", buffer.NullBuffer(), false))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("non-blocking command handler never ran")
	}
}

func TestCrossProcessPublishReachesDialedSubscriber(t *testing.T) {
	server := mustListenBus(t)
	defer server.Close()

	client := mustDialBus(t, server.Addr().String())
	defer client.Close()

	svc, err := server.NewService("occupancy")
	require.NoError(t, err)

	received := make(chan string, 1)
	sub, err := client.Subscribe("occupancy", func(payload buffer.Buffer) {
		received <- payload.String()
	})
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.Publish(context.Background(), buffer.FromString("hello")))

	select {
	case got := <-received:
		assert.Equal(t, "hello", got)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for cross-process publication")
	}
}

func TestCrossProcessSubscriptionPollsInbox(t *testing.T) {
	server := mustListenBus(t)
	defer server.Close()

	client := mustDialBus(t, server.Addr().String())
	defer client.Close()

	svc, err := server.NewService("occupancy")
	require.NoError(t, err)

	sub, err := client.Subscribe("occupancy", nil)
	require.NoError(t, err)
	defer sub.Close()

	require.NoError(t, svc.Publish(context.Background(), buffer.FromString("polled")))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	payload, err := sub.Take(ctx)
	require.NoError(t, err)
	assert.Equal(t, "polled", payload.String())
}

func mustListenBus(t *testing.T) *binarybus.Bus {
	t.Helper()
	bus, err := binarybus.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	return bus
}

func mustDialBus(t *testing.T, addr string) *binarybus.Bus {
	t.Helper()
	bus, err := binarybus.Dial("tcp", addr)
	require.NoError(t, err)
	return bus
}
