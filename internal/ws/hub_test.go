package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"funnel/internal/infrastructure/notify"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return h, cancel
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestHub_RoutesOnlyToTargetUser(t *testing.T) {
	h, _ := startHub(t)

	alice, bob := uuid.New(), uuid.New()
	ca := &Client{hub: h, userID: alice, send: make(chan []byte, 4)}
	cb := &Client{hub: h, userID: bob, send: make(chan []byte, 4)}
	h.Register(ca)
	h.Register(cb)
	waitFor(t, func() bool { return h.ClientCount(alice) == 1 && h.ClientCount(bob) == 1 })

	require.True(t, h.Send(alice, []byte("deal")))

	select {
	case msg := <-ca.send:
		assert.Equal(t, "deal", string(msg))
	case <-time.After(time.Second):
		t.Fatal("alice got nothing")
	}
	select {
	case msg := <-cb.send:
		t.Fatalf("bob got %q", msg)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHub_UnregisterClosesSend(t *testing.T) {
	h, _ := startHub(t)

	c := &Client{hub: h, userID: uuid.New(), send: make(chan []byte, 1)}
	h.Register(c)
	waitFor(t, func() bool { return h.ClientCount(c.userID) == 1 })

	h.Unregister(c)
	waitFor(t, func() bool { return h.ClientCount(c.userID) == 0 })
	_, ok := <-c.send
	assert.False(t, ok)
}

func TestHub_StopsBlockingAfterRunReturns(t *testing.T) {
	h := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	h.Run(ctx)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			h.Unregister(&Client{hub: h, userID: uuid.New(), send: make(chan []byte)})
		}
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Unregister blocked after Run returned")
	}

	late := &Client{hub: h, userID: uuid.New(), send: make(chan []byte, 1)}
	h.Register(late)
	_, ok := <-late.send
	assert.False(t, ok)
}

func TestHub_SlowClientIsDropped(t *testing.T) {
	h, _ := startHub(t)

	c := &Client{hub: h, userID: uuid.New(), send: make(chan []byte)}
	h.Register(c)
	waitFor(t, func() bool { return h.ClientCount(c.userID) == 1 })

	h.Send(c.userID, []byte("x"))
	waitFor(t, func() bool { return h.ClientCount(c.userID) == 0 })
}

func TestHandler_DeliversPitchMatchedOverSocket(t *testing.T) {
	h, cancel := startHub(t)
	vcUser := uuid.New()

	srv := httptest.NewServer(NewHandler(h, nil, nil).serve(vcUser))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	waitFor(t, func() bool { return h.ClientCount(vcUser) == 1 })

	evt := notify.PitchMatched{Type: notify.EventPitchMatched, VCUserID: vcUser, FirmName: "Alpha", StartupName: "Acme"}
	require.NoError(t, h.NotifyPitchMatched(context.Background(), evt))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got notify.PitchMatched
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, "Acme", got.StartupName)
	assert.Equal(t, vcUser, got.VCUserID)

	cancel()
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
