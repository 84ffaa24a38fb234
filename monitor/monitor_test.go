package monitor

import (
	"fmt"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heckler1/mxmaster-gesture-control/pipeline"
)

func TestBroadcastReachesClient(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	require.NoError(t, s.Start())
	defer s.Close()

	url := fmt.Sprintf("ws://%s/events", s.Addr())
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	require.Eventually(t, func() bool { return s.clientCount() == 1 }, time.Second, 10*time.Millisecond)

	s.Broadcast(pipeline.Observation{
		Category:   "button-dragged",
		Button:     0x117,
		DX:         -10,
		Verdict:    "left",
		Action:     "control+left-arrow",
		Suppressed: true,
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)

	var got pipeline.Observation
	require.NoError(t, sonic.Unmarshal(msg, &got))
	assert.Equal(t, "button-dragged", got.Category)
	assert.Equal(t, uint16(0x117), got.Button)
	assert.Equal(t, int64(-10), got.DX)
	assert.Equal(t, "left", got.Verdict)
	assert.Equal(t, "control+left-arrow", got.Action)
	assert.True(t, got.Suppressed)
}

func TestBroadcastWithoutClients(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	require.NoError(t, s.Start())
	defer s.Close()

	// Must not block or panic with nobody connected.
	s.Broadcast(pipeline.Observation{Category: "button-down", Button: 0x117})
}

func TestClientDisconnectIsDropped(t *testing.T) {
	s := NewServer("127.0.0.1:0")
	require.NoError(t, s.Start())
	defer s.Close()

	url := fmt.Sprintf("ws://%s/events", s.Addr())
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}

	require.Eventually(t, func() bool { return s.clientCount() == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return s.clientCount() == 0 }, time.Second, 10*time.Millisecond)

	s.Broadcast(pipeline.Observation{Category: "button-up", Button: 0x117})
}
