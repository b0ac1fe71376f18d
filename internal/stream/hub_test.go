package stream

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-replay-go/sim"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Clients() == n }, 2*time.Second, 10*time.Millisecond)
}

func TestHubBroadcastsTickAndSummary(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	conn := dial(t, srv)
	waitClients(t, h, 1)

	require.NoError(t, h.Record(sim.TickReport{RunID: "r1", Index: 0, Timestamp: "t1"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "tick", msg.Type)
	assert.Equal(t, "r1", msg.RunID)

	require.NoError(t, h.Finish(sim.Summary{RunID: "r1", Ticks: 1}))
	msg = readMessage(t, conn)
	assert.Equal(t, "summary", msg.Type)
}

func TestLateClientReceivesLastMessage(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()
	defer h.Close()

	require.NoError(t, h.Record(sim.TickReport{RunID: "r2", Timestamp: "t9"}))
	conn := dial(t, srv)
	msg := readMessage(t, conn)
	assert.Equal(t, "tick", msg.Type)
	assert.Equal(t, "r2", msg.RunID)
}

func TestRecordWithoutClients(t *testing.T) {
	h := NewHub(nil)
	assert.NoError(t, h.Record(sim.TickReport{RunID: "r3"}))
	assert.Zero(t, h.Clients())
}

func TestCloseDisconnectsClients(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(h)
	defer srv.Close()

	conn := dial(t, srv)
	waitClients(t, h, 1)
	h.Close()
	assert.Zero(t, h.Clients())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
