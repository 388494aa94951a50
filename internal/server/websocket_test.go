package server

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTestWebSocket(t *testing.T, s *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws/detect"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readResponse(t *testing.T, conn *websocket.Conn) WebSocketDetectResponse {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var resp WebSocketDetectResponse
	require.NoError(t, conn.ReadJSON(&resp))
	return resp
}

func TestDetectWebSocket_StreamsBoxes(t *testing.T) {
	conn := dialTestWebSocket(t, newTestServer(t))

	req := WebSocketDetectRequest{
		Map:        encodeMapPNG(t, 64, 64),
		OrigWidth:  64,
		OrigHeight: 64,
	}
	data, err := json.Marshal(req)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))

	resp := readResponse(t, conn)
	assert.Equal(t, "processing", resp.Status)

	var boxes int
	for {
		resp = readResponse(t, conn)
		if resp.Status == "completed" {
			break
		}
		require.Equal(t, "box", resp.Status)
		require.NotNil(t, resp.Box)
		boxes++
	}
	assert.Equal(t, 1, boxes)
	assert.Equal(t, 1, resp.Total)
}

func TestDetectWebSocket_InvalidRequest(t *testing.T) {
	conn := dialTestWebSocket(t, newTestServer(t))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))

	resp := readResponse(t, conn)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "invalid_request", resp.ErrorType)
}

func TestDetectWebSocket_EmptyMap(t *testing.T) {
	conn := dialTestWebSocket(t, newTestServer(t))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"map":""}`)))

	resp := readResponse(t, conn)
	assert.Equal(t, "error", resp.Status)
}
