package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/quadra-ocr/quadra/internal/detector"
	"github.com/quadra-ocr/quadra/internal/pipeline"
)

// WebSocket upgrader with reasonable defaults.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Allow connections from any origin in development
		// In production, you should check against allowed origins
		return true
	},
}

// WebSocketDetectRequest is a detection request sent by the client. Map is
// an image-encoded probability map (PNG or JPEG bytes, base64 over JSON).
type WebSocketDetectRequest struct {
	Map        []byte `json:"map"`
	OrigWidth  int    `json:"orig_width,omitempty"`
	OrigHeight int    `json:"orig_height,omitempty"`
}

// WebSocketDetectResponse is a server message. Status is "processing",
// "box", "completed" or "error". Box messages stream one detected box each
// as soon as the sorted result set is available.
type WebSocketDetectResponse struct {
	Type      string              `json:"type"`
	Status    string              `json:"status"`
	Box       *pipeline.BoxResult `json:"box,omitempty"`
	Index     int                 `json:"index,omitempty"`
	Total     int                 `json:"total,omitempty"`
	Error     string              `json:"error,omitempty"`
	ErrorType string              `json:"error_type,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
}

// detectWebSocketHandler handles WebSocket connections for streaming
// detection results.
func (s *Server) detectWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)

	s.handleWebSocketConnection(r, conn)
}

// handleWebSocketConnection processes messages from a WebSocket connection.
func (s *Server) handleWebSocketConnection(r *http.Request, conn *websocket.Conn) {
	// Set read deadline to prevent hanging connections
	_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	// Send ping messages to keep connection alive
	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			break
		}

		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType == websocket.TextMessage {
			s.handleWebSocketMessage(r, conn, data)
		}
	}
}

// handleWebSocketMessage runs one detection request and streams the boxes.
func (s *Server) handleWebSocketMessage(r *http.Request, conn *websocket.Conn, data []byte) {
	var req WebSocketDetectRequest
	if err := json.Unmarshal(data, &req); err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to parse request: %v", err))
		return
	}
	if len(req.Map) == 0 {
		s.sendWebSocketError(conn, "invalid_request", "No probability map provided")
		return
	}

	requestID := strconv.FormatInt(time.Now().UnixNano(), 10)

	img, _, err := image.Decode(bytes.NewReader(req.Map))
	if err != nil {
		s.sendWebSocketError(conn, "invalid_request", fmt.Sprintf("Failed to decode probability map: %v", err))
		return
	}
	probMap := detector.ProbabilityMapFromGray(img)
	defer probMap.Release()

	origW, origH := req.OrigWidth, req.OrigHeight
	if origW <= 0 {
		origW = probMap.Width
	}
	if origH <= 0 {
		origH = probMap.Height
	}

	s.sendWebSocketResponse(conn, WebSocketDetectResponse{
		Type:      "detect_response",
		Status:    "processing",
		RequestID: requestID,
	})

	start := time.Now()
	boxes, err := s.pipeline.Detect(r.Context(), probMap, origW, origH)
	if err != nil {
		detectRequestsTotal.WithLabelValues("error").Inc()
		s.sendWebSocketError(conn, "processing_error", fmt.Sprintf("Detection failed: %v", err))
		return
	}
	detectRequestsTotal.WithLabelValues("ok").Inc()
	detectDuration.Observe(time.Since(start).Seconds())
	boxesDetected.Observe(float64(len(boxes)))

	out := pipeline.NewDetectionOutput(boxes, origW, origH)
	for i := range out.Boxes {
		s.sendWebSocketResponse(conn, WebSocketDetectResponse{
			Type:      "detect_response",
			Status:    "box",
			Box:       &out.Boxes[i],
			Index:     i,
			Total:     len(out.Boxes),
			RequestID: requestID,
		})
	}

	s.sendWebSocketResponse(conn, WebSocketDetectResponse{
		Type:      "detect_response",
		Status:    "completed",
		Total:     len(out.Boxes),
		RequestID: requestID,
	})
}

// sendWebSocketResponse sends a response message to the client.
func (s *Server) sendWebSocketResponse(conn *websocket.Conn, resp WebSocketDetectResponse) {
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Error("Failed to marshal WebSocket response", "error", err)
		return
	}
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		slog.Error("Failed to write WebSocket message", "error", err)
		return
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
}

// sendWebSocketError sends an error message to the client.
func (s *Server) sendWebSocketError(conn *websocket.Conn, errorType, message string) {
	s.sendWebSocketResponse(conn, WebSocketDetectResponse{
		Type:      "detect_response",
		Status:    "error",
		Error:     message,
		ErrorType: errorType,
	})
}
