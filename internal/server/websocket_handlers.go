package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cropvision/yodet/internal/pipeline"
)

const (
	wsReadDeadline  = 60 * time.Second
	wsPingInterval  = 30 * time.Second
	wsWriteDeadline = 10 * time.Second
)

// wsProcessRequest is one file sent over the WebSocket for processing.
type wsProcessRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"` // base64 in JSON
}

// wsProcessResponse is the per-file reply.
type wsProcessResponse struct {
	Filename string               `json:"filename"`
	Status   string               `json:"status"` // "completed", "skipped", "error"
	Result   *pipeline.FileResult `json:"result,omitempty"`
	Error    string               `json:"error,omitempty"`
}

// processWebSocketHandler streams per-file detection results: the
// client sends one JSON message per file and receives an individual
// outcome for each, so one bad file does not abort the session.
func (s *Server) processWebSocketHandler(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.originAllowed,
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade connection to WebSocket", "error", err)
		return
	}
	defer func() {
		_ = conn.Close()
	}()

	websocketConnections.Inc()
	defer websocketConnections.Dec()

	slog.Info("WebSocket connection established", "remote_addr", r.RemoteAddr)
	s.handleWebSocketConnection(conn)
}

func (s *Server) handleWebSocketConnection(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		return nil
	})

	done := make(chan struct{})
	defer close(done)

	// Keep the connection alive between uploads.
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(wsWriteDeadline)); err != nil {
					return
				}
			}
		}
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				slog.Error("WebSocket error", "error", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadDeadline))
		websocketMessagesTotal.WithLabelValues("received").Inc()

		if messageType != websocket.TextMessage {
			continue
		}

		response := s.processWebSocketMessage(data)
		if err := s.writeWebSocketResponse(conn, response); err != nil {
			slog.Error("failed to write WebSocket response", "error", err)
			return
		}
	}
}

func (s *Server) processWebSocketMessage(data []byte) wsProcessResponse {
	var req wsProcessRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return wsProcessResponse{Status: "error", Error: "invalid request: " + err.Error()}
	}

	outcomes := s.pipeline.ProcessEach([]pipeline.Upload{{
		Filename:    req.Filename,
		ContentType: req.ContentType,
		Data:        req.Data,
	}})
	outcome := outcomes[0]

	response := wsProcessResponse{Filename: req.Filename}
	switch {
	case outcome.Skipped:
		response.Status = "skipped"
		imagesProcessedTotal.WithLabelValues("skipped").Inc()
	case outcome.Err != nil:
		response.Status = "error"
		response.Error = outcome.Err.Error()
		imagesProcessedTotal.WithLabelValues("failed").Inc()
	default:
		response.Status = "completed"
		response.Result = outcome.Result
		imagesProcessedTotal.WithLabelValues("processed").Inc()
		detectionsPerImage.Observe(float64(outcome.Result.DetectionCount))
	}
	return response
}

func (s *Server) writeWebSocketResponse(conn *websocket.Conn, response wsProcessResponse) error {
	payload, err := json.Marshal(response)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteDeadline))
	if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		return err
	}
	websocketMessagesTotal.WithLabelValues("sent").Inc()
	return nil
}
