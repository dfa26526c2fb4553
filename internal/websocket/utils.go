package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/gorilla/websocket"
)

const (
	WriteWait  = 10 * time.Second
	PongWait   = 5 * time.Minute
	PingPeriod = 30 * time.Second
)

// ErrMalformed wraps frames that are not a valid RequestPayload. The
// connection stays usable.
var ErrMalformed = errors.New("malformed message")

// WriteTyped sends a strongly-typed response payload over the WebSocket.
// Only one goroutine may write to a connection.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(WriteWait))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *websocket.Conn, code, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Code:  code,
		Error: errMsg,
	})
}

// WritePing sends a ping control frame.
func WritePing(conn *websocket.Conn) error {
	return conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(WriteWait))
}

// PrepareRead sets the initial read deadline and extends it on every pong.
func PrepareRead(conn *websocket.Conn) {
	conn.SetReadDeadline(time.Now().Add(PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(PongWait))
	})
}

// ReadRequest reads the next frame and decodes it. Decode failures are
// reported as ErrMalformed; any other error means the connection is gone.
func ReadRequest(conn *websocket.Conn) (*RequestPayload, error) {
	conn.SetReadDeadline(time.Now().Add(PongWait))
	_, data, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	return DecodeRequest(data)
}

// DecodeRequest parses one client frame.
func DecodeRequest(data []byte) (*RequestPayload, error) {
	var req RequestPayload
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	if req.Action == "" {
		return nil, ErrMalformed
	}
	return &req, nil
}
