package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// writeWait bounds a single frame write. A recipient that cannot drain a
// frame within this window fails the send and is evicted by the broadcast
// pass instead of stalling it.
const writeWait = 10 * time.Second

// Conn is one live transport endpoint. A Conn belongs to at most one room of
// one channel kind at a time; it is created on join and discarded on
// disconnect or on the first failed send.
type Conn interface {
	// ID uniquely identifies this connection for membership bookkeeping.
	ID() string

	// Send marshals v to JSON and writes it as a single text frame.
	// Implementations must be safe for concurrent callers.
	Send(v interface{}) error
}

// WSConn adapts a gorilla websocket connection to the Conn interface.
// gorilla permits at most one concurrent writer, so writes are serialized
// with a mutex; broadcast goroutines and the receive loop's error replies
// may otherwise interleave on the same socket.
type WSConn struct {
	id      string
	ws      *websocket.Conn
	writeMu sync.Mutex
}

// NewWSConn wraps an upgraded websocket connection.
func NewWSConn(ws *websocket.Conn) *WSConn {
	return &WSConn{id: uuid.NewString(), ws: ws}
}

// ID returns the connection identifier assigned at upgrade time.
func (c *WSConn) ID() string {
	return c.id
}

// Send writes v as a JSON text frame, bounded by writeWait.
func (c *WSConn) Send(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, data)
}

// Close closes the underlying websocket.
func (c *WSConn) Close() error {
	return c.ws.Close()
}
