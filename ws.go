/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = (wsPongWait * 9) / 10
	wsBufferSize = 1024
)

func newUpgrader(cfg *Config) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  wsBufferSize,
		WriteBufferSize: wsBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			if _, ok := allowedOrigin(cfg, origin); ok {
				return true
			}
			// Same-origin pages are always welcome.
			return origin == "http://"+r.Host || origin == "https://"+r.Host
		},
	}
}

// wsClient answers each name pair it reads with a calculation. Replies are
// produced by the read loop and written by the write loop.
type wsClient struct {
	conn *websocket.Conn
	send chan any
	done chan struct{}
}

func serveWS(cfg *Config, errs chan<- error) httprouter.Handle {
	upgrader := newUpgrader(cfg)

	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "WS: Upgrade failed for %s: %v", realIP(r), err)

			return
		}

		logf(cfg, "WS: Connected %s", realIP(r))

		c := &wsClient{
			conn: conn,
			send: make(chan any, 8),
			done: make(chan struct{}),
		}

		go c.writePump(errs)
		c.readPump(cfg)

		logf(cfg, "WS: Disconnected %s", realIP(r))
	}
}

func (c *wsClient) readPump(cfg *Config) {
	defer func() {
		close(c.send)
	}()

	c.conn.SetReadLimit(maxBodySize)
	_ = c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logf(cfg, "WS: Read failed: %v", err)
			}

			return
		}

		var reply any

		var req nameRequest
		if err := json.Unmarshal(data, &req); err != nil {
			reply = errorBody{Error: "Invalid message, expected a JSON object."}
		} else if name1, name2, err := req.names(); err != nil {
			reply = invalidInput(err)
		} else {
			reply = calculate(name1, name2, req.trace())
		}

		select {
		case c.send <- reply:
		case <-c.done:
			return
		}
	}
}

func (c *wsClient) writePump(errs chan<- error) {
	ticker := time.NewTicker(wsPingPeriod)
	defer func() {
		ticker.Stop()
		close(c.done)
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))

				return
			}

			if err := c.conn.WriteJSON(msg); err != nil {
				errs <- fmt.Errorf("websocket write: %w", err)

				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
