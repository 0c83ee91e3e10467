package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	jsoniter "github.com/json-iterator/go"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	defaultPingInterval = 30 * time.Second
)

// handleNotificationStream pushes every notification change to the client until
// either side closes the connection or the subscription ends.
func (s *Server) handleNotificationStream(w http.ResponseWriter, r *http.Request) {
	// Subscribed before the handshake completes, so no change after it is missed.
	changes, unsubscribe := s.desk.Subscribe()
	defer unsubscribe()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.originPatterns,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Warn(logMsgWebSocketAccept, logAttrError, err.Error())
		}
		return
	}
	defer conn.CloseNow()

	// The client only ever sends control frames.
	ctx := conn.CloseRead(r.Context())

	ticker := time.NewTicker(s.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logStreamClosed(ctx.Err())
			return

		case change, open := <-changes:
			if !open {
				conn.Close(websocket.StatusGoingAway, "session closed")
				return
			}

			message, err := jsoniter.ConfigCompatibleWithStandardLibrary.Marshal(toChangeResponse(change))
			if err != nil {
				s.logWriteFailure(err)
				continue
			}

			if err := s.write(ctx, conn, message); err != nil {
				s.logWriteFailure(err)
				return
			}

		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := conn.Ping(pingCtx)
			cancel()

			if err != nil {
				s.logStreamClosed(err)
				return
			}
		}
	}
}

func (s *Server) write(ctx context.Context, conn *websocket.Conn, message []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()

	return conn.Write(writeCtx, websocket.MessageText, message)
}

func (s *Server) logStreamClosed(err error) {
	if s.logger == nil {
		return
	}

	if status := websocket.CloseStatus(err); status != -1 || errors.Is(err, context.Canceled) {
		s.logger.Debug(logMsgWebSocketClosed)
		return
	}

	s.logger.Debug(logMsgWebSocketClosed, logAttrError, err.Error())
}

func (s *Server) logWriteFailure(err error) {
	if s.logger != nil {
		s.logger.Warn(logMsgWebSocketWriteErr, logAttrError, err.Error())
	}
}
