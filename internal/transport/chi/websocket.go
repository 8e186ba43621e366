package chi

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/TanishqMishra12/VAYO/internal/domain"
	"github.com/TanishqMishra12/VAYO/internal/logger"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = wsPongWait * 9 / 10
	wsSendBuffer = 16
)

// MatchUpdates handles GET /api/v1/ws/{user_id}. It sends the user's latest
// payload, if any, then relays every payload published for the user until
// either side closes.
func (s *Server) MatchUpdates(w http.ResponseWriter, r *http.Request) {
	var userID string
	if err := bindPathParam(r, "user_id", &userID); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	if err := s.validate.Var(userID, "required,max=64"); err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, "user_id: max=64")
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the HTTP error.
		return
	}
	defer func() { _ = conn.Close() }()

	log := logger.FromContext(r.Context()).With(zap.String("user_id", userID))
	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go readPump(conn, cancel)

	out := make(chan []byte, wsSendBuffer)
	live := make(chan struct{})
	subDone := make(chan struct{})
	var liveOnce sync.Once
	go func() {
		defer close(subDone)
		defer cancel()
		err := s.broadcasts.Subscribe(ctx, userID, func() { liveOnce.Do(func() { close(live) }) }, func(msg []byte) {
			select {
			case out <- msg:
			default:
				log.Warn("websocket client too slow, dropping update")
			}
		})
		if err != nil {
			log.Warn("match subscription ended", zap.Error(err))
		}
	}()

	// Latest is read only once the subscription is live, so nothing
	// published in between is lost. The newest payload may arrive twice.
	select {
	case <-live:
	case <-subDone:
		return
	case <-ctx.Done():
		return
	}

	if latest, err := s.broadcasts.Latest(ctx, userID); err == nil {
		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteMessage(websocket.TextMessage, latest); err != nil {
			log.Debug("websocket write failed", zap.Error(err))
			return
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		log.Warn("failed to load latest matches", zap.Error(err))
	}

	writePump(ctx, conn, out, log)
}

// readPump discards client frames and cancels when the peer goes away.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ctx context.Context, conn *websocket.Conn, out <-chan []byte, log *zap.Logger) {
	ticker := time.NewTicker(wsPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(wsWriteWait))
			return
		case msg := <-out:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
