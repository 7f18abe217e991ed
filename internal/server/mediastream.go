package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"

	"github.com/parleyhq/parley/internal/stream"
)

// handleMediaStream upgrades the connection and runs one media-stream
// session for its lifetime. The telephony provider opens this WebSocket when
// a call starts and closes it when the call ends.
func (s *Server) handleMediaStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		// Telephony providers do not send browser Origin headers.
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Error("media stream upgrade failed", "err", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "session ended")

	// Audio frames are small but arrive continuously for the whole call.
	conn.SetReadLimit(1 << 20)

	slog.Info("media stream connected", "remote", r.RemoteAddr)

	sess := stream.NewSession(stream.Config{
		Store:            s.store,
		Transcriber:      s.cfg.Transcriber,
		Runner:           s.cfg.Runner,
		UserID:           s.cfg.Stream.DefaultUserID,
		BatchChunks:      s.cfg.Stream.BatchChunks,
		AnalysisInterval: s.cfg.Stream.AnalysisInterval,
		Format:           s.cfg.Stream.Format,
		Metrics:          s.metrics,
	})

	ctx := r.Context()
	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			closeStatus := websocket.CloseStatus(err)
			switch {
			case closeStatus == websocket.StatusNormalClosure,
				closeStatus == websocket.StatusGoingAway,
				errors.Is(err, context.Canceled):
				slog.Info("media stream disconnected", "remote", r.RemoteAddr)
			default:
				slog.Warn("media stream read failed", "remote", r.RemoteAddr, "err", err)
			}
			sess.Close(context.WithoutCancel(ctx))
			return
		}
		sess.HandleRaw(ctx, data)

		if sess.State() == stream.StateStopped {
			conn.Close(websocket.StatusNormalClosure, "stream stopped")
			return
		}
	}
}
