package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/isimg/moyenne/internal/grading"
	"github.com/isimg/moyenne/internal/session"
)

// Live operations.
const (
	OpMark        = "mark"
	OpCoef        = "coef"
	OpAddInput    = "add_input"
	OpRemoveInput = "remove_input"
	OpClear       = "clear"
)

// LiveRequest is one edit sent over the live connection.
type LiveRequest struct {
	Op        string `json:"op"`
	SubjectID string `json:"subject_id,omitempty"`
	Label     string `json:"label,omitempty"`
	Value     text   `json:"value,omitempty"`
}

// LiveReply answers every LiveRequest with the recomputed averages.
type LiveReply struct {
	Op       string          `json:"op"`
	Accepted bool            `json:"accepted"`
	Result   *grading.Result `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
}

// live upgrades to a WebSocket on which every keystroke-level edit is
// answered with fresh averages.
func (s *Server) live(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.sessions.Get(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket accept failed", "session_id", id, "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	slog.Debug("live session opened", "session_id", id)

	for {
		var req LiveRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				slog.Debug("live session closed", "session_id", id)
			default:
				slog.Debug("live session read failed", "session_id", id, "error", err)
			}
			return
		}

		reply, err := s.applyLive(ctx, id, req)
		if errors.Is(err, session.ErrNotFound) {
			conn.Close(websocket.StatusNormalClosure, "session not found")
			return
		}
		if err != nil {
			slog.Error("live edit failed", "session_id", id, "op", req.Op, "error", err)
			reply = LiveReply{Op: req.Op, Error: "internal error"}
		}

		if err := wsjson.Write(ctx, conn, reply); err != nil {
			slog.Debug("live session write failed", "session_id", id, "error", err)
			return
		}
	}
}

func (s *Server) applyLive(ctx context.Context, id string, req LiveRequest) (LiveReply, error) {
	var (
		sess     *session.Session
		accepted bool
		err      error
	)

	switch req.Op {
	case OpMark:
		sess, accepted, err = s.sessions.SetMark(ctx, id, req.SubjectID, req.Label, string(req.Value))
	case OpCoef:
		sess, accepted, err = s.sessions.SetCoefficient(ctx, id, req.SubjectID, string(req.Value))
	case OpAddInput:
		sess, accepted, err = s.sessions.AddInput(ctx, id, req.SubjectID, req.Label)
	case OpRemoveInput:
		sess, accepted, err = s.sessions.RemoveInput(ctx, id, req.SubjectID, req.Label)
	case OpClear:
		sess, err = s.sessions.ClearMarks(ctx, id)
		accepted = err == nil
	default:
		return LiveReply{Op: req.Op, Error: "unknown op"}, nil
	}
	if err != nil {
		return LiveReply{}, err
	}

	res := sess.Result()
	return LiveReply{Op: req.Op, Accepted: accepted, Result: &res}, nil
}
