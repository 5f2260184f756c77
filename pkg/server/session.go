package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/vango-dev/eventroutes/pkg/router"
)

// Client operations.
const (
	OpNavigate = "navigate"
	OpVisit    = "visit"
	OpLocation = "location"
	OpBack     = "back"
	OpForward  = "forward"
	OpCurrent  = "current"
)

// Server message types.
const (
	TypeHello = "hello"
	TypeRoute = "route"
	TypeError = "error"
)

// ClientMessage is a navigation request sent by the browser.
type ClientMessage struct {
	Op      string            `json:"op"`
	Name    string            `json:"name,omitempty"`
	Params  map[string]string `json:"params,omitempty"`
	Query   url.Values        `json:"query,omitempty"`
	Path    string            `json:"path,omitempty"` // app-relative for visit, browser location for location
	Replace bool              `json:"replace,omitempty"`
}

// ServerMessage is sent to the browser in reply to every client message.
type ServerMessage struct {
	Type    string     `json:"type"`
	Session string     `json:"session,omitempty"`
	Route   *RouteInfo `json:"route,omitempty"`
	History []string   `json:"history,omitempty"`
	Index   int        `json:"index"`
	Code    string     `json:"code,omitempty"`
	Message string     `json:"message,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Session is one WebSocket connection and the Navigator it owns. Messages
// are processed one at a time in the read loop.
type Session struct {
	ID string

	server *Server
	conn   *websocket.Conn
	nav    *router.Navigator
	logger *slog.Logger

	writeMu   sync.Mutex
	closeOnce sync.Once
}

// HandleWebSocket upgrades the request and runs a navigation session until
// the connection closes. The optional "location" query parameter is the
// browser location to start from.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		s.metrics.RecordWebSocketError("upgrade")
		return
	}

	id := uuid.NewString()
	logger := s.logger.With("session_id", id)
	sess := &Session{
		ID:     id,
		server: s,
		conn:   conn,
		nav:    s.newNavigator(logger),
		logger: logger,
	}
	s.addSession(sess)
	defer sess.Close()

	logger.Debug("session started", "remote", r.RemoteAddr)
	if err := sess.send(&ServerMessage{Type: TypeHello, Session: id}); err != nil {
		return
	}

	ctx := r.Context()
	if location := r.URL.Query().Get("location"); location != "" {
		sess.reply(sess.visitLocation(ctx, location, router.WithReplace()))
	}

	sess.readLoop(ctx)
}

// visitLocation navigates to a browser location, which carries the base
// path, rather than to an app-relative path.
func (sess *Session) visitLocation(ctx context.Context, location string, opts ...router.NavigateOption) error {
	resolved, err := sess.server.table.ResolveLocation(location)
	if err != nil {
		return err
	}
	_, err = sess.nav.NavigateTo(ctx, resolved.FullPath(), opts...)
	return err
}

// readLoop reads messages until the connection closes.
func (sess *Session) readLoop(ctx context.Context) {
	cfg := sess.server.config.SessionConfig
	sess.conn.SetReadLimit(cfg.MaxMessageSize)

	for {
		sess.conn.SetReadDeadline(time.Now().Add(cfg.ReadTimeout))

		_, data, err := sess.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				sess.logger.Error("read error", "error", err)
				sess.server.metrics.RecordWebSocketError("read")
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sess.server.metrics.RecordWebSocketError("decode")
			sess.sendError("R040", "Invalid message", err)
			continue
		}

		sess.reply(sess.handle(ctx, &msg))
	}
}

// handle applies one client message to the Navigator.
func (sess *Session) handle(ctx context.Context, msg *ClientMessage) error {
	var opts []router.NavigateOption
	if msg.Replace {
		opts = append(opts, router.WithReplace())
	}
	if len(msg.Query) > 0 {
		opts = append(opts, router.WithQuery(msg.Query))
	}

	var err error
	switch msg.Op {
	case OpNavigate:
		_, err = sess.nav.Navigate(ctx, msg.Name, msg.Params, opts...)
	case OpVisit:
		_, err = sess.nav.NavigateTo(ctx, msg.Path, opts...)
	case OpLocation:
		err = sess.visitLocation(ctx, msg.Path, opts...)
	case OpBack:
		_, err = sess.nav.Back(ctx)
	case OpForward:
		_, err = sess.nav.Forward(ctx)
	case OpCurrent:
		if sess.nav.Current() == nil {
			err = router.ErrNoHistory
		}
	default:
		err = &unknownOpError{op: msg.Op}
	}
	return err
}

// reply sends the current route, or err.
func (sess *Session) reply(err error) {
	if err != nil {
		var op *unknownOpError
		if errors.As(err, &op) {
			sess.sendError("R040", "Invalid message", err)
			return
		}
		info := errorInfo(err)
		sess.sendError(info.Code, info.Message, err)
		return
	}

	_ = sess.send(&ServerMessage{
		Type:    TypeRoute,
		Route:   sess.server.routeInfo(sess.nav.Current()),
		History: sess.nav.History(),
		Index:   sess.nav.Index(),
	})
}

func (sess *Session) sendError(code, message string, err error) {
	_ = sess.send(&ServerMessage{
		Type:    TypeError,
		Code:    code,
		Message: message,
		Error:   err.Error(),
		History: sess.nav.History(),
		Index:   sess.nav.Index(),
	})
}

// send writes msg. Writes are serialized so Close can run concurrently.
func (sess *Session) send(msg *ServerMessage) error {
	sess.writeMu.Lock()
	defer sess.writeMu.Unlock()

	sess.conn.SetWriteDeadline(time.Now().Add(sess.server.config.SessionConfig.WriteTimeout))
	if err := sess.conn.WriteJSON(msg); err != nil {
		sess.logger.Debug("write failed", "error", err)
		sess.server.metrics.RecordWebSocketError("write")
		return err
	}
	return nil
}

// Close sends a close frame and releases the connection. It is safe to call
// more than once.
func (sess *Session) Close() {
	sess.closeOnce.Do(func() {
		sess.writeMu.Lock()
		_ = sess.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		sess.writeMu.Unlock()

		sess.conn.Close()
		sess.server.removeSession(sess)
		sess.logger.Debug("session closed")
	})
}

type unknownOpError struct {
	op string
}

func (e *unknownOpError) Error() string {
	return fmt.Sprintf("unknown op %q", e.op)
}
