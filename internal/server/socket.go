package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/davrodpin/scoundrel/internal/errutil"
	"github.com/davrodpin/scoundrel/internal/game"
	"github.com/davrodpin/scoundrel/internal/scoundrel"
)

// Client message types on /ws.
const (
	MsgCreateGame = "create_game"
	MsgJoinGame   = "join_game"
	MsgGameAction = "game_action"
)

// SocketMessage is a client request on /ws.
type SocketMessage struct {
	Type      string            `json:"type"`
	PlayerID  string            `json:"playerId,omitempty"`
	SessionID string            `json:"sessionId,omitempty"`
	Token     string            `json:"token,omitempty"`
	Action    *scoundrel.Action `json:"action,omitempty"`
}

// socketConn is one websocket client. It follows at most one session at a
// time; its subscription forwards every state change of that session.
type socketConn struct {
	api  *API
	conn *websocket.Conn

	writeMu sync.Mutex

	mu        sync.Mutex
	sessionID string
	sub       chan []byte
	stopSub   context.CancelFunc
	subDone   chan struct{}
}

func (a *API) handleSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Hour)
	defer cancel()

	sc := &socketConn{api: a, conn: conn}
	defer sc.unfollow()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			a.logger.Debug("websocket read ended", "error", err)
			return
		}

		var msg SocketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			sc.sendError(ctx, game.ErrInvalidRequest("Message must be valid JSON"))
			continue
		}
		if err := sc.dispatch(ctx, msg); err != nil {
			a.logger.Debug("websocket write failed", "error", err)
			return
		}
	}
}

// dispatch handles one client message. Game errors are sent to the client;
// only transport errors are returned.
func (sc *socketConn) dispatch(ctx context.Context, msg SocketMessage) error {
	switch msg.Type {
	case MsgCreateGame:
		sess, err := sc.api.games.CreateGame(ctx, msg.PlayerID)
		if err != nil {
			return sc.sendError(ctx, err)
		}
		token, err := sc.api.tokens.Issue(sess.PlayerID, sess.ID)
		if err != nil {
			return sc.sendError(ctx, err)
		}
		sc.follow(ctx, sess.ID)
		return sc.send(ctx, Event{Type: EventGameCreated, Data: CreateGameResponse{
			SessionID: sess.ID,
			Token:     token,
			GameState: sess.State,
		}})

	case MsgJoinGame:
		if _, err := sc.api.tokens.Authorize(msg.Token, msg.SessionID); err != nil {
			return sc.send(ctx, Event{Type: EventError, Data: ErrorResponse{
				Message: "Missing or invalid token",
				Code:    CodeUnauthorized,
			}})
		}
		sess, err := sc.api.games.GetGame(ctx, msg.SessionID)
		if err != nil {
			return sc.sendError(ctx, err)
		}
		sc.follow(ctx, sess.ID)
		return sc.send(ctx, Event{Type: EventGameState, Data: sess.State})

	case MsgGameAction:
		id := sc.following()
		if id == "" {
			return sc.sendError(ctx, game.ErrInvalidRequest("Create or join a game first"))
		}
		if msg.SessionID != "" && msg.SessionID != id {
			return sc.sendError(ctx, game.ErrInvalidRequest("sessionId does not match the joined game"))
		}
		if msg.Action == nil {
			return sc.sendError(ctx, game.ErrInvalidRequest("action is required"))
		}
		// The new state reaches this socket through its own subscription.
		if _, err := sc.api.act(ctx, id, *msg.Action); err != nil {
			return sc.sendError(ctx, err)
		}
		return nil

	default:
		return sc.sendError(ctx, game.ErrInvalidRequest("Unknown message type"))
	}
}

// follow subscribes the socket to id, dropping any previous subscription.
func (sc *socketConn) follow(ctx context.Context, id string) {
	sc.unfollow()

	ch := sc.api.broker.Subscribe(id)
	fctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	sc.mu.Lock()
	sc.sessionID, sc.sub, sc.stopSub, sc.subDone = id, ch, cancel, done
	sc.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-fctx.Done():
				return
			case data := <-ch:
				if err := sc.write(fctx, data); err != nil {
					return
				}
			}
		}
	}()
}

func (sc *socketConn) unfollow() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.stopSub == nil {
		return
	}
	sc.stopSub()
	<-sc.subDone
	sc.api.broker.Unsubscribe(sc.sessionID, sc.sub)
	sc.sessionID, sc.sub, sc.stopSub, sc.subDone = "", nil, nil, nil
}

func (sc *socketConn) following() string {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sessionID
}

func (sc *socketConn) send(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return sc.write(ctx, data)
}

func (sc *socketConn) sendError(ctx context.Context, err error) error {
	code := game.ErrorCode(err)
	if code == "" {
		code = CodeInternal
	}
	if statusFor(code) >= http.StatusInternalServerError {
		errutil.LogError(sc.api.logger, "socket request failed", err)
	}
	return sc.send(ctx, Event{Type: EventError, Data: ErrorResponse{
		Message: game.PublicMessage(err),
		Code:    code,
	}})
}

func (sc *socketConn) write(ctx context.Context, data []byte) error {
	sc.writeMu.Lock()
	defer sc.writeMu.Unlock()
	return sc.conn.Write(ctx, websocket.MessageText, data)
}
