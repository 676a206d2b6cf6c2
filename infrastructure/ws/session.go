package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"converse/domain/event"
	apperrors "converse/errors"
	"converse/runtime"
	"converse/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// State tracks where a session is in its lifecycle. Closed is terminal.
type State int32

const (
	StateConnecting State = iota
	StateAuthorizing
	StateActive
	StateClosing
	StateClosed
)

// Rejection reasons sent with close code 1008 (policy violation).
const (
	reasonInvalidConversation = "Invalid conversation ID"
	reasonNotAuthorized       = "Not authorized"
)

const readLimit = 64 * 1024

// Handler accepts websocket connections and runs one Session per
// connection until it dies.
type Handler struct {
	log          *slog.Logger
	upgrader     websocket.Upgrader
	registry     runtime.IRegistry
	fanout       runtime.IBroadcaster
	chat         services.IChatService
	writeTimeout time.Duration
}

func NewHandler(log *slog.Logger, registry runtime.IRegistry,
	fanout runtime.IBroadcaster, chat services.IChatService,
	writeTimeout time.Duration) *Handler {
	return &Handler{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Tokens already gate the endpoint; cross-origin browsers are fine.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		registry:     registry,
		fanout:       fanout,
		chat:         chat,
		writeTimeout: writeTimeout,
	}
}

// Serve runs the full session lifecycle for one upgraded connection:
// handshake, authorization, registration, receive loop, teardown. It
// blocks until the connection is gone.
func (h *Handler) Serve(c *gin.Context, userID string) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", "error", err)
		return
	}

	session := &Session{
		log:      h.log,
		conn:     conn,
		registry: h.registry,
		fanout:   h.fanout,
		chat:     h.chat,
		sink:     NewSink(conn, h.writeTimeout),
		userID:   userID,
	}
	session.run(c.Param("id"))
}

// Session owns one live connection. All of its cleanup funnels through
// teardown, which runs exactly once no matter which failure triggered it.
type Session struct {
	log      *slog.Logger
	conn     *websocket.Conn
	registry runtime.IRegistry
	fanout   runtime.IBroadcaster
	chat     services.IChatService
	sink     *Sink
	userID   string

	conversation uuid.UUID
	live         *runtime.Conn
	state        atomic.Int32
	once         sync.Once
}

func (s *Session) State() State { return State(s.state.Load()) }

func (s *Session) setState(state State) { s.state.Store(int32(state)) }

func (s *Session) run(rawConversationID string) {
	ctx := context.Background()

	// Connecting: the transport handshake is done; the conversation
	// identifier must parse before anything else happens.
	conversationID, err := uuid.Parse(rawConversationID)
	if err != nil {
		s.log.Warn("invalid conversation id on connect",
			"conversation_id", rawConversationID, "user_id", s.userID)
		s.reject(reasonInvalidConversation)
		return
	}
	s.conversation = conversationID

	// Authorizing: membership is checked once at connect time; it is
	// re-checked per message later.
	s.setState(StateAuthorizing)
	if !s.chat.IsParticipant(s.userID, conversationID) {
		s.log.Warn("user not authorized for conversation",
			"conversation_id", conversationID, "user_id", s.userID)
		s.reject(reasonNotAuthorized)
		return
	}

	s.live = runtime.NewConn(conversationID, s.userID, s.sink, func() {
		_ = s.conn.Close()
	})
	s.registry.Register(conversationID, s.live)
	s.setState(StateActive)

	if err := s.sink.Consume(ctx, event.NewConnected(conversationID, s.userID)); err != nil {
		s.teardown()
		return
	}

	s.conn.SetReadLimit(readLimit)
	s.readLoop(ctx)
	s.teardown()
}

// readLoop processes inbound frames in arrival order until the transport
// errors out or closes. Ingest failures stay local to this connection: an
// error reply is sent and the loop keeps going.
func (s *Session) readLoop(ctx context.Context) {
	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				s.log.Warn("websocket receive failed",
					"conversation_id", s.conversation, "user_id", s.userID, "error", err)
			}
			return
		}

		chatEvent, err := s.chat.Ingest(ctx, raw, s.conversation, s.userID)
		if err != nil {
			if sendErr := s.sink.Consume(ctx, event.ErrorReply{
				Error:        replyFor(err),
				Conversation: s.conversation,
			}); sendErr != nil {
				return
			}
			continue
		}

		// The sender is not excluded: everyone, sender included, renders
		// from this single broadcast.
		s.fanout.Broadcast(ctx, s.conversation, chatEvent)
	}
}

// teardown is the only exit path for an Active session. It unregisters
// the connection, announces the departure to the remaining participants
// and closes the transport, exactly once.
func (s *Session) teardown() {
	s.once.Do(func() {
		s.setState(StateClosing)
		s.registry.Unregister(s.conversation, s.live)
		s.fanout.Broadcast(context.Background(), s.conversation,
			event.NewUserDisconnected(s.conversation, s.userID))
		_ = s.conn.Close()
		s.setState(StateClosed)
		s.log.Info("session closed",
			"conversation_id", s.conversation, "user_id", s.userID)
	})
}

// reject closes a connection that never reached Active with a distinct
// policy-violation reason, so clients can tell the two failures apart.
func (s *Session) reject(reason string) {
	deadline := time.Now().Add(time.Second)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
	_ = s.conn.Close()
	s.setState(StateClosed)
}

// replyFor maps an ingest error to the message sent back on the
// offending connection.
func replyFor(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrMalformedEvent):
		return "Invalid message format"
	case errors.Is(err, apperrors.ErrUnauthorized):
		return "Not authorized for this conversation"
	case errors.Is(err, apperrors.ErrPersistence):
		return "Failed to store message"
	default:
		return "Failed to process message"
	}
}
