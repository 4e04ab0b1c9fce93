package websocket

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/jarvisluke416/TripleTry/internal/entity"
	"github.com/jarvisluke416/TripleTry/internal/game"
)

type roomService interface {
	Join(ctx context.Context, roomID string, player *entity.Player) (bool, error)
	SubmitGrid(ctx context.Context, roomID string, grid game.Grid) error
	FlipCard(ctx context.Context, roomID, playerID string, cardIndex int) error
	GuessWord(ctx context.Context, roomID, playerID, guess string) error
	GuessImage(ctx context.Context, roomID, playerID, guess string) error
	PassTurn(ctx context.Context, roomID, playerID string) error
	Disconnect(ctx context.Context, roomID, playerID string)
}

// client - one connected player. Writes are serialized per connection.
type client struct {
	id     string
	name   string
	roomID string
	conn   *websocket.Conn

	writeMu sync.Mutex
}

type Server struct {
	logger *slog.Logger
	rooms  roomService

	upgrader websocket.Upgrader
	handlers map[string]func(ctx context.Context, c *client, message *Message) error

	mu     sync.RWMutex
	byRoom map[string]map[string]*client
}

func New(logger *slog.Logger, rooms roomService) *Server {
	server := &Server{
		logger: logger,
		rooms:  rooms,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(_ *http.Request) bool { return true },
		},
		handlers: make(map[string]func(context.Context, *client, *Message) error),
		byRoom:   make(map[string]map[string]*client),
	}

	server.handlers["joinRoom"] = server.handleJoinRoom
	server.handlers["submitGeneratedGrid"] = server.handleSubmitGrid
	server.handlers["flipCard"] = server.handleFlipCard
	server.handlers["passTurn"] = server.handlePassTurn
	server.handlers["submitWordGuess"] = server.handleWordGuess
	server.handlers["submitImageGuess"] = server.handleImageGuess

	return server
}

// Start - starts the WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.serveConnection(ctx, w, r)
	})

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// serveConnection - upgrades the connection and runs its read loop until the
// client disconnects.
func (that *Server) serveConnection(ctx context.Context, w http.ResponseWriter, r *http.Request) {
	log := that.logger.With("method", "serveConnection")

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
	}

	log = log.With("playerID", c.id)
	log.Info("WebSocket connection established")

	if err = that.send(c, "connected", ConnectedPayload{PlayerID: c.id}); err != nil {
		log.Error("failed to send connected message", "error", err)
		_ = conn.Close()
		return
	}

	that.readLoop(ctx, c)

	that.handleDisconnect(ctx, c)
	_ = conn.Close()

	log.Info("WebSocket connection closed")
}

func (that *Server) readLoop(ctx context.Context, c *client) {
	log := that.logger.With("method", "readLoop", "playerID", c.id)

	for {
		var message Message
		if err := c.conn.ReadJSON(&message); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Error("error reading message", "error", err)
			}
			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Warn("unknown action", "action", message.Action)
			continue
		}

		that.runHandler(ctx, c, &message, handler)
	}
}

// runHandler - a fault while processing one event is contained to that
// event; the session's prior consistent state stays intact.
func (that *Server) runHandler(ctx context.Context, c *client, message *Message, handler func(context.Context, *client, *Message) error) {
	log := that.logger.With("method", "runHandler", "playerID", c.id, "action", message.Action)

	defer func() {
		if r := recover(); r != nil {
			log.Error("recovered from panic while handling event", "panic", r)
		}
	}()

	if err := handler(ctx, c, message); err != nil {
		log.Error("error processing message", "error", err)
	}
}

// Publish - implements the room manager's notifier: events with a To are
// delivered only to that player, the rest go to everyone in the room.
func (that *Server) Publish(roomID string, event entity.Event) {
	log := that.logger.With("method", "Publish", "roomID", roomID, "action", event.Action)

	that.mu.RLock()
	members := make([]*client, 0, len(that.byRoom[roomID]))
	for _, member := range that.byRoom[roomID] {
		if event.To == "" || event.To == member.id {
			members = append(members, member)
		}
	}
	that.mu.RUnlock()

	for _, member := range members {
		if err := that.send(member, event.Action, event.Payload); err != nil {
			log.Error("failed to send event", "playerID", member.id, "error", err)
		}
	}
}

func (that *Server) send(c *client, action string, payload any) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.WriteJSON(response{Action: action, Payload: payload}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *Server) register(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.byRoom[c.roomID]; !ok {
		that.byRoom[c.roomID] = make(map[string]*client)
	}
	that.byRoom[c.roomID][c.id] = c
}

func (that *Server) unregister(c *client) {
	that.mu.Lock()
	defer that.mu.Unlock()

	members, ok := that.byRoom[c.roomID]
	if !ok {
		return
	}

	delete(members, c.id)
	if len(members) == 0 {
		delete(that.byRoom, c.roomID)
	}
}

func (that *Server) handleDisconnect(ctx context.Context, c *client) {
	if c.roomID == "" {
		return
	}

	that.unregister(c)
	that.rooms.Disconnect(ctx, c.roomID, c.id)
}
