package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/lazharichir/holdem/domain"
	domainevents "github.com/lazharichir/holdem/domain/events"
	"github.com/lazharichir/holdem/ledger"
	"github.com/lazharichir/holdem/lobby"
	"github.com/lazharichir/holdem/server/connection"
	"github.com/lazharichir/holdem/server/events"
	"github.com/lazharichir/holdem/server/handlers"
	"github.com/lazharichir/holdem/table"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	shutdownWait   = 5 * time.Second
	historyLimit   = 20
	reapInterval   = 30 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Options configure a Server. Loop is handed to every table the lobby opens;
// its Ledger and EventStore also back the history endpoints.
type Options struct {
	Rules    domain.TableRules
	Loop     table.Config
	Log      slog.Logger
	LobbyLog slog.Logger

	// EmptyTableTTL closes tables nobody sat at after that long.
	EmptyTableTTL time.Duration
}

// Server represents the WebSocket server
type Server struct {
	lobby      *lobby.Lobby
	connMgr    *connection.Manager
	cmdRouter  *handlers.CommandRouter
	dispatcher *events.Dispatcher
	ledger     ledger.Store
	eventStore domainevents.EventStore
	log        slog.Logger
}

// CreateTableRequest represents the request to create a new table
type CreateTableRequest struct {
	Name       string `json:"name"`
	Password   string `json:"password"`
	SmallBlind int    `json:"smallBlind"`
	BigBlind   int    `json:"bigBlind"`
	BuyIn      int    `json:"buyIn"`
	MaxPlayers int    `json:"maxPlayers"`
}

// corsMiddleware adds CORS headers to all responses
func corsMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next(w, r)
	}
}

// NewServer creates a new poker WebSocket server
func NewServer(opts Options) *Server {
	if opts.Log == nil {
		opts.Log = slog.Disabled
	}
	if opts.Loop.Ledger == nil {
		opts.Loop.Ledger = ledger.NopStore{}
	}
	if opts.Loop.EventStore == nil {
		opts.Loop.EventStore = domainevents.NewInMemoryEventStore(0)
	}

	connMgr := connection.NewManager(opts.Log)
	dispatcher := events.NewDispatcher(connMgr, opts.Log)

	loopCfg := opts.Loop
	loopCfg.OnEvent = dispatcher.HandleEvent
	loopCfg.OnSnapshot = dispatcher.HandleSnapshot

	l := lobby.New(lobby.Config{
		Rules:         opts.Rules,
		Loop:          loopCfg,
		Log:           opts.LobbyLog,
		EmptyTableTTL: opts.EmptyTableTTL,
	})

	return &Server{
		lobby:      l,
		connMgr:    connMgr,
		cmdRouter:  handlers.NewCommandRouter(l, connMgr, dispatcher, opts.Log),
		dispatcher: dispatcher,
		ledger:     opts.Loop.Ledger,
		eventStore: opts.Loop.EventStore,
		log:        opts.Log,
	}
}

// Lobby exposes the table registry.
func (s *Server) Lobby() *lobby.Lobby {
	return s.lobby
}

// Handler returns the HTTP routes of the server.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/api/tables", corsMiddleware(s.handleGetTables))
	mux.HandleFunc("/api/tables/create", corsMiddleware(s.handleCreateTable))
	mux.HandleFunc("/api/tables/history", corsMiddleware(s.handleHistory))
	mux.HandleFunc("/api/tables/events", corsMiddleware(s.handleEvents))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return mux
}

// Start serves on addr until ctx is cancelled, then shuts down and closes
// every table.
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.lobby.Run(ctx, reapInterval)

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-errCh:
	case <-ctx.Done():
		s.log.Infof("Shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownWait)
		err = srv.Shutdown(shutdownCtx)
		cancel()
	}
	s.lobby.Close()

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// handleWebSocket handles incoming WebSocket connections
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Errorf("Error upgrading to WebSocket: %v", err)
		return
	}

	client := &connection.Client{
		ID:   uuid.NewString(),
		Conn: conn,
		Send: make(chan []byte, 256),
	}
	s.log.Debugf("New client connected: %s with ID: %s", r.RemoteAddr, client.ID)

	s.connMgr.Register(client)

	go s.writePump(client)
	go s.readPump(client)
}

// readPump reads messages from the WebSocket connection
func (s *Server) readPump(client *connection.Client) {
	defer func() {
		s.cmdRouter.LeaveAll(client)
		s.connMgr.Unregister(client)
		client.Conn.Close()
		s.log.Debugf("Client %s disconnected", client.ID)
	}()

	client.Conn.SetReadLimit(maxMessageSize)
	client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	client.Conn.SetPongHandler(func(string) error {
		return client.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				s.log.Warnf("Client %s: %v", client.ID, err)
			}
			return
		}

		if err := s.cmdRouter.HandleCommand(client, message); err != nil {
			s.log.Debugf("Client %s: command rejected: %v", client.ID, err)
			s.dispatcher.SendError(client.ID, err)
		}
	}
}

// writePump sends messages to the WebSocket connection
func (s *Server) writePump(client *connection.Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		client.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := client.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				s.log.Warnf("Client %s: write: %v", client.ID, err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleGetTables returns a list of all tables
func (s *Server) handleGetTables(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, s.lobby.List())
}

// handleCreateTable creates a new table without a host; the first player
// to sit becomes host.
func (s *Server) handleCreateTable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var createReq CreateTableRequest
	if err := json.NewDecoder(r.Body).Decode(&createReq); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if createReq.Name == "" {
		http.Error(w, "Table name is required", http.StatusBadRequest)
		return
	}

	id, err := s.lobby.CreateTable("", "", lobby.CreateOptions{
		Name:       createReq.Name,
		Password:   createReq.Password,
		SmallBlind: createReq.SmallBlind,
		BigBlind:   createReq.BigBlind,
		BuyIn:      createReq.BuyIn,
		MaxPlayers: createReq.MaxPlayers,
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	loop, err := s.lobby.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	summary, err := loop.Summary()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

// handleHistory lists the last settled hands of a table from the ledger.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "Table id is required", http.StatusBadRequest)
		return
	}
	limit := historyLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	hands, err := s.ledger.RecentHands(r.Context(), id, limit)
	if err != nil {
		s.log.Errorf("History of %s: %v", id, err)
		http.Error(w, "Could not load history", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, hands)
}

// handleEvents returns the public event log of an open table.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id := r.URL.Query().Get("id")
	if _, err := s.lobby.Get(id); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	evs, err := s.eventStore.LoadEvents(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]events.EventEnvelope, 0, len(evs))
	for _, e := range domainevents.Public(evs) {
		raw, err := json.Marshal(e)
		if err != nil {
			s.log.Errorf("Encode %s: %v", e.Name(), err)
			continue
		}
		out = append(out, events.EventEnvelope{Name: e.Name(), Payload: raw})
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
