// server/server.go
package server

import (
	"net/http"
	"net/rpc"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wfunc/escaperoom/auth"
	"github.com/wfunc/escaperoom/broadcast"
	"github.com/wfunc/escaperoom/config"
	"github.com/wfunc/escaperoom/logger"
	"github.com/wfunc/escaperoom/monitor"
	"github.com/wfunc/escaperoom/persistence"
	gamerpc "github.com/wfunc/escaperoom/rpc"
	"github.com/wfunc/escaperoom/services"
	"github.com/wfunc/escaperoom/session"
	"github.com/wfunc/escaperoom/timer"
)

// GameServer owns the public HTTP surface (intent gateway, room
// lifecycle, websocket snapshots) and the background loops around it.
// Store and verifier come in as interfaces so tests can swap them.
type GameServer struct {
	address        string
	db             persistence.Database
	verifier       auth.Verifier
	rooms          *services.RoomService
	events         *services.EventService
	sessions       *session.Manager
	broadcaster    broadcast.Broadcaster
	mon            *monitor.Monitor
	rpcServer      *gamerpc.Server
	timers         *timer.Manager
	upgrader       websocket.Upgrader
	sessionTimeout time.Duration
	httpServer     *http.Server
}

func NewGameServer(cfg *config.Config, db persistence.Database, verifier auth.Verifier, mon *monitor.Monitor) *GameServer {
	sessions := session.NewManager()

	s := &GameServer{
		address:     cfg.Server.HTTPAddress,
		db:          db,
		verifier:    verifier,
		rooms:       services.NewRoomService(db, cfg.Game.GameDuration),
		events:      services.NewEventService(db),
		sessions:    sessions,
		broadcaster: broadcast.NewRoomBroadcaster(sessions),
		mon:         mon,
		timers:      timer.NewManager(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		sessionTimeout: cfg.Game.SessionTimeout,
	}

	rpcServer, err := gamerpc.NewServer(cfg.Server.RPCAddress)
	if err != nil {
		logger.Log.Fatalf("Failed to create RPC server: %v", err)
	}
	if err := rpc.Register(gamerpc.NewAdminService(db)); err != nil {
		logger.Log.Fatalf("Failed to register admin service: %v", err)
	}
	s.rpcServer = rpcServer

	s.timers.AddTimer(cfg.Game.SweepInterval, cfg.Game.SweepInterval, s.sweepSessions)
	s.timers.AddTimer(30*time.Second, 30*time.Second, s.refreshRoomGauge)

	return s
}

// Start blocks serving HTTP. The RPC listener runs on its own goroutine.
func (s *GameServer) Start() error {
	go s.rpcServer.Start()

	s.httpServer = &http.Server{Addr: s.address, Handler: s.routes()}
	logger.Log.Infof("Game server listening on %s", s.address)
	return s.httpServer.ListenAndServe()
}

func (s *GameServer) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /event", s.handleEvent)
	mux.HandleFunc("POST /rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /rooms/{id}", s.handleGetRoom)
	mux.HandleFunc("POST /rooms/{id}/join", s.handleJoinRoom)
	mux.HandleFunc("POST /rooms/{id}/leave", s.handleLeaveRoom)
	mux.HandleFunc("POST /rooms/{id}/ready", s.handleSetReady)
	mux.HandleFunc("POST /rooms/{id}/start", s.handleStartGame)
	mux.HandleFunc("POST /rooms/{id}/end", s.handleEndRoom)
	mux.HandleFunc("POST /rooms/{id}/move", s.handleMovePlayer)
	mux.HandleFunc("GET /lyra/{phase}", s.handleLyraScript)
	mux.HandleFunc("GET /ws", s.handleWebSocket)
	return mux
}

// Stop shuts down the listeners and background loops.
func (s *GameServer) Stop() {
	if s.httpServer != nil {
		s.httpServer.Close()
	}
	s.rpcServer.Stop()
	s.timers.Stop()
	for _, sess := range s.sessions.All() {
		sess.Close()
	}
}

// sweepSessions drops subscribers that went silent past the timeout.
// Closing the connection unwinds the read loop, which handles the
// presence bookkeeping.
func (s *GameServer) sweepSessions() {
	cutoff := time.Now().Add(-s.sessionTimeout)
	for _, sess := range s.sessions.All() {
		if sess.LastActive().Before(cutoff) {
			logger.Log.Infof("Sweeping idle session %s (uid=%s room=%s)", sess.ID, sess.UID, sess.RoomID)
			sess.Close()
		}
	}
}

func (s *GameServer) refreshRoomGauge() {
	count, err := s.db.CountRooms()
	if err != nil {
		logger.Log.Warnf("Failed to count rooms: %v", err)
		return
	}
	s.mon.SetActiveRooms(count)
}
