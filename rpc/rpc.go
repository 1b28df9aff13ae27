package rpc

import (
	"net"
	"net/rpc"

	"github.com/wfunc/escaperoom/logger"
	"github.com/wfunc/escaperoom/models"
	"github.com/wfunc/escaperoom/persistence"
)

// Server manages the RPC listener for the operator/admin surface.
type Server struct {
	listener net.Listener
	address  string
}

// NewServer creates a new RPC server.
func NewServer(addr string) (*Server, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	return &Server{
		listener: listener,
		address:  addr,
	}, nil
}

// Start begins listening for RPC requests.
func (s *Server) Start() {
	logger.Log.Infof("RPC server listening on %s", s.address)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if _, ok := err.(*net.OpError); ok {
				logger.Log.Info("RPC server listener closed.")
				return
			}
			logger.Log.Errorf("RPC server accept error: %v", err)
			continue
		}
		go rpc.ServeConn(conn)
	}
}

// Stop closes the RPC listener.
func (s *Server) Stop() {
	if s.listener != nil {
		logger.Log.Info("Stopping RPC server.")
		s.listener.Close()
	}
}

// AdminService exposes room inspection over net/rpc: live state and the
// audit trail, for debugging and replay.
type AdminService struct {
	db persistence.Database
}

func NewAdminService(db persistence.Database) *AdminService {
	return &AdminService{db: db}
}

type ListRoomsArgs struct{}

type ListRoomsReply struct {
	Rooms []*models.RoomSummary
}

func (a *AdminService) ListRooms(args *ListRoomsArgs, reply *ListRoomsReply) error {
	rooms, err := a.db.ListRooms()
	if err != nil {
		return err
	}
	reply.Rooms = rooms
	return nil
}

type GetRoomArgs struct {
	RoomID string
}

type GetRoomReply struct {
	Doc map[string]any
}

func (a *AdminService) GetRoom(args *GetRoomArgs, reply *GetRoomReply) error {
	doc, err := a.db.GetRoom(args.RoomID)
	if err != nil {
		return err
	}
	reply.Doc = doc
	return nil
}

type GetEventsArgs struct {
	RoomID string
	Limit  int
}

type GetEventsReply struct {
	Events []*models.AuditEvent
}

func (a *AdminService) GetEvents(args *GetEventsArgs, reply *GetEventsReply) error {
	events, err := a.db.ListEvents(args.RoomID, args.Limit)
	if err != nil {
		return err
	}
	reply.Events = events
	return nil
}
