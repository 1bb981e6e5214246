package coordinator

import (
	"fmt"
	"net"
	"net/rpc"
	"os"
	"path/filepath"
)

// Server wraps a Coordinator with a net/rpc listener on a Unix-domain
// socket, adapted from the teacher's master_rpc.go RPCServer: same
// register-then-listen-then-accept shape, generalized to close its
// listener when Stop is called instead of on a raw shutdown channel.
type Server struct {
	sockPath string
	listener net.Listener
	rpcSrv   *rpc.Server
	coord    *Coordinator
}

// NewServer registers coord's RPC methods and prepares to listen on
// sockPath. Serve removes any stale socket file left over from a previous
// run before it starts listening.
func NewServer(coord *Coordinator, sockPath string) (*Server, error) {
	if sockPath == "" {
		return nil, fmt.Errorf("coordinator: socket path cannot be empty")
	}

	s := &Server{
		sockPath: sockPath,
		rpcSrv:   rpc.NewServer(),
		coord:    coord,
	}
	if err := s.rpcSrv.RegisterName("Coordinator", coord); err != nil {
		return nil, fmt.Errorf("coordinator: register RPC methods: %w", err)
	}
	return s, nil
}

// Serve starts accepting connections and blocks until the listener is
// closed (typically via Stop, called once coord.Done() is true).
func (s *Server) Serve() error {
	os.Remove(s.sockPath)

	if dir := filepath.Dir(s.sockPath); dir != "" {
		if err := os.MkdirAll(dir, 0777); err != nil {
			return fmt.Errorf("coordinator: create socket directory %s: %w", dir, err)
		}
	}

	l, err := net.Listen("unix", s.sockPath)
	if err != nil {
		return fmt.Errorf("coordinator: listen on %s: %w", s.sockPath, err)
	}
	s.listener = l

	for {
		conn, err := l.Accept()
		if err != nil {
			return nil
		}
		go func() {
			defer conn.Close()
			s.rpcSrv.ServeConn(conn)
		}()
	}
}

// Stop closes the listener, unblocking Serve, and removes the socket file.
func (s *Server) Stop() error {
	if s.listener == nil {
		return nil
	}
	err := s.listener.Close()
	os.Remove(s.sockPath)
	return err
}
