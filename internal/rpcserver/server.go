package rpcserver

import (
	"net"

	"google.golang.org/grpc"
	"google.golang.org/grpc/encoding"

	"github.com/irgordon/kari-agent/internal/facade"
	"github.com/irgordon/kari-agent/internal/klog"
	"github.com/irgordon/kari-agent/internal/peerauth"
)

func init() {
	encoding.RegisterCodec(jsonCodec{})
}

// Server wraps a grpc.Server bound to the agent's Unix socket.
// Authentication happens once per accepted connection via SO_PEERCRED
// rather than per-RPC via client certificates, since the transport is a
// local socket with a single legitimate peer.
type Server struct {
	grpcServer *grpc.Server
}

// New constructs a Server ready to Serve once a peer-gated listener is
// available.
func New(f *facade.Facade) *Server {
	s := grpc.NewServer()
	s.RegisterService(&serviceDesc, &handlers{facade: f})
	return &Server{grpcServer: s}
}

// Serve accepts connections from lis, wraps it in the peer-credential
// gate, and blocks serving gRPC until the listener is closed.
func (s *Server) Serve(lis *net.UnixListener, expectedUID uint32) error {
	return s.grpcServer.Serve(&gatedListener{UnixListener: lis, expectedUID: expectedUID})
}

// GracefulStop stops the server once in-flight RPCs complete.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

// gatedListener filters Accept to only ever return connections whose peer
// credentials pass peerauth.Allowed. Rejected connections are closed and
// never handed to gRPC, so they never receive so much as an HTTP/2
// preface.
type gatedListener struct {
	*net.UnixListener
	expectedUID uint32
}

func (g *gatedListener) Accept() (net.Conn, error) {
	for {
		conn, err := g.UnixListener.AcceptUnix()
		if err != nil {
			return nil, err
		}

		creds, err := peerauth.Read(conn)
		if err != nil {
			klog.WithComponent("rpcserver").Warn().Err(err).Msg("failed to read peer credentials, closing")
			_ = conn.Close()
			continue
		}

		if !peerauth.Allowed(creds, g.expectedUID) {
			klog.WithComponent("rpcserver").Warn().
				Uint32("uid", creds.UID).
				Uint32("gid", creds.GID).
				Msg("rejected connection from unauthorized peer")
			_ = conn.Close()
			continue
		}

		return conn, nil
	}
}
