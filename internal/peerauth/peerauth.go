// Package peerauth implements the accept-time peer-credential gate for the
// agent's Unix socket: a connection is handed to the RPC layer iff the
// peer's effective UID equals the configured brain UID, or is root.
package peerauth

import (
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// Credentials is the kernel-reported identity of a Unix socket peer.
type Credentials struct {
	PID int32
	UID uint32
	GID uint32
}

// Read retrieves the peer credentials of conn via SO_PEERCRED. conn must be
// a *net.UnixConn obtained from a UnixListener.
func Read(conn *net.UnixConn) (Credentials, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return Credentials{}, fmt.Errorf("peerauth: syscall conn: %w", err)
	}

	var ucred *unix.Ucred
	var sockErr error
	ctrlErr := raw.Control(func(fd uintptr) {
		ucred, sockErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if ctrlErr != nil {
		return Credentials{}, fmt.Errorf("peerauth: control: %w", ctrlErr)
	}
	if sockErr != nil {
		return Credentials{}, fmt.Errorf("peerauth: getsockopt SO_PEERCRED: %w", sockErr)
	}

	return Credentials{PID: ucred.Pid, UID: ucred.Uid, GID: ucred.Gid}, nil
}

// Allowed reports whether a peer with the given credentials may be handed
// to the RPC layer: its UID must match expectedUID, or it must be root.
func Allowed(creds Credentials, expectedUID uint32) bool {
	return creds.UID == expectedUID || creds.UID == 0
}
