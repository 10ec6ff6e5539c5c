// Package rpcerr carries a small error taxonomy through component return
// values without coupling those components to gRPC. Every internal/*
// package returns plain errors; only the RPC facade in internal/rpcserver
// translates a rpcerr.Kind into a grpc/status code, keeping that
// translation in one place.
package rpcerr

import (
	"errors"
	"fmt"
)

// Kind is one of the agent's error taxonomy entries.
type Kind int

const (
	Internal Kind = iota
	InvalidArgument
	PermissionDenied
	Cancelled
)

// Error pairs a Kind with the underlying cause. Components construct these
// directly only at the point a validation or authorization decision is
// made; everything else is a plain wrapped error, which the facade treats
// as Internal by default.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string { return e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func InvalidArgumentf(format string, a ...interface{}) error {
	return &Error{Kind: InvalidArgument, Err: fmt.Errorf(format, a...)}
}

func PermissionDeniedf(format string, a ...interface{}) error {
	return &Error{Kind: PermissionDenied, Err: fmt.Errorf(format, a...)}
}

func Internalf(format string, a ...interface{}) error {
	return &Error{Kind: Internal, Err: fmt.Errorf(format, a...)}
}

// KindOf inspects err for an *Error and returns its Kind, defaulting to
// Internal for any plain error a component returned without classifying it
// (subprocess failures, filesystem errors, and the like).
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return Internal
}
