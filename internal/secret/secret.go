// Package secret implements a single-owner byte buffer with scoped
// exposure and guaranteed zero-on-drop, for carrying SSH keys and TLS
// private keys through the deployment pipeline without leaving copies of
// their bytes lying around in memory.
package secret

import (
	"fmt"
	"runtime"
	"sync"
)

// Secret is an opaque holder of sensitive bytes (an SSH key, a TLS private
// key). It has exactly one owner at a time. The only way to read the bytes
// is Use, which passes a reference into a caller-supplied callback and
// refuses to let the callback return anything that could alias the buffer.
// Destroy (explicit, or via the finalizer safety net) overwrites the buffer
// with zeros before it is released.
type Secret struct {
	mu        sync.Mutex
	buf       []byte
	destroyed bool
}

// New takes ownership of b. Callers must not retain b after calling New;
// Secret zero-copies it.
func New(b []byte) *Secret {
	s := &Secret{buf: b}
	runtime.SetFinalizer(s, func(s *Secret) { s.Destroy() })
	return s
}

// NonBorrowing is implemented by every permitted return type of a Use
// callback, as a static guard against passing back []byte/string views
// into the secret. Concrete result types the pipeline actually needs
// (success markers, error values) implement it trivially.
type NonBorrowing interface {
	sealed()
}

// Done is the canonical NonBorrowing result: "the callback ran, here is
// whatever error it produced."
type Done struct{ Err error }

func (Done) sealed() {}

// Use exposes the secret's bytes to fn for the duration of the call only.
// fn MUST NOT retain the slice it is given beyond its own return. The
// enclosing call is synchronous and must not be carried across a
// suspension point: callers invoke Use, do blocking I/O inside fn, and
// return — never hand the slice to a goroutine.
func (s *Secret) Use(fn func(b []byte) NonBorrowing) (NonBorrowing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, fmt.Errorf("secret: use of destroyed secret")
	}
	return fn(s.buf), nil
}

// Destroy overwrites the buffer with zero bytes. Safe to call more than
// once and safe to call on the error path as well as the success path —
// callers should defer it immediately after New.
func (s *Secret) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return
	}
	for i := range s.buf {
		s.buf[i] = 0
	}
	s.destroyed = true
}

// String never renders the contents, matching the Rust type's blocked
// Debug/Display impls.
func (s *Secret) String() string {
	return "[REDACTED SECRET]"
}

// GoString satisfies %#v the same way.
func (s *Secret) GoString() string {
	return "[REDACTED SECRET]"
}
