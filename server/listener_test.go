package server

import (
	"errors"
	"net"
	"sync"
)

// mockListener blocks in Accept until it is closed.
type mockListener struct {
	mu     sync.Mutex
	once   sync.Once
	closed chan struct{}
}

func (ln *mockListener) closedChan() chan struct{} {
	ln.mu.Lock()
	defer ln.mu.Unlock()
	if ln.closed == nil {
		ln.closed = make(chan struct{})
	}
	return ln.closed
}

func (ln *mockListener) Accept() (net.Conn, error) {
	<-ln.closedChan()
	return nil, errors.New("listener closed")
}

func (ln *mockListener) Close() error {
	ln.once.Do(func() {
		close(ln.closedChan())
	})
	return nil
}

func (ln *mockListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}
