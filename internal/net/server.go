package net

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Server accepts TCP connections and creates Sessions. Every session gets a
// pump goroutine running the handler passed to Serve.
type Server struct {
	listener net.Listener
	nextID   atomic.Uint64
	opts     SessionOptions
	sessions *SessionStore
	log      *zap.Logger
	closeCh  chan struct{}
	once     sync.Once
	wg       sync.WaitGroup
}

func NewServer(bindAddr string, opts SessionOptions, log *zap.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", bindAddr)
	if err != nil {
		return nil, err
	}
	s := &Server{
		listener: ln,
		opts:     opts,
		sessions: NewSessionStore(),
		log:      log,
		closeCh:  make(chan struct{}),
	}
	return s, nil
}

// Sessions returns the live session store.
func (s *Server) Sessions() *SessionStore { return s.sessions }

// Serve accepts connections until ctx is cancelled or Shutdown is called.
// pump owns the session until it returns; the session is closed afterwards.
func (s *Server) Serve(ctx context.Context, pump func(ctx context.Context, sess *Session)) error {
	go func() {
		select {
		case <-ctx.Done():
			s.Shutdown()
		case <-s.closeCh:
		}
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.closeCh:
				s.wg.Wait()
				return nil // server shutting down
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return err
			}
			s.log.Error("accept failed", zap.Error(err))
			continue
		}

		id := s.nextID.Add(1)
		sess := NewSession(conn, id, s.opts, s.log)
		sess.Start()
		s.sessions.Add(sess)
		s.log.Info("client connected", zap.Uint64("session", id), zap.String("ip", sess.IP))

		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer func() {
				sess.Close()
				s.sessions.Remove(sess.ID)
				s.log.Info("client disconnected", zap.Uint64("session", sess.ID))
			}()
			pump(ctx, sess)
		}()
	}
}

// Shutdown stops accepting new connections and closes every session.
func (s *Server) Shutdown() {
	s.once.Do(func() {
		close(s.closeCh)
		s.listener.Close()
		s.sessions.ForEach(func(sess *Session) { sess.Close() })
	})
}

// Addr returns the listener's address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}
