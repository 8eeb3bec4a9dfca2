package packet

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"
)

// SessionState is the protocol phase of a connection.
type SessionState int

const (
	StateHandshake SessionState = iota
	// StateReady follows an accepted C_VERSION; combat packets are allowed.
	StateReady
	StateDisconnecting
)

func (s SessionState) String() string {
	switch s {
	case StateHandshake:
		return "handshake"
	case StateReady:
		return "ready"
	case StateDisconnecting:
		return "disconnecting"
	default:
		return fmt.Sprintf("SessionState(%d)", int(s))
	}
}

var (
	ErrUnknownOpcode = errors.New("unknown opcode")
	ErrNotAllowed    = errors.New("opcode not allowed")
	ErrEmptyPacket   = errors.New("empty packet")
)

// HandlerFunc handles one packet. sess is whatever the caller passed to
// Dispatch, so this package stays free of session types.
type HandlerFunc func(sess any, r *Reader)

type route struct {
	fn     HandlerFunc
	states []SessionState
}

func (rt route) allows(st SessionState) bool {
	for _, s := range rt.states {
		if s == st {
			return true
		}
	}
	return false
}

// Registry routes opcodes to handlers, gated by session state.
type Registry struct {
	routes map[byte]route
	log    *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{routes: make(map[byte]route), log: log}
}

// Register binds an opcode to fn for the given states. Registering an opcode
// twice replaces the earlier route.
func (reg *Registry) Register(opcode byte, states []SessionState, fn HandlerFunc) {
	reg.routes[opcode] = route{fn: fn, states: append([]SessionState(nil), states...)}
}

// Opcodes lists the registered opcodes in ascending order.
func (reg *Registry) Opcodes() []byte {
	out := make([]byte, 0, len(reg.routes))
	for op := range reg.routes {
		out = append(out, op)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Dispatch runs the handler for data[0] if the session state allows it.
// A handler panic is recovered and returned as an error.
func (reg *Registry) Dispatch(sess any, state SessionState, data []byte) error {
	if len(data) == 0 {
		return ErrEmptyPacket
	}
	opcode := data[0]
	reg.log.Debug("RX",
		zap.String("op", fmt.Sprintf("0x%02X", opcode)),
		zap.Int("len", len(data)),
		zap.Stringer("state", state),
	)

	rt, ok := reg.routes[opcode]
	if !ok {
		return fmt.Errorf("%w: 0x%02X", ErrUnknownOpcode, opcode)
	}
	if !rt.allows(state) {
		reg.log.Warn("opcode not allowed in state",
			zap.String("op", fmt.Sprintf("0x%02X", opcode)),
			zap.Stringer("state", state),
		)
		return fmt.Errorf("%w: 0x%02X in state %s", ErrNotAllowed, opcode, state)
	}
	return reg.safeCall(rt.fn, sess, NewReader(data), opcode)
}

// safeCall runs a handler so one bad packet only costs its own session.
func (reg *Registry) safeCall(fn HandlerFunc, sess any, r *Reader, opcode byte) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			reg.log.Error("packet handler panic recovered",
				zap.String("op", fmt.Sprintf("0x%02X", opcode)),
				zap.Any("panic", rec),
			)
			err = fmt.Errorf("handler panic for opcode 0x%02X: %v", opcode, rec)
		}
	}()
	fn(sess, r)
	return nil
}
