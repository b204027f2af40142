package core

import (
	"errors"
	"fanctl/protocol"
	"sync/atomic"
)

// ErrReentered is returned when HandleFrame is entered while a frame is
// already being handled.
var ErrReentered = errors.New("frame handler re-entered")

// ParseStage is the position inside a command frame.
type ParseStage uint8

const (
	AwaitBegin       ParseStage = iota // Expecting the begin marker
	AwaitCommandType                   // Expecting the command type byte
	AwaitArg                           // Expecting argument N of Cmd
)

// ParseState is the complete state of the frame parser.
type ParseState struct {
	Stage ParseStage
	Cmd   *Command
	Args  [MaxArgs]byte
	N     uint8 // Arguments collected so far
}

// Done reports whether no frame is in progress.
func (s ParseState) Done() bool {
	return s.Stage == AwaitBegin
}

// Engine parses command frames and executes them.
type Engine struct {
	registry *CommandRegistry
	mode     *ModeState
	clock    *Clock // Timestamps for the timing ring, may be nil
	busy     uint32 // atomic, set while HandleFrame runs
}

// NewEngine creates an engine dispatching to registry. Test-only commands
// are gated on mode.
func NewEngine(registry *CommandRegistry, mode *ModeState, clock *Clock) *Engine {
	return &Engine{registry: registry, mode: mode, clock: clock}
}

func (e *Engine) record(evt uint8, arg byte, v1 uint32) {
	var now uint32
	if e.clock != nil {
		now = e.clock.BootTime()
	}
	RecordTiming(evt, arg, now, v1, 0)
}

// received returns the bytes of the frame in progress.
func (s ParseState) received() []byte {
	if s.Stage == AwaitBegin {
		return nil
	}
	out := []byte{protocol.CmdBegin}
	if s.Cmd != nil {
		out = append(out, byte(s.Cmd.Type))
		out = append(out, s.Args[:s.N]...)
	}
	return out
}

// fail aborts the frame in s. extra holds the rejected byte, if any.
func (e *Engine) fail(s ParseState, arg, v1 byte, extra ...byte) (ParseState, []byte) {
	e.record(EvtFrameFailed, arg, uint32(v1))
	if IsDebugEnabled() {
		DebugPrintln("[PROTO] failed " + hexBytes(append(s.received(), extra...)))
	}
	return ParseState{}, protocol.Failed
}

// Step feeds one received byte to the parser. It returns the next state
// and the reply to send, if any. A begin marker anywhere after the first
// byte aborts the frame in progress with Failed and starts a new one.
func (e *Engine) Step(s ParseState, b byte) (ParseState, []byte) {
	if s.Stage == AwaitBegin {
		if b != protocol.CmdBegin {
			return e.fail(s, 0, b, b)
		}
		return ParseState{Stage: AwaitCommandType}, nil
	}

	if b == protocol.CmdBegin {
		var arg byte
		if s.Cmd != nil {
			arg = byte(s.Cmd.Type)
		}
		e.record(EvtResync, arg, uint32(s.Stage))
		return ParseState{Stage: AwaitCommandType}, protocol.Failed
	}

	if s.Stage == AwaitCommandType {
		cmd, ok := e.registry.GetCommand(protocol.CommandType(b))
		if !ok || cmd.Reserved() {
			return e.fail(s, b, b, b)
		}
		s = ParseState{Stage: AwaitArg, Cmd: cmd}
		if len(cmd.Args) == 0 {
			return e.execute(s)
		}
		return s, nil
	}

	if !s.Cmd.Args[s.N].Accepts(b) {
		return e.fail(s, byte(s.Cmd.Type), b, b)
	}
	s.Args[s.N] = b
	s.N++
	if int(s.N) < len(s.Cmd.Args) {
		return s, nil
	}
	return e.execute(s)
}

// Timeout aborts the frame in progress. The receive timeout also applies
// to the first byte of a frame, so it fails from every state.
func (e *Engine) Timeout(s ParseState) (ParseState, []byte) {
	e.record(EvtRxTimeout, 0, uint32(s.Stage))
	return ParseState{}, protocol.Failed
}

func (e *Engine) execute(s ParseState) (ParseState, []byte) {
	cmd := s.Cmd
	if cmd.TestOnly && e.mode.Get() != protocol.ModeTest {
		return e.fail(s, byte(cmd.Type), byte(e.mode.Get()))
	}
	reply, err := cmd.Handler(s.Args[:s.N])
	if err != nil || len(reply) == 0 {
		return e.fail(s, byte(cmd.Type), 0)
	}
	e.record(EvtFrame, byte(cmd.Type), uint32(reply[0]))
	return ParseState{}, reply
}

// HandleFrame reads and executes one frame from link, writing every reply
// as it is produced. It is the serial receive interrupt entry point and is
// not reentrant. Only link failures other than a receive timeout are
// returned; protocol errors are answered on the wire.
func (e *Engine) HandleFrame(link Link) error {
	if !atomic.CompareAndSwapUint32(&e.busy, 0, 1) {
		return ErrReentered
	}
	defer atomic.StoreUint32(&e.busy, 0)

	var s ParseState
	for {
		var reply []byte
		b, err := link.ReadByte(protocol.ReadTimeoutMicros)
		if err != nil {
			_, reply = e.Timeout(s)
			if werr := writeReply(link, reply); werr != nil {
				return werr
			}
			if err == ErrTimeout {
				return nil
			}
			return err
		}

		s, reply = e.Step(s, b)
		if err := writeReply(link, reply); err != nil {
			return err
		}
		if s.Done() {
			return nil
		}
	}
}

func writeReply(link Link, reply []byte) error {
	for _, b := range reply {
		if err := link.WriteByte(b); err != nil {
			return err
		}
	}
	return nil
}
