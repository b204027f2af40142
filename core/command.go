package core

import (
	"errors"
	"fanctl/protocol"
	"sync"
)

// MaxArgs is the largest number of argument bytes any command takes.
const MaxArgs = 2

// ErrUnknownCommand is returned by Dispatch for unregistered command types.
var ErrUnknownCommand = errors.New("unknown command")

// ErrReserved is returned by Dispatch for commands that are part of the
// wire format but not implemented.
var ErrReserved = errors.New("reserved command")

// ArgKind names the value set an argument byte is checked against.
type ArgKind uint8

const (
	ArgMode         ArgKind = iota // protocol.FirmwareMode
	ArgReadablePort                // protocol.ReadablePort
	ArgWritablePort                // protocol.WritablePort
	ArgBool                        // 0 or 1
)

// Accepts reports whether b is a legal value for the argument.
func (k ArgKind) Accepts(b byte) bool {
	switch k {
	case ArgMode:
		return protocol.FirmwareMode(b).Valid()
	case ArgReadablePort:
		return protocol.ReadablePort(b).Valid()
	case ArgWritablePort:
		return protocol.WritablePort(b).Valid()
	case ArgBool:
		return b == 0 || b == 1
	}
	return false
}

// CommandHandler executes a command with its validated argument bytes and
// returns the complete reply. An error makes the engine reply Failed.
type CommandHandler func(args []byte) ([]byte, error)

// Command describes one command type
type Command struct {
	Type     protocol.CommandType
	Name     string
	Args     []ArgKind
	TestOnly bool // Rejected unless the firmware is in test mode
	Handler  CommandHandler
}

// Reserved reports whether the command has no implementation.
func (c *Command) Reserved() bool {
	return c.Handler == nil
}

// CommandRegistry holds all registered commands
type CommandRegistry struct {
	mu       sync.RWMutex
	commands map[protocol.CommandType]*Command
}

// NewCommandRegistry creates a new command registry
func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[protocol.CommandType]*Command),
	}
}

// Register adds a command to the registry, replacing any earlier entry
// for the same type.
func (r *CommandRegistry) Register(cmd Command) *Command {
	if len(cmd.Args) > MaxArgs {
		panic("command " + cmd.Type.String() + " takes too many arguments")
	}
	if cmd.Name == "" {
		cmd.Name = cmd.Type.String()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	c := &cmd
	r.commands[cmd.Type] = c
	return c
}

// RegisterReserved registers a command type that is recognized on the
// wire but always fails.
func (r *CommandRegistry) RegisterReserved(t protocol.CommandType) *Command {
	return r.Register(Command{Type: t})
}

// GetCommand retrieves a command by type byte
func (r *CommandRegistry) GetCommand(t protocol.CommandType) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.commands[t]
	return cmd, ok
}

// Count returns the number of registered commands
func (r *CommandRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch calls the handler of command t with already validated arguments.
func (r *CommandRegistry) Dispatch(t protocol.CommandType, args []byte) ([]byte, error) {
	cmd, ok := r.GetCommand(t)
	if !ok {
		return nil, ErrUnknownCommand
	}
	if cmd.Reserved() {
		return nil, ErrReserved
	}
	return cmd.Handler(args)
}

// Names returns "name=0xNN" entries for every registered command in type
// order, for the boot banner.
func (r *CommandRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []string
	for t := 0; t < 256; t++ {
		cmd, ok := r.commands[protocol.CommandType(t)]
		if !ok {
			continue
		}
		entry := cmd.Name + "=0x" + hex8(byte(t))
		if cmd.Reserved() {
			entry += " (reserved)"
		}
		out = append(out, entry)
	}
	return out
}
