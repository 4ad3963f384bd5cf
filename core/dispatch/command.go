package dispatch

import (
	"context"
	"strconv"
)

// Keyer is implemented by commands that carry an application-supplied
// correlation key. Absent keys are treated as empty.
type Keyer interface {
	CommandKey() string
}

// ProcessCommand is the envelope handed to the downstream command
// transport.
type ProcessCommand struct {
	// ID is derived deterministically (see DeriveCommandID); the
	// receiving side dedups on it.
	ID        string `json:"id"`
	Type      string `json:"type"`
	ProcessID string `json:"process_id"`
	Key       string `json:"key,omitempty"`
	// EventID is the id of the event whose handling produced this
	// command.
	EventID string `json:"event_id"`
	Payload any    `json:"payload"`
}

// CommandSender forwards process commands to the downstream process
// manager.
type CommandSender interface {
	Send(ctx context.Context, cmd ProcessCommand) error
}

// DeriveCommandID derives the command id from the exception identity,
// the command key (may be empty) and the handler and command type
// codes. The derivation is pure: re-running the same (exception,
// handler, command type) combination yields the identical id, which
// lets the command receiver dedup re-dispatched commands.
func DeriveCommandID(exUniqueID, commandKey string, handlerCode, commandCode int) string {
	return exUniqueID + commandKey + strconv.Itoa(handlerCode) + strconv.Itoa(commandCode)
}

// SenderFunc adapts a function to CommandSender.
type SenderFunc func(ctx context.Context, cmd ProcessCommand) error

func (f SenderFunc) Send(ctx context.Context, cmd ProcessCommand) error { return f(ctx, cmd) }
