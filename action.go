package wlcore

import "log/slog"

// ActionTag discriminates the Action union. Go has no native sum
// type, so Action carries one tag and only the fields that tag uses —
// the closed set mirrors the source's action enum exactly.
type ActionTag int

const (
	ActionEmitRequest ActionTag = iota
	ActionEventResponse
	ActionSync
	ActionCallbackDone
	ActionProtocolError
	ActionTrace
	ActionIdDeletion
	ActionResize
)

// ProtocolErrorRecord is a server-signalled wl_display.error payload.
type ProtocolErrorRecord struct {
	Object Id
	Code   uint32
	Msg    string
}

// Request is a fully-encoded outgoing message plus its fds, produced
// by a handler and queued for the dispatcher to write.
type Request struct {
	Bytes []byte
	Fds   []int
}

// Action is produced by handlers and consumed by the dispatcher. Only
// the fields relevant to Tag are populated.
type Action struct {
	Tag ActionTag

	Request Request           // ActionEmitRequest
	Frame   Frame              // ActionEventResponse
	SyncId  Id                 // ActionSync
	CbId    Id                 // ActionCallbackDone
	CbData  uint32             // ActionCallbackDone
	ErrRec  ProtocolErrorRecord // ActionProtocolError
	Level   slog.Level         // ActionTrace
	TraceTag string            // ActionTrace (tag text)
	Text    string             // ActionTrace
	DelId   Id                 // ActionIdDeletion
	ResizeW uint32             // ActionResize
	ResizeH uint32             // ActionResize
	Surface Id                 // ActionResize (surface id to mutate)
}

// ConsequenceTag discriminates the Consequence union — the reduced
// set of effects the dispatcher applies after one decode pass.
type ConsequenceTag int

const (
	ConsequenceEmitRequest ConsequenceTag = iota
	ConsequenceFreeId
	ConsequenceLogTrace
)

// Consequence is what remains after the action queue drains: bytes to
// write, an id to free, or a trace to print.
type Consequence struct {
	Tag     ConsequenceTag
	Request Request
	FreeId  Id
	Level   slog.Level
	TraceTag string
	Text    string
}

func traceAction(level slog.Level, tag, text string) Action {
	return Action{Tag: ActionTrace, Level: level, TraceTag: tag, Text: text}
}
