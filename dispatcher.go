package wlcore

import (
	"context"
	"log/slog"
)

// maxEmptyReads bounds how many times a work pass will retry a short
// non-blocking read before giving up for this pass, so a quiet socket
// never spins the caller's loop forever.
const maxEmptyReads = 10_000

// Driver owns the identifier registry and the transport, and drives
// one cooperative work pass at a time. It is not safe for concurrent
// use — the whole engine is single-threaded by design.
type Driver struct {
	reg    *Registry
	tr     *Transport
	logger *slog.Logger

	queue       []Action
	syncBarrier Id
	lastTraceId Id

	pending    []byte
	pendingFds []int

	consequences []Consequence
}

// NewDriver dials the compositor and pre-registers the display
// handler under id 1.
func NewDriver(logger *slog.Logger) (*Driver, error) {
	tr, err := Dial()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := &Driver{
		reg:    NewRegistry(),
		tr:     tr,
		logger: logger,
	}
	d.reg.Register(DisplayId, &DisplayHandler{})
	return d, nil
}

// Close closes the underlying transport.
func (d *Driver) Close() error {
	return d.tr.Close()
}

// Registry exposes the identifier registry so handler constructors
// outside this package (buffer backends) can allocate and register
// ids.
func (d *Driver) Registry() *Registry { return d.reg }

// emit queues bytes+fds directly as a Consequence::EmitRequest,
// bypassing the action queue — used by request-issuing helper methods
// that are not themselves reacting to an incoming event.
func (d *Driver) emit(buf []byte, fds []int) {
	d.consequences = append(d.consequences, Consequence{
		Tag:     ConsequenceEmitRequest,
		Request: Request{Bytes: buf, Fds: fds},
	})
}

// WorkPass performs one cooperative pass: drain one read, decode
// frames into events, process the action queue until empty or a sync
// barrier closes, then apply consequences in order.
func (d *Driver) WorkPass(ctx context.Context) error {
	if err := d.drainRead(); err != nil {
		return err
	}
	err := d.processQueue(ctx)
	d.flushConsequences(ctx)
	return err
}

func (d *Driver) drainRead() error {
	empty := 0
	for empty < maxEmptyReads {
		buf, fds, err := d.tr.Read()
		if err != nil {
			return err
		}
		if len(buf) == 0 && len(fds) == 0 {
			empty++
			if len(d.pending) == 0 {
				break
			}
			continue
		}
		d.pending = append(d.pending, buf...)
		d.pendingFds = append(d.pendingFds, fds...)
		break
	}
	frames, consumed, err := DecodeFrames(d.pending)
	if err != nil {
		return err
	}
	if consumed > 0 {
		rest := make([]byte, len(d.pending)-consumed)
		copy(rest, d.pending[consumed:])
		d.pending = rest
		d.routeFds(frames)
		d.pendingFds = nil
	}
	for _, f := range frames {
		d.queue = append(d.queue, Action{Tag: ActionEventResponse, Frame: f})
	}
	return nil
}

// routeFds hands out d.pendingFds to the frames that actually expect
// one, in decode order, rather than dumping the whole vector onto the
// last frame in the pass. A single read's ancillary data carries no
// per-message boundary of its own, so this is the one place that
// knows both the decode order and (via the registry) which handler a
// frame is headed for.
func (d *Driver) routeFds(frames []Frame) {
	if len(d.pendingFds) == 0 {
		return
	}
	next := 0
	for i := range frames {
		if next >= len(d.pendingFds) {
			return
		}
		if !d.frameExpectsFd(frames[i]) {
			continue
		}
		frames[i].Fds = d.pendingFds[next : next+1]
		next++
	}
}

// frameExpectsFd reports whether frame is a message documented to
// carry exactly one fd. zwp_linux_dmabuf_feedback_v1.format_table is
// the only such event this engine decodes.
func (d *Driver) frameExpectsFd(f Frame) bool {
	h, ok := d.reg.Find(f.Sender)
	if !ok {
		return false
	}
	_, ok = h.(*DmabufFeedbackHandler)
	return ok && f.Op == opFeedbackEventFormatTable
}

// processQueue drains the action queue. It returns nil both when the
// queue empties and when a sync barrier closes — both are ordinary
// ways for a pass to end; only decode/handler errors are returned.
func (d *Driver) processQueue(ctx context.Context) error {
	for len(d.queue) > 0 {
		act := d.queue[0]
		d.queue = d.queue[1:]

		switch act.Tag {
		case ActionEventResponse:
			h, ok := d.reg.Find(act.Frame.Sender)
			if !ok {
				d.trace(slog.LevelWarn, "dispatch", "event for unknown object")
				continue
			}
			produced, err := h.HandleEvent(act.Frame.Op, act.Frame.Body, act.Frame.Fds)
			if err != nil {
				return err
			}
			for i := range produced {
				if produced[i].Tag == ActionCallbackDone && produced[i].CbId == 0 {
					produced[i].CbId = act.Frame.Sender
				}
			}
			d.lastTraceId = act.Frame.Sender
			d.queue = append(append([]Action{}, produced...), d.queue...)

		case ActionEmitRequest:
			d.consequences = append(d.consequences, Consequence{Tag: ConsequenceEmitRequest, Request: act.Request})

		case ActionSync:
			d.syncBarrier = act.SyncId

		case ActionCallbackDone:
			if d.syncBarrier != 0 && act.CbId == d.syncBarrier {
				d.syncBarrier = 0
				return nil
			}
			d.trace(slog.LevelDebug, "callback", "callback done outside active barrier")

		case ActionProtocolError:
			d.consequences = append(d.consequences, Consequence{
				Tag:      ConsequenceLogTrace,
				Level:    slog.LevelError,
				TraceTag: "wl_display.error",
				Text:     act.ErrRec.Msg,
			})

		case ActionTrace:
			d.consequences = append(d.consequences, Consequence{
				Tag: ConsequenceLogTrace, Level: act.Level, TraceTag: act.TraceTag, Text: act.Text,
			})

		case ActionIdDeletion:
			d.consequences = append(d.consequences, Consequence{Tag: ConsequenceFreeId, FreeId: act.DelId})

		case ActionResize:
			d.applyResize(act)
		}
	}
	return nil
}

func (d *Driver) applyResize(act Action) {
	h, ok := d.reg.Find(act.Surface)
	if !ok {
		return
	}
	surf, ok := h.(*SurfaceHandler)
	if !ok {
		return
	}
	surf.resize(act.ResizeW, act.ResizeH)
}

func (d *Driver) trace(level slog.Level, tag, text string) {
	d.queue = append(d.queue, traceAction(level, tag, text))
}

func (d *Driver) flushConsequences(ctx context.Context) {
	for _, c := range d.consequences {
		switch c.Tag {
		case ConsequenceEmitRequest:
			if err := d.tr.Write(c.Request.Bytes, c.Request.Fds); err != nil {
				d.logger.ErrorContext(ctx, "write failed", "err", err)
			}
		case ConsequenceFreeId:
			d.reg.FreeId(c.FreeId)
		case ConsequenceLogTrace:
			d.logger.Log(ctx, c.Level, c.Text, "tag", c.TraceTag)
		}
	}
	d.consequences = d.consequences[:0]
}
