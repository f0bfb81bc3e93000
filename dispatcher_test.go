package wlcore

import (
	"context"
	"encoding/binary"
	"testing"
)

func newTestDriver() *Driver {
	d := &Driver{reg: NewRegistry()}
	d.reg.Register(DisplayId, &DisplayHandler{})
	return d
}

func TestSyncBarrierClearsAndStopsProcessingQueue(t *testing.T) {
	d := newTestDriver()
	cb := &CallbackHandler{}
	cbId := d.reg.NewIdRegistered(cb)

	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, 1234)

	d.queue = []Action{
		{Tag: ActionSync, SyncId: cbId},
		{Tag: ActionEventResponse, Frame: Frame{Sender: cbId, Op: opCallbackEventDone, Body: body}},
		traceAction(0, "late", "should not be flushed this pass"),
	}

	if err := d.processQueue(context.Background()); err != nil {
		t.Fatalf("processQueue error: %v", err)
	}

	for _, c := range d.consequences {
		if c.Tag == ConsequenceLogTrace && c.TraceTag == "late" {
			t.Fatalf("trace queued after the sync barrier should not have been processed this pass")
		}
	}
	if len(d.queue) != 1 {
		t.Fatalf("expected the post-barrier trace action to remain queued, got %d items", len(d.queue))
	}
}

func TestXdgSurfaceConfigureQueuesAckConfigure(t *testing.T) {
	d := newTestDriver()
	xs := &XdgSurfaceHandler{parentSurface: 10}
	xsId := d.reg.NewIdRegistered(xs)

	body := make([]byte, 4)
	binary.LittleEndian.PutUint32(body, 0x2A)

	d.queue = []Action{
		{Tag: ActionEventResponse, Frame: Frame{Sender: xsId, Op: opXdgSurfaceEventConfigure, Body: body}},
	}
	if err := d.processQueue(context.Background()); err != nil {
		t.Fatalf("processQueue error: %v", err)
	}
	if !xs.IsConfigured() {
		t.Fatalf("expected is_configured = true after configure event")
	}

	want, _ := NewEncoder(xsId, opXdgSurfaceAckConfigure).PutUint32(0x2A).Finish()
	found := false
	for _, c := range d.consequences {
		if c.Tag == ConsequenceEmitRequest && string(c.Request.Bytes) == string(want) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an ack_configure(0x2A) request among consequences, got %+v", d.consequences)
	}
}

func TestEventResponseActionsPushToFrontOfQueue(t *testing.T) {
	d := newTestDriver()
	xs := &XdgWmBaseHandler{}
	xsId := d.reg.NewIdRegistered(xs)

	pingBody := make([]byte, 4)
	binary.LittleEndian.PutUint32(pingBody, 99)

	laterTrace := traceAction(0, "later-event", "")
	d.queue = []Action{
		{Tag: ActionEventResponse, Frame: Frame{Sender: xsId, Op: opXdgWmBaseEventPing, Body: pingBody}},
		laterTrace,
	}

	var emitOrder []string
	origLen := len(d.queue)
	_ = origLen
	if err := d.processQueue(context.Background()); err != nil {
		t.Fatalf("processQueue error: %v", err)
	}
	for _, c := range d.consequences {
		if c.Tag == ConsequenceEmitRequest {
			emitOrder = append(emitOrder, "pong")
		}
		if c.Tag == ConsequenceLogTrace && c.TraceTag == "later-event" {
			emitOrder = append(emitOrder, "later-event")
		}
	}
	if len(emitOrder) != 2 || emitOrder[0] != "pong" || emitOrder[1] != "later-event" {
		t.Fatalf("expected pong before later-event trace, got %v", emitOrder)
	}
}

func TestUnknownObjectIdTracesInsteadOfFailing(t *testing.T) {
	d := newTestDriver()
	d.queue = []Action{
		{Tag: ActionEventResponse, Frame: Frame{Sender: 999, Op: 0, Body: nil}},
	}
	if err := d.processQueue(context.Background()); err != nil {
		t.Fatalf("unexpected error for unknown object id: %v", err)
	}
}

func TestInvalidOpCodeIsReturnedAsError(t *testing.T) {
	d := newTestDriver()
	surf := &SurfaceHandler{}
	surfId := d.reg.NewIdRegistered(surf)
	d.queue = []Action{
		{Tag: ActionEventResponse, Frame: Frame{Sender: surfId, Op: 255, Body: nil}},
	}
	err := d.processQueue(context.Background())
	if err == nil {
		t.Fatalf("expected invalid opcode error")
	}
	var wantErr *Error
	if !errorsAs(err, &wantErr) || wantErr.Kind != KindErrInvalidOpCode {
		t.Fatalf("expected *Error{Kind: InvalidOpCode}, got %v", err)
	}
}

func TestActionResizeUpdatesSurfaceDimensionsOnly(t *testing.T) {
	d := newTestDriver()
	surf := &SurfaceHandler{}
	surfId := d.reg.NewIdRegistered(surf)

	d.queue = []Action{
		{Tag: ActionResize, Surface: surfId, ResizeW: 640, ResizeH: 480},
	}
	if err := d.processQueue(context.Background()); err != nil {
		t.Fatalf("processQueue error: %v", err)
	}
	if surf.Width() != 640 || surf.Height() != 480 {
		t.Fatalf("surface dimensions = %dx%d, want 640x480", surf.Width(), surf.Height())
	}
	if len(d.consequences) != 0 {
		t.Fatalf("ActionResize should not by itself emit any request, got %+v", d.consequences)
	}
}

// TestRouteFdsTargetsTheFrameThatExpectsOne is the regression test for
// the fd mis-routing bug: fds must follow the frame whose handler
// actually expects them, in decode order, not land on whichever frame
// happens to be last in the pass.
func TestRouteFdsTargetsTheFrameThatExpectsOne(t *testing.T) {
	d := newTestDriver()
	fb := &DmabufFeedbackHandler{}
	fbId := d.reg.NewIdRegistered(fb)
	surf := &SurfaceHandler{}
	surfId := d.reg.NewIdRegistered(surf)

	frames := []Frame{
		{Sender: fbId, Op: opFeedbackEventFormatTable, Body: make([]byte, 4)},
		{Sender: surfId, Op: opSurfaceAttach, Body: make([]byte, 4)},
	}
	d.pendingFds = []int{42}

	d.routeFds(frames)

	if len(frames[0].Fds) != 1 || frames[0].Fds[0] != 42 {
		t.Fatalf("expected the fd to land on the format_table frame, got %+v", frames[0].Fds)
	}
	if len(frames[1].Fds) != 0 {
		t.Fatalf("expected the trailing frame to carry no fd, got %+v", frames[1].Fds)
	}
}

func errorsAs(err error, target **Error) bool {
	e, ok := err.(*Error)
	if !ok {
		return false
	}
	*target = e
	return true
}
