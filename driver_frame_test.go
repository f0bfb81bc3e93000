package wlcore

import "testing"

// fakeBufferProvider hands out monotonically increasing ids and
// distinct backing slices so a test can tell buffers apart.
type fakeBufferProvider struct {
	nextId    Id
	destroyed []Id
}

func (f *fakeBufferProvider) MakeBuffer(d *Driver, surfaceId Id, w, h uint32, pf PixelFormat) (Id, []byte, int, error) {
	f.nextId++
	return f.nextId, make([]byte, w*h*4), -1, nil
}

func (f *fakeBufferProvider) ResizeBuffer(d *Driver, surfaceId Id, oldBufferId Id, w, h uint32) (Id, []byte, int, error) {
	f.destroyed = append(f.destroyed, oldBufferId)
	return f.MakeBuffer(d, surfaceId, w, h, PixelFormatARGB8888)
}

func configuredPresenter(d *Driver, backend BufferProvider) *Presenter {
	surf := &SurfaceHandler{width: 100, height: 100}
	surfId := d.reg.NewIdRegistered(surf)
	xs := &XdgSurfaceHandler{parentSurface: surfId, configured: true}
	xsId := d.reg.NewIdRegistered(xs)
	return &Presenter{SurfaceId: surfId, XdgSurfaceId: xsId, Backend: backend, PixelFormat: PixelFormatARGB8888}
}

func TestAdvancePresenterMakesInitialBufferAtSurfaceSize(t *testing.T) {
	d := newTestDriver()
	backend := &fakeBufferProvider{}
	p := configuredPresenter(d, backend)

	if err := d.advancePresenter(p, nil); err != nil {
		t.Fatalf("advancePresenter error: %v", err)
	}
	if !p.hasBuffer {
		t.Fatalf("expected a buffer to be made once configured")
	}
	if p.bufferW != 100 || p.bufferH != 100 {
		t.Fatalf("cached buffer size = %dx%d, want 100x100", p.bufferW, p.bufferH)
	}
	if len(p.bufferBuf) != 100*100*4 {
		t.Fatalf("buffer slice length = %d, want %d", len(p.bufferBuf), 100*100*4)
	}
}

// TestAdvancePresenterRefreshesCacheOnResize is the regression test for
// the stale-buffer-cache bug: once the surface's logical size changes
// underneath an already-presenting buffer, the presenter's own
// bufferId/bufferBuf/bufferFd must track the new buffer the backend
// made, not the one it just destroyed.
func TestAdvancePresenterRefreshesCacheOnResize(t *testing.T) {
	d := newTestDriver()
	backend := &fakeBufferProvider{}
	p := configuredPresenter(d, backend)

	if err := d.advancePresenter(p, nil); err != nil {
		t.Fatalf("initial advancePresenter error: %v", err)
	}
	firstBufId := p.bufferId
	firstBuf := p.bufferBuf

	h, _ := d.reg.Find(p.SurfaceId)
	surf := h.(*SurfaceHandler)
	surf.resize(500, 500) // simulates Action::Resize from an xdg_toplevel.configure

	if err := d.advancePresenter(p, nil); err != nil {
		t.Fatalf("resize advancePresenter error: %v", err)
	}

	if p.bufferId == firstBufId {
		t.Fatalf("presenter's cached buffer id did not change after a resize")
	}
	if len(backend.destroyed) != 1 || backend.destroyed[0] != firstBufId {
		t.Fatalf("expected the old buffer id %d to be destroyed exactly once, got %v", firstBufId, backend.destroyed)
	}
	if &p.bufferBuf[0] == &firstBuf[0] {
		t.Fatalf("presenter's cached buffer slice still points at the old (now-destroyed) buffer")
	}
	if p.bufferW != 500 || p.bufferH != 500 {
		t.Fatalf("cached buffer size after resize = %dx%d, want 500x500", p.bufferW, p.bufferH)
	}
	if len(p.bufferBuf) != 500*500*4 {
		t.Fatalf("buffer slice length after resize = %d, want %d", len(p.bufferBuf), 500*500*4)
	}

	// The attach the resize step issues must name the new id, never the
	// destroyed one.
	found := false
	for _, c := range d.consequences {
		if c.Tag != ConsequenceEmitRequest {
			continue
		}
		want, _ := NewEncoder(p.SurfaceId, opSurfaceAttach).PutUint32(uint32(p.bufferId)).PutUint32(0).PutUint32(0).Finish()
		if string(c.Request.Bytes) == string(want) {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an attach(surface, %d) request among consequences", p.bufferId)
	}
}
