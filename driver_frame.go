package wlcore

import "context"

// Snapshot is handed to a render callback just before a repaint: a
// write-through view into the current buffer (for the shm path; nil
// on the dma-buf path, where Fd is valid instead and the caller maps
// it through its own graphics stack), its dimensions, pixel format, a
// monotonic frame counter, and the presenter id.
type Snapshot struct {
	Buf          []byte
	Fd           int
	Width        uint32
	Height       uint32
	PixelFormat  PixelFormat
	FrameCounter uint64
	PresenterId  int
}

// RenderFunc is invoked once per frame for a presenter that is ready
// to draw.
type RenderFunc func(snap Snapshot)

// BufferProvider is implemented by a buffer-provisioning backend
// (shmbackend or dmabackend). The per-frame driver only knows it
// needs *a* buffer of a given size and format — it has no opinion on
// how the backend gets there.
type BufferProvider interface {
	MakeBuffer(d *Driver, surfaceId Id, w, h uint32, pf PixelFormat) (bufferId Id, buf []byte, fd int, err error)
	ResizeBuffer(d *Driver, surfaceId Id, oldBufferId Id, w, h uint32) (newBufferId Id, buf []byte, fd int, err error)
}

// Presenter is one live top-level window being driven by WorkPassFrame.
// It is built by the external top-level-window collaborator (out of
// scope for this engine) using the primitives exported elsewhere in
// this package, then handed to the driver to pace.
type Presenter struct {
	Id            int
	SurfaceId     Id
	XdgSurfaceId  Id
	ToplevelId    Id
	Backend       BufferProvider
	PixelFormat   PixelFormat

	wantsClose bool
	finished   bool

	frameCallback    Id
	hasFrameCallback bool

	bufferId         Id
	bufferBuf        []byte
	bufferFd         int
	hasBuffer        bool
	bufferW, bufferH uint32

	frameCounter uint64
}

// RequestClose marks that the application wants this presenter to
// close on the next compositor acknowledgement.
func (p *Presenter) RequestClose() { p.wantsClose = true }

// Finished reports whether this presenter has been reaped.
func (p *Presenter) Finished() bool { return p.finished }

// WorkPassFrame performs one pumped work pass followed by the
// five-step per-presenter frame algorithm: pump events, reap
// close-requested presenters once the compositor agrees, attach a
// first buffer once configured, otherwise render and recommit once
// the previous frame callback has fired, then drop finished
// presenters from the caller's slice. It returns the surviving
// presenter slice and whether all presenters are now finished.
func (d *Driver) WorkPassFrame(ctx context.Context, presenters []*Presenter, render RenderFunc) ([]*Presenter, bool, error) {
	if err := d.WorkPass(ctx); err != nil {
		return presenters, false, err
	}

	for _, p := range presenters {
		if p.finished {
			continue
		}
		if err := d.advancePresenter(p, render); err != nil {
			return presenters, false, err
		}
	}

	survivors := presenters[:0]
	allFinished := true
	for _, p := range presenters {
		if p.finished {
			continue
		}
		survivors = append(survivors, p)
		allFinished = false
	}
	return survivors, allFinished, nil
}

// advancePresenter runs one presenter through a single step of the
// per-frame algorithm. Split out from WorkPassFrame so it can be
// exercised directly against a fake BufferProvider without a live
// transport.
func (d *Driver) advancePresenter(p *Presenter, render RenderFunc) error {
	if p.wantsClose {
		if h, ok := d.reg.Find(p.ToplevelId); ok {
			if tl, ok := h.(*XdgToplevelHandler); ok && tl.CloseRequested() {
				p.finished = true
				return nil
			}
		}
	}

	xh, ok := d.reg.Find(p.XdgSurfaceId)
	if !ok {
		return nil
	}
	xs, ok := xh.(*XdgSurfaceHandler)
	if !ok || !xs.IsConfigured() {
		return nil
	}

	sh, ok := d.reg.Find(p.SurfaceId)
	if !ok {
		return nil
	}
	surf := sh.(*SurfaceHandler)

	if !p.hasBuffer {
		w, h := surf.Width(), surf.Height()
		if w == 0 || h == 0 {
			w, h = 1, 1
		}
		bufId, buf, fd, err := p.Backend.MakeBuffer(d, p.SurfaceId, w, h, p.PixelFormat)
		if err != nil {
			return err
		}
		p.bufferId, p.bufferBuf, p.bufferFd, p.hasBuffer = bufId, buf, fd, true
		p.bufferW, p.bufferH = w, h
		d.Attach(p.SurfaceId, bufId)
		d.Commit(p.SurfaceId)
		return nil
	}

	// A later configure can propose a new logical size for an
	// already-presenting surface. The backend may remap its pool
	// (growing it invalidates the old slice) and always destroys the
	// old wl_buffer id, so the presenter's own cache of
	// bufferId/bufferBuf/bufferFd must be refreshed here — letting a
	// buffer backend attach/commit on the surface's behalf would leave
	// this cache pointing at unmapped memory and a destroyed id.
	if w, h := surf.Width(), surf.Height(); w > 0 && h > 0 && (w != p.bufferW || h != p.bufferH) {
		newId, buf, fd, err := p.Backend.ResizeBuffer(d, p.SurfaceId, p.bufferId, w, h)
		if err != nil {
			return err
		}
		p.bufferId, p.bufferBuf, p.bufferFd = newId, buf, fd
		p.bufferW, p.bufferH = w, h
		d.Attach(p.SurfaceId, newId)
		d.Commit(p.SurfaceId)
		return nil
	}

	ready := !p.hasFrameCallback
	if p.hasFrameCallback {
		if h, ok := d.reg.Find(p.frameCallback); ok {
			if cb, ok := h.(*CallbackHandler); ok && cb.Done() {
				ready = true
			}
		}
	}
	if !ready {
		return nil
	}

	p.frameCallback = d.Frame(p.SurfaceId)
	p.hasFrameCallback = true
	p.frameCounter++

	if render != nil {
		render(Snapshot{
			Buf:          p.bufferBuf,
			Fd:           p.bufferFd,
			Width:        surf.Width(),
			Height:       surf.Height(),
			PixelFormat:  p.PixelFormat,
			FrameCounter: p.frameCounter,
			PresenterId:  p.Id,
		})
	}

	d.Attach(p.SurfaceId, p.bufferId)
	d.Repaint(p.SurfaceId)
	d.Commit(p.SurfaceId)
	return nil
}
