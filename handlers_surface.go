package wlcore

// SurfaceHandler implements wl_surface: (id, pixel_format, width,
// height, attached_buffer?). It owns no pixel memory directly; it
// references at most one attached buffer at a time by id.
type SurfaceHandler struct {
	id             Id
	pixelFormat    PixelFormat
	width, height  uint32
	attachedBuffer Id
	hasAttached    bool
}

func (h *SurfaceHandler) Kind() Kind { return KindSurface }

func (h *SurfaceHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	// wl_surface has no events relevant to this engine's scope
	// (enter/leave/preferred_buffer_scale concern output tracking,
	// explicitly out of scope).
	return nil, invalidOpCode(op, KindSurface)
}

const (
	opSurfaceAttach       OpCode = 1
	opSurfaceDamage       OpCode = 2
	opSurfaceFrame        OpCode = 3
	opSurfaceCommit       OpCode = 6
	opSurfaceDamageBuffer OpCode = 9
)

// Width and Height report the surface's current logical size.
func (h *SurfaceHandler) Width() uint32  { return h.width }
func (h *SurfaceHandler) Height() uint32 { return h.height }

// PixelFormat reports the format this surface renders in.
func (h *SurfaceHandler) PixelFormat() PixelFormat { return h.pixelFormat }

// AttachedBuffer reports whether a buffer is currently attached, and
// its id.
func (h *SurfaceHandler) AttachedBuffer() (Id, bool) { return h.attachedBuffer, h.hasAttached }

// resize records a compositor-proposed logical size. Provisioning a
// differently-sized buffer for it is the per-frame driver's job (see
// Driver.WorkPassFrame), not this handler's — the handler only tracks
// state, it never reaches into a buffer backend.
func (h *SurfaceHandler) resize(w, hgt uint32) {
	h.width, h.height = w, hgt
}

// Attach requests wl_surface.attach(buffer, 0, 0).
func (d *Driver) Attach(surfaceId, bufferId Id) {
	req, _ := NewEncoder(surfaceId, opSurfaceAttach).PutUint32(uint32(bufferId)).PutUint32(0).PutUint32(0).Finish()
	d.emit(req, nil)
	if h, ok := d.reg.Find(surfaceId); ok {
		if s, ok := h.(*SurfaceHandler); ok {
			s.attachedBuffer = bufferId
			s.hasAttached = true
		}
	}
	if h, ok := d.reg.Find(bufferId); ok {
		if b, ok := h.(*BufferHandler); ok {
			b.MarkInUse()
		}
	}
}

// Frame requests wl_surface.frame, registering a new CallbackHandler
// under a fresh id and returning it.
func (d *Driver) Frame(surfaceId Id) Id {
	cb := &CallbackHandler{}
	id := d.reg.NewIdRegistered(cb)
	req, _ := NewEncoder(surfaceId, opSurfaceFrame).PutUint32(uint32(id)).Finish()
	d.emit(req, nil)
	return id
}

// DamageBuffer requests wl_surface.damage_buffer(x, y, w, h).
func (d *Driver) DamageBuffer(surfaceId Id, x, y, w, h uint32) {
	req, _ := NewEncoder(surfaceId, opSurfaceDamageBuffer).
		PutUint32(x).PutUint32(y).PutUint32(w).PutUint32(h).Finish()
	d.emit(req, nil)
}

// Repaint damages the full extent of the surface's current size.
func (d *Driver) Repaint(surfaceId Id) {
	h, ok := d.reg.Find(surfaceId)
	if !ok {
		return
	}
	s, ok := h.(*SurfaceHandler)
	if !ok {
		return
	}
	d.DamageBuffer(surfaceId, 0, 0, s.width, s.height)
}

// Commit requests wl_surface.commit.
func (d *Driver) Commit(surfaceId Id) {
	req, _ := NewEncoder(surfaceId, opSurfaceCommit).Finish()
	d.emit(req, nil)
}
