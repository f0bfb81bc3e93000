package wlcore

// CompositorHandler implements wl_compositor. It has no events.
type CompositorHandler struct{}

func (h *CompositorHandler) Kind() Kind { return KindCompositor }

func (h *CompositorHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	return nil, invalidOpCode(op, KindCompositor)
}

const opCompositorCreateSurface OpCode = 0

// CreateSurface requests wl_compositor.create_surface, registering a
// new SurfaceHandler for pf (the format the caller intends to render
// in) under a fresh id.
func (d *Driver) CreateSurface(compositorId Id, pf PixelFormat) Id {
	surf := &SurfaceHandler{pixelFormat: pf}
	id := d.reg.NewIdRegistered(surf)
	req, _ := NewEncoder(compositorId, opCompositorCreateSurface).PutUint32(uint32(id)).Finish()
	d.emit(req, nil)
	return id
}
