package wlcore

// XdgSurfaceHandler implements xdg_surface: (id, is_configured, parent
// wl_surface). Once configured it stays configured for the object's
// lifetime.
type XdgSurfaceHandler struct {
	id            Id
	parentSurface Id
	configured    bool
}

func (h *XdgSurfaceHandler) Kind() Kind       { return KindXdgSurface }
func (h *XdgSurfaceHandler) setSelfId(id Id) { h.id = id }

const (
	opXdgSurfaceEventConfigure OpCode = 0
	opXdgSurfaceGetToplevel    OpCode = 1
	opXdgSurfaceAckConfigure   OpCode = 4
)

func (h *XdgSurfaceHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	if op != opXdgSurfaceEventConfigure {
		return nil, invalidOpCode(op, KindXdgSurface)
	}
	serial := u32At(body, 0)
	h.configured = true
	req, _ := NewEncoder(h.id, opXdgSurfaceAckConfigure).PutUint32(serial).Finish()
	return []Action{{Tag: ActionEmitRequest, Request: Request{Bytes: req}}}, nil
}

// IsConfigured reports whether the first configure/ack_configure
// round-trip has completed.
func (h *XdgSurfaceHandler) IsConfigured() bool { return h.configured }

// ParentSurface returns the wl_surface id this xdg_surface wraps.
func (h *XdgSurfaceHandler) ParentSurface() Id { return h.parentSurface }

// GetTopLevel requests xdg_surface.get_toplevel(new_id).
func (d *Driver) GetTopLevel(xdgSurfaceId Id) Id {
	var parentSurface Id
	if h, ok := d.reg.Find(xdgSurfaceId); ok {
		if xs, ok := h.(*XdgSurfaceHandler); ok {
			parentSurface = xs.parentSurface
		}
	}
	tl := &XdgToplevelHandler{parentSurface: parentSurface}
	id := d.reg.NewIdRegistered(tl)
	req, _ := NewEncoder(xdgSurfaceId, opXdgSurfaceGetToplevel).PutUint32(uint32(id)).Finish()
	d.emit(req, nil)
	return id
}
