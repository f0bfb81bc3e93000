package wlcore

// XdgWmBaseHandler implements xdg_wm_base. Pings are answered
// automatically — the caller never sees them.
type XdgWmBaseHandler struct {
	id Id
}

func (h *XdgWmBaseHandler) Kind() Kind       { return KindXdgWmBase }
func (h *XdgWmBaseHandler) setSelfId(id Id) { h.id = id }

const (
	opXdgWmBaseEventPing   OpCode = 0
	opXdgWmBaseGetSurface  OpCode = 2
	opXdgWmBasePong        OpCode = 3
)

func (h *XdgWmBaseHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	if op != opXdgWmBaseEventPing {
		return nil, invalidOpCode(op, KindXdgWmBase)
	}
	serial := u32At(body, 0)
	req, _ := NewEncoder(h.id, opXdgWmBasePong).PutUint32(serial).Finish()
	return []Action{{Tag: ActionEmitRequest, Request: Request{Bytes: req}}}, nil
}

// GetXdgSurface requests xdg_wm_base.get_xdg_surface(new_id, surface).
func (d *Driver) GetXdgSurface(wmBaseId, surfaceId Id) Id {
	xs := &XdgSurfaceHandler{parentSurface: surfaceId}
	id := d.reg.NewIdRegistered(xs)
	req, _ := NewEncoder(wmBaseId, opXdgWmBaseGetSurface).PutUint32(uint32(id)).PutUint32(uint32(surfaceId)).Finish()
	d.emit(req, nil)
	return id
}
