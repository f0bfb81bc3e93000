package wlcore

// DisplayHandler implements wl_display (id 1). It is always present
// and pre-registered by NewDriver.
type DisplayHandler struct{}

func (h *DisplayHandler) Kind() Kind { return KindDisplay }

const (
	opDisplayEventError    OpCode = 0
	opDisplayEventDeleteId OpCode = 1
)

func (h *DisplayHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	switch op {
	case opDisplayEventError:
		object := Id(u32At(body, 0))
		code := u32At(body, 4)
		msg, _, err := ParseString(body[8:])
		if err != nil {
			return nil, err
		}
		return []Action{{Tag: ActionProtocolError, ErrRec: ProtocolErrorRecord{Object: object, Code: code, Msg: msg}}}, nil
	case opDisplayEventDeleteId:
		id := Id(u32At(body, 0))
		return []Action{{Tag: ActionIdDeletion, DelId: id}}, nil
	default:
		return nil, invalidOpCode(op, KindDisplay)
	}
}

// Sync requests a wl_display.sync, returning the new callback's id.
// The dispatcher remembers it as the current barrier: no later-queued
// action runs past that callback's done event until the caller enters
// another work pass.
func (d *Driver) Sync() Id {
	cb := &CallbackHandler{}
	id := d.reg.NewIdRegistered(cb)
	req, _ := NewEncoder(DisplayId, 0).PutUint32(uint32(id)).Finish()
	d.emit(req, nil)
	d.queue = append(d.queue, Action{Tag: ActionSync, SyncId: id})
	return id
}

// GetRegistry requests a wl_display.get_registry, returning the new
// registry's id.
func (d *Driver) GetRegistry() Id {
	reg := &RegistryHandler{globals: make(map[uint32]RegistryEntry)}
	id := d.reg.NewIdRegistered(reg)
	req, _ := NewEncoder(DisplayId, 1).PutUint32(uint32(id)).Finish()
	d.emit(req, nil)
	return id
}
