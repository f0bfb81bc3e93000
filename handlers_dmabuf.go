package wlcore

// DmabufHandler implements zwp_linux_dmabuf_v1. It records advertised
// fourcc/modifier pairs from the legacy (pre-feedback) events, and is
// the entry point for creating params and requesting feedback.
type DmabufHandler struct {
	id        Id
	fourccs   []uint32
	modifiers map[uint32][]uint64 // fourcc -> modifiers
}

func (h *DmabufHandler) Kind() Kind       { return KindDmabuf }
func (h *DmabufHandler) setSelfId(id Id) { h.id = id }

const (
	opDmabufEventFormat   OpCode = 0
	opDmabufEventModifier OpCode = 1

	opDmabufCreateParams      OpCode = 1
	opDmabufGetDefaultFeedback OpCode = 2
)

func (h *DmabufHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	switch op {
	case opDmabufEventFormat:
		fourcc := u32At(body, 0)
		h.fourccs = append(h.fourccs, fourcc)
		return nil, nil
	case opDmabufEventModifier:
		fourcc := u32At(body, 0)
		hi := u32At(body, 4)
		lo := u32At(body, 8)
		mod := uint64(hi)<<32 | uint64(lo)
		if h.modifiers == nil {
			h.modifiers = make(map[uint32][]uint64)
		}
		h.modifiers[fourcc] = append(h.modifiers[fourcc], mod)
		return nil, nil
	default:
		return nil, invalidOpCode(op, KindDmabuf)
	}
}

// CreateParams requests zwp_linux_dmabuf_v1.create_params(new_id).
func (d *Driver) CreateParams(dmabufId Id) Id {
	params := &DmabufParamsHandler{}
	id := d.reg.NewIdRegistered(params)
	req, _ := NewEncoder(dmabufId, opDmabufCreateParams).PutUint32(uint32(id)).Finish()
	d.emit(req, nil)
	return id
}

// GetDefaultFeedback requests
// zwp_linux_dmabuf_v1.get_default_feedback(new_id).
func (d *Driver) GetDefaultFeedback(dmabufId Id) Id {
	fb := &DmabufFeedbackHandler{}
	id := d.reg.NewIdRegistered(fb)
	req, _ := NewEncoder(dmabufId, opDmabufGetDefaultFeedback).PutUint32(uint32(id)).Finish()
	d.emit(req, nil)
	return id
}
