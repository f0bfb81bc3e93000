package wlcore

// DmabufParamsHandler implements zwp_linux_buffer_params_v1: the
// object a caller adds one plane to and then asks to create a
// wl_buffer from.
type DmabufParamsHandler struct {
	id         Id
	createdId  Id
	hasCreated bool
	failed     bool
}

func (h *DmabufParamsHandler) Kind() Kind       { return KindDmabufParams }
func (h *DmabufParamsHandler) setSelfId(id Id) { h.id = id }

const (
	opParamsEventCreated OpCode = 0
	opParamsEventFailed  OpCode = 1

	opParamsAdd     OpCode = 1
	opParamsCreate  OpCode = 2
	opParamsDestroy OpCode = 0
)

func (h *DmabufParamsHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	switch op {
	case opParamsEventCreated:
		// The created event itself carries a new_id for the resulting
		// wl_buffer, which the protocol models as sender-addressed to
		// an id the client must already have preallocated via
		// create_immed semantics in some bindings; this engine takes
		// the non-immediate path, so the id arrives in the payload.
		h.createdId = Id(u32At(body, 0))
		h.hasCreated = true
		return nil, nil
	case opParamsEventFailed:
		h.failed = true
		return nil, nil
	default:
		return nil, invalidOpCode(op, KindDmabufParams)
	}
}

// Created returns the resulting wl_buffer id, if the created event
// has arrived.
func (h *DmabufParamsHandler) Created() (Id, bool) { return h.createdId, h.hasCreated }

// Failed reports whether the compositor rejected this params object.
func (h *DmabufParamsHandler) Failed() bool { return h.failed }

// Add requests zwp_linux_buffer_params_v1.add(fd, plane=0, offset=0,
// stride, mod_hi, mod_lo).
func (d *Driver) Add(paramsId Id, fd int, stride uint32, modifier uint64) {
	hi := uint32(modifier >> 32)
	lo := uint32(modifier)
	req, _ := NewEncoder(paramsId, opParamsAdd).
		PutUint32(0).PutUint32(0).PutUint32(stride).PutUint32(hi).PutUint32(lo).Finish()
	d.emit(req, []int{fd})
}

// CreateDmabufBuffer requests
// zwp_linux_buffer_params_v1.create(w, h, fourcc, flags=0). It does
// not register a BufferHandler; the id the compositor names in its
// created event is registered separately via RegisterCreatedBuffer.
func (d *Driver) CreateDmabufBuffer(paramsId Id, w, h uint32, fourcc uint32) {
	req, _ := NewEncoder(paramsId, opParamsCreate).
		PutUint32(w).PutUint32(h).PutUint32(fourcc).PutUint32(0).Finish()
	d.emit(req, nil)
}

// RegisterCreatedBuffer binds a BufferHandler to the id the params
// object's created event reported, since that id is server-assigned
// on this path rather than client-preallocated.
func (d *Driver) RegisterCreatedBuffer(id Id, w, h uint32) {
	d.reg.Register(id, &BufferHandler{width: w, height: h})
}
