package wlcore

// BufferHandler implements wl_buffer. It tracks only the buffer's id,
// dimensions and in_use; the accessor (a writable slice on the shm
// path, a dma-buf fd on the dma-buf path) is returned by the backend's
// MakeBuffer/ResizeBuffer and cached by the Presenter, not stored here.
type BufferHandler struct {
	id            Id
	width, height uint32
	inUse         bool
}

func (h *BufferHandler) Kind() Kind       { return KindBuffer }
func (h *BufferHandler) setSelfId(id Id) { h.id = id }

const (
	opBufferEventRelease OpCode = 0
	opBufferDestroy      OpCode = 0
)

func (h *BufferHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	if op != opBufferEventRelease {
		return nil, invalidOpCode(op, KindBuffer)
	}
	h.inUse = false
	return nil, nil
}

// InUse reports whether the buffer is attached and not yet released.
func (h *BufferHandler) InUse() bool { return h.inUse }

// MarkInUse is called by Driver.Attach when this buffer id is
// attached to a surface.
func (h *BufferHandler) MarkInUse() { h.inUse = true }

// Width and Height report the buffer's pixel dimensions.
func (h *BufferHandler) Width() uint32  { return h.width }
func (h *BufferHandler) Height() uint32 { return h.height }

// DestroyBuffer requests wl_buffer.destroy. bufferId is not freed
// here — the server confirms the destroy with wl_display.delete_id,
// and that event is what returns the id to the recycle queue (see
// handlers_display.go). Freeing it eagerly here too would queue it
// twice and let two later NewIdRegistered calls hand out the same
// id.
func (d *Driver) DestroyBuffer(bufferId Id) {
	req, _ := NewEncoder(bufferId, opBufferDestroy).Finish()
	d.emit(req, nil)
}
