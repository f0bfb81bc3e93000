package wlcore

// ShmPoolHandler implements wl_shm_pool. It has no events.
type ShmPoolHandler struct {
	id Id
}

func (h *ShmPoolHandler) Kind() Kind       { return KindShmPool }
func (h *ShmPoolHandler) setSelfId(id Id) { h.id = id }

func (h *ShmPoolHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	return nil, invalidOpCode(op, KindShmPool)
}

const (
	opShmPoolCreateBuffer OpCode = 0
	opShmPoolDestroy      OpCode = 1
	opShmPoolResize       OpCode = 2
)

// CreateBuffer requests wl_shm_pool.create_buffer(new_id, offset, w,
// h, stride, format), registering a new BufferHandler under a fresh
// id.
func (d *Driver) CreateBuffer(poolId Id, offset, w, h, stride uint32, pf PixelFormat) Id {
	buf := &BufferHandler{width: w, height: h}
	id := d.reg.NewIdRegistered(buf)
	req, _ := NewEncoder(poolId, opShmPoolCreateBuffer).
		PutUint32(uint32(id)).PutUint32(offset).PutUint32(w).PutUint32(h).
		PutUint32(stride).PutUint32(pf.ToShmCode()).Finish()
	d.emit(req, nil)
	return id
}

// ResizePool requests wl_shm_pool.resize(size).
func (d *Driver) ResizePool(poolId Id, size uint32) {
	req, _ := NewEncoder(poolId, opShmPoolResize).PutUint32(size).Finish()
	d.emit(req, nil)
}

// DestroyPool requests wl_shm_pool.destroy. poolId is not freed here
// — it is returned to the recycle queue only when the server confirms
// with wl_display.delete_id, same as DestroyBuffer.
func (d *Driver) DestroyPool(poolId Id) {
	req, _ := NewEncoder(poolId, opShmPoolDestroy).Finish()
	d.emit(req, nil)
}
