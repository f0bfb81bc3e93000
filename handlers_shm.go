package wlcore

import "log/slog"

// ShmHandler implements wl_shm: records which pixel formats the
// compositor advertises support for.
type ShmHandler struct {
	id      Id
	formats map[PixelFormat]bool
}

func (h *ShmHandler) Kind() Kind       { return KindShm }
func (h *ShmHandler) setSelfId(id Id) { h.id = id }

const (
	opShmEventFormat OpCode = 0
	opShmCreatePool  OpCode = 0
)

func (h *ShmHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	if op != opShmEventFormat {
		return nil, invalidOpCode(op, KindShm)
	}
	code := u32At(body, 0)
	pf, ok := PixelFormatFromShmCode(code)
	if !ok {
		return []Action{traceAction(slog.LevelDebug, "wl_shm.format", "unsupported format code, skipped")}, nil
	}
	if h.formats == nil {
		h.formats = make(map[PixelFormat]bool)
	}
	h.formats[pf] = true
	return nil, nil
}

// Supports reports whether the compositor advertised pf.
func (h *ShmHandler) Supports(pf PixelFormat) bool { return h.formats[pf] }

// CreatePool requests wl_shm.create_pool(new_id, fd, size), attaching
// fd out-of-band.
func (d *Driver) CreatePool(shmId Id, fd int, size uint32) Id {
	pool := &ShmPoolHandler{}
	id := d.reg.NewIdRegistered(pool)
	req, _ := NewEncoder(shmId, opShmCreatePool).PutUint32(uint32(id)).PutUint32(size).Finish()
	d.emit(req, []int{fd})
	return id
}
