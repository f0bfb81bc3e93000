package wlcore

// Id is a 32-bit client-assigned object identifier, unique within a
// connection. Id 0 denotes "unset" and is never assigned. Id 1 is
// reserved for the display.
type Id uint32

// OpCode is a 16-bit method selector scoped to an interface.
type OpCode uint16

// DisplayId is the well-known id of the wl_display singleton.
const DisplayId Id = 1

// Kind identifies the interface a handler implements, used for
// registry lookups and error reporting.
type Kind string

const (
	KindDisplay       Kind = "wl_display"
	KindRegistry      Kind = "wl_registry"
	KindCompositor    Kind = "wl_compositor"
	KindSurface       Kind = "wl_surface"
	KindCallback      Kind = "wl_callback"
	KindShm           Kind = "wl_shm"
	KindShmPool       Kind = "wl_shm_pool"
	KindBuffer        Kind = "wl_buffer"
	KindXdgWmBase     Kind = "xdg_wm_base"
	KindXdgSurface    Kind = "xdg_surface"
	KindXdgToplevel   Kind = "xdg_toplevel"
	KindDmabuf        Kind = "zwp_linux_dmabuf_v1"
	KindDmabufFeedback Kind = "zwp_linux_dmabuf_feedback_v1"
	KindDmabufParams  Kind = "zwp_linux_buffer_params_v1"
)

// Handler is a stateful protocol object: it turns a decoded event
// payload into actions for the dispatcher to apply, and reports the
// interface kind it implements.
type Handler interface {
	HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error)
	Kind() Kind
}

// Registry maps ids to handlers, with monotonic allocation and FIFO
// recycling of freed ids. It is the single owner of the object graph:
// everything else refers to handlers by id and looks them up on
// demand, never holding a direct reference across a dispatch pass.
type Registry struct {
	handlers map[Id]Handler
	free     []Id
	queued   map[Id]bool // ids currently sitting in free, for O(1) dedup
	nextHigh Id
}

// NewRegistry returns an empty registry with id 1 reserved for the
// display, matching the wire protocol's fixed display id.
func NewRegistry() *Registry {
	return &Registry{
		handlers: make(map[Id]Handler),
		queued:   make(map[Id]bool),
		nextHigh: DisplayId + 1,
	}
}

// NewId allocates a fresh id from the monotonic high-water mark. It
// never touches the recycle queue — see NewIdRegistered for that.
func (r *Registry) NewId() Id {
	id := r.nextHigh
	r.nextHigh++
	return id
}

// selfIdAware is implemented by handlers that need to know their own
// id (to address requests back to themselves, e.g. xdg_wm_base.pong).
type selfIdAware interface {
	setSelfId(Id)
}

// NewIdRegistered allocates an id — preferring the recycle queue over
// the monotonic high-water mark — and registers handler under it in
// one step, informing the handler of its own id if it asks to know.
func (r *Registry) NewIdRegistered(handler Handler) Id {
	var id Id
	if n := len(r.free); n > 0 {
		id = r.free[0]
		r.free = r.free[1:]
		delete(r.queued, id)
	} else {
		id = r.NewId()
	}
	r.handlers[id] = handler
	if s, ok := handler.(selfIdAware); ok {
		s.setSelfId(id)
	}
	return id
}

// Register binds handler under an already-allocated id, overwriting
// any previous handler at that id (last-bound wins).
func (r *Registry) Register(id Id, handler Handler) {
	r.handlers[id] = handler
}

// Find looks up the handler bound to id, if any.
func (r *Registry) Find(id Id) (Handler, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

// FreeId removes the mapping for id, if present, and appends it to
// the FIFO recycle queue. Idempotent: an id already sitting in the
// recycle queue is not appended again, so an id can never be queued
// twice and later handed out by two different NewIdRegistered calls —
// the invariant is every live id maps to exactly one handler or sits
// in the free queue, never both, and never twice in the latter.
// Freeing an id with no mapping is not an error — the caller may be
// acknowledging a server delete_id for an id already dropped locally.
func (r *Registry) FreeId(id Id) {
	delete(r.handlers, id)
	if r.queued[id] {
		return
	}
	r.queued[id] = true
	r.free = append(r.free, id)
}
