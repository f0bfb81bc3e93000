package wlcore

import "log/slog"

// RegistryEntry records one server-advertised global: its numeric
// name, interface string, and version.
type RegistryEntry struct {
	Name      uint32
	Interface string
	Version   uint32
}

// RegistryHandler implements wl_registry. Interface strings are
// expected to be globally unique in practice but the map tolerates
// duplicates — the later global wins for Bind/Version lookups.
type RegistryHandler struct {
	globals map[uint32]RegistryEntry // keyed by the advertised global name
	byIface map[string]RegistryEntry
}

func (h *RegistryHandler) Kind() Kind { return KindRegistry }

const (
	opRegistryEventGlobal       OpCode = 0
	opRegistryEventGlobalRemove OpCode = 1
)

func (h *RegistryHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	switch op {
	case opRegistryEventGlobal:
		name := u32At(body, 0)
		iface, off, err := ParseString(body[4:])
		if err != nil {
			return nil, err
		}
		version := u32At(body, 4+off)
		h.add(RegistryEntry{Name: name, Interface: iface, Version: version})
		return []Action{traceAction(slog.LevelDebug, "wl_registry.global", iface)}, nil
	case opRegistryEventGlobalRemove:
		name := u32At(body, 0)
		h.remove(name)
		return []Action{traceAction(slog.LevelDebug, "wl_registry.global_remove", "")}, nil
	default:
		return nil, invalidOpCode(op, KindRegistry)
	}
}

func (h *RegistryHandler) add(e RegistryEntry) {
	if h.byIface == nil {
		h.byIface = make(map[string]RegistryEntry)
		h.globals = make(map[uint32]RegistryEntry)
	}
	h.byIface[e.Interface] = e
	h.globals[e.Name] = e
}

func (h *RegistryHandler) remove(name uint32) {
	delete(h.globals, name)
}

// Version returns the advertised version for interfaceName, and
// whether it has been advertised at all ("does_implement").
func (h *RegistryHandler) Version(interfaceName string) (uint32, bool) {
	e, ok := h.byIface[interfaceName]
	return e.Version, ok
}

// Bind instantiates a global by interface name, registering handler
// under a freshly allocated id and issuing wl_registry.bind with the
// name the server advertised. Returns an error if the interface was
// never advertised.
func (d *Driver) Bind(registryId Id, interfaceName string, version uint32, handler Handler) (Id, error) {
	h, ok := d.reg.Find(registryId)
	if !ok {
		return 0, &Error{Kind: KindErrUnknownObject}
	}
	reg, ok := h.(*RegistryHandler)
	if !ok {
		return 0, &Error{Kind: KindErrUnknownObject}
	}
	e, ok := reg.byIface[interfaceName]
	if !ok {
		return 0, &Error{Kind: KindErrGlobalNotAdvertised, Detail: interfaceName}
	}
	id := d.reg.NewIdRegistered(handler)
	req, _ := NewEncoder(registryId, 0).PutUint32(e.Name).PutNewIdTyped(interfaceName, version, id).Finish()
	d.emit(req, nil)
	return id, nil
}
