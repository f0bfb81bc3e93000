package wlcore

import "log/slog"

// XdgToplevelState is the closed set of states the compositor may
// report in a configure event.
type XdgToplevelState uint32

const (
	XdgToplevelStateMaximized XdgToplevelState = iota + 1
	XdgToplevelStateFullscreen
	XdgToplevelStateResizing
	XdgToplevelStateActivated
	XdgToplevelStateTiledLeft
	XdgToplevelStateTiledRight
	XdgToplevelStateTiledTop
	XdgToplevelStateTiledBottom
	XdgToplevelStateSuspended
)

// XdgToplevelHandler implements xdg_toplevel: (id, close_requested,
// parent xdg_surface). Forwards resize signals up via Action::Resize.
type XdgToplevelHandler struct {
	id             Id
	parentSurface  Id // the wl_surface id, for Action::Resize targeting
	closeRequested bool
}

func (h *XdgToplevelHandler) Kind() Kind       { return KindXdgToplevel }
func (h *XdgToplevelHandler) setSelfId(id Id) { h.id = id }

const (
	opXdgToplevelEventConfigure       OpCode = 0
	opXdgToplevelEventClose           OpCode = 1
	opXdgToplevelEventConfigureBounds OpCode = 2
	opXdgToplevelEventWmCapabilities  OpCode = 3

	opXdgToplevelSetTitle OpCode = 2
	opXdgToplevelSetAppId OpCode = 3
)

func (h *XdgToplevelHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	switch op {
	case opXdgToplevelEventConfigure:
		w := u32At(body, 0)
		hgt := u32At(body, 4)
		rawStates, _, err := ParseUint32Array(body[8:])
		if err != nil {
			return nil, err
		}
		for _, s := range rawStates {
			if s < uint32(XdgToplevelStateMaximized) || s > uint32(XdgToplevelStateSuspended) {
				return nil, &Error{Kind: KindErrBadEnumVariant, Detail: "xdg_toplevel.state"}
			}
		}
		var actions []Action
		if w > 0 && hgt > 0 {
			actions = append(actions, Action{Tag: ActionResize, ResizeW: w, ResizeH: hgt, Surface: h.parentSurface})
		}
		return actions, nil
	case opXdgToplevelEventClose:
		h.closeRequested = true
		return nil, nil
	case opXdgToplevelEventConfigureBounds, opXdgToplevelEventWmCapabilities:
		// advertised by newer compositors; not acted on by this
		// engine's scope, but a legitimate opcode, not an error.
		return []Action{traceAction(slog.LevelDebug, "xdg_toplevel", "configure_bounds/wm_capabilities ignored")}, nil
	default:
		return nil, invalidOpCode(op, KindXdgToplevel)
	}
}

// CloseRequested reports whether the compositor has asked the window
// to close.
func (h *XdgToplevelHandler) CloseRequested() bool { return h.closeRequested }

// SetTitle requests xdg_toplevel.set_title(title).
func (d *Driver) SetTitle(toplevelId Id, title string) {
	req, _ := NewEncoder(toplevelId, opXdgToplevelSetTitle).PutString(title).Finish()
	d.emit(req, nil)
}

// SetAppId requests xdg_toplevel.set_app_id(appId).
func (d *Driver) SetAppId(toplevelId Id, appId string) {
	req, _ := NewEncoder(toplevelId, opXdgToplevelSetAppId).PutString(appId).Finish()
	d.emit(req, nil)
}
