package wlcore

// CallbackHandler implements wl_callback: a one-shot notification
// that self-marks done and reports its data to the dispatcher.
type CallbackHandler struct {
	done bool
	data uint32
}

func (h *CallbackHandler) Kind() Kind { return KindCallback }

const opCallbackEventDone OpCode = 0

func (h *CallbackHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	if op != opCallbackEventDone {
		return nil, invalidOpCode(op, KindCallback)
	}
	h.data = u32At(body, 0)
	h.done = true
	// the caller's own id for this handler is not known to the
	// handler itself; the dispatcher fills it in from the frame's
	// sender before this action is processed further, see
	// Driver.processQueue's ActionEventResponse case.
	return []Action{{Tag: ActionCallbackDone, CbData: h.data}}, nil
}

// Done reports whether the done event has arrived.
func (h *CallbackHandler) Done() bool { return h.done }

// Data returns the done event's data and whether it has arrived yet.
func (h *CallbackHandler) Data() (uint32, bool) { return h.data, h.done }
