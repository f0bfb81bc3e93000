package wlcore

import (
	"log/slog"

	"golang.org/x/sys/unix"
)

// FormatTableEntry is one (fourcc, modifier) pair from the feedback
// format table, as delivered via a memory-mapped fd.
type FormatTableEntry struct {
	Fourcc   uint32
	Modifier uint64
}

// TrancheFlag is the closed set of tranche_flags bits.
type TrancheFlag uint32

const TrancheFlagScanout TrancheFlag = 1 << 0

// DmabufFeedbackHandler implements zwp_linux_dmabuf_feedback_v1.
// Populated across a sequence of tranche events; Done flips true on
// the terminal event.
type DmabufFeedbackHandler struct {
	id Id

	done         bool
	formatTable  []FormatTableEntry
	mainDevice   uint64
	trancheFlags TrancheFlag
	tranches     []tranche
	curTranche   tranche
}

type tranche struct {
	device  uint64
	indices []uint16
	flags   TrancheFlag
}

func (h *DmabufFeedbackHandler) Kind() Kind       { return KindDmabufFeedback }
func (h *DmabufFeedbackHandler) setSelfId(id Id) { h.id = id }

const (
	opFeedbackEventDone                 OpCode = 0
	opFeedbackEventFormatTable          OpCode = 1
	opFeedbackEventMainDevice           OpCode = 2
	opFeedbackEventTrancheDone          OpCode = 3
	opFeedbackEventTrancheTargetDevice  OpCode = 4
	opFeedbackEventTrancheFormats       OpCode = 5
	opFeedbackEventTrancheFlags         OpCode = 6
)

func (h *DmabufFeedbackHandler) HandleEvent(op OpCode, body []byte, fds []int) ([]Action, error) {
	switch op {
	case opFeedbackEventFormatTable:
		size := u32At(body, 0)
		if len(fds) == 0 {
			return nil, &Error{Kind: KindErrExpectedFd, Detail: "format_table"}
		}
		fd := fds[0]
		table, err := readFormatTable(fd, int(size))
		unix.Close(fd)
		if err != nil {
			return nil, err
		}
		h.formatTable = table
		return nil, nil
	case opFeedbackEventMainDevice:
		h.mainDevice = u64At(body, 0)
		return nil, nil
	case opFeedbackEventTrancheTargetDevice:
		h.curTranche.device = u64At(body, 0)
		return nil, nil
	case opFeedbackEventTrancheFormats:
		indices, _, err := ParseUint16Array(body)
		if err != nil {
			return nil, err
		}
		h.curTranche.indices = indices
		return nil, nil
	case opFeedbackEventTrancheFlags:
		flags := TrancheFlag(u32At(body, 0))
		h.curTranche.flags = flags
		return []Action{traceAction(slog.LevelDebug, "dmabuf_feedback.tranche_flags", "")}, nil
	case opFeedbackEventTrancheDone:
		h.tranches = append(h.tranches, h.curTranche)
		h.curTranche = tranche{}
		return nil, nil
	case opFeedbackEventDone:
		h.done = true
		return nil, nil
	default:
		return nil, invalidOpCode(op, KindDmabufFeedback)
	}
}

// readFormatTable mmaps fd read-only and parses size/16 repeating
// 16-byte records of fourcc || pad(4) || modifier:u64.
func readFormatTable(fd, size int) ([]FormatTableEntry, error) {
	mapped, err := unix.Mmap(fd, 0, size, unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		return nil, WrapKind(KindErrIo, "mmap format_table", err)
	}
	defer unix.Munmap(mapped)
	n := size / 16
	out := make([]FormatTableEntry, n)
	for i := 0; i < n; i++ {
		off := i * 16
		out[i] = FormatTableEntry{
			Fourcc:   u32At(mapped, off),
			Modifier: u64At(mapped, off+8),
		}
	}
	return out, nil
}

// Done reports whether the terminal feedback event has arrived.
func (h *DmabufFeedbackHandler) Done() bool { return h.done }

// FormatTable returns the decoded format table.
func (h *DmabufFeedbackHandler) FormatTable() []FormatTableEntry { return h.formatTable }

// ModifierFor returns the first modifier the feedback advertises for
// fourcc, preferring modifiers named in a tranche flagged Scanout.
func (h *DmabufFeedbackHandler) ModifierFor(fourcc uint32) (uint64, bool) {
	for _, tr := range h.tranches {
		if tr.flags&TrancheFlagScanout == 0 {
			continue
		}
		if m, ok := h.modifierInTranche(tr, fourcc); ok {
			return m, true
		}
	}
	for _, tr := range h.tranches {
		if m, ok := h.modifierInTranche(tr, fourcc); ok {
			return m, true
		}
	}
	return 0, false
}

func (h *DmabufFeedbackHandler) modifierInTranche(tr tranche, fourcc uint32) (uint64, bool) {
	for _, idx := range tr.indices {
		if int(idx) >= len(h.formatTable) {
			continue
		}
		e := h.formatTable[idx]
		if e.Fourcc == fourcc {
			return e.Modifier, true
		}
	}
	return 0, false
}
