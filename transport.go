package wlcore

import (
	"os"
	"path"

	"golang.org/x/sys/unix"
)

// Transport is the non-blocking Unix-domain stream socket to the
// compositor, with SCM_RIGHTS ancillary data support in both
// directions. The teacher dialed with net.UnixConn, which has no path
// to attach received fds to a read; Transport drops to the raw
// socket syscalls for exactly that reason.
type Transport struct {
	fd int

	readBuf [8192]byte
	oobBuf  [64]byte
}

// socketPath resolves $XDG_RUNTIME_DIR/$WAYLAND_DISPLAY, falling back
// to wayland-0 when WAYLAND_DISPLAY is unset, matching the teacher's
// resolution order.
func socketPath() (string, error) {
	xdgRuntimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if xdgRuntimeDir == "" {
		return "", &Error{Kind: KindErrMissingDisplayEnv, Detail: "XDG_RUNTIME_DIR"}
	}
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	return path.Join(xdgRuntimeDir, display), nil
}

// Dial connects to the compositor's socket and switches it to
// non-blocking mode.
func Dial() (*Transport, error) {
	p, err := socketPath()
	if err != nil {
		return nil, err
	}
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		return nil, WrapKind(KindErrIo, "socket", err)
	}
	addr := &unix.SockaddrUnix{Name: p}
	if err := unix.Connect(fd, addr); err != nil {
		unix.Close(fd)
		return nil, WrapKind(KindErrIo, "connect "+p, err)
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		unix.Close(fd)
		return nil, WrapKind(KindErrIo, "set nonblock", err)
	}
	return &Transport{fd: fd}, nil
}

// Close closes the underlying socket.
func (t *Transport) Close() error {
	return unix.Close(t.fd)
}

// Read performs one non-blocking recvmsg, returning the payload bytes
// read and any fds received as ancillary data. A zero-length, nil-fd
// result with nil error means EAGAIN — nothing was ready.
func (t *Transport) Read() ([]byte, []int, error) {
	n, oobn, _, _, err := unix.Recvmsg(t.fd, t.readBuf[:], t.oobBuf[:], 0)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return nil, nil, nil
		}
		return nil, nil, WrapKind(KindErrIo, "recvmsg", err)
	}
	var fds []int
	if oobn > 0 {
		cmsgs, err := unix.ParseSocketControlMessage(t.oobBuf[:oobn])
		if err != nil {
			return nil, nil, WrapKind(KindErrIo, "parse cmsg", err)
		}
		for _, c := range cmsgs {
			got, err := unix.ParseUnixRights(&c)
			if err != nil {
				continue
			}
			fds = append(fds, got...)
		}
	}
	out := make([]byte, n)
	copy(out, t.readBuf[:n])
	return out, fds, nil
}

// Write sends buf with fds attached as SCM_RIGHTS ancillary data (if
// any).
func (t *Transport) Write(buf []byte, fds []int) error {
	var oob []byte
	if len(fds) > 0 {
		oob = unix.UnixRights(fds...)
	}
	return unix.Sendmsg(t.fd, buf, oob, nil, 0)
}
