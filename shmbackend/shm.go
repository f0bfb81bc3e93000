// Package shmbackend provisions wl_shm-backed pixel buffers: an
// anonymous file under /dev/shm, mmap'd and grown in place as larger
// surfaces are requested.
package shmbackend

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/sys/unix"

	"github.com/arnegard/wlcore"
)

// Backend binds the wl_shm global and owns one growable pool. It
// implements wlcore.BufferProvider.
type Backend struct {
	driver *wlcore.Driver

	shmId  wlcore.Id
	poolId wlcore.Id

	fd       int
	size     uint32
	mem      []byte
}

const initialPoolSize = 8

// New binds wl_shm (version 1) via registryId and allocates an
// initial small pool, grown later on demand.
func New(d *wlcore.Driver, registryId wlcore.Id) (*Backend, error) {
	shmId, err := d.Bind(registryId, "wl_shm", 1, &wlcore.ShmHandler{})
	if err != nil {
		return nil, err
	}
	b := &Backend{driver: d, shmId: shmId}
	if err := b.createPool(initialPoolSize); err != nil {
		return nil, err
	}
	return b, nil
}

func randomName() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func (b *Backend) createPool(size uint32) error {
	name, err := randomName()
	if err != nil {
		return wlcore.Wrap(err)
	}
	path := "/dev/shm/wlcore-" + name
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL, 0600)
	if err != nil {
		return wlcore.WrapKind(wlcore.KindErrIo, "shm open "+path, err)
	}
	// the fd is the only handle needed once mapped; unlink the name
	// immediately so it never outlives this process even on a crash.
	if err := unix.Unlink(path); err != nil {
		unix.Close(fd)
		return wlcore.WrapKind(wlcore.KindErrIo, "shm unlink "+path, err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		return wlcore.WrapKind(wlcore.KindErrIo, "ftruncate", err)
	}
	mem, err := unix.Mmap(fd, 0, int(size), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		unix.Close(fd)
		return wlcore.WrapKind(wlcore.KindErrIo, "mmap", err)
	}
	b.fd, b.size, b.mem = fd, size, mem
	b.poolId = b.driver.CreatePool(b.shmId, fd, size)
	return nil
}

func (b *Backend) ensureCapacity(needed uint32) error {
	if needed <= b.size {
		return nil
	}
	if err := unix.Munmap(b.mem); err != nil {
		return wlcore.WrapKind(wlcore.KindErrIo, "munmap", err)
	}
	if err := unix.Ftruncate(b.fd, int64(needed)); err != nil {
		return wlcore.WrapKind(wlcore.KindErrIo, "ftruncate grow", err)
	}
	mem, err := unix.Mmap(b.fd, 0, int(needed), unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return wlcore.WrapKind(wlcore.KindErrIo, "mmap grow", err)
	}
	b.mem = mem
	b.size = needed
	b.driver.ResizePool(b.poolId, needed)
	return nil
}

// MakeBuffer implements wlcore.BufferProvider: grows the pool if
// needed, requests a new wl_buffer over it, and returns a slice
// aliased into the pool's mmap.
func (b *Backend) MakeBuffer(d *wlcore.Driver, surfaceId wlcore.Id, w, h uint32, pf wlcore.PixelFormat) (wlcore.Id, []byte, int, error) {
	stride := w * uint32(pf.BytesPerPixel())
	needed := stride * h
	if err := b.ensureCapacity(needed); err != nil {
		return 0, nil, -1, err
	}
	bufId := d.CreateBuffer(b.poolId, 0, w, h, stride, pf)
	slice := b.mem[:needed:needed]
	return bufId, slice, -1, nil
}

// ResizeBuffer implements wlcore.BufferProvider: destroys the old
// buffer id, grows the pool if the new size exceeds it, and issues a
// fresh create_buffer.
func (b *Backend) ResizeBuffer(d *wlcore.Driver, surfaceId wlcore.Id, oldBufferId wlcore.Id, w, h uint32) (wlcore.Id, []byte, int, error) {
	d.DestroyBuffer(oldBufferId)
	return b.MakeBuffer(d, surfaceId, w, h, pixelFormatOf(d, surfaceId))
}

func pixelFormatOf(d *wlcore.Driver, surfaceId wlcore.Id) wlcore.PixelFormat {
	h, ok := d.Registry().Find(surfaceId)
	if !ok {
		return wlcore.PixelFormatARGB8888
	}
	surf, ok := h.(*wlcore.SurfaceHandler)
	if !ok {
		return wlcore.PixelFormatARGB8888
	}
	return surf.PixelFormat()
}

// Close unmaps and closes the pool's backing fd.
func (b *Backend) Close() error {
	if b.mem != nil {
		if err := unix.Munmap(b.mem); err != nil {
			return wlcore.WrapKind(wlcore.KindErrIo, "munmap", err)
		}
	}
	return unix.Close(b.fd)
}
