// Command wlcoredemo drives wlcore through one connect/bind/draw/quit
// cycle against a running compositor — a minimal collaborator in the
// shape described as out of scope for the library itself.
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/arnegard/wlcore"
	"github.com/arnegard/wlcore/shmbackend"
)

func main() {
	ctx := context.Background()
	logger := slog.Default()

	d, err := wlcore.NewDriver(logger)
	if err != nil {
		logger.Error("dial failed", "err", err)
		os.Exit(1)
	}
	defer d.Close()

	registryId := d.GetRegistry()
	waitSync(ctx, d, d.Sync())

	var compositorId, wmBaseId wlcore.Id

	compositorId, err = d.Bind(registryId, "wl_compositor", 4, &wlcore.CompositorHandler{})
	if err != nil {
		fatal(logger, err)
	}
	wmBaseId, err = d.Bind(registryId, "xdg_wm_base", 1, &wlcore.XdgWmBaseHandler{})
	if err != nil {
		fatal(logger, err)
	}

	backend, err := shmbackend.New(d, registryId)
	if err != nil {
		fatal(logger, err)
	}

	surfaceId := d.CreateSurface(compositorId, wlcore.PixelFormatARGB8888)
	xdgSurfaceId := d.GetXdgSurface(wmBaseId, surfaceId)
	toplevelId := d.GetTopLevel(xdgSurfaceId)
	d.SetTitle(toplevelId, "wlcore demo")
	d.SetAppId(toplevelId, "wlcore-demo")
	d.Commit(surfaceId)

	presenter := &wlcore.Presenter{
		Id:          1,
		SurfaceId:   surfaceId,
		XdgSurfaceId: xdgSurfaceId,
		ToplevelId:  toplevelId,
		Backend:     backend,
		PixelFormat: wlcore.PixelFormatARGB8888,
	}
	presenter.RequestClose()
	presenters := []*wlcore.Presenter{presenter}

	frame := uint64(0)
	render := func(snap wlcore.Snapshot) {
		frame = snap.FrameCounter
		fill(snap.Buf, frame)
	}

	for {
		var finished bool
		presenters, finished, err = d.WorkPassFrame(ctx, presenters, render)
		if err != nil {
			logger.Error("work pass failed", "err", err)
			os.Exit(1)
		}
		if finished {
			break
		}
	}

	_ = backend.Close()
}

func fill(buf []byte, frame uint64) {
	if len(buf) == 0 {
		return
	}
	shade := byte(frame % 256)
	for i := 0; i+4 <= len(buf); i += 4 {
		buf[i+0] = shade
		buf[i+1] = shade
		buf[i+2] = shade
		buf[i+3] = 0xff
	}
}

func waitSync(ctx context.Context, d *wlcore.Driver, callbackId wlcore.Id) {
	for {
		if err := d.WorkPass(ctx); err != nil {
			panic(err)
		}
		h, ok := d.Registry().Find(callbackId)
		if !ok {
			// the display's delete_id already reclaimed the callback,
			// meaning the barrier already cleared this pass.
			return
		}
		if cb, ok := h.(*wlcore.CallbackHandler); ok && cb.Done() {
			return
		}
	}
}

func fatal(logger *slog.Logger, err error) {
	logger.Error("fatal", "err", err)
	os.Exit(1)
}
