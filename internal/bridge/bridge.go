// Package bridge turns one native-messaging request into a player launch.
//
// The host serves exactly one request per process: it reads a frame, starts
// the player, writes a frame and exits. A successful response means the
// request was accepted for launch; it says nothing about whether the player
// managed to open the media.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"vlc-opener/internal/logging"
	"vlc-opener/internal/nativemsg"
)

// NoURLError is the error text sent when a request carries no usable url.
const NoURLError = "No URL provided"

// Launcher starts the external player for a URL without waiting for it.
type Launcher interface {
	Launch(ctx context.Context, url string) error
}

type Bridge struct {
	launcher Launcher
	logger   *slog.Logger
}

func New(launcher Launcher, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Bridge{launcher: launcher, logger: logger}
}

// Handle dispatches a decoded request. Launch failures are reported in the
// response, never returned.
func (b *Bridge) Handle(ctx context.Context, req *nativemsg.Request) nativemsg.Response {
	if req == nil || req.URL == "" {
		b.logger.Info("rejected request without url")
		return nativemsg.Failure(NoURLError)
	}

	if err := b.launcher.Launch(ctx, req.URL); err != nil {
		msg := err.Error()
		if msg == "" {
			msg = "failed to start player"
		}
		return nativemsg.Failure(msg)
	}
	return nativemsg.Success()
}

// Serve reads one request from in, handles it and writes the response to
// out. A stream that closes before any byte arrives is a clean exit with
// nothing written. Broken framing is returned as an error and no response
// is written.
func (b *Bridge) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	req, err := nativemsg.ReadRequest(in)
	if errors.Is(err, nativemsg.ErrNoMessage) {
		b.logger.Debug("input closed before a request arrived")
		return nil
	}
	if err != nil {
		return fmt.Errorf("read request: %w", err)
	}

	resp := b.Handle(ctx, req)
	b.logger.Debug("sending response", "success", resp.Success, "error", resp.Error)
	if err := nativemsg.WriteResponse(out, resp); err != nil {
		return fmt.Errorf("write response: %w", err)
	}
	return nil
}
