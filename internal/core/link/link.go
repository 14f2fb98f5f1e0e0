// Package link carries request/response traffic between the coordinator and
// the proximity sampler. The two sides share no state: the sampler has no
// direct access to settings or storage and must ask the coordinator for both.
// Every call carries a deadline; on expiry the caller gets an error and falls
// back to a documented default instead of blocking.
package link

import (
	"context"
	"errors"

	"gazeguard/internal/core/model"
)

// ErrClosed indicates the serving side has shut down.
var ErrClosed = errors.New("link closed")

// Kind tags a request.
type Kind string

const (
	KindGetSensitivity   Kind = "settings.sensitivity"
	KindGetCalibration   Kind = "storage.get.calibration"
	KindPutCalibration   Kind = "storage.set.calibration"
	KindClearCalibration Kind = "storage.remove.calibration"
)

// Request is one message from the sampler to the coordinator.
type Request struct {
	Kind        Kind
	Calibration model.Calibration

	reply chan Response
}

// Response answers a single request.
type Response struct {
	Sensitivity float64
	Calibration model.Calibration
	Found       bool
	Err         error
}

// Link is a bidirectional channel pair with one serving side.
type Link struct {
	requests chan Request
}

// New creates a link with the given request buffer.
func New(buffer int) *Link {
	if buffer <= 0 {
		buffer = 1
	}
	return &Link{requests: make(chan Request, buffer)}
}

// Call sends a request and waits for the response or the context deadline,
// whichever comes first. A deadline expiry never leaves the server blocked:
// the reply channel is buffered, so a late response is simply dropped.
func (bridge *Link) Call(ctx context.Context, request Request) (Response, error) {
	request.reply = make(chan Response, 1)

	select {
	case bridge.requests <- request:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	select {
	case response := <-request.reply:
		if response.Err != nil {
			return Response{}, response.Err
		}
		return response, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// Serve answers requests with the provided handler until stop is closed.
// It is intended to run on the coordinator's side in its own goroutine.
func (bridge *Link) Serve(stop <-chan struct{}, handler func(Request) Response) {
	for {
		select {
		case <-stop:
			bridge.drain()
			return
		case request := <-bridge.requests:
			request.reply <- handler(request)
		}
	}
}

func (bridge *Link) drain() {
	for {
		select {
		case request := <-bridge.requests:
			request.reply <- Response{Err: ErrClosed}
		default:
			return
		}
	}
}
