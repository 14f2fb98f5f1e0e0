package link

import (
	"context"
	"errors"
	"testing"
	"time"

	"gazeguard/internal/core/model"
)

func TestCallRoundTrip(t *testing.T) {
	bridge := New(1)
	stop := make(chan struct{})
	defer close(stop)
	go bridge.Serve(stop, func(request Request) Response {
		if request.Kind != KindGetSensitivity {
			t.Errorf("unexpected kind %q", request.Kind)
		}
		return Response{Sensitivity: 1.8}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	response, err := bridge.Call(ctx, Request{Kind: KindGetSensitivity})
	if err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if response.Sensitivity != 1.8 {
		t.Errorf("expected 1.8, got %g", response.Sensitivity)
	}
}

func TestCallCarriesPayload(t *testing.T) {
	bridge := New(1)
	stop := make(chan struct{})
	defer close(stop)
	var stored model.Calibration
	go bridge.Serve(stop, func(request Request) Response {
		stored = request.Calibration
		return Response{}
	})

	calibration := model.Calibration{BaselineFaceSize: 0.33, Timestamp: time.Now()}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if _, err := bridge.Call(ctx, Request{Kind: KindPutCalibration, Calibration: calibration}); err != nil {
		t.Fatalf("call failed: %v", err)
	}
	if stored.BaselineFaceSize != 0.33 {
		t.Errorf("payload not delivered, got %+v", stored)
	}
}

func TestCallExpiresWithoutServer(t *testing.T) {
	bridge := New(1)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, err := bridge.Call(ctx, Request{Kind: KindGetSensitivity})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("caller blocked far past the deadline: %v", elapsed)
	}
}

func TestHandlerErrorSurfacesToCaller(t *testing.T) {
	bridge := New(1)
	stop := make(chan struct{})
	defer close(stop)
	failure := errors.New("store offline")
	go bridge.Serve(stop, func(Request) Response {
		return Response{Err: failure}
	})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_, err := bridge.Call(ctx, Request{Kind: KindGetCalibration})
	if !errors.Is(err, failure) {
		t.Errorf("expected handler error, got %v", err)
	}
}
