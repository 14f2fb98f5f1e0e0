package platform

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"gazeguard/internal/core/coordinator"
)

const logindSessionPath = "/org/freedesktop/login1/session/auto"

// newIdleProvider prefers xprintidle (X11); without it, it falls back to the
// logind session idle hint over D-Bus, which also covers Wayland sessions.
func newIdleProvider() IdleProvider {
	if path, err := exec.LookPath("xprintidle"); err == nil {
		return &x11IdleProvider{xprintidlePath: path}
	}
	return &logindIdleProvider{}
}

type x11IdleProvider struct {
	xprintidlePath string
}

func (provider *x11IdleProvider) IdleDuration() (time.Duration, error) {
	output, err := exec.Command(provider.xprintidlePath).Output()
	if err != nil {
		return 0, fmt.Errorf("xprintidle: %w", err)
	}
	value := strings.TrimSpace(string(output))
	idleMillis, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse idle milliseconds: %w", err)
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}

type logindIdleProvider struct {
	mu   sync.Mutex
	conn *dbus.Conn
}

func (provider *logindIdleProvider) IdleDuration() (time.Duration, error) {
	conn, err := provider.connection()
	if err != nil {
		return 0, coordinator.ErrIdleUnsupported
	}

	session := conn.Object("org.freedesktop.login1", logindSessionPath)

	hint, err := session.GetProperty("org.freedesktop.login1.Session.IdleHint")
	if err != nil {
		return 0, fmt.Errorf("logind idle hint: %w", err)
	}
	idle, ok := hint.Value().(bool)
	if !ok {
		return 0, fmt.Errorf("logind idle hint: unexpected type %T", hint.Value())
	}
	if !idle {
		return 0, nil
	}

	since, err := session.GetProperty("org.freedesktop.login1.Session.IdleSinceHint")
	if err != nil {
		return 0, fmt.Errorf("logind idle since hint: %w", err)
	}
	sinceMicros, ok := since.Value().(uint64)
	if !ok || sinceMicros == 0 {
		return 0, nil
	}
	duration := time.Since(time.UnixMicro(int64(sinceMicros)))
	if duration < 0 {
		duration = 0
	}
	return duration, nil
}

func (provider *logindIdleProvider) connection() (*dbus.Conn, error) {
	provider.mu.Lock()
	defer provider.mu.Unlock()
	if provider.conn != nil {
		return provider.conn, nil
	}
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, err
	}
	provider.conn = conn
	return conn, nil
}
