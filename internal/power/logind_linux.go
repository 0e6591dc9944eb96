//go:build linux

package power

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	logindDest    = "org.freedesktop.login1"
	logindPath    = dbus.ObjectPath("/org/freedesktop/login1")
	logindInhibit = "org.freedesktop.login1.Manager.Inhibit"
	callTimeout   = 10 * time.Second
)

// logindInhibitor asks systemd-logind for a "block" sleep inhibitor over the
// system bus. logind hands back a file descriptor; the lock lasts until every
// copy of that descriptor is closed.
type logindInhibitor struct {
	who  string
	conn *dbus.Conn
	obj  dbus.BusObject
}

func newLogindInhibitor(who string) (*logindInhibitor, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("connect to system bus: %w", err)
	}
	return &logindInhibitor{
		who:  who,
		conn: conn,
		obj:  conn.Object(logindDest, logindPath),
	}, nil
}

func (l *logindInhibitor) Acquire(why string) (*Lock, error) {
	ctx, cancel := context.WithTimeout(context.Background(), callTimeout)
	defer cancel()

	var fd dbus.UnixFD
	call := l.obj.CallWithContext(ctx, logindInhibit, 0, "sleep", l.who, why, "block")
	if err := call.Store(&fd); err != nil {
		return nil, fmt.Errorf("logind inhibit: %w", err)
	}
	return NewLock(os.NewFile(uintptr(fd), "logind-inhibit")), nil
}

func (l *logindInhibitor) Close() error {
	return l.conn.Close()
}
