//go:build linux

package power

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// settleDelay is how long a freshly started systemd-inhibit must stay alive
// before its lock is trusted. A refused request exits well within it.
var settleDelay = 250 * time.Millisecond

// systemdInhibitor holds each lock in a "systemd-inhibit ... sleep infinity"
// child. Used where the daemon cannot reach the system bus itself.
type systemdInhibitor struct {
	path string
	who  string
}

func newSystemdInhibitor(who string) (*systemdInhibitor, error) {
	path, err := exec.LookPath("systemd-inhibit")
	if err != nil {
		return nil, fmt.Errorf("systemd-inhibit not found: %w", err)
	}
	return &systemdInhibitor{path: path, who: who}, nil
}

func (s *systemdInhibitor) Acquire(why string) (*Lock, error) {
	cmd := exec.Command(s.path,
		"--what=sleep",
		"--who="+s.who,
		"--why="+why,
		"--mode=block",
		"sleep", "infinity",
	)
	// Kernel sends SIGTERM to the child when the daemon dies, so no orphan keeps the lock.
	cmd.SysProcAttr = &syscall.SysProcAttr{Pdeathsig: syscall.SIGTERM}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start systemd-inhibit: %w", err)
	}

	c := &child{proc: cmd.Process, done: make(chan struct{})}
	go func() {
		c.err = cmd.Wait()
		close(c.done)
	}()

	select {
	case <-c.done:
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "no output"
		}
		return nil, fmt.Errorf("systemd-inhibit exited early (%v): %s", c.err, msg)
	case <-time.After(settleDelay):
	}

	return NewLock(c), nil
}

func (s *systemdInhibitor) Close() error { return nil }

type child struct {
	proc *os.Process
	done chan struct{}
	// err is the Wait result, readable once done is closed.
	err error
}

// Exited reports whether the helper is gone, which means the lock it held is
// gone too.
func (c *child) Exited() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *child) Close() error {
	if c.Exited() {
		return fmt.Errorf("systemd-inhibit died before release: %v", c.err)
	}
	if err := c.proc.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill systemd-inhibit: %w", err)
	}
	<-c.done
	return nil
}
