//go:build linux

package fsevent

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"
)

const (
	knownMask  = unix.IN_ACCESS | unix.IN_CREATE | unix.IN_CLOSE_WRITE
	bufferSize = 4096
)

type inotifySource struct {
	fd   int
	file *os.File
	buf  [bufferSize]byte

	mu      sync.Mutex
	watches map[int]string

	closeOnce sync.Once
	closeErr  error
}

func newSource() (Source, error) {
	fd, err := unix.InotifyInit1(unix.IN_CLOEXEC | unix.IN_NONBLOCK)
	if err != nil {
		return nil, fmt.Errorf("inotify init: %w", err)
	}
	// A non-blocking descriptor makes the File pollable, so Close unblocks Read.
	return &inotifySource{
		fd:      fd,
		file:    os.NewFile(uintptr(fd), "inotify"),
		watches: make(map[int]string),
	}, nil
}

func (s *inotifySource) Add(dir string, ops Op) error {
	wd, err := unix.InotifyAddWatch(s.fd, dir, toMask(ops))
	if err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	s.mu.Lock()
	s.watches[wd] = dir
	s.mu.Unlock()
	return nil
}

func (s *inotifySource) Read() ([]Event, error) {
	n, err := s.file.Read(s.buf[:])
	if err != nil {
		if errors.Is(err, os.ErrClosed) {
			return nil, ErrClosed
		}
		return nil, fmt.Errorf("read inotify: %w", err)
	}
	if n < unix.SizeofInotifyEvent {
		return nil, fmt.Errorf("short inotify read: %d bytes", n)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return parseEvents(s.buf[:n], s.watches)
}

func (s *inotifySource) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.file.Close()
	})
	return s.closeErr
}

// parseEvents decodes a buffer of struct inotify_event records. A truncated
// trailing record is dropped. A queue overflow, or IN_IGNORED for a
// registered watch, fails the whole batch.
func parseEvents(buf []byte, dirs map[int]string) ([]Event, error) {
	var events []Event
	for offset := 0; offset+unix.SizeofInotifyEvent <= len(buf); {
		wd := int(int32(binary.NativeEndian.Uint32(buf[offset:])))
		mask := binary.NativeEndian.Uint32(buf[offset+4:])
		nameLen := int(binary.NativeEndian.Uint32(buf[offset+12:]))
		start := offset + unix.SizeofInotifyEvent
		end := start + nameLen
		if end > len(buf) {
			break
		}
		if mask&unix.IN_Q_OVERFLOW != 0 {
			return nil, ErrOverflow
		}
		if dir, ok := dirs[wd]; ok && mask&unix.IN_IGNORED != 0 {
			delete(dirs, wd)
			return nil, fmt.Errorf("%w: %s", ErrWatchLost, dir)
		}
		events = append(events, Event{
			Dir:  dirs[wd],
			Name: string(bytes.TrimRight(buf[start:end], "\x00")),
			Op:   fromMask(mask),
		})
		offset = end
	}
	return events, nil
}

func toMask(ops Op) uint32 {
	var mask uint32
	if ops.Has(Access) {
		mask |= unix.IN_ACCESS
	}
	if ops.Has(Create) {
		mask |= unix.IN_CREATE
	}
	if ops.Has(CloseWrite) {
		mask |= unix.IN_CLOSE_WRITE
	}
	return mask
}

func fromMask(mask uint32) Op {
	var op Op
	if mask&unix.IN_ACCESS != 0 {
		op |= Access
	}
	if mask&unix.IN_CREATE != 0 {
		op |= Create
	}
	if mask&unix.IN_CLOSE_WRITE != 0 {
		op |= CloseWrite
	}
	if mask&^uint32(knownMask) != 0 {
		op |= Other
	}
	return op
}
