package download

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/steamwake/steamwake/internal/fsevent"
	"github.com/steamwake/steamwake/internal/manifest"
	"github.com/steamwake/steamwake/internal/power"
)

type handle struct {
	why      string
	releases int
}

func (h *handle) Close() error {
	h.releases++
	return nil
}

type fakeInhibitor struct {
	handles []*handle
	err     error
}

func (f *fakeInhibitor) Acquire(why string) (*power.Lock, error) {
	if f.err != nil {
		return nil, f.err
	}
	h := &handle{why: why}
	f.handles = append(f.handles, h)
	return power.NewLock(h), nil
}

func (f *fakeInhibitor) Close() error { return nil }

type fakeResolver struct {
	names    map[uint64]string
	err      error
	resolves int
	forgets  []uint64
}

func (f *fakeResolver) Resolve(appid uint64) (string, bool, error) {
	f.resolves++
	if f.err != nil {
		return "", false, f.err
	}
	name, ok := f.names[appid]
	return name, ok, nil
}

func (f *fakeResolver) Forget(appid uint64) {
	f.forgets = append(f.forgets, appid)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeManifest(t *testing.T, root string, appid uint64, name string) {
	t.Helper()
	p := manifest.Path(root, appid)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "\"AppState\"\n{\n\t\"name\"\t\t\"" + name + "\"\n}\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStartThenStop(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, 42, "Game A")
	resolver := manifest.NewResolver([]string{root})
	inhibitor := &fakeInhibitor{}
	d := NewDispatcher(resolver, inhibitor, quietLogger())

	if err := d.Process(fsevent.Event{Name: "state_42_0", Op: fsevent.Create}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := d.Active(); !reflect.DeepEqual(got, []uint64{42}) {
		t.Fatalf("Active = %v", got)
	}
	if name, ok := resolver.Cached(42); !ok || name != "Game A" {
		t.Fatalf("cached name = %q, %v", name, ok)
	}
	if len(inhibitor.handles) != 1 || inhibitor.handles[0].why != "Downloading Game A" {
		t.Fatalf("unexpected acquisitions: %+v", inhibitor.handles)
	}

	if err := d.Process(fsevent.Event{Name: "state_42_1", Op: fsevent.CloseWrite}); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if got := d.Active(); len(got) != 0 {
		t.Fatalf("Active after stop = %v", got)
	}
	if _, ok := resolver.Cached(42); ok {
		t.Fatal("name should be forgotten after stop")
	}
	if inhibitor.handles[0].releases != 1 {
		t.Fatalf("lock released %d times, want 1", inhibitor.handles[0].releases)
	}
}

func TestIgnoredEvents(t *testing.T) {
	tests := []struct {
		name string
		ev   fsevent.Event
	}{
		{"unrelated file", fsevent.Event{Name: "unrelated.txt", Op: fsevent.Create}},
		{"no name", fsevent.Event{Op: fsevent.Create}},
		{"not utf-8", fsevent.Event{Name: "state_\xff_0", Op: fsevent.Create}},
		{"prefix is case sensitive", fsevent.Event{Name: "State_42_0", Op: fsevent.Create}},
		{"unknown op", fsevent.Event{Name: "state_42_0", Op: fsevent.Other}},
		{"directory create", fsevent.Event{Name: "state_42_0", Op: fsevent.Create | fsevent.Other}},
		{"combined ops", fsevent.Event{Name: "state_42_0", Op: fsevent.Access | fsevent.CloseWrite}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := &fakeResolver{names: map[uint64]string{42: "Game A"}}
			inhibitor := &fakeInhibitor{}
			d := NewDispatcher(resolver, inhibitor, quietLogger())

			if err := d.Process(tt.ev); err != nil {
				t.Fatalf("Process: %v", err)
			}
			if resolver.resolves != 0 || len(resolver.forgets) != 0 {
				t.Fatalf("resolver touched: %d resolves, %d forgets", resolver.resolves, len(resolver.forgets))
			}
			if len(inhibitor.handles) != 0 {
				t.Fatalf("inhibitor called %d times", len(inhibitor.handles))
			}
		})
	}
}

func TestAccessStartsDownload(t *testing.T) {
	resolver := &fakeResolver{names: map[uint64]string{730: "Game B"}}
	d := NewDispatcher(resolver, &fakeInhibitor{}, quietLogger())

	if err := d.Process(fsevent.Event{Name: "state_730_731", Op: fsevent.Access}); err != nil {
		t.Fatal(err)
	}
	if got := d.Active(); !reflect.DeepEqual(got, []uint64{730}) {
		t.Fatalf("Active = %v", got)
	}
}

func TestStartWithoutManifestIsDropped(t *testing.T) {
	resolver := manifest.NewResolver([]string{t.TempDir(), t.TempDir()})
	inhibitor := &fakeInhibitor{}
	d := NewDispatcher(resolver, inhibitor, quietLogger())

	if err := d.Process(fsevent.Event{Name: "state_7_0", Op: fsevent.Access}); err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(d.Active()) != 0 || resolver.Len() != 0 || len(inhibitor.handles) != 0 {
		t.Fatalf("expected no state, got active=%v cached=%d locks=%d",
			d.Active(), resolver.Len(), len(inhibitor.handles))
	}
}

func TestMalformedIDIsFatal(t *testing.T) {
	for _, name := range []string{"state_abc_0", "state_", "state_-1_0", "state_42x"} {
		t.Run(name, func(t *testing.T) {
			resolver := &fakeResolver{}
			d := NewDispatcher(resolver, &fakeInhibitor{}, quietLogger())

			err := d.Process(fsevent.Event{Name: name, Op: fsevent.Create})
			if !errors.Is(err, ErrMalformedID) {
				t.Fatalf("expected ErrMalformedID, got %v", err)
			}
			if resolver.resolves != 0 {
				t.Fatal("resolver must not run for a malformed id")
			}
		})
	}
}

func TestStopIsIdempotent(t *testing.T) {
	resolver := &fakeResolver{}
	inhibitor := &fakeInhibitor{}
	d := NewDispatcher(resolver, inhibitor, quietLogger())

	for i := 0; i < 2; i++ {
		if err := d.Process(fsevent.Event{Name: "state_42_0", Op: fsevent.CloseWrite}); err != nil {
			t.Fatalf("stop #%d: %v", i, err)
		}
	}
	if len(d.Active()) != 0 || len(inhibitor.handles) != 0 {
		t.Fatal("stop without start must not create state")
	}
}

func TestRestartReplacesLock(t *testing.T) {
	resolver := &fakeResolver{names: map[uint64]string{42: "Game A"}}
	inhibitor := &fakeInhibitor{}
	d := NewDispatcher(resolver, inhibitor, quietLogger())

	start := fsevent.Event{Name: "state_42_0", Op: fsevent.Create}
	for i := 0; i < 3; i++ {
		if err := d.Process(start); err != nil {
			t.Fatal(err)
		}
	}
	if got := d.Active(); !reflect.DeepEqual(got, []uint64{42}) {
		t.Fatalf("Active = %v", got)
	}
	if len(inhibitor.handles) != 3 {
		t.Fatalf("expected 3 acquisitions, got %d", len(inhibitor.handles))
	}
	for i, h := range inhibitor.handles[:2] {
		if h.releases != 1 {
			t.Fatalf("replaced lock %d released %d times", i, h.releases)
		}
	}
	latest := inhibitor.handles[2]
	if latest.releases != 0 {
		t.Fatal("most recent lock should still be held")
	}

	if err := d.Process(fsevent.Event{Name: "state_42_0", Op: fsevent.CloseWrite}); err != nil {
		t.Fatal(err)
	}
	if err := d.Process(fsevent.Event{Name: "state_42_0", Op: fsevent.CloseWrite}); err != nil {
		t.Fatal(err)
	}
	for i, h := range inhibitor.handles {
		if h.releases != 1 {
			t.Fatalf("lock %d released %d times, want 1", i, h.releases)
		}
	}
}

func TestIndependentApps(t *testing.T) {
	resolver := &fakeResolver{names: map[uint64]string{1: "One", 2: "Two"}}
	inhibitor := &fakeInhibitor{}
	d := NewDispatcher(resolver, inhibitor, quietLogger())

	events := []fsevent.Event{
		{Name: "state_2_0", Op: fsevent.Create},
		{Name: "state_1_0", Op: fsevent.Create},
		{Name: "state_2_0", Op: fsevent.CloseWrite},
	}
	for _, ev := range events {
		if err := d.Process(ev); err != nil {
			t.Fatal(err)
		}
	}
	if got := d.Active(); !reflect.DeepEqual(got, []uint64{1}) {
		t.Fatalf("Active = %v", got)
	}
	if !reflect.DeepEqual(resolver.forgets, []uint64{2}) {
		t.Fatalf("forgets = %v", resolver.forgets)
	}
}

func TestResolveErrorIsFatal(t *testing.T) {
	resolver := &fakeResolver{err: manifest.ErrInvalidManifest}
	inhibitor := &fakeInhibitor{}
	d := NewDispatcher(resolver, inhibitor, quietLogger())

	err := d.Process(fsevent.Event{Name: "state_42_0", Op: fsevent.Create})
	if !errors.Is(err, manifest.ErrInvalidManifest) {
		t.Fatalf("expected ErrInvalidManifest, got %v", err)
	}
	if len(inhibitor.handles) != 0 || len(d.Active()) != 0 {
		t.Fatal("no lock should be taken")
	}
}

func TestAcquireErrorIsFatal(t *testing.T) {
	busDown := errors.New("bus down")
	resolver := &fakeResolver{names: map[uint64]string{42: "Game A"}}
	d := NewDispatcher(resolver, &fakeInhibitor{err: busDown}, quietLogger())

	err := d.Process(fsevent.Event{Name: "state_42_0", Op: fsevent.Create})
	if !errors.Is(err, busDown) {
		t.Fatalf("expected %v, got %v", busDown, err)
	}
	if len(d.Active()) != 0 {
		t.Fatalf("Active = %v", d.Active())
	}
}

func TestCloseReleasesAll(t *testing.T) {
	resolver := &fakeResolver{names: map[uint64]string{1: "One", 2: "Two"}}
	inhibitor := &fakeInhibitor{}
	d := NewDispatcher(resolver, inhibitor, quietLogger())

	for _, name := range []string{"state_1_0", "state_2_0"} {
		if err := d.Process(fsevent.Event{Name: name, Op: fsevent.Create}); err != nil {
			t.Fatal(err)
		}
	}
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if len(d.Active()) != 0 {
		t.Fatalf("Active after Close = %v", d.Active())
	}
	for i, h := range inhibitor.handles {
		if h.releases != 1 {
			t.Fatalf("lock %d released %d times", i, h.releases)
		}
	}
}

func TestParseStateName(t *testing.T) {
	tests := []struct {
		name    string
		want    uint64
		ok      bool
		wantErr bool
	}{
		{name: "state_42_0", want: 42, ok: true},
		{name: "state_42", want: 42, ok: true},
		{name: "state_0_1_2", want: 0, ok: true},
		{name: "state_18446744073709551615_0", want: 18446744073709551615, ok: true},
		{name: "manifest_42_0"},
		{name: ""},
		{name: "state_x", wantErr: true},
		{name: "state__0", wantErr: true},
		{name: "state_18446744073709551616_0", wantErr: true},
	}
	for _, tt := range tests {
		got, ok, err := parseStateName(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseStateName(%q) err = %v", tt.name, err)
			continue
		}
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseStateName(%q) = %d, %v; want %d, %v", tt.name, got, ok, tt.want, tt.ok)
		}
	}
}
