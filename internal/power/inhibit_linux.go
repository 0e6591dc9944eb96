//go:build linux

package power

import "fmt"

func newInhibitor(opts Options) (Inhibitor, error) {
	switch opts.Backend {
	case BackendLogind:
		return newLogindInhibitor(opts.Who)
	case BackendSystemdInhibit:
		return newSystemdInhibitor(opts.Who)
	default:
		return nil, fmt.Errorf("unknown inhibit backend %q", opts.Backend)
	}
}
