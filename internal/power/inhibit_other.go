//go:build !linux

package power

func newInhibitor(Options) (Inhibitor, error) {
	return nil, ErrUnsupported
}
