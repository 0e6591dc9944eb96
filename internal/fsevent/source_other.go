//go:build !linux

package fsevent

func newSource() (Source, error) {
	return nil, ErrUnsupported
}
