package power

import (
	"io"
	"runtime"
	"sync"
)

// Lock is a held sleep inhibition. The underlying resource is released by
// Release, or by the runtime once the Lock becomes unreachable.
type Lock struct {
	r *releaser
}

type releaser struct {
	once   sync.Once
	closer io.Closer
	err    error
}

// NewLock wraps the resource backing an inhibition. Closing c must give the
// inhibition back to the power manager.
func NewLock(c io.Closer) *Lock {
	r := &releaser{closer: c}
	l := &Lock{r: r}
	runtime.AddCleanup(l, func(r *releaser) { _ = r.release() }, r)
	return l
}

// Release gives the inhibition back. Only the first call has an effect.
func (l *Lock) Release() error {
	if l == nil {
		return nil
	}
	return l.r.release()
}

func (r *releaser) release() error {
	r.once.Do(func() {
		r.err = r.closer.Close()
	})
	return r.err
}
