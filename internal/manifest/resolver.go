package manifest

import "os"

// Resolver maps app IDs to display names. A name is read from disk once and
// served from memory until Forget is called for that ID.
//
// Resolver is not safe for concurrent use.
type Resolver struct {
	roots []string
	names map[uint64]string
}

// NewResolver returns a Resolver that searches roots in order.
func NewResolver(roots []string) *Resolver {
	return &Resolver{
		roots: roots,
		names: make(map[uint64]string),
	}
}

// Resolve returns the display name for appid. ok is false when no root has a
// manifest for it. A manifest that exists but cannot be parsed is an error.
func (r *Resolver) Resolve(appid uint64) (name string, ok bool, err error) {
	if name, ok := r.names[appid]; ok {
		return name, true, nil
	}

	path, ok := r.locate(appid)
	if !ok {
		return "", false, nil
	}
	name, err = ReadName(path)
	if err != nil {
		return "", false, err
	}
	r.names[appid] = name
	return name, true, nil
}

// Cached returns the name held for appid without touching the filesystem.
func (r *Resolver) Cached(appid uint64) (string, bool) {
	name, ok := r.names[appid]
	return name, ok
}

// Forget drops the cached name for appid.
func (r *Resolver) Forget(appid uint64) {
	delete(r.names, appid)
}

// Len reports how many names are cached.
func (r *Resolver) Len() int {
	return len(r.names)
}

// locate returns the first root's manifest path that is a regular file.
func (r *Resolver) locate(appid uint64) (string, bool) {
	for _, root := range r.roots {
		p := Path(root, appid)
		info, err := os.Stat(p)
		if err == nil && info.Mode().IsRegular() {
			return p, true
		}
	}
	return "", false
}
