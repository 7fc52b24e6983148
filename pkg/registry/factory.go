// Package registry maps small integer mode ids to constructors
// for the open families of parameter objects.
package registry

import (
	"fmt"
	"sort"
	"sync"

	logging "github.com/op/go-logging"

	"github.com/scttfrdmn/mpegg-go/pkg/bitio"
	"github.com/scttfrdmn/mpegg-go/pkg/core"
)

var log = logging.MustGetLogger("registry")

// Constructor builds a T for desc, reading its configuration from r.
// The mode byte that selected the constructor has already been consumed.
type Constructor[T any] func(desc core.GenDesc, r *bitio.Reader) (T, error)

// Factory is a mode-indexed table of constructors for one family.
// The zero value is not usable; call NewFactory.
type Factory[T any] struct {
	name string

	mu    sync.RWMutex
	ctors map[uint8]Constructor[T]
}

// NewFactory creates an empty factory. name appears in errors and logs.
func NewFactory[T any](name string) *Factory[T] {
	return &Factory[T]{
		name:  name,
		ctors: make(map[uint8]Constructor[T]),
	}
}

// Register installs fn for mode. A later registration for the
// same mode replaces the earlier one.
func (f *Factory[T]) Register(mode uint8, fn Constructor[T]) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.ctors[mode]; ok {
		log.Debugf("%s: replacing constructor for mode %d", f.name, mode)
	} else {
		log.Debugf("%s: registered mode %d", f.name, mode)
	}
	f.ctors[mode] = fn
}

// Construct runs the constructor for mode. A mode with no
// registration yields core.ErrUnknownImplementation.
func (f *Factory[T]) Construct(mode uint8, desc core.GenDesc, r *bitio.Reader) (T, error) {
	f.mu.RLock()
	fn, ok := f.ctors[mode]
	f.mu.RUnlock()
	if !ok {
		var zero T
		return zero, fmt.Errorf("%s mode %d: %w", f.name, mode, core.ErrUnknownImplementation)
	}
	return fn(desc, r)
}

// Has reports whether mode is registered
func (f *Factory[T]) Has(mode uint8) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.ctors[mode]
	return ok
}

// Modes returns the registered mode ids in ascending order
func (f *Factory[T]) Modes() []uint8 {
	f.mu.RLock()
	out := make([]uint8, 0, len(f.ctors))
	for m := range f.ctors {
		out = append(out, m)
	}
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Name returns the family name given to NewFactory
func (f *Factory[T]) Name() string {
	return f.name
}
