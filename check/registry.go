package check

import (
	"fmt"
	"sort"
	"sync"
)

// A Constructor builds a Checker from construction arguments.
type Constructor func(args ...interface{}) (Checker, error)

var registry = struct {
	sync.RWMutex
	m map[string]Constructor
}{m: make(map[string]Constructor)}

// Register makes a checker constructor available under name, replacing any
// prior registration. Collaborating packages may register checkers without
// modifying the matching core.
func Register(name string, ctor Constructor) {
	registry.Lock()
	defer registry.Unlock()
	registry.m[name] = ctor
}

// New constructs the named checker.
func New(name string, args ...interface{}) (Checker, error) {
	registry.RLock()
	ctor, ok := registry.m[name]
	registry.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no checker named %q", name)
	}
	return ctor(args...)
}

// Names returns the registered checker names, sorted.
func Names() []string {
	registry.RLock()
	defer registry.RUnlock()
	names := make([]string, 0, len(registry.m))
	for name := range registry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func nArgs(name string, want, got int) error {
	if want != got {
		return fmt.Errorf("%s: got %d arguments, want %d", name, got, want)
	}
	return nil
}

func init() {
	Register("anything", func(args ...interface{}) (Checker, error) {
		if err := nArgs("anything", 0, len(args)); err != nil {
			return nil, err
		}
		return Anything, nil
	})
	Register("truthy", func(args ...interface{}) (Checker, error) {
		if err := nArgs("truthy", 0, len(args)); err != nil {
			return nil, err
		}
		return IsTruthy, nil
	})
	Register("equal-to", func(args ...interface{}) (Checker, error) {
		if err := nArgs("equal-to", 1, len(args)); err != nil {
			return nil, err
		}
		return EqualTo(args[0]), nil
	})
	Register("exactly", func(args ...interface{}) (Checker, error) {
		if err := nArgs("exactly", 1, len(args)); err != nil {
			return nil, err
		}
		return Exactly(args[0]), nil
	})
	Register("in-any-order", func(args ...interface{}) (Checker, error) {
		if err := nArgs("in-any-order", 1, len(args)); err != nil {
			return nil, err
		}
		return InAnyOrder(args[0]), nil
	})
}
