package engine

import (
	"fmt"
	"sort"
	"sync"
)

// Driver opens sessions for one registered engine provider. The dsn format is
// provider-specific and opaque to this package.
type Driver interface {
	Open(dsn string) (Engine, error)
}

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes an engine provider available under the given name. It is
// intended to be called from a provider's init function, so duplicate or
// invalid registrations panic rather than return an error.
func Register(name string, driver Driver) {
	driversMu.Lock()
	defer driversMu.Unlock()

	if driver == nil {
		panic("engine: Register driver is nil")
	}

	if _, dup := drivers[name]; dup {
		panic("engine: Register called twice for provider " + name)
	}

	drivers[name] = driver
}

// Drivers returns the names of all registered providers, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()

	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// Open opens a session against the named provider. The provider must have
// been registered, typically via a blank import of its package.
func Open(name, dsn string) (Engine, error) {
	driversMu.RLock()
	driver, ok := drivers[name]
	driversMu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("engine: unknown provider %q (forgotten import?)", name)
	}

	eng, err := driver.Open(dsn)
	if err != nil {
		return nil, fmt.Errorf("engine: opening provider %q: %w", name, err)
	}

	return eng, nil
}
