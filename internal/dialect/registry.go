package dialect

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
)

// ErrUnsupportedDialect is returned for dialect names that are not registered.
var ErrUnsupportedDialect = errors.New("unsupported dialect")

// Factory builds the descriptor of a dialect for a backend version.
type Factory func(v Version) *Dialect

var (
	registryMu sync.RWMutex
	registry   = map[Type]Factory{}
)

var aliases = map[string]Type{
	"postgres":    PostgreSQL,
	"pg":          PostgreSQL,
	"pgsql":       PostgreSQL,
	"sqlite3":     SQLite,
	"sqlserver":   MSSQL,
	"mssqlserver": MSSQL,
	"maria":       MariaDB,
}

// Register adds a dialect factory. Dialect packages call it from init.
func Register(t Type, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[t] = f
}

// Resolve maps a user supplied dialect name to its type.
func Resolve(name string) (Type, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if a, ok := aliases[n]; ok {
		n = string(a)
	}
	registryMu.RLock()
	_, ok := registry[Type(n)]
	registryMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w %q; supported dialects: %s", ErrUnsupportedDialect, name, strings.Join(Names(), ", "))
	}
	return Type(n), nil
}

// Get returns the descriptor of a dialect for a version string. Unknown
// dialects fail closed.
func Get(name, version string) (*Dialect, error) {
	t, err := Resolve(name)
	if err != nil {
		return nil, err
	}
	v, err := ParseVersion(version)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t, err)
	}
	registryMu.RLock()
	f := registry[t]
	registryMu.RUnlock()
	d := f(v)
	d.Type = t
	d.Version = v
	if d.ColumnType == nil {
		return nil, fmt.Errorf("%w %q: dialect has no column type strategy", ErrUnsupportedDialect, t)
	}
	return d, nil
}

// Names returns the registered dialect names, sorted.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for t := range registry {
		out = append(out, string(t))
	}
	slices.Sort(out)
	return out
}
