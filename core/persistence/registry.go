package persistence

import (
	"maps"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// DefaultTableNames maps the auth framework's model names to the tables
// they live in. Both singular and plural model names are accepted.
var DefaultTableNames = map[string]string{
	"user":          "users",
	"users":         "users",
	"session":       "sessions",
	"sessions":      "sessions",
	"account":       "accounts",
	"accounts":      "accounts",
	"verification":  "verifications",
	"verifications": "verifications",
	"passkey":       "passkeys",
	"passkeys":      "passkeys",
	"organization":  "organizations",
	"organizations": "organizations",
	"member":        "members",
	"members":       "members",
	"invitation":    "invitations",
	"invitations":   "invitations",
	"team":          "teams",
	"teams":         "teams",
	"jwks":          "jwks",
}

// Registry owns every collection and resolves model names to them. It is
// also the single writer: Exec hands the collections to one operation at a
// time.
type Registry struct {
	mu         sync.Mutex
	namesMu    sync.RWMutex
	tableNames map[string]string
	tables     map[string]*Collection
	logger     *zap.Logger
}

// NewRegistry creates a registry with an empty collection for every table
// named in tableNames. A nil map falls back to DefaultTableNames. Table
// names resolve as model names of their own.
func NewRegistry(tableNames map[string]string, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if tableNames == nil {
		tableNames = DefaultTableNames
	}

	r := &Registry{
		tableNames: maps.Clone(tableNames),
		tables:     make(map[string]*Collection),
		logger:     logger,
	}
	for _, table := range tableNames {
		if _, ok := r.tableNames[table]; !ok {
			r.tableNames[table] = table
		}
		if _, ok := r.tables[table]; !ok {
			r.tables[table] = NewCollection(table)
		}
	}
	return r
}

// Register maps model to table, creating the table if it does not exist yet,
// and returns its collection. The table name is always resolvable as a
// model name of its own.
func (r *Registry) Register(model, table string) *Collection {
	r.namesMu.Lock()
	defer r.namesMu.Unlock()

	r.tableNames[model] = table
	if _, ok := r.tableNames[table]; !ok {
		r.tableNames[table] = table
	}

	c, ok := r.tables[table]
	if !ok {
		c = NewCollection(table)
		r.tables[table] = c
		r.logger.Debug("Registered table", zap.String("model", model), zap.String("table", table))
	}
	return c
}

// TableName returns the table a model maps to.
func (r *Registry) TableName(model string) (string, bool) {
	r.namesMu.RLock()
	defer r.namesMu.RUnlock()

	table, ok := r.tableNames[model]
	return table, ok
}

// Resolve returns the collection for model, or a TableNotFoundError.
func (r *Registry) Resolve(model string) (*Collection, error) {
	r.namesMu.RLock()
	defer r.namesMu.RUnlock()

	table, ok := r.tableNames[model]
	if !ok {
		return nil, &TableNotFoundError{Model: model}
	}
	c, ok := r.tables[table]
	if !ok {
		return nil, &TableNotFoundError{Model: model}
	}
	return c, nil
}

// Tables returns the registered table names in sorted order.
func (r *Registry) Tables() []string {
	r.namesMu.RLock()
	defer r.namesMu.RUnlock()

	return slices.Sorted(maps.Keys(r.tables))
}

// Exec runs fn while holding the registry's write lock. Operations that read
// or mutate collections must go through Exec.
func (r *Registry) Exec(fn func() error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn()
}
