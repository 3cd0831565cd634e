package tenant

import (
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// ErrUnknownSchema is returned when no tenant is registered for a schema.
var ErrUnknownSchema = errors.New("tenant: unknown schema")

// Handle couples a validated schema with the tenant's own database
// connection. All tenant-scoped storage access goes through a Handle, so a
// request authenticated against one tenant cannot reach another tenant's
// tables.
type Handle struct {
	schema Schema
	db     *gorm.DB
}

// Schema returns the validated schema name this handle belongs to.
func (h *Handle) Schema() Schema {
	return h.schema
}

// DB returns the tenant's database connection.
func (h *Handle) DB() *gorm.DB {
	return h.db
}

// Registry maps schema names to tenant handles and holds the cross-tenant
// subscription catalog connection.
type Registry struct {
	mu      sync.RWMutex
	tenants map[Schema]*Handle
	catalog *gorm.DB
}

// NewRegistry constructs a Registry around the central catalog connection.
func NewRegistry(catalog *gorm.DB) (*Registry, error) {
	if catalog == nil {
		return nil, errors.New("tenant: catalog db is required")
	}
	return &Registry{
		tenants: make(map[Schema]*Handle),
		catalog: catalog,
	}, nil
}

// Register adds a tenant database under the supplied schema name.
func (r *Registry) Register(raw string, db *gorm.DB) (*Handle, error) {
	schema, err := ParseSchema(raw)
	if err != nil {
		return nil, err
	}
	if db == nil {
		return nil, fmt.Errorf("tenant: db is required for schema %q", schema)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tenants[schema]; exists {
		return nil, fmt.Errorf("tenant: schema %q already registered", schema)
	}

	handle := &Handle{schema: schema, db: db}
	r.tenants[schema] = handle
	return handle, nil
}

// Resolve validates the raw schema name and returns the matching handle.
func (r *Registry) Resolve(raw string) (*Handle, error) {
	schema, err := ParseSchema(raw)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	handle, ok := r.tenants[schema]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSchema, schema)
	}
	return handle, nil
}

// Catalog returns the cross-tenant subscription catalog connection.
func (r *Registry) Catalog() *gorm.DB {
	return r.catalog
}

// ForEach invokes fn for every registered tenant over a snapshot of the
// registry, so registration during iteration cannot deadlock or corrupt it.
func (r *Registry) ForEach(fn func(*Handle) error) error {
	r.mu.RLock()
	handles := make([]*Handle, 0, len(r.tenants))
	for _, handle := range r.tenants {
		handles = append(handles, handle)
	}
	r.mu.RUnlock()

	for _, handle := range handles {
		if err := fn(handle); err != nil {
			return err
		}
	}
	return nil
}
