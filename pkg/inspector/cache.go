// Package inspector is the three-tier cache the drawing layer queries every
// paint cycle. Schema data is shared by every instance of a schema, instance
// data by every session on that instance, and session state is private to
// one session. Each tier is rebuilt only when its own inputs changed, and
// every eviction is driven by a host event.
package inspector

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/oakwood-commons/propinspect/internal/cel"
	"github.com/oakwood-commons/propinspect/pkg/instance"
	"github.com/oakwood-commons/propinspect/pkg/schema"
	"github.com/oakwood-commons/propinspect/pkg/session"
)

var (
	// ErrSchemaUnusable is returned for a schema whose last build failed and
	// whose source has not changed since.
	ErrSchemaUnusable = errors.New("schema is unusable until its source changes")
	// ErrUnknownProperty is returned by per-property queries for a name the
	// schema does not declare.
	ErrUnknownProperty = errors.New("unknown property")
)

// SchemaSource is the compiled asset a schema is built from.
type SchemaSource interface {
	ID() string
	Properties() []schema.Property
	SourceLastModified() time.Time
}

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger for cache transitions and build diagnostics.
func WithLogger(l logr.Logger) Option {
	return func(c *Cache) { c.log = l }
}

// WithPresets sets the preset store used for default overlays.
func WithPresets(p instance.PresetStore) Option {
	return func(c *Cache) { c.presets = p }
}

// WithEvaluator shares one expression environment across schema builds.
func WithEvaluator(e *cel.Evaluator) Option {
	return func(c *Cache) { c.eval = e }
}

type schemaEntry struct {
	data      *schema.Data
	err       error
	modified  time.Time
	instances map[string]struct{}
}

type instanceEntry struct {
	schemaID    string
	host        instance.Host
	data        *instance.Data
	dirty       bool
	forceUpdate bool
	reverted    []string
	sessions    map[string]*session.State
}

// Cache is safe for concurrent use. A single lock serializes every query
// and hook, so a schema rebuild never overlaps a reader of the same schema.
type Cache struct {
	mu        sync.Mutex
	log       logr.Logger
	presets   instance.PresetStore
	eval      *cel.Evaluator
	schemas   map[string]*schemaEntry
	instances map[string]*instanceEntry
	stats     Stats
}

// New returns an empty cache.
func New(opts ...Option) *Cache {
	c := &Cache{
		log:       logr.Discard(),
		schemas:   make(map[string]*schemaEntry),
		instances: make(map[string]*instanceEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrBuild returns the view of one session on one instance, rebuilding
// the tiers whose inputs changed since the previous call.
func (c *Cache) GetOrBuild(src SchemaSource, host instance.Host, sessionID string) (*View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stats.Lookups++
	var rebuilt Tiers

	se, built, err := c.schemaFor(src)
	if err != nil {
		return nil, err
	}
	rebuilt.Schema = built

	ie := c.instanceFor(src.ID(), se, host)
	if ie.data == nil || ie.dirty || ie.forceUpdate {
		d, err := c.buildInstance(se, host)
		if err != nil {
			if errors.Is(err, instance.ErrSchemaMismatch) {
				c.log.Error(err, "schema mismatch, evicting schema", "schema", src.ID(), "instance", host.ID())
				c.evictSchema(src.ID())
			}
			return nil, err
		}
		ie.data, ie.dirty, ie.forceUpdate = d, false, false
		rebuilt.Instance = true
	}

	st, ok := ie.sessions[sessionID]
	if !ok {
		st = session.New(sessionID, host.ID(), se.data)
		ie.sessions[sessionID] = st
		c.log.V(2).Info("session opened", "instance", host.ID(), "session", sessionID)
	}
	before := st.Recomputes()
	st.ModifiedSet(se.data, ie.data)
	st.SearchMatches(se.data, ie.data)
	if n := st.Recomputes() - before; n > 0 || !ok {
		rebuilt.Session = true
		c.stats.SessionRecomputes += n
	}

	if rebuilt == (Tiers{}) {
		c.stats.Hits++
	}
	reverted := ie.reverted
	ie.reverted = nil

	return &View{
		cache:                  c,
		host:                   host,
		Schema:                 se.data,
		Instance:               ie.data,
		Session:                st,
		Rebuilt:                rebuilt,
		RevertedSinceLastQuery: reverted,
	}, nil
}

// schemaFor returns the schema entry for src, building it when absent or
// when the source timestamp moved. A rebuild drops every instance under it.
func (c *Cache) schemaFor(src SchemaSource) (*schemaEntry, bool, error) {
	id := src.ID()
	modified := src.SourceLastModified()
	se, ok := c.schemas[id]
	if ok && se.modified.Equal(modified) {
		if se.err != nil {
			return nil, false, fmt.Errorf("%w: %s: %w", ErrSchemaUnusable, id, se.err)
		}
		return se, false, nil
	}
	if ok {
		c.log.V(2).Info("schema source changed", "schema", id, "modified", modified)
		c.evictSchema(id)
	}

	opts := []schema.Option{schema.WithLogger(c.log)}
	if c.eval != nil {
		opts = append(opts, schema.WithEvaluator(c.eval))
	}
	data, err := schema.Build(id, src.Properties(), opts...)
	se = &schemaEntry{modified: modified, instances: make(map[string]struct{})}
	c.schemas[id] = se
	if err != nil {
		c.stats.SchemaFailures++
		se.err = err
		return nil, false, fmt.Errorf("%w: %s: %w", ErrSchemaUnusable, id, err)
	}
	c.stats.SchemaBuilds++
	se.data = data
	c.log.V(2).Info("schema built", "schema", id, "properties", data.Len())
	return se, true, nil
}

// instanceFor returns the instance entry for host, dropping a previous entry
// that was bound to a different schema.
func (c *Cache) instanceFor(schemaID string, se *schemaEntry, host instance.Host) *instanceEntry {
	id := host.ID()
	if ie, ok := c.instances[id]; ok {
		if ie.schemaID == schemaID {
			ie.host = host
			return ie
		}
		c.log.V(2).Info("instance reassigned", "instance", id, "from", ie.schemaID, "to", schemaID)
		c.dropInstance(id)
	}
	ie := &instanceEntry{
		schemaID: schemaID,
		host:     host,
		sessions: make(map[string]*session.State),
	}
	c.instances[id] = ie
	se.instances[id] = struct{}{}
	return ie
}

func (c *Cache) buildInstance(se *schemaEntry, host instance.Host) (*instance.Data, error) {
	opts := []instance.Option{instance.WithLogger(c.log)}
	if c.presets != nil {
		opts = append(opts, instance.WithPresets(c.presets))
	}
	d, err := instance.Build(se.data, host, opts...)
	if err != nil {
		return nil, err
	}
	c.stats.InstanceBuilds++
	return d, nil
}

func (c *Cache) evictSchema(id string) {
	se, ok := c.schemas[id]
	if !ok {
		return
	}
	for instID := range se.instances {
		c.dropInstance(instID)
	}
	delete(c.schemas, id)
	c.stats.Evictions++
}

func (c *Cache) dropInstance(id string) {
	ie, ok := c.instances[id]
	if !ok {
		return
	}
	if se, ok := c.schemas[ie.schemaID]; ok {
		delete(se.instances, id)
	}
	delete(c.instances, id)
}

// OnSchemaChanged drops the schema and everything cached under it. The next
// query rebuilds it even when the source timestamp did not move, which also
// clears a failed build.
func (c *Cache) OnSchemaChanged(schemaID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.V(2).Info("schema changed", "schema", schemaID)
	c.evictSchema(schemaID)
}

// OnSchemaDeleted drops the schema when its source asset is removed.
func (c *Cache) OnSchemaDeleted(schemaID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.V(2).Info("schema deleted", "schema", schemaID)
	c.evictSchema(schemaID)
}

// OnInstanceClosed drops the instance entry and its sessions.
func (c *Cache) OnInstanceClosed(instanceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.log.V(2).Info("instance closed", "instance", instanceID)
	c.dropInstance(instanceID)
}

// OnSessionClosed drops one session.
func (c *Cache) OnSessionClosed(instanceID, sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ie, ok := c.instances[instanceID]; ok {
		delete(ie.sessions, sessionID)
		c.log.V(2).Info("session closed", "instance", instanceID, "session", sessionID)
	}
}

// MarkInstanceDirty records that the instance's values changed outside the
// engine. The next query rebuilds its instance data.
func (c *Cache) MarkInstanceDirty(instanceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ie, ok := c.instances[instanceID]; ok {
		ie.dirty = true
	}
}

// Validate is the host's validate callback. It forces exactly one instance
// rebuild on the next query however many times it is called before then.
func (c *Cache) Validate(instanceID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ie, ok := c.instances[instanceID]; ok {
		ie.forceUpdate = true
	}
}

// Len returns the number of cached schemas, instances and sessions.
func (c *Cache) Len() (schemas, instances, sessions int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, ie := range c.instances {
		sessions += len(ie.sessions)
	}
	return len(c.schemas), len(c.instances), sessions
}

// Stats returns a copy of the cache counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
