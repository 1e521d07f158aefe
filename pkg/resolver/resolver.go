package resolver

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/strataconf/strata/pkg/events"
	"github.com/strataconf/strata/pkg/log"
	"github.com/strataconf/strata/pkg/merge"
	"github.com/strataconf/strata/pkg/metrics"
	"github.com/strataconf/strata/pkg/source"
	"github.com/strataconf/strata/pkg/types"
)

// DefaultTTL is the cache invalidation window for resolved namespaces.
// Expiry is wall-clock based; external file edits inside the window stay
// invisible until expiry, an explicit force reload, or a watcher
// invalidation.
const DefaultTTL = 5 * time.Minute

// Option configures a Resolver
type Option func(*Resolver)

// WithTTL overrides the cache TTL
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.ttl = ttl }
}

// WithBroker attaches an event broker; resolution and invalidation events
// are published to it
func WithBroker(broker *events.Broker) Option {
	return func(r *Resolver) { r.broker = broker }
}

// WithDotenv names a .env file consulted by environment sources for
// variables unset in the process environment
func WithDotenv(path string) Option {
	return func(r *Resolver) { r.dotenvPath = path }
}

// Resolver resolves namespaces by merging their sources in priority order
// and caches the results. Construct one at process start and pass it by
// reference to all consumers; there is no module-level instance.
type Resolver struct {
	mu         sync.RWMutex
	namespaces map[string]types.Namespace
	cache      map[string]*types.ResolvedConfig
	ttl        time.Duration
	broker     *events.Broker
	dotenvPath string
	logger     zerolog.Logger
}

// New creates a Resolver with an empty namespace registry
func New(opts ...Option) *Resolver {
	r := &Resolver{
		namespaces: make(map[string]types.Namespace),
		cache:      make(map[string]*types.ResolvedConfig),
		ttl:        DefaultTTL,
		logger:     log.WithComponent("resolver"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a namespace to the registry, replacing any namespace with
// the same name. Registration is expected at process start, before Get
// traffic begins.
func (r *Resolver) Register(ns types.Namespace) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.namespaces[ns.Name] = ns
	delete(r.cache, ns.Name)
	metrics.RegisteredNamespaces.Set(float64(len(r.namespaces)))
}

// Namespaces returns the registered namespace names, sorted
func (r *Resolver) Namespaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.namespaces))
	for name := range r.namespaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Namespace returns the registered namespace definition by name
func (r *Resolver) Namespace(name string) (types.Namespace, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ns, ok := r.namespaces[name]
	return ns, ok
}

// Get returns the resolved configuration for a namespace. A cached result
// younger than the TTL is returned as a deep copy; otherwise the namespace
// is rebuilt from its sources.
func (r *Resolver) Get(name string) (map[string]any, error) {
	return r.get(name, false)
}

// GetForce rebuilds the namespace regardless of cache freshness
func (r *Resolver) GetForce(name string) (map[string]any, error) {
	return r.get(name, true)
}

func (r *Resolver) get(name string, force bool) (map[string]any, error) {
	r.mu.RLock()
	ns, ok := r.namespaces[name]
	if !ok {
		r.mu.RUnlock()
		metrics.ResolveTotal.WithLabelValues(name, "unknown").Inc()
		return nil, &UnknownNamespaceError{Namespace: name}
	}

	if !force {
		if cached, ok := r.cache[name]; ok && time.Since(cached.ResolvedAt) < r.ttl {
			values := merge.DeepCopy(cached.Values)
			r.mu.RUnlock()
			metrics.CacheHits.Inc()
			metrics.ResolveTotal.WithLabelValues(name, "hit").Inc()
			return values, nil
		}
	}
	r.mu.RUnlock()

	metrics.CacheMisses.Inc()
	timer := metrics.NewTimer()
	values, err := r.resolve(ns)
	timer.ObserveDurationVec(metrics.ResolveDuration, name)
	if err != nil {
		metrics.ResolveTotal.WithLabelValues(name, "error").Inc()
		metrics.UpdateComponent("resolver:"+name, false, err.Error())
		return nil, err
	}

	r.mu.Lock()
	r.cache[name] = &types.ResolvedConfig{
		Namespace:  name,
		Values:     merge.DeepCopy(values),
		ResolvedAt: time.Now(),
	}
	r.mu.Unlock()

	metrics.ResolveTotal.WithLabelValues(name, "rebuilt").Inc()
	metrics.UpdateComponent("resolver:"+name, true, "")
	if r.broker != nil {
		r.broker.Publish(&events.Event{
			Type:     events.EventNamespaceResolved,
			Message:  "namespace resolved",
			Metadata: map[string]string{"namespace": name},
		})
	}
	return values, nil
}

// resolve rebuilds a namespace: defaults first, then each source from the
// numerically largest priority rank to the smallest, so the smallest rank
// is merged last and wins conflicting keys.
func (r *Resolver) resolve(ns types.Namespace) (map[string]any, error) {
	acc := merge.DeepCopy(ns.Defaults)
	if acc == nil {
		acc = map[string]any{}
	}

	sorted := ns.SourcesByPriority()
	for i := len(sorted) - 1; i >= 0; i-- {
		src := sorted[i]
		loaded, err := r.load(src)
		if err != nil {
			metrics.SourceLoadFailures.WithLabelValues(ns.Name, string(src.Format)).Inc()
			if src.Required {
				return nil, &ConfigLoadError{Namespace: ns.Name, Source: src.Name, Err: err}
			}
			r.logger.Debug().
				Str("namespace", ns.Name).
				Str("source", src.Name).
				Err(err).
				Msg("skipping optional source")
			continue
		}
		acc = merge.Deep(acc, loaded)
	}
	return acc, nil
}

func (r *Resolver) load(src types.ConfigSource) (map[string]any, error) {
	if src.Format == types.FormatEnv {
		loader := &source.EnvLoader{DotenvPath: r.dotenvPath}
		return loader.Load(src)
	}
	loader, err := source.ForFormat(src.Format)
	if err != nil {
		return nil, err
	}
	return loader.Load(src)
}

// Invalidate drops the cached result for one namespace
func (r *Resolver) Invalidate(name string) {
	r.mu.Lock()
	delete(r.cache, name)
	r.mu.Unlock()

	if r.broker != nil {
		r.broker.Publish(&events.Event{
			Type:     events.EventNamespaceInvalidated,
			Message:  "namespace cache invalidated",
			Metadata: map[string]string{"namespace": name},
		})
	}
}

// InvalidateAll drops every cached result
func (r *Resolver) InvalidateAll() {
	r.mu.Lock()
	r.cache = make(map[string]*types.ResolvedConfig)
	r.mu.Unlock()
}

// Close tears the resolver down at shutdown: the cache is cleared and
// per-namespace health components are reset
func (r *Resolver) Close() {
	r.InvalidateAll()
	metrics.Reset()
}
