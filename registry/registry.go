// Package registry implements the process-wide mapping from numeric
// protocol identifiers to dissector factories (spec §4.5 / §9 "Global
// registry"): populated once at process start by each dissector's
// registration hook, read-mostly afterward. Grounded on the teacher's
// pkg/plugin/registry.go factory-map idiom, re-keyed by (Kind, ID) instead
// of a bare string since dissectors are selected by port/ethertype/PPID.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/tevino/abool"
	"go.uber.org/atomic"

	"firestige.xyz/dissect/dissect"
	"firestige.xyz/dissect/internal/bytesview"
)

// Kind distinguishes the numbering space an identifier is drawn from.
type Kind uint8

const (
	KindPort      Kind = iota // TCP/UDP port (DNS, SSH, Telnet, WebSocket, MQTT, POP3, RADIUS, Diameter, GTPv2-C, H.323)
	KindEtherType             // link-layer ethertype (ARP)
	KindPPID                  // SCTP payload-protocol id (M3UA, S1AP/NGAP/X2AP)
)

func (k Kind) String() string {
	switch k {
	case KindPort:
		return "port"
	case KindEtherType:
		return "ethertype"
	case KindPPID:
		return "sctp-ppid"
	default:
		return "unknown"
	}
}

// Key identifies a registration slot.
type Key struct {
	Kind Kind
	ID   uint32
}

// Factory builds a fresh, reset Dissector instance. Factories are
// zero-parameter: any configuration a dissector needs is injected later,
// the caller's responsibility, not the registry's.
type Factory func() dissect.Dissector

type entry struct {
	name    string
	factory Factory
	matches *atomic.Uint64
}

// Registry maps numeric identifiers and names to dissector factories. The
// zero value is not usable; construct one with New. A Registry is safe for
// concurrent Lookup/Get once registration is complete (spec §5: "lookups are
// safe to perform from any thread" after an initial, single-threaded
// registration phase).
type Registry struct {
	mu      sync.RWMutex
	byKey   map[Key]*entry
	byName  map[string]*entry
	started *abool.AtomicBool
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{
		byKey:   make(map[Key]*entry),
		byName:  make(map[string]*entry),
		started: abool.New(),
	}
}

// Register adds a factory under both a numeric Key and a display name.
// Panics on duplicate registration of either — a compile-time wiring bug,
// not a runtime condition callers should handle (matches the teacher's
// RegisterParser/RegisterCapturer panics).
func (r *Registry) Register(key Key, name string, factory Factory) {
	if name == "" {
		panic("registry: dissector name cannot be empty")
	}
	if factory == nil {
		panic("registry: dissector factory cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byKey[key]; exists {
		panic(fmt.Sprintf("registry: %s %d already registered", key.Kind, key.ID))
	}
	if _, exists := r.byName[name]; exists {
		panic(fmt.Sprintf("registry: dissector %q already registered", name))
	}

	e := &entry{name: name, factory: factory, matches: atomic.NewUint64(0)}
	r.byKey[key] = e
	r.byName[name] = e
}

// Bootstrapped marks registration as complete. Lookup/Candidates never
// require this to have been called — it exists so an adapter can assert, at
// startup, that all expected dissectors registered before serving traffic.
func (r *Registry) Bootstrapped() {
	r.started.Set()
}

// IsBootstrapped reports whether Bootstrapped has been called.
func (r *Registry) IsBootstrapped() bool {
	return r.started.IsSet()
}

// Lookup returns a fresh Dissector instance for key.
func (r *Registry) Lookup(key Key) (dissect.Dissector, error) {
	r.mu.RLock()
	e, ok := r.byKey[key]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%s %d: %w", key.Kind, key.ID, dissect.ErrNotRegistered)
	}
	e.matches.Inc()
	return e.factory(), nil
}

// Get returns a fresh Dissector instance by name, bypassing the numeric
// registry entirely (spec §4.5: "callers may bypass the registry and
// instantiate dissectors directly").
func (r *Registry) Get(name string) (dissect.Dissector, error) {
	r.mu.RLock()
	e, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, dissect.ErrNotRegistered)
	}
	e.matches.Inc()
	return e.factory(), nil
}

// Candidates returns every dissector registered under kind whose Probe
// accepts window, each as a fresh instance. The caller still picks one
// (typically the first, or the only) to drive with Parse; when none probe
// positive, an adapter falls back to the heuristic classifier (spec §2).
func (r *Registry) Candidates(kind Kind, window bytesview.Window) []dissect.Dissector {
	r.mu.RLock()
	factories := make([]Factory, 0, len(r.byKey))
	for key, e := range r.byKey {
		if key.Kind == kind {
			factories = append(factories, e.factory)
		}
	}
	r.mu.RUnlock()

	var out []dissect.Dissector
	for _, factory := range factories {
		d := factory()
		if d.Probe(window) {
			out = append(out, d)
		}
	}
	return out
}

// Matches returns how many times name has been looked up, via Lookup or
// Get. A registry-level signal an adapter can export as a metric; dissector
// instances themselves carry no such counter (spec §5: no internal
// concurrency/telemetry inside a dissector).
func (r *Registry) Matches(name string) uint64 {
	r.mu.RLock()
	e, ok := r.byName[name]
	r.mu.RUnlock()
	if !ok {
		return 0
	}
	return e.matches.Load()
}

// Names returns every registered dissector name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
