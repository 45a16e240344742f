package validator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"audiocheck/internal/logging"
	"audiocheck/internal/metadata"
	"audiocheck/internal/report"
	"audiocheck/internal/settings"
)

// StateStore persists per-user enable flags. Found is false when the user
// never changed the default.
type StateStore interface {
	ValidatorEnabled(ctx context.Context, id string) (enabled bool, found bool, err error)
	SetValidatorEnabled(ctx context.Context, id string, enabled bool) error
}

// Options configure a registry.
type Options struct {
	Settings *settings.Settings
	State    StateStore
	Metadata metadata.Reader
	Logger   *slog.Logger
}

// Entry is a registered validator with its effective strictness. Excluded
// entries resolved to ignore and never run, whatever their enable flag.
type Entry struct {
	Descriptor Descriptor
	Strictness report.Strictness
	Excluded   bool
}

// Registry maps validator identities to strictness and produces fresh
// validator sets. The table is fixed at construction.
type Registry struct {
	entries  []Entry
	index    map[string]int
	settings *settings.Settings
	state    StateStore
	metadata metadata.Reader
	logger   *slog.Logger
}

// NewRegistry resolves strictness for every descriptor using the configured
// profile and class overrides.
func NewRegistry(descriptors []Descriptor, opts Options) (*Registry, error) {
	s := opts.Settings
	if s == nil {
		s = settings.Default()
	}
	state := opts.State
	if state == nil {
		state = NewMemoryState()
	}
	r := &Registry{
		entries:  make([]Entry, 0, len(descriptors)),
		index:    make(map[string]int, len(descriptors)),
		settings: s,
		state:    state,
		metadata: opts.Metadata,
		logger:   logging.NewComponentLogger(opts.Logger, "registry"),
	}
	profile := profileIndex(s.Profile())
	for _, d := range descriptors {
		if d.ID == "" || d.New == nil {
			return nil, fmt.Errorf("validator registry: descriptor %q is incomplete", d.ID)
		}
		if _, dup := r.index[d.ID]; dup {
			return nil, fmt.Errorf("validator registry: duplicate identity %q", d.ID)
		}
		strictness := d.Strictness[profile]
		if override, ok := s.ClassStrictness(d.ID); ok {
			strictness = override
		}
		r.index[d.ID] = len(r.entries)
		r.entries = append(r.entries, Entry{
			Descriptor: d,
			Strictness: strictness,
			Excluded:   strictness == report.Ignore,
		})
	}
	return r, nil
}

// Strictness returns the effective strictness of a registered identity.
// Excluded identities report ignore. Asking for an unknown identity is a
// programming error and panics.
func (r *Registry) Strictness(id string) report.Strictness {
	i, ok := r.index[id]
	if !ok {
		panic(fmt.Sprintf("validator registry: unknown identity %q", id))
	}
	return r.entries[i].Strictness
}

// Entries returns every registered validator in declared order, including
// excluded ones.
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Enabled reports the effective enable flag for id.
func (r *Registry) Enabled(ctx context.Context, id string) (bool, error) {
	i, ok := r.index[id]
	if !ok {
		return false, fmt.Errorf("validator registry: unknown identity %q", id)
	}
	enabled, found, err := r.state.ValidatorEnabled(ctx, id)
	if err != nil {
		return false, fmt.Errorf("read enable state for %s: %w", id, err)
	}
	if !found {
		return r.entries[i].Descriptor.DefaultEnabled, nil
	}
	return enabled, nil
}

// SetEnabled persists the enable flag for id.
func (r *Registry) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if _, ok := r.index[id]; !ok {
		return fmt.Errorf("validator registry: unknown identity %q", id)
	}
	return r.state.SetValidatorEnabled(ctx, id, enabled)
}

// Active returns fresh instances of every enabled, non-ignored validator in
// declared order.
func (r *Registry) Active(ctx context.Context) ([]Validator, error) {
	out := make([]Validator, 0, len(r.entries))
	for _, entry := range r.entries {
		if entry.Excluded {
			continue
		}
		enabled, err := r.Enabled(ctx, entry.Descriptor.ID)
		if err != nil {
			return nil, err
		}
		if !enabled {
			continue
		}
		out = append(out, entry.Descriptor.New(Deps{
			Settings:   r.settings,
			Strictness: entry.Strictness,
			Metadata:   r.metadata,
			Logger:     r.logger,
		}))
	}
	return out, nil
}

// MemoryState is an in-process StateStore.
type MemoryState struct {
	mu      sync.Mutex
	enabled map[string]bool
}

// NewMemoryState returns an empty state store.
func NewMemoryState() *MemoryState {
	return &MemoryState{enabled: make(map[string]bool)}
}

func (m *MemoryState) ValidatorEnabled(_ context.Context, id string) (bool, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.enabled[id]
	return v, ok, nil
}

func (m *MemoryState) SetValidatorEnabled(_ context.Context, id string, enabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled[id] = enabled
	return nil
}
