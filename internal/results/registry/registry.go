// Package registry holds the ordered, immutable list of configured result
// sources. It is built once at startup; configuration changes require a
// process restart, so no locking is needed after construction.
package registry

import (
	"fmt"
	"sort"

	"resultgate/internal/results/models"
	"resultgate/internal/results/source"
)

// Entry pairs a source descriptor with the adapter that serves it.
type Entry struct {
	Descriptor models.SourceDescriptor
	Adapter    source.Adapter
}

// Registry owns the configured sources in resolution order.
type Registry struct {
	ordered []Entry
	cgpa    *Entry
}

// New validates and orders the configured sources. Sources are sorted by
// ascending priority with web-api entries always last; duplicate priorities
// and duplicate IDs are configuration errors, not tie-breaks.
func New(entries []Entry) (*Registry, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("at least one source is required")
	}

	seenIDs := make(map[string]struct{}, len(entries))
	seenPriorities := make(map[int]string, len(entries))
	for _, e := range entries {
		if e.Adapter == nil {
			return nil, fmt.Errorf("source %q has no adapter", e.Descriptor.ID)
		}
		if e.Descriptor.ID == "" || e.Descriptor.ID != e.Adapter.ID() {
			return nil, fmt.Errorf("descriptor id %q does not match adapter id %q", e.Descriptor.ID, e.Adapter.ID())
		}
		if !e.Descriptor.Kind.IsValid() {
			return nil, fmt.Errorf("source %q has invalid kind %q", e.Descriptor.ID, e.Descriptor.Kind)
		}
		if _, dup := seenIDs[e.Descriptor.ID]; dup {
			return nil, fmt.Errorf("duplicate source id %q", e.Descriptor.ID)
		}
		seenIDs[e.Descriptor.ID] = struct{}{}
		if other, dup := seenPriorities[e.Descriptor.Priority]; dup {
			return nil, fmt.Errorf("sources %q and %q share priority %d", other, e.Descriptor.ID, e.Descriptor.Priority)
		}
		seenPriorities[e.Descriptor.Priority] = e.Descriptor.ID
	}

	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		wi, wj := ordered[i].Descriptor.Kind == models.KindWebAPI, ordered[j].Descriptor.Kind == models.KindWebAPI
		if wi != wj {
			return !wi // web-api sorts after every internal store
		}
		return ordered[i].Descriptor.Priority < ordered[j].Descriptor.Priority
	})

	r := &Registry{ordered: ordered}
	for i := range r.ordered {
		if r.ordered[i].Descriptor.Capabilities.SupportsCGPA {
			if r.cgpa != nil {
				return nil, fmt.Errorf("sources %q and %q both advertise supports-cgpa; exactly one CGPA source is allowed",
					r.cgpa.Descriptor.ID, r.ordered[i].Descriptor.ID)
			}
			r.cgpa = &r.ordered[i]
		}
	}
	return r, nil
}

// OrderedSources returns every entry in resolution order: ascending priority,
// web-api last. Callers must not mutate the returned slice.
func (r *Registry) OrderedSources() []Entry {
	return r.ordered
}

// Describe returns the static descriptors in resolution order for the
// listing endpoints. Credentials are never part of a descriptor.
func (r *Registry) Describe() []models.SourceDescriptor {
	descriptors := make([]models.SourceDescriptor, 0, len(r.ordered))
	for _, e := range r.ordered {
		descriptors = append(descriptors, e.Descriptor)
	}
	return descriptors
}

// CGPASource returns the distinguished supports-cgpa entry, or ok=false if
// no configured source can enrich records.
func (r *Registry) CGPASource() (Entry, bool) {
	if r.cgpa == nil {
		return Entry{}, false
	}
	return *r.cgpa, true
}

// Lookup returns the entry registered under id.
func (r *Registry) Lookup(id string) (Entry, bool) {
	for _, e := range r.ordered {
		if e.Descriptor.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// WebAPIs returns the web-api entries, used by the connectivity test
// endpoint.
func (r *Registry) WebAPIs() []Entry {
	var apis []Entry
	for _, e := range r.ordered {
		if e.Descriptor.Kind == models.KindWebAPI {
			apis = append(apis, e)
		}
	}
	return apis
}
