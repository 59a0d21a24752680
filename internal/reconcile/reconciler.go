// Package reconcile maps provider vocabulary (region codes, generation type
// names) onto internal identifiers using the reference cache.
package reconcile

import (
	"slices"

	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
	"github.com/heartmarshall/electricity-lca-backend/internal/refcache"
)

// Decision is the classification of one external generation type key.
type Decision int

const (
	// DecisionMapped means the key has an internal generation type id.
	DecisionMapped Decision = iota
	// DecisionFiltered means a filter is set and the key is not in it.
	DecisionFiltered
	// DecisionUnmapped means no mapping row exists for the key.
	DecisionUnmapped
)

func (d Decision) String() string {
	switch d {
	case DecisionMapped:
		return "mapped"
	case DecisionFiltered:
		return "filtered"
	case DecisionUnmapped:
		return "unmapped"
	default:
		return "unknown"
	}
}

// Reconciler resolves external keys against a Cache.
type Reconciler struct {
	cache  refcache.Cache
	filter map[string]struct{}
}

// New creates a Reconciler. A nil or empty filter accepts every key.
func New(cache refcache.Cache, filter []string) *Reconciler {
	r := &Reconciler{cache: cache}
	if len(filter) > 0 {
		r.filter = make(map[string]struct{}, len(filter))
		for _, k := range filter {
			r.filter[k] = struct{}{}
		}
	}
	return r
}

// ResolveRegion returns the internal id of a region code.
// An absent code yields a *domain.UnknownRegionError.
func (r *Reconciler) ResolveRegion(code string) (int, error) {
	region, ok := r.cache.Region(code)
	if !ok {
		return 0, &domain.UnknownRegionError{Code: code}
	}
	return region.ID, nil
}

// ResolveGenerationType returns the internal generation type id for an
// external key, or false when the key has no mapping.
func (r *Reconciler) ResolveGenerationType(externalKey string) (int, bool) {
	m, ok := r.cache.GenerationTypeMapping(externalKey)
	if !ok {
		return 0, false
	}
	return m.GenerationTypeID, true
}

// Classify applies the filter first and the mapping lookup second.
func (r *Reconciler) Classify(externalKey string) (Decision, int) {
	if r.filter != nil {
		if _, ok := r.filter[externalKey]; !ok {
			return DecisionFiltered, 0
		}
	}

	id, ok := r.ResolveGenerationType(externalKey)
	if !ok {
		return DecisionUnmapped, 0
	}
	return DecisionMapped, id
}

// Requested returns the filter keys in sorted order, or nil without a filter.
func (r *Reconciler) Requested() []string {
	if r.filter == nil {
		return nil
	}
	out := make([]string, 0, len(r.filter))
	for k := range r.filter {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Missing returns the requested keys that are not in stored, sorted.
// It is nil when no filter is set.
func (r *Reconciler) Missing(stored map[string]bool) []string {
	var out []string
	for _, k := range r.Requested() {
		if !stored[k] {
			out = append(out, k)
		}
	}
	return out
}
