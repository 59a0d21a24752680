// Package refcache holds the per-run snapshot of slow-changing reference
// data: regions, generation types and the external-to-internal generation
// type mapping. A Snapshot is built once and never mutated afterwards.
package refcache

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
)

// Cache is the read-only view handed to the fetch and reconcile stages.
type Cache interface {
	Regions() []domain.Region
	GenerationTypes() []domain.GenerationType
	GenerationTypeMapping(externalName string) (domain.GenerationTypeMapping, bool)
	Region(code string) (domain.Region, bool)
	RetrievedAt() time.Time
}

// Loader reads the reference tables from storage.
// Implemented by reference.Repo.
type Loader interface {
	Regions(ctx context.Context) ([]domain.Region, error)
	GenerationTypes(ctx context.Context) ([]domain.GenerationType, error)
	GenerationTypeMappings(ctx context.Context) ([]domain.GenerationTypeMapping, error)
}

// Snapshot is the in-memory Cache implementation.
type Snapshot struct {
	regions      []domain.Region
	regionByCode map[string]int
	types        []domain.GenerationType
	mappings     map[string]domain.GenerationTypeMapping
	retrievedAt  time.Time
}

var _ Cache = (*Snapshot)(nil)

// Load reads all reference tables through loader and builds a Snapshot.
// clock may be nil, in which case time.Now is used.
func Load(ctx context.Context, loader Loader, log *slog.Logger, clock func() time.Time) (*Snapshot, error) {
	if clock == nil {
		clock = time.Now
	}

	regions, err := loader.Regions(ctx)
	if err != nil {
		return nil, fmt.Errorf("load regions: %w", err)
	}

	types, err := loader.GenerationTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("load generation types: %w", err)
	}

	mappings, err := loader.GenerationTypeMappings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load generation type mappings: %w", err)
	}

	snap, dups, err := build(regions, types, mappings, clock().UTC())
	if err != nil {
		return nil, err
	}

	for _, d := range dups {
		log.DebugContext(ctx, "duplicate generation type mapping ignored",
			slog.String("external_name", d.ExternalName),
			slog.Int("mapping_id", d.ID),
			slog.String("source", d.Source),
		)
	}

	log.InfoContext(ctx, "reference data loaded",
		slog.Int("regions", len(snap.regions)),
		slog.Int("generation_types", len(snap.types)),
		slog.Int("mappings", len(snap.mappings)),
	)

	return snap, nil
}

// New builds a Snapshot from already loaded data.
func New(regions []domain.Region, types []domain.GenerationType, mappings []domain.GenerationTypeMapping, retrievedAt time.Time) (*Snapshot, error) {
	snap, _, err := build(regions, types, mappings, retrievedAt)
	return snap, err
}

// build indexes the data. For repeated external names the mapping listed
// first wins; the others are returned as duplicates.
func build(regions []domain.Region, types []domain.GenerationType, mappings []domain.GenerationTypeMapping, retrievedAt time.Time) (*Snapshot, []domain.GenerationTypeMapping, error) {
	s := &Snapshot{
		regions:      slices.Clone(regions),
		regionByCode: make(map[string]int, len(regions)),
		types:        slices.Clone(types),
		mappings:     make(map[string]domain.GenerationTypeMapping, len(mappings)),
		retrievedAt:  retrievedAt,
	}

	for i, r := range s.regions {
		if _, exists := s.regionByCode[r.Code]; exists {
			return nil, nil, fmt.Errorf("region code %q: %w", r.Code, domain.ErrAlreadyExists)
		}
		s.regionByCode[r.Code] = i
	}

	var dups []domain.GenerationTypeMapping
	for _, m := range mappings {
		if _, exists := s.mappings[m.ExternalName]; exists {
			dups = append(dups, m)
			continue
		}
		s.mappings[m.ExternalName] = m
	}

	return s, dups, nil
}

// Regions returns the regions in storage order.
func (s *Snapshot) Regions() []domain.Region {
	return slices.Clone(s.regions)
}

// GenerationTypes returns the internal generation types.
func (s *Snapshot) GenerationTypes() []domain.GenerationType {
	return slices.Clone(s.types)
}

// GenerationTypeMapping looks up the mapping for a provider generation type name.
func (s *Snapshot) GenerationTypeMapping(externalName string) (domain.GenerationTypeMapping, bool) {
	m, ok := s.mappings[externalName]
	return m, ok
}

// Region looks up a region by its external code.
func (s *Snapshot) Region(code string) (domain.Region, bool) {
	i, ok := s.regionByCode[code]
	if !ok {
		return domain.Region{}, false
	}
	return s.regions[i], true
}

// RetrievedAt returns when the snapshot was taken.
func (s *Snapshot) RetrievedAt() time.Time {
	return s.retrievedAt
}
