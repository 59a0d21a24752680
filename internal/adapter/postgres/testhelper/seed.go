package testhelper

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/electricity-lca-backend/internal/domain"
)

// Reference ids are assigned by the legacy schema's owner, not by sequences.
// Tests in one binary share a database, so ids come from a process-wide counter.
var nextID atomic.Int32

func init() {
	nextID.Store(1000)
}

// NextID returns a reference id not used by any other seeder in this process.
func NextID() int {
	return int(nextID.Add(1))
}

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedRegion inserts a bidding zone region. An empty code gets a unique one.
func SeedRegion(t *testing.T, pool *pgxpool.Pool, code string) domain.Region {
	t.Helper()

	if code == "" {
		code = "T_" + uniqueSuffix()
	}
	desc := "test region " + code
	region := domain.Region{
		ID:          NextID(),
		Code:        code,
		Kind:        domain.RegionKindBiddingZone,
		Description: &desc,
	}

	_, err := pool.Exec(context.Background(),
		`INSERT INTO "Regions" ("Id", "Code", "Type", "Description") VALUES ($1, $2, $3, $4)`,
		region.ID, region.Code, region.Kind, region.Description,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedRegion %s: %v", code, err)
	}
	return region
}

// SeedGenerationType inserts a generation type with a fresh id.
func SeedGenerationType(t *testing.T, pool *pgxpool.Pool, name string) domain.GenerationType {
	t.Helper()

	gt := domain.GenerationType{ID: NextID(), Name: name}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO "ElectricityGenerationTypes" ("Id", "Name") VALUES ($1, $2)`,
		gt.ID, gt.Name,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedGenerationType %s: %v", name, err)
	}
	return gt
}

// SeedMapping maps externalName to generationTypeID for the default data source.
func SeedMapping(t *testing.T, pool *pgxpool.Pool, externalName string, generationTypeID int) domain.GenerationTypeMapping {
	t.Helper()

	m := domain.GenerationTypeMapping{
		ID:               NextID(),
		ExternalName:     externalName,
		GenerationTypeID: generationTypeID,
		Source:           domain.DefaultMappingSource,
	}
	_, err := pool.Exec(context.Background(),
		`INSERT INTO "ElectricityGenerationTypesMapping"
		 ("Id", "ExternalName", "ElectricityGenerationTypeId", "DataSourceName", "Comment")
		 VALUES ($1, $2, $3, $4, $5)`,
		m.ID, m.ExternalName, m.GenerationTypeID, m.Source, m.Comment,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedMapping %s: %v", externalName, err)
	}
	return m
}
