package domain

// UnknownGenerationTypeID is the reserved id of the "Unknown / not specified"
// generation type. Mappings with no internal counterpart point here.
const UnknownGenerationTypeID = 0

// DefaultMappingSource is the data source name of the bundled
// external-to-internal generation type mapping.
const DefaultMappingSource = "UNECE"

// RegionKindBiddingZone is the kind assigned to regions filled from the
// external provider's bidding zone list.
const RegionKindBiddingZone = "Bidding zone"

// Region is a geographic or market bidding zone.
type Region struct {
	ID          int
	Code        string
	Kind        string
	Description *string
}

// GenerationType is an internal generation technology category.
type GenerationType struct {
	ID   int
	Name string
}

// GenerationTypeMapping maps a provider's generation type name onto an
// internal GenerationType.
type GenerationTypeMapping struct {
	ID               int
	ExternalName     string
	GenerationTypeID int
	Source           string
	Comment          string
}

// IsUnknown reports whether the mapping points at the reserved unknown type.
func (m GenerationTypeMapping) IsUnknown() bool {
	return m.GenerationTypeID == UnknownGenerationTypeID
}
