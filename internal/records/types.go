package records

import "context"

// Plant is a single record in the garden database. Fields mirror the
// sheet columns the assistant was originally built around.
type Plant struct {
	ID                      int64  `db:"id" json:"id"`
	Name                    string `db:"name" json:"name"`
	Location                string `db:"location" json:"location"`
	Description             string `db:"description" json:"description"`
	LightRequirements       string `db:"light_requirements" json:"light_requirements"`
	SoilPreferences         string `db:"soil_preferences" json:"soil_preferences"`
	WateringNeeds           string `db:"watering_needs" json:"watering_needs"`
	FrostTolerance          string `db:"frost_tolerance" json:"frost_tolerance"`
	PruningInstructions     string `db:"pruning_instructions" json:"pruning_instructions"`
	MulchingNeeds           string `db:"mulching_needs" json:"mulching_needs"`
	FertilizingSchedule     string `db:"fertilizing_schedule" json:"fertilizing_schedule"`
	WinterizingInstructions string `db:"winterizing_instructions" json:"winterizing_instructions"`
	SpacingRequirements     string `db:"spacing_requirements" json:"spacing_requirements"`
	CareNotes               string `db:"care_notes" json:"care_notes"`
	PhotoURL                string `db:"photo_url" json:"photo_url"`
}

// Store is the boundary to the plant database. A failed call means "no
// usable data" to every handler; none of them propagate store errors to
// the user as anything other than a not-found style sentence.
type Store interface {
	// FetchPlants returns the plants matching any of the given names.
	// An empty names slice returns all plants.
	FetchPlants(ctx context.Context, names []string) ([]Plant, error)

	// PlantsByLocations returns all plants whose location matches one of
	// the given location names.
	PlantsByLocations(ctx context.Context, locations []string) ([]Plant, error)

	// PlantNames returns the distinct plant names in the database.
	PlantNames(ctx context.Context) ([]string, error)

	// LocationNames returns the distinct location names in the database.
	LocationNames(ctx context.Context) ([]string, error)

	// AddPlant inserts a new plant record.
	AddPlant(ctx context.Context, plant Plant) error

	// UpdatePlantField sets a single field on the named plant.
	UpdatePlantField(ctx context.Context, name, field, value string) error
}
