package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/gardenllm/gardenllm-backend/internal/records"
)

const plantColumns = `id, name, location, description, light_requirements, soil_preferences,
	watering_needs, frost_tolerance, pruning_instructions, mulching_needs,
	fertilizing_schedule, winterizing_instructions, spacing_requirements,
	care_notes, photo_url`

// Fields that UpdatePlantField is allowed to touch.
var updatableFields = map[string]bool{
	"location":       true,
	"photo_url":      true,
	"watering_needs": true,
	"care_notes":     true,
}

// PlantStore implements records.Store using PostgreSQL.
type PlantStore struct {
	db *sqlx.DB
}

// NewPlantStore creates a new PostgreSQL plant store.
func NewPlantStore(db *sqlx.DB) records.Store {
	return &PlantStore{db: db}
}

// FetchPlants returns plants matching any of the given names; an empty
// names slice returns all plants. Name matching is case-insensitive and
// matches substrings in either direction, so "basil" finds "Sweet Basil"
// and "peggy martin" finds "Peggy Martin Rose".
func (s *PlantStore) FetchPlants(ctx context.Context, names []string) ([]records.Plant, error) {
	var plants []records.Plant

	if len(names) == 0 {
		query := fmt.Sprintf("SELECT %s FROM plants ORDER BY name", plantColumns)
		if err := s.db.SelectContext(ctx, &plants, query); err != nil {
			return nil, fmt.Errorf("failed to list plants: %w", err)
		}
		return plants, nil
	}

	conditions := make([]string, len(names))
	args := make([]interface{}, len(names))
	for i, name := range names {
		conditions[i] = fmt.Sprintf("(name ILIKE '%%' || $%d || '%%' OR $%d ILIKE '%%' || name || '%%')", i+1, i+1)
		args[i] = strings.TrimSpace(name)
	}

	query := fmt.Sprintf("SELECT %s FROM plants WHERE %s ORDER BY name",
		plantColumns, strings.Join(conditions, " OR "))
	if err := s.db.SelectContext(ctx, &plants, query, args...); err != nil {
		return nil, fmt.Errorf("failed to fetch plants: %w", err)
	}

	return plants, nil
}

// PlantsByLocations returns plants in any of the given locations.
func (s *PlantStore) PlantsByLocations(ctx context.Context, locations []string) ([]records.Plant, error) {
	if len(locations) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		fmt.Sprintf("SELECT %s FROM plants WHERE lower(location) IN (?) ORDER BY location, name", plantColumns),
		lowered(locations))
	if err != nil {
		return nil, fmt.Errorf("failed to build location query: %w", err)
	}

	var plants []records.Plant
	if err := s.db.SelectContext(ctx, &plants, s.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to fetch plants by location: %w", err)
	}

	return plants, nil
}

// PlantNames returns the distinct plant names in the database.
func (s *PlantStore) PlantNames(ctx context.Context) ([]string, error) {
	var names []string
	err := s.db.SelectContext(ctx, &names, "SELECT DISTINCT name FROM plants ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list plant names: %w", err)
	}
	return names, nil
}

// LocationNames returns the distinct location names in the database.
func (s *PlantStore) LocationNames(ctx context.Context) ([]string, error) {
	var locations []string
	err := s.db.SelectContext(ctx, &locations,
		"SELECT DISTINCT location FROM plants WHERE location <> '' ORDER BY location")
	if err != nil {
		return nil, fmt.Errorf("failed to list locations: %w", err)
	}
	return locations, nil
}

// AddPlant inserts a new plant record.
func (s *PlantStore) AddPlant(ctx context.Context, plant records.Plant) error {
	query := `
		INSERT INTO plants (name, location, description, light_requirements, soil_preferences,
			watering_needs, frost_tolerance, pruning_instructions, mulching_needs,
			fertilizing_schedule, winterizing_instructions, spacing_requirements,
			care_notes, photo_url)
		VALUES (:name, :location, :description, :light_requirements, :soil_preferences,
			:watering_needs, :frost_tolerance, :pruning_instructions, :mulching_needs,
			:fertilizing_schedule, :winterizing_instructions, :spacing_requirements,
			:care_notes, :photo_url)
	`

	_, err := s.db.NamedExecContext(ctx, query, plant)
	if err != nil {
		return fmt.Errorf("failed to add plant %q: %w", plant.Name, err)
	}
	return nil
}

// UpdatePlantField sets a single updatable field on the named plant.
func (s *PlantStore) UpdatePlantField(ctx context.Context, name, field, value string) error {
	if !updatableFields[field] {
		return fmt.Errorf("field %q is not updatable", field)
	}

	query := fmt.Sprintf("UPDATE plants SET %s = $1 WHERE lower(name) = lower($2)", field)
	result, err := s.db.ExecContext(ctx, query, value, name)
	if err != nil {
		return fmt.Errorf("failed to update plant %q: %w", name, err)
	}

	rows, err := result.RowsAffected()
	if err == nil && rows == 0 {
		return fmt.Errorf("plant %q not found", name)
	}
	return nil
}

func lowered(values []string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}
