package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMergeAccumulatesRepeatedEntity matches the S2 scenario: two text
// units both yield an ACME/organization entity, which should merge into
// one accumulation with both descriptions, frequency 2, and both source
// text unit ids.
func TestMergeAccumulatesRepeatedEntity(t *testing.T) {
	units := []UnitExtraction{
		{
			TextUnitID: "tu1",
			Entities: []rawEntity{
				{Title: "ACME", Type: "organization", Description: "maker of X"},
			},
		},
		{
			TextUnitID: "tu2",
			Entities: []rawEntity{
				{Title: "ACME", Type: "organization", Description: "based in Y"},
			},
		},
	}

	entities, _ := Merge(units)
	require.Len(t, entities, 1)
	e := entities[0]
	assert.Equal(t, "ACME", e.Title)
	assert.Equal(t, "organization", e.Type)
	assert.Equal(t, 2, e.Frequency)
	assert.Equal(t, []string{"tu1", "tu2"}, e.TextUnitIDs)
	assert.Equal(t, []string{"maker of X", "based in Y"}, e.Descriptions)
}

func TestMergeSumsRelationshipWeight(t *testing.T) {
	units := []UnitExtraction{
		{TextUnitID: "tu1", Relationships: []rawRelationship{{Source: "A", Target: "B", Weight: 1.5}}},
		{TextUnitID: "tu2", Relationships: []rawRelationship{{Source: "A", Target: "B", Weight: 2.0}}},
	}
	_, relationships := Merge(units)
	require.Len(t, relationships, 1)
	assert.Equal(t, 3.5, relationships[0].Weight)
}

func TestDegreesCountsDistinctRelationships(t *testing.T) {
	relationships := []MergedRelationship{
		{Source: "A", Target: "B"},
		{Source: "B", Target: "C"},
	}
	degree := Degrees(relationships)
	assert.Equal(t, 1, degree["A"])
	assert.Equal(t, 2, degree["B"])
	assert.Equal(t, 1, degree["C"])
}
