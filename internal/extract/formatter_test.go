package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRecordsFromFencedJSON(t *testing.T) {
	response := "Here is the extraction:\n```json\n" +
		`[{"entity":"acme","type":"organization","description":"maker of X"},` +
		`{"source":"acme","target":"bob","description":"employs","weight":2}]` +
		"\n```"

	entities, relationships, err := parseRecords(response)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	require.Len(t, relationships, 1)

	assert.Equal(t, "ACME", entities[0].Title)
	assert.Equal(t, "organization", entities[0].Type)
	assert.Equal(t, "ACME", relationships[0].Source)
	assert.Equal(t, "BOB", relationships[0].Target)
	assert.Equal(t, 2.0, relationships[0].Weight)
}

func TestParseRecordsEmptyResponse(t *testing.T) {
	entities, relationships, err := parseRecords("")
	require.NoError(t, err)
	assert.Empty(t, entities)
	assert.Empty(t, relationships)
}

func TestNormalizeTitleUppercasesTrimsAndUnescapes(t *testing.T) {
	assert.Equal(t, "AT&T", normalizeTitle("  at&amp;t  "))
}
