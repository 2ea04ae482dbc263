package registry

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutcomeMeasureFragment_Series_ClassesWins(t *testing.T) {
	// A fragment carrying both branches resolves to classes; the branches
	// are alternatives, never merged.
	frag := OutcomeMeasureFragment{
		Classes: []ClassFragment{{Title: "Week 4"}},
		Denoms:  []DenomFragment{{Units: "Participants"}},
	}
	assert.Equal(t, SeriesClasses, frag.Series())
}

func TestOutcomeMeasureFragment_Series_Denoms(t *testing.T) {
	frag := OutcomeMeasureFragment{
		Denoms: []DenomFragment{{Units: "Participants"}},
	}
	assert.Equal(t, SeriesDenoms, frag.Series())
}

func TestOutcomeMeasureFragment_Series_None(t *testing.T) {
	assert.Equal(t, SeriesNone, (&OutcomeMeasureFragment{}).Series())
}

func TestDocument_DecodeResultsSection(t *testing.T) {
	raw := `{
		"resultsSection": {
			"baselineCharacteristicsModule": {
				"groups": [{"id": "BG000", "title": "Placebo"}],
				"denoms": [{"units": "Participants", "counts": [{"groupId": "BG000", "value": "42"}]}],
				"measures": [{
					"title": "Age",
					"paramType": "MEAN",
					"dispersionType": "STANDARD_DEVIATION",
					"unitOfMeasure": "years",
					"classes": [{"categories": [{"measurements": [{"groupId": "BG000", "value": "54.1", "spread": "7.4"}]}]}]
				}]
			},
			"adverseEventsModule": {
				"seriousEvents": [{"term": "Headache", "stats": [{"groupId": "EG000", "numAffected": 3}]}]
			}
		}
	}`

	var doc Document
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))

	baseline := doc.ResultsSection.BaselineModule
	require.Len(t, baseline.Groups, 1)
	assert.Equal(t, "BG000", baseline.Groups[0]["id"])
	require.Len(t, baseline.Measures, 1)
	assert.Equal(t, "54.1", baseline.Measures[0].Classes[0].Categories[0].Measurements[0].Value)

	serious := doc.ResultsSection.AdverseEventsModule.SeriousEvents
	require.Len(t, serious, 1)
	require.NotNil(t, serious[0].Stats[0].NumAffected)
	assert.Equal(t, 3, *serious[0].Stats[0].NumAffected)
}
