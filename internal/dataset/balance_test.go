package dataset

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
)

func record(place string, seq int) models.ContextRecord {
	return models.ContextRecord{
		ID:                 fmt.Sprintf("r%d", seq),
		Month:              "June",
		Season:             "Summer",
		Budget:             "Low",
		ActivityPreference: "Adventure",
		Temperature:        models.Float64(30),
		SuggestedPlace:     place,
	}
}

// isSubsequence reports whether sub appears in full in the same relative order.
func isSubsequence(sub, full []models.ContextRecord) bool {
	i := 0
	for _, r := range full {
		if i < len(sub) && sub[i].ID == r.ID {
			i++
		}
	}
	return i == len(sub)
}

func TestBalanceGoaManaliScenario(t *testing.T) {
	var in []models.ContextRecord
	for i := 0; i < 5; i++ {
		in = append(in, record("Goa", len(in)))
	}
	for i := 0; i < 2; i++ {
		in = append(in, record("Manali", len(in)))
	}

	out := Balance(in)
	require.Len(t, out, 4)
	assert.Equal(t, map[string]int{"Goa": 2, "Manali": 2}, Counts(out))
	assert.Equal(t, []string{"r0", "r1", "r5", "r6"}, []string{out[0].ID, out[1].ID, out[2].ID, out[3].ID})
}

func TestBalanceEmptyAndUnlabeled(t *testing.T) {
	assert.Empty(t, Balance(nil))
	assert.Empty(t, Balance([]models.ContextRecord{record("", 0), record("", 1)}))
	assert.Equal(t, 0, MinCount(Counts(nil)))
}

func TestBalanceDropsUnlabeled(t *testing.T) {
	in := []models.ContextRecord{record("Goa", 0), record("", 1), record("Ooty", 2)}
	out := Balance(in)
	assert.Equal(t, []string{"r0", "r2"}, []string{out[0].ID, out[1].ID})
}

func TestBalanceProperties(t *testing.T) {
	places := []string{"Goa", "Manali", "Ooty", "Jaipur", "Coorg"}
	rng := rand.New(rand.NewSource(7))

	for trial := 0; trial < 50; trial++ {
		n := rng.Intn(60)
		in := make([]models.ContextRecord, 0, n)
		for i := 0; i < n; i++ {
			place := places[rng.Intn(len(places))]
			if rng.Intn(10) == 0 {
				place = ""
			}
			in = append(in, record(place, i))
		}

		inCounts := Counts(in)
		m := MinCount(inCounts)
		out := Balance(in)

		assert.True(t, isSubsequence(out, in), "trial %d: output is not an ordered subsequence", trial)
		if m == 0 {
			assert.Empty(t, out)
			continue
		}
		outCounts := Counts(out)
		assert.Len(t, outCounts, len(inCounts))
		for place, c := range outCounts {
			assert.Equal(t, m, c, "trial %d: place %s", trial, place)
		}
	}
}
