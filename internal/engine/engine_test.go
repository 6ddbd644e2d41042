package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/nn"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/vocab"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	return New(NewArtifacts(t.TempDir(), "", ""), DefaultOptions())
}

func summer(place string) models.ContextRecord {
	return models.ContextRecord{
		Month:              "June",
		Season:             "Summer",
		Budget:             "Low",
		ActivityPreference: "Adventure",
		Temperature:        models.Float64(30),
		SuggestedPlace:     place,
	}
}

func repeat(r models.ContextRecord, n int) []models.ContextRecord {
	out := make([]models.ContextRecord, n)
	for i := range out {
		out[i] = r
	}
	return out
}

func mixedHistory() []models.ContextRecord {
	var records []models.ContextRecord
	records = append(records, repeat(summer("Goa"), 4)...)
	records = append(records, repeat(models.ContextRecord{
		Month: "December", Season: "Winter", Budget: "High", ActivityPreference: "Adventure",
		Temperature: models.Float64(2), SuggestedPlace: "Manali",
	}, 3)...)
	records = append(records, repeat(models.ContextRecord{
		Month: "October", Season: "Autumn", Budget: "Medium", ActivityPreference: "Sightseeing",
		Temperature: models.Float64(24), SuggestedPlace: "Jaipur",
	}, 5)...)
	records = append(records, repeat(models.ContextRecord{
		Month: "August", Season: "Monsoon", Budget: "Low", ActivityPreference: "Eco Tourism",
		Temperature: models.Float64(21), SuggestedPlace: "Coorg",
	}, 3)...)
	return records
}

func TestRecommendUntrainedReturnsEmpty(t *testing.T) {
	e := newTestEngine(t)

	places, err := e.Recommend(summer(""))
	require.NoError(t, err)
	assert.NotNil(t, places)
	assert.Empty(t, places)

	_, err = e.LoadPredictor()
	assert.ErrorIs(t, err, ErrUntrained)
}

func TestGoaManaliScenario(t *testing.T) {
	e := newTestEngine(t)
	records := append(repeat(summer("Goa"), 5), repeat(summer("Manali"), 2)...)

	report, err := e.Train(records)
	require.NoError(t, err)
	assert.Equal(t, 2, report.VocabularySize)
	assert.Equal(t, 7, report.Records)
	assert.Equal(t, 4, report.Balanced)
	assert.Equal(t, 2, report.PerLabel)
	assert.Equal(t, 1, report.Epochs)

	v, err := vocab.Load(e.Artifacts().VocabularyPath)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"Goa": 0, "Manali": 1}, v.Map())

	places, err := e.Recommend(models.ContextRecord{Month: "January", Budget: "High"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"Goa", "Manali"}, places)
}

func TestRecommendReturnsTopThree(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Train(mixedHistory())
	require.NoError(t, err)

	trained := map[string]bool{"Goa": true, "Manali": true, "Jaipur": true, "Coorg": true}
	queries := []models.ContextRecord{
		summer(""),
		{Month: "December", Season: "Winter", Budget: "High", ActivityPreference: "Adventure", Temperature: models.Float64(0)},
		{},
	}
	for _, q := range queries {
		suggestions, err := e.Suggest(q)
		require.NoError(t, err)
		require.Len(t, suggestions, 3)

		seen := map[string]bool{}
		for i, s := range suggestions {
			assert.True(t, trained[s.Place], "unexpected place %s", s.Place)
			assert.False(t, seen[s.Place], "duplicate place %s", s.Place)
			seen[s.Place] = true
			if i > 0 {
				assert.LessOrEqual(t, s.Probability, suggestions[i-1].Probability)
			}
		}

		places, err := e.Recommend(q)
		require.NoError(t, err)
		assert.Equal(t, Places(suggestions), places)
	}
}

func TestLabel(t *testing.T) {
	e := newTestEngine(t)

	r := summer("")
	top, err := e.Label(&r)
	require.NoError(t, err)
	assert.Empty(t, top)
	assert.Empty(t, r.SuggestedPlace)

	_, err = e.Train(repeat(summer("Goa"), 3))
	require.NoError(t, err)

	r = summer("")
	top, err = e.Label(&r)
	require.NoError(t, err)
	assert.Equal(t, "Goa", top)
	assert.Equal(t, "Goa", r.SuggestedPlace)

	chosen := summer("Ooty")
	top, err = e.Label(&chosen)
	require.NoError(t, err)
	assert.Equal(t, "Goa", top)
	assert.Equal(t, "Ooty", chosen.SuggestedPlace)
}

func TestTrainEmptyLeavesArtifactsUntouched(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Train(mixedHistory())
	require.NoError(t, err)

	a := e.Artifacts()
	vocabBefore, err := os.ReadFile(a.VocabularyPath)
	require.NoError(t, err)
	modelBefore, err := os.ReadFile(a.ModelPath)
	require.NoError(t, err)

	_, err = e.Train(nil)
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)
	_, err = e.Train([]models.ContextRecord{})
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)
	_, err = e.Train([]models.ContextRecord{summer(""), summer("")})
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)

	vocabAfter, err := os.ReadFile(a.VocabularyPath)
	require.NoError(t, err)
	modelAfter, err := os.ReadFile(a.ModelPath)
	require.NoError(t, err)
	assert.Equal(t, vocabBefore, vocabAfter)
	assert.Equal(t, modelBefore, modelAfter)
}

func TestTrainEmptyWritesNothing(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Train(nil)
	assert.ErrorIs(t, err, ErrEmptyTrainingSet)

	_, err = os.Stat(e.Artifacts().VocabularyPath)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(e.Artifacts().ModelPath)
	assert.True(t, os.IsNotExist(err))
}

func TestVocabularyChangeInvalidatesParameters(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.Train(mixedHistory())
	require.NoError(t, err)

	// a vocabulary from a different place set, paired with the old parameters
	require.NoError(t, vocab.New([]string{"Goa", "Manali", "Ooty"}).Save(e.Artifacts().VocabularyPath))

	_, err = e.Recommend(summer(""))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestMissingParametersIsAnError(t *testing.T) {
	e := newTestEngine(t)
	require.NoError(t, vocab.New([]string{"Goa", "Manali"}).Save(e.Artifacts().VocabularyPath))

	_, err := e.Recommend(summer(""))
	assert.ErrorIs(t, err, nn.ErrNotFound)
}

func TestTrainingIsDeterministic(t *testing.T) {
	a := newTestEngine(t)
	b := newTestEngine(t)

	_, err := a.Train(mixedHistory())
	require.NoError(t, err)
	_, err = b.Train(mixedHistory())
	require.NoError(t, err)

	modelA, err := os.ReadFile(a.Artifacts().ModelPath)
	require.NoError(t, err)
	modelB, err := os.ReadFile(b.Artifacts().ModelPath)
	require.NoError(t, err)
	assert.Equal(t, modelA, modelB)
}

func TestTrainWithEpochsAndBatches(t *testing.T) {
	opts := DefaultOptions()
	opts.Train = nn.TrainOptions{Epochs: 5, BatchSize: 4, Shuffle: true, Seed: 3}
	e := New(NewArtifacts(filepath.Join(t.TempDir(), "nested", "artifacts"), "", ""), opts)

	report, err := e.Train(mixedHistory())
	require.NoError(t, err)
	assert.Equal(t, 5, report.Epochs)
	assert.Equal(t, 12, report.Balanced)

	places, err := e.Recommend(summer(""))
	require.NoError(t, err)
	assert.Len(t, places, 3)
}

// Unseen places deliberately fall back to class 0 rather than failing the run.
func TestUnknownLabelFallsBackToClassZero(t *testing.T) {
	v := vocab.New([]string{"Goa", "Manali"})

	assert.Equal(t, 1, labelFor(v, "Manali"))
	assert.Equal(t, 0, labelFor(v, "Atlantis"))
	assert.Equal(t, 0, labelFor(v, ""))
}

func TestTopK(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		k      int
		want   []int
	}{
		{"descending", []float64{0.1, 0.6, 0.3}, 3, []int{1, 2, 0}},
		{"ties keep index order", []float64{0.2, 0.4, 0.2, 0.4}, 3, []int{1, 3, 0}},
		{"fewer classes than k", []float64{0.3, 0.7}, 3, []int{1, 0}},
		{"empty", nil, 3, []int{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, topK(tt.values, tt.k))
		})
	}
}

func TestNewPredictorRejectsMismatch(t *testing.T) {
	model, err := nn.NewRecommenderModel(nn.DefaultConfig(3))
	require.NoError(t, err)

	_, err = NewPredictor(vocab.New([]string{"Goa", "Manali"}), model)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestNewPredictorRejectsUntrainedModel(t *testing.T) {
	model, err := nn.NewRecommenderModel(nn.DefaultConfig(2))
	require.NoError(t, err)

	_, err = NewPredictor(vocab.New([]string{"Goa", "Manali"}), model)
	assert.ErrorIs(t, err, ErrUntrained)
}
