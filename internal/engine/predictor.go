package engine

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/features"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/nn"
	"github.com/rohinikalidoss/machinelearning-travelapp/internal/vocab"
)

// DefaultTopK is the number of places returned by a recommendation.
const DefaultTopK = 3

// Predictor ranks places for a query record using one loaded vocabulary and
// parameter set. It is read-only once built and safe to share.
type Predictor struct {
	vocab *vocab.Vocabulary
	model *nn.RecommenderModel
}

// NewPredictor pairs a vocabulary with a trained or loaded model sized to it.
func NewPredictor(v *vocab.Vocabulary, model *nn.RecommenderModel) (*Predictor, error) {
	if model.Config().OutputDim != v.Len() {
		return nil, fmt.Errorf("%w: model has %d outputs, vocabulary has %d places",
			ErrShapeMismatch, model.Config().OutputDim, v.Len())
	}
	if !model.IsTrained() {
		return nil, ErrUntrained
	}
	return &Predictor{vocab: v, model: model}, nil
}

// LoadPredictor reads the persisted vocabulary and parameters. A missing
// vocabulary returns ErrUntrained; missing or mismatched parameters are
// returned as errors.
func LoadPredictor(artifacts Artifacts, opts ModelOptions) (*Predictor, error) {
	v, err := vocab.Load(artifacts.VocabularyPath)
	if err != nil {
		if errors.Is(err, vocab.ErrNotFound) {
			return nil, ErrUntrained
		}
		return nil, fmt.Errorf("load vocabulary: %w", err)
	}
	if v.Len() == 0 {
		return nil, ErrUntrained
	}

	model, err := nn.NewRecommenderModel(opts.config(v.Len()))
	if err != nil {
		return nil, fmt.Errorf("build model: %w", err)
	}
	if err := model.Load(artifacts.ModelPath); err != nil {
		return nil, fmt.Errorf("load model parameters: %w", err)
	}

	return NewPredictor(v, model)
}

// Vocabulary returns the vocabulary the predictor was loaded with
func (p *Predictor) Vocabulary() *vocab.Vocabulary {
	return p.vocab
}

// Recommend returns up to k places, most probable first. Equal probabilities
// keep ascending class id order.
func (p *Predictor) Recommend(r models.ContextRecord, k int) ([]models.Suggestion, error) {
	probs, err := p.model.Predict(features.Encode(r).Slice())
	if err != nil {
		return nil, fmt.Errorf("predict: %w", err)
	}

	ranked := topK(probs, k)
	out := make([]models.Suggestion, 0, len(ranked))
	for _, id := range ranked {
		place, ok := p.vocab.Place(id)
		if !ok {
			return nil, fmt.Errorf("%w: class %d has no place", ErrShapeMismatch, id)
		}
		out = append(out, models.Suggestion{Place: place, Probability: probs[id]})
	}
	return out, nil
}

// topK returns the indices of the k largest values in descending order,
// ties broken by ascending index.
func topK(values []float64, k int) []int {
	idx := make([]int, len(values))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return values[idx[a]] > values[idx[b]]
	})
	if k < len(idx) {
		idx = idx[:k]
	}
	return idx
}
