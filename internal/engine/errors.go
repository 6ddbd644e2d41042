package engine

import (
	"errors"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/nn"
)

var (
	// ErrEmptyTrainingSet aborts a training run before any artifact is written.
	ErrEmptyTrainingSet = errors.New("engine: no data")
	// ErrUntrained means no vocabulary has been persisted yet.
	ErrUntrained = errors.New("engine: model has not been trained")
	// ErrShapeMismatch means the persisted parameters belong to a different vocabulary size.
	ErrShapeMismatch = nn.ErrShapeMismatch
)
