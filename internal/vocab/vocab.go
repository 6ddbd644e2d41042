package vocab

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"

	"github.com/rohinikalidoss/machinelearning-travelapp/internal/models"
)

// ErrNotFound is returned by Load when no vocabulary has been written yet.
var ErrNotFound = errors.New("vocab: vocabulary not found")

// ErrInvalid is returned when a persisted mapping is not a dense 0..N-1 bijection.
var ErrInvalid = errors.New("vocab: invalid vocabulary")

// Vocabulary maps place names to dense class ids in [0, N).
type Vocabulary struct {
	ids    map[string]int
	places []string
}

// New builds a vocabulary from the given places: duplicates and empty names
// are dropped and ids follow lexicographic order.
func New(places []string) *Vocabulary {
	seen := make(map[string]struct{}, len(places))
	unique := make([]string, 0, len(places))
	for _, p := range places {
		if p == "" {
			continue
		}
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}
	sort.Strings(unique)

	v := &Vocabulary{ids: make(map[string]int, len(unique)), places: unique}
	for i, p := range unique {
		v.ids[p] = i
	}
	return v
}

// Build derives the vocabulary from the labeled records. Unlabeled records are
// ignored, so an empty or unlabeled input yields an empty vocabulary.
func Build(records []models.ContextRecord) *Vocabulary {
	places := make([]string, 0, len(records))
	for _, r := range records {
		places = append(places, r.SuggestedPlace)
	}
	return New(places)
}

// Len returns N
func (v *Vocabulary) Len() int {
	return len(v.places)
}

// ID returns the class id of a place
func (v *Vocabulary) ID(place string) (int, bool) {
	id, ok := v.ids[place]
	return id, ok
}

// Place returns the place for a class id
func (v *Vocabulary) Place(id int) (string, bool) {
	if id < 0 || id >= len(v.places) {
		return "", false
	}
	return v.places[id], true
}

// Places returns the places ordered by id.
func (v *Vocabulary) Places() []string {
	out := make([]string, len(v.places))
	copy(out, v.places)
	return out
}

// Map returns a copy of the place -> id mapping.
func (v *Vocabulary) Map() map[string]int {
	out := make(map[string]int, len(v.ids))
	for k, id := range v.ids {
		out[k] = id
	}
	return out
}

// Save writes the vocabulary as a JSON object of place -> id, replacing any
// existing file.
func (v *Vocabulary) Save(path string) error {
	data, err := json.MarshalIndent(v.ids, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal vocabulary: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write vocabulary file: %w", err)
	}
	return nil
}

// Load reads a vocabulary written by Save. The stored ids are trusted as
// written but must form a dense bijection onto 0..N-1.
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read vocabulary file: %w", err)
	}

	var ids map[string]int
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	return FromMap(ids)
}

// FromMap validates a place -> id mapping and wraps it.
func FromMap(ids map[string]int) (*Vocabulary, error) {
	places := make([]string, len(ids))
	filled := make([]bool, len(ids))
	for place, id := range ids {
		if id < 0 || id >= len(ids) || filled[id] {
			return nil, fmt.Errorf("%w: id %d for %q", ErrInvalid, id, place)
		}
		places[id] = place
		filled[id] = true
	}

	v := &Vocabulary{ids: make(map[string]int, len(ids)), places: places}
	for place, id := range ids {
		v.ids[place] = id
	}
	return v, nil
}
