// Package dataset prepares labeled travel records for training.
package dataset

import "github.com/rohinikalidoss/machinelearning-travelapp/internal/models"

// Counts returns the number of labeled records per place.
func Counts(records []models.ContextRecord) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		if r.Labeled() {
			counts[r.SuggestedPlace]++
		}
	}
	return counts
}

// MinCount returns the smallest per-place count, or 0 when nothing is labeled.
func MinCount(counts map[string]int) int {
	m := 0
	first := true
	for _, c := range counts {
		if first || c < m {
			m = c
			first = false
		}
	}
	return m
}

// Balance keeps the first m records of every place, where m is the count of
// the rarest place, preserving input order. Surplus records are dropped, not
// resampled. Unlabeled records never appear in the output.
func Balance(records []models.ContextRecord) []models.ContextRecord {
	counts := Counts(records)
	m := MinCount(counts)
	if m == 0 {
		return nil
	}

	admitted := make(map[string]int, len(counts))
	out := make([]models.ContextRecord, 0, m*len(counts))
	for _, r := range records {
		if !r.Labeled() || admitted[r.SuggestedPlace] >= m {
			continue
		}
		out = append(out, r)
		admitted[r.SuggestedPlace]++
	}
	return out
}
