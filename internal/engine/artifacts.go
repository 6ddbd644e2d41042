package engine

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	DefaultVocabularyFile = "place_map.json"
	DefaultModelFile      = "travel_model.gob"
)

// Artifacts locates the persisted vocabulary and parameters. Both files are
// rewritten in place on every training run; a crash mid-write can leave a
// truncated file, and two concurrent runs can interleave their writes.
type Artifacts struct {
	VocabularyPath string
	ModelPath      string
}

// NewArtifacts places the artifact files under dir. Empty names fall back
// to the defaults.
func NewArtifacts(dir, vocabularyFile, modelFile string) Artifacts {
	if vocabularyFile == "" {
		vocabularyFile = DefaultVocabularyFile
	}
	if modelFile == "" {
		modelFile = DefaultModelFile
	}
	return Artifacts{
		VocabularyPath: filepath.Join(dir, vocabularyFile),
		ModelPath:      filepath.Join(dir, modelFile),
	}
}

// ensureDirs creates the directories holding the artifact files.
func (a Artifacts) ensureDirs() error {
	for _, p := range []string{a.VocabularyPath, a.ModelPath} {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return fmt.Errorf("failed to create artifacts directory: %w", err)
		}
	}
	return nil
}
