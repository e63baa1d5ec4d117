package view

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// MetadataFileName is the informational marker written into each view root.
const MetadataFileName = ".viewyard-view.yaml"

const metadataFileModeConstant = 0o644

// ViewMetadata records how a view was materialized.
//
// The file is informational only: the directory tree stays the source of
// truth, and nothing reads the metadata back to make decisions.
type ViewMetadata struct {
	ViewName     string    `yaml:"view"`
	CreatedAt    time.Time `yaml:"created_at"`
	Repositories []string  `yaml:"repositories"`
}

// WriteMetadata serializes the metadata into the view root.
func WriteMetadata(viewRoot string, metadata ViewMetadata) error {
	encodedMetadata, marshalError := yaml.Marshal(metadata)
	if marshalError != nil {
		return marshalError
	}
	return os.WriteFile(filepath.Join(viewRoot, MetadataFileName), encodedMetadata, metadataFileModeConstant)
}

// ReadMetadata loads the metadata file when present.
func ReadMetadata(viewRoot string) (ViewMetadata, bool) {
	metadataContent, readError := os.ReadFile(filepath.Join(viewRoot, MetadataFileName))
	if readError != nil {
		return ViewMetadata{}, false
	}
	metadata := ViewMetadata{}
	if unmarshalError := yaml.Unmarshal(metadataContent, &metadata); unmarshalError != nil {
		return ViewMetadata{}, false
	}
	return metadata, true
}
