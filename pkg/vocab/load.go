package vocab

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk vocabulary format consumed by the CLI.
type File struct {
	Known   []string `yaml:"known"`
	Ignored []string `yaml:"ignored"`
	Levels  map[string]struct {
		Level        int  `yaml:"level"`
		IntervalDays int  `yaml:"interval_days"`
		Reps         int  `yaml:"reps"`
		Suspended    bool `yaml:"suspended"`
	} `yaml:"levels"`
}

// LoadFile reads a YAML vocabulary file and builds a snapshot.
func LoadFile(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse vocabulary %s: %w", path, err)
	}

	levels := make(map[string]Knowledge, len(f.Levels))
	for w, l := range f.Levels {
		levels[w] = Knowledge{Level: l.Level, IntervalDays: l.IntervalDays, Reps: l.Reps, Suspended: l.Suspended}
	}
	return NewSnapshot(f.Known, f.Ignored, levels), nil
}
