package ubl

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PolicyDoc is the YAML-tagged shape of an on-disk UBL writer policy,
// mirroring the teacher's manifest dual-tagged struct convention.
type PolicyDoc struct {
	Rotation struct {
		Kind      string `yaml:"kind"` // "none" | "by_size" | "hourly"
		SizeBytes int64  `yaml:"size_bytes,omitempty"`
	} `yaml:"rotation"`
	Fsync struct {
		Kind       string `yaml:"kind"` // "every_n_lines" | "interval_ms" | "manual"
		N          int    `yaml:"n,omitempty"`
		IntervalMs int    `yaml:"interval_ms,omitempty"`
	} `yaml:"fsync"`
}

// LoadPolicy reads a PolicyDoc from a YAML file and resolves it into a
// Rotation/FsyncPolicy pair.
func LoadPolicy(path string) (Rotation, FsyncPolicy, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Rotation{}, FsyncPolicy{}, fmt.Errorf("ubl: read policy %s: %w", path, err)
	}
	var doc PolicyDoc
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Rotation{}, FsyncPolicy{}, fmt.Errorf("ubl: parse policy %s: %w", path, err)
	}
	return doc.resolve()
}

func (doc PolicyDoc) resolve() (Rotation, FsyncPolicy, error) {
	var rotation Rotation
	switch doc.Rotation.Kind {
	case "", "none":
		rotation = NoRotation()
	case "by_size":
		if doc.Rotation.SizeBytes <= 0 {
			return Rotation{}, FsyncPolicy{}, fmt.Errorf("ubl: by_size rotation requires size_bytes > 0")
		}
		rotation = BySizeBytes(doc.Rotation.SizeBytes)
	case "hourly":
		rotation = Hourly()
	default:
		return Rotation{}, FsyncPolicy{}, fmt.Errorf("ubl: unknown rotation kind %q", doc.Rotation.Kind)
	}

	var fsync FsyncPolicy
	switch doc.Fsync.Kind {
	case "", "every_n_lines":
		n := doc.Fsync.N
		if n <= 0 {
			n = 1
		}
		fsync = EveryNLines(n)
	case "interval_ms":
		fsync = IntervalMs(time.Duration(doc.Fsync.IntervalMs) * time.Millisecond)
	case "manual":
		fsync = Manual()
	default:
		return Rotation{}, FsyncPolicy{}, fmt.Errorf("ubl: unknown fsync kind %q", doc.Fsync.Kind)
	}

	return rotation, fsync, nil
}
