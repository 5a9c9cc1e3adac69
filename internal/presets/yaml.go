package presets

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

type yamlDocument struct {
	Presets []Preset `yaml:"presets"`
}

func (s *Store) ExportYAML(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDocument{Presets: s.List()}); err != nil {
		return fmt.Errorf("encode presets: %w", err)
	}
	return enc.Close()
}

// ImportYAML appends every preset found in r under a fresh id. Presets whose
// config fails validation are skipped and reported in the returned error.
func (s *Store) ImportYAML(ctx context.Context, r io.Reader) ([]Preset, error) {
	var doc yamlDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode presets: %w", err)
	}

	var imported []Preset
	var skipped []string
	for _, p := range doc.Presets {
		if err := p.Config.Validate(); err != nil {
			skipped = append(skipped, fmt.Sprintf("%s: %v", p.Name, err))
			continue
		}
		saved, err := s.Save(ctx, p.Name, p.Config)
		if err != nil {
			skipped = append(skipped, fmt.Sprintf("%q: %v", p.Name, err))
			continue
		}
		imported = append(imported, saved)
	}

	if len(skipped) > 0 {
		return imported, fmt.Errorf("skipped %d preset(s): %s", len(skipped), strings.Join(skipped, "; "))
	}
	return imported, nil
}
