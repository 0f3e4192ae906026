package config

import (
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
	"github.com/de-tools/transparency-atlas/pkg/services/source"
)

// LoadManifest reads per-category file names from an INI file with one
// section per category slug:
//
//	[devices]
//	file = device_requests_2020.csv
func LoadManifest(path string) (source.Manifest, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load manifest: %w", err)
	}

	manifest := source.Manifest{}
	for _, section := range cfg.Sections() {
		if section.Name() == ini.DefaultSection || len(section.Keys()) == 0 {
			continue
		}
		c, err := domain.ParseCategory(section.Name())
		if err != nil {
			return nil, fmt.Errorf("manifest %s: %w", path, err)
		}
		file := section.Key("file").String()
		if file == "" {
			return nil, fmt.Errorf("manifest %s: section %s has no file", path, section.Name())
		}
		manifest[c] = file
	}
	return manifest, nil
}
