package target

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// formatsFile is the YAML layout of an extra formats file:
//
//	formats:
//	  - id: boox-note
//	    label: Boox Note Air
//	    target: { width: 1404, height: 1872, output: target }
type formatsFile struct {
	Formats []Format `yaml:"formats"`
}

// LoadFile reads extra formats from a YAML file and registers them.
// It returns the number of formats registered.
func LoadFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read formats file: %w", err)
	}

	var ff formatsFile
	if err := yaml.Unmarshal(data, &ff); err != nil {
		return 0, fmt.Errorf("parse formats file: %w", err)
	}
	for _, f := range ff.Formats {
		if err := Register(f); err != nil {
			return 0, err
		}
	}
	return len(ff.Formats), nil
}
