package trigger

import (
	"os"

	"github.com/arthur-debert/automat/pkg/errors"
	"gopkg.in/yaml.v3"
)

// declarationFile is the on-disk shape of a trigger declaration list
type declarationFile struct {
	Triggers []declarationConfig `yaml:"triggers"`
}

// declarationConfig represents one declaration in a YAML trigger file
type declarationConfig struct {
	Phase     string            `yaml:"phase"`
	Events    []string          `yaml:"events"`
	Kind      string            `yaml:"kind"`
	Namespace string            `yaml:"namespace"`
	Handler   string            `yaml:"handler"`
	UI        map[string]string `yaml:"ui"`
}

// LoadFile parses a YAML trigger declaration file. Declarations are
// returned in file order; binding to handlers happens at registration
// time, by name.
func LoadFile(path string) ([]Declaration, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTriggerLoad, "failed to read trigger file %s", path)
	}
	return Parse(data)
}

// Parse parses YAML trigger declarations from raw bytes
func Parse(data []byte) ([]Declaration, error) {
	var file declarationFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, errors.ErrTriggerLoad, "failed to parse trigger file")
	}

	decls := make([]Declaration, 0, len(file.Triggers))
	for _, cfg := range file.Triggers {
		decl := Declaration{
			Phase:     Phase(cfg.Phase),
			Kind:      cfg.Kind,
			Namespace: cfg.Namespace,
			Handler:   cfg.Handler,
			UI:        cfg.UI,
		}
		for _, e := range cfg.Events {
			decl.Events = append(decl.Events, EventKind(e))
		}
		decls = append(decls, decl)
	}
	return decls, nil
}
