package process

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ProcedureConfig describes a procedure backed by an external command.
type ProcedureConfig struct {
	// Path is the dotted procedure path, e.g. "ci.build".
	Path        string            `yaml:"path" json:"path"`
	Command     string            `yaml:"command" json:"command"`
	Args        []string          `yaml:"args" json:"args"`
	Environment map[string]string `yaml:"env" json:"env"`
	Description string            `yaml:"description" json:"description"`
}

// ConfigFile represents the structure of procedures.yaml.
type ConfigFile struct {
	Procedures []ProcedureConfig `yaml:"procedures" json:"procedures"`
}

// LoadProcedures reads a configuration file (YAML or JSON) and returns its
// procedures sorted by path. A missing file yields no procedures.
func LoadProcedures(path string) ([]ProcedureConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read procedures config: %w", err)
	}

	var cfg ConfigFile
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	byPath := make(map[string]ProcedureConfig)
	for _, p := range cfg.Procedures {
		if p.Path == "" || p.Command == "" {
			continue
		}
		byPath[p.Path] = p
	}

	out := make([]ProcedureConfig, 0, len(byPath))
	for _, p := range byPath {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}
