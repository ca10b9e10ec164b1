package hierarchy

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// tableFile is the on-disk layout of a hierarchy file:
//
//	chains:
//	  colaborador: [gerente, director, director_rrhh]
//	  director: [director_rrhh]
type tableFile struct {
	Chains map[string][]string `yaml:"chains"`
}

// LoadTableFile reads a hierarchy table from a YAML file
func LoadTableFile(path string) (Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hierarchy file: %w", err)
	}
	return ParseTable(data)
}

// ParseTable decodes a YAML hierarchy document
func ParseTable(data []byte) (Table, error) {
	var f tableFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse hierarchy file: %w", err)
	}
	if len(f.Chains) == 0 {
		return nil, fmt.Errorf("hierarchy file defines no chains")
	}
	table := make(Table, len(f.Chains))
	for role, chain := range f.Chains {
		if chain == nil {
			chain = []string{}
		}
		table[role] = chain
	}
	return table, nil
}
