package config

import (
	"fmt"
	"strings"
)

// InvolvementTypes is the allow-list documents are classified into.
var InvolvementTypes = []string{"npc", "pc", "location", "faction", "item", "quest", "creature", "event"}

// InvolvementType maps vault folder names onto an involvement type.
type InvolvementType struct {
	Type    string   `yaml:"type"`
	Folders []string `yaml:"folders"`
}

func validateInvolvement(types []InvolvementType) error {
	folders := make(map[string]string)
	for i, t := range types {
		name := strings.ToLower(strings.TrimSpace(t.Type))
		if name == "" {
			return fmt.Errorf("involvement type %d name is required", i)
		}
		if !isInvolvementType(name) {
			return fmt.Errorf("unknown involvement type: %s", t.Type)
		}
		if len(t.Folders) == 0 {
			return fmt.Errorf("involvement type %s has no folders", t.Type)
		}
		for _, folder := range t.Folders {
			key := strings.ToLower(strings.TrimSpace(folder))
			if key == "" {
				return fmt.Errorf("involvement type %s has an empty folder name", t.Type)
			}
			if prev, exists := folders[key]; exists && prev != name {
				return fmt.Errorf("folder %s is mapped to both %s and %s", folder, prev, name)
			}
			folders[key] = name
		}
	}
	return nil
}

// FolderTypes flattens the involvement mapping into lower-cased folder name -> type.
// It returns nil when no mapping is configured.
func (c *ProjectConfig) FolderTypes() map[string]string {
	if c == nil || len(c.Involvement) == 0 {
		return nil
	}
	out := make(map[string]string)
	for _, t := range c.Involvement {
		for _, folder := range t.Folders {
			out[strings.ToLower(strings.TrimSpace(folder))] = strings.ToLower(strings.TrimSpace(t.Type))
		}
	}
	return out
}

func isInvolvementType(name string) bool {
	for _, t := range InvolvementTypes {
		if t == name {
			return true
		}
	}
	return false
}
