package config

import (
	"path/filepath"
	"reflect"
	"testing"
)

func TestFolderTypes(t *testing.T) {
	cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	want := map[string]string{"npcs": "npc", "villains": "npc", "places": "location"}
	if got := cfg.FolderTypes(); !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected folder types: %v", got)
	}

	var empty *ProjectConfig
	if empty.FolderTypes() != nil {
		t.Fatalf("expected nil mapping for nil config")
	}
}

func TestValidateInvolvement(t *testing.T) {
	tests := []struct {
		name    string
		types   []InvolvementType
		wantErr bool
	}{
		{name: "valid", types: []InvolvementType{{Type: "NPC", Folders: []string{"People"}}}},
		{name: "missing type", types: []InvolvementType{{Folders: []string{"People"}}}, wantErr: true},
		{name: "unknown type", types: []InvolvementType{{Type: "vehicle", Folders: []string{"Ships"}}}, wantErr: true},
		{name: "no folders", types: []InvolvementType{{Type: "npc"}}, wantErr: true},
		{name: "empty folder", types: []InvolvementType{{Type: "npc", Folders: []string{" "}}}, wantErr: true},
		{
			name: "folder mapped twice",
			types: []InvolvementType{
				{Type: "npc", Folders: []string{"Cast"}},
				{Type: "pc", Folders: []string{"cast"}},
			},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateInvolvement(tt.types)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateInvolvement() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
