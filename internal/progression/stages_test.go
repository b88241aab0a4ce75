package progression

import (
	"os"
	"path/filepath"
	"testing"
)

func writeStageFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stages.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write stage file: %v", err)
	}
	return path
}

func TestLoadValidFile(t *testing.T) {
	path := writeStageFile(t, `{"stages":[
		{"name":"Egg","threshold":0},
		{"name":"Chick","threshold":20},
		{"name":"Rooster","threshold":50}
	]}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg) != 3 || cfg[1].Name != "Chick" || cfg[2].Threshold != 50 {
		t.Errorf("unexpected config: %+v", cfg)
	}
}

func TestLoadRejectsBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `{{{`},
		{"missing stages", `{"levels":[]}`},
		{"empty stages", `{"stages":[]}`},
		{"missing threshold", `{"stages":[{"name":"Egg"}]}`},
		{"negative threshold", `{"stages":[{"name":"Egg","threshold":-1}]}`},
		{"non-increasing", `{"stages":[{"name":"a","threshold":0},{"name":"b","threshold":0}]}`},
		{"nonzero first", `{"stages":[{"name":"a","threshold":3}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeStageFile(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Error("expected load error")
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
