package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestJoinWithin(t *testing.T) {
	tests := []struct {
		name      string
		dir       string
		file      string
		want      string
		wantError bool
	}{
		{name: "plain file", dir: "/out", file: "run_scene.csv", want: "/out/run_scene.csv"},
		{name: "nested file", dir: "/out", file: "plots/scene.png", want: "/out/plots/scene.png"},
		{name: "dot segments that stay inside", dir: "/out", file: "a/../b.csv", want: "/out/b.csv"},
		{name: "parent escape", dir: "/out", file: "../etc/passwd", wantError: true},
		{name: "deep escape", dir: "/out/x", file: "a/../../../y", wantError: true},
		{name: "absolute name", dir: "/out", file: "/etc/passwd", wantError: true},
		{name: "empty name", dir: "/out", file: "", wantError: true},
		{name: "relative dir", dir: "out", file: "v.json", want: "out/v.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinWithin(tt.dir, tt.file)
			if (err != nil) != tt.wantError {
				t.Fatalf("JoinWithin(%q, %q) error = %v, wantError %v", tt.dir, tt.file, err, tt.wantError)
			}
			if err == nil && got != tt.want {
				t.Errorf("JoinWithin(%q, %q) = %q, want %q", tt.dir, tt.file, got, tt.want)
			}
		})
	}
}

func TestValidatePathWithinDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	safeDir := filepath.Join(tmpDir, "safe")
	unsafeDir := filepath.Join(tmpDir, "unsafe")
	for _, d := range []string{safeDir, unsafeDir} {
		if err := os.MkdirAll(d, 0755); err != nil {
			t.Fatalf("mkdir %s: %v", d, err)
		}
	}
	link := filepath.Join(safeDir, "evil-symlink")
	if err := os.Symlink(unsafeDir, link); err != nil {
		t.Fatalf("symlink: %v", err)
	}

	tests := []struct {
		name      string
		filePath  string
		wantError bool
	}{
		{"existing dir itself", safeDir, false},
		{"new file", filepath.Join(safeDir, "scene.csv"), false},
		{"new nested file", filepath.Join(safeDir, "plots", "scene.png"), false},
		{"sibling dir", filepath.Join(unsafeDir, "scene.csv"), true},
		{"dot dot", filepath.Join(safeDir, "..", "unsafe", "x"), true},
		{"through symlink", filepath.Join(link, "report.html"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.filePath, safeDir)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidatePathWithinDirectory(%q) error = %v, wantError %v", tt.filePath, err, tt.wantError)
			}
		})
	}
}

func TestValidatePathWithinAllowedDirs(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()

	if err := ValidatePathWithinAllowedDirs(filepath.Join(b, "x.db"), []string{a, b}); err != nil {
		t.Errorf("path in second dir rejected: %v", err)
	}
	if err := ValidatePathWithinAllowedDirs("/definitely/not/allowed", []string{a, b}); err == nil {
		t.Error("path outside all dirs accepted")
	}
	if err := ValidatePathWithinAllowedDirs(filepath.Join(a, "x"), nil); err == nil {
		t.Error("empty allow list accepted")
	}
}

func TestValidateExportPath(t *testing.T) {
	if err := ValidateExportPath(filepath.Join(t.TempDir(), "report.html")); err != nil {
		t.Errorf("temp path rejected: %v", err)
	}
	if err := ValidateExportPath("vectors.json"); err != nil {
		t.Errorf("relative path rejected: %v", err)
	}
	extra := t.TempDir()
	if err := ValidateExportPath(filepath.Join(extra, "v.json"), extra); err != nil {
		t.Errorf("extra dir rejected: %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"town03":               "town03",
		"Town 10 HD":           "Town_10_HD",
		"log/../../etc":        "log_.._.._etc",
		"\u8def\u53e3":         "unknown",
		"  ":                   "unknown",
		"":                     "unknown",
		"__lead.trail__":       "lead.trail",
		"scene:run#2026-05-01": "scene_run_2026-05-01",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
	if got := SanitizeFilename(string(make([]byte, 300))); len(got) > maxFilenameLen {
		t.Errorf("len = %d, want <= %d", len(got), maxFilenameLen)
	}
}

func TestStemFor(t *testing.T) {
	if got := StemFor("/logs/Town03 run.log"); got != "Town03_run" {
		t.Errorf("StemFor = %q", got)
	}
	if got := StemFor("/logs/archive.tar.gz"); got != "archive.tar" {
		t.Errorf("StemFor = %q", got)
	}
}
