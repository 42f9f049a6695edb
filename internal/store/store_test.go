package store

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jimezsa/upjobs/internal/models"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upwork_jobs.json")

	records := []models.JobRecord{{
		Title:      "Traducción de documentos",
		URL:        "https://www.upwork.com/jobs/~01",
		Posted:     "5 hours ago",
		Budget:     models.Budget{Type: models.BudgetFixed, Amount: "$50"},
		Skills:     []string{"Spanish", "R&D"},
		PageNumber: 1,
	}}
	if err := Save(path, records); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "Traducción") || !strings.Contains(text, "R&D") {
		t.Fatalf("expected unescaped text, got:\n%s", text)
	}
	if !strings.Contains(text, "\n  {\n    \"title\"") {
		t.Fatalf("expected two-space indentation, got:\n%s", text)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 || got[0].Title != records[0].Title || got[0].Budget != records[0].Budget {
		t.Fatalf("unexpected records read back: %+v", got)
	}
}

func TestSaveWritesEmptySkillsAsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	if err := Save(path, []models.JobRecord{{Title: "No skills", PageNumber: 1}}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"skills": []`) {
		t.Fatalf("expected empty skills array, got:\n%s", data)
	}
}

func TestSaveReplacesWholeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "jobs.json")

	first := []models.JobRecord{{Title: "a", PageNumber: 1}, {Title: "b", PageNumber: 1}}
	if err := Save(path, first); err != nil {
		t.Fatalf("Save(first) error = %v", err)
	}
	if err := Save(path, first[:1]); err != nil {
		t.Fatalf("Save(second) error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 record after rewrite, got %d", len(got))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected no leftover temp files, found %d entries", len(entries))
	}
}

func TestLoadAllowMissing(t *testing.T) {
	got, err := LoadAllowMissing(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("LoadAllowMissing() error = %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty collection, got %d", len(got))
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "jobs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	if _, err := LoadAllowMissing(path); err == nil {
		t.Fatalf("LoadAllowMissing() error = nil, want decode error")
	}
}
