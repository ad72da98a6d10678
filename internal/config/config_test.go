package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ataa/internal/config"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := config.Default("org-1")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Org.ID != "org-1" {
		t.Fatalf("org id = %s", cfg.Org.ID)
	}
	if cfg.Scoring.ReadinessWeight != 0.5 || cfg.Scoring.GreenThreshold != 70 {
		t.Fatalf("scoring defaults = %+v", cfg.Scoring)
	}
	if len(cfg.Workflows.Templates) != 2 {
		t.Fatalf("templates = %d, want 2", len(cfg.Workflows.Templates))
	}
	if cfg.Workflows.Templates[0].ID != "marketing_campaign" || len(cfg.Workflows.Templates[0].Steps) != 9 {
		t.Fatalf("marketing template = %+v", cfg.Workflows.Templates[0])
	}
	if cfg.Workflows.Templates[1].ID != "event_planning" || len(cfg.Workflows.Templates[1].Steps) != 8 {
		t.Fatalf("event template = %+v", cfg.Workflows.Templates[1])
	}
}

func TestLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "ataa.yml"), []byte(config.GenerateDefault("org-2")), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Org.ID != "org-2" {
		t.Fatalf("org id = %s", cfg.Org.ID)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(t.TempDir())
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v", err)
	}
	cfg, err := config.LoadOptional(t.TempDir())
	if err != nil || cfg != nil {
		t.Fatalf("optional load = %v, %v", cfg, err)
	}
}

func TestValidateRejectsBadWeights(t *testing.T) {
	cfg := config.Default("org-1")
	cfg.Scoring.ReadinessWeight = 0.9
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected weight-sum error")
	}
}

func TestValidateRejectsDuplicateTemplates(t *testing.T) {
	cfg := config.Default("org-1")
	cfg.Workflows.Templates = append(cfg.Workflows.Templates, cfg.Workflows.Templates[0])
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected duplicate template error")
	}
}

func TestValidateRejectsMisnumberedSteps(t *testing.T) {
	cfg := config.Default("org-1")
	cfg.Workflows.Templates[0].Steps[2].StepNumber = 7
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected step numbering error")
	}
}
