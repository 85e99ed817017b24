package main

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/wricardo/snake-arcade/game/config"
	"github.com/wricardo/snake-arcade/game/engine"
)

func TestAnalyzeConfig_Classic(t *testing.T) {
	var buf bytes.Buffer
	analyzeConfig(&buf, engine.DefaultGameConfig())
	out := buf.String()

	expected := []string{
		"Board: 20 x 20 (400 cells)",
		"Ramp: 150ms, -10ms every 50 points, floor 60ms",
		"Floor reached at",
		"150ms",
		"60ms",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("Expected %q in output:\n%s", want, out)
		}
	}
}

func TestAnalyzeConfig_NoRamp(t *testing.T) {
	cfg := engine.DefaultGameConfig()
	cfg.SpeedStepMs = 0

	var buf bytes.Buffer
	analyzeConfig(&buf, cfg)

	if !strings.Contains(buf.String(), "never reaches the floor") {
		t.Errorf("Expected a warning for a flat ramp:\n%s", buf.String())
	}
}

func TestAnalyzeConfig_SmallBoardStopsAtPerfectGame(t *testing.T) {
	cfg := engine.DefaultGameConfig()
	cfg.GridSize = 5
	cfg.InitialLength = 3

	var buf bytes.Buffer
	analyzeConfig(&buf, cfg)
	out := buf.String()

	perfect := (25 - 3) * cfg.ScoreIncrement
	for _, score := range milestones {
		row := fmt.Sprintf("  %8d  ", score)
		shown := strings.Contains(out, row)
		if score > perfect && shown {
			t.Errorf("Did not expect milestone %d beyond a perfect game of %d", score, perfect)
		}
		if score <= perfect && !shown {
			t.Errorf("Expected milestone %d in the table", score)
		}
	}
}

func TestAnalyzeRepositoryPresets(t *testing.T) {
	manager, err := config.NewManager("../../configs")
	if err != nil {
		t.Fatalf("Failed to open configs: %v", err)
	}

	infos, err := manager.ListConfigs()
	if err != nil || len(infos) == 0 {
		t.Fatalf("Expected presets, got %v (%v)", infos, err)
	}

	for _, info := range infos {
		cfg, err := manager.LoadConfig(info.ConfigID)
		if err != nil {
			t.Fatalf("LoadConfig(%s) failed: %v", info.ConfigID, err)
		}

		var buf bytes.Buffer
		analyzeConfig(&buf, cfg)
		if !strings.Contains(buf.String(), cfg.Name) {
			t.Errorf("%s: expected the preset name in the output", info.ConfigID)
		}
	}
}
