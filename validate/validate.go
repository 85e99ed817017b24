// Command validate checks the difficulty presets in a configs directory. It checks:
//   - JSON structure and required fields
//   - Board, speed and scoring ranges accepted by the game engine
//   - Food types the renderers know how to draw
//   - Required message keys and their %d placeholders
//   - Whether the speed ramp reaches its floor within a perfect game
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/snake-arcade/game/engine"
)

var requiredFields = []string{
	"name",
	"grid_size",
	"base_interval_ms",
	"min_interval_ms",
	"speed_threshold",
	"score_increment",
}

var requiredMessages = []string{"ready", "paused", "game_over", "victory"}

var knownFoods = map[engine.FoodType]bool{
	engine.Apple: true,
	engine.Mouse: true,
	engine.Frog:  true,
}

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) note(format string, args ...any) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file
func validateConfig(filePath string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	for _, field := range requiredFields {
		if _, ok := raw[field]; !ok {
			result.fail("Missing required field: %s", field)
		}
	}

	var messages map[string]string
	if msg, ok := raw["messages"]; ok {
		if err := json.Unmarshal(msg, &messages); err != nil {
			result.fail("messages must be an object of strings: %v", err)
		}
	}
	for _, key := range requiredMessages {
		if messages[key] == "" {
			result.fail("Missing message: %s", key)
		}
	}

	if !result.Valid {
		return result
	}

	config, err := engine.ParseGameConfig(data)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	for _, food := range config.FoodTypes {
		if !knownFoods[food] {
			result.fail("Unknown food type: %q", food)
		}
	}

	validateRamp(config, &result)
	return result
}

// validateRamp reports how quickly the speed ramp bottoms out. A ramp that
// cannot reach its floor is legal, so it is reported but not rejected.
func validateRamp(config *engine.GameConfig, result *ValidationResult) {
	cells := config.GridSize * config.GridSize
	perfect := (cells - config.InitialLength) * config.ScoreIncrement
	result.note("Board: %dx%d, perfect game scores %d", config.GridSize, config.GridSize, perfect)

	floor := engine.ScoreAtFloor(config)
	switch {
	case floor < 0:
		result.note("Ramp: stays above %dms for the whole game", config.MinIntervalMs)
	case floor == 0:
		result.note("Ramp: constant %dms", config.BaseIntervalMs)
	default:
		result.note("Ramp: %dms -> %dms, floor reached at %d points", config.BaseIntervalMs, config.MinIntervalMs, floor)
	}
}

// validateDir validates every *.json file in dir and prints a concise
// report. It returns false when any file is invalid.
func validateDir(dir string) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no presets found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file)

		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Errors {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Println("  ❌ " + err)
				}
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Println("✅ All configurations are valid!")
	} else {
		fmt.Println("❌ Some configurations have errors")
	}
	return allValid, nil
}

func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "check the difficulty presets",
		ArgsUsage: "[config-dir]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := "../configs"
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}

			ok, err := validateDir(dir)
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit("", 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
