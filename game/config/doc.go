// Package config provides configuration management for the Snake Arcade.
//
// The config package handles:
//   - Loading difficulty presets from JSON files
//   - Configuration validation through the engine's rules
//   - Default configuration management
//   - Configuration discovery and listing
//
// Configuration Format:
//
// Presets are stored as JSON files in the configs directory. The file name
// without its extension is the config ID used when creating sessions. Each
// preset defines the board size, the starting snake length, the speed ramp
// (base interval, step, floor and score threshold), the score per food, the
// cosmetic food types and the player-facing messages.
//
// Available Configurations:
//   - classic: 20x20 board, 150ms ticks, 10ms faster every 50 points, 60ms floor
//   - turbo: faster start and a steeper ramp
//   - tiny: 8x8 board where clearing the board is realistic
//   - large: 40x40 board with a gentle ramp
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameConfig, err := manager.LoadConfig("turbo")
//	defaultConfig := manager.GetDefault()
//	configs, err := manager.ListConfigs()
//
// When the directory holds no usable preset the manager falls back to the
// built-in classic rules, so a server can always create sessions.
package config
