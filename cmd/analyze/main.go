// Command analyze prints quick, human-readable heuristics about the presets
// in the configs directory: board size, how long the speed ramp takes to hit
// its floor, and the tick interval at a few score milestones.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/snake-arcade/game/config"
	"github.com/wricardo/snake-arcade/game/engine"
)

// milestones are the scores the ramp table is printed for
var milestones = []int{0, 50, 100, 200, 500, 1000}

func main() {
	cmd := &cli.Command{
		Name:      "analyze",
		Usage:     "summarize the speed ramp of each preset",
		ArgsUsage: "[preset...]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "directory containing presets", Sources: cli.EnvVars("CONFIG_DIR")},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			manager, err := config.NewManager(cmd.String("config-dir"))
			if err != nil {
				return err
			}

			ids := cmd.Args().Slice()
			if len(ids) == 0 {
				infos, err := manager.ListConfigs()
				if err != nil {
					return err
				}
				for _, info := range infos {
					ids = append(ids, info.ConfigID)
				}
			}

			for _, id := range ids {
				fmt.Printf("\n=== Analyzing %s ===\n", id)
				cfg, err := manager.LoadConfig(id)
				if err != nil {
					fmt.Printf("Error: %v\n", err)
					continue
				}
				analyzeConfig(os.Stdout, cfg)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func analyzeConfig(w io.Writer, cfg *engine.GameConfig) {
	cells := cfg.GridSize * cfg.GridSize
	maxScore := (cells - cfg.InitialLength) * cfg.ScoreIncrement

	fmt.Fprintf(w, "Name: %s\n", cfg.Name)
	fmt.Fprintf(w, "Board: %d x %d (%d cells), starting length %d\n", cfg.GridSize, cfg.GridSize, cells, cfg.InitialLength)
	fmt.Fprintf(w, "Score per food: %d, perfect game: %d\n", cfg.ScoreIncrement, maxScore)
	fmt.Fprintf(w, "Ramp: %dms, -%dms every %d points, floor %dms\n",
		cfg.BaseIntervalMs, cfg.SpeedStepMs, cfg.SpeedThreshold, cfg.MinIntervalMs)

	floor := engine.ScoreAtFloor(cfg)
	switch {
	case floor < 0:
		fmt.Fprintf(w, "⚠️  The ramp never reaches the floor\n")
	case floor > maxScore:
		fmt.Fprintf(w, "⚠️  Floor reached at %d points, beyond a perfect game\n", floor)
	default:
		fmt.Fprintf(w, "✅ Floor reached at %d points (%d food)\n", floor, floor/cfg.ScoreIncrement)
	}

	fmt.Fprintf(w, "  %8s  %8s  %10s\n", "score", "tick", "cells/sec")
	for _, score := range milestones {
		if score > maxScore {
			break
		}
		interval := engine.IntervalForScore(cfg, score)
		fmt.Fprintf(w, "  %8d  %6dms  %10.1f\n", score, interval, float64(time.Second)/float64(time.Duration(interval)*time.Millisecond))
	}
}
