package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"

	"github.com/prabalesh/tasktop/internal/sampler"
	"github.com/prabalesh/tasktop/internal/ui"
)

func main() {
	app := &cli.App{
		Name:  "tasktop",
		Usage: "Linux TUI-based task manager",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:  "refresh-ms",
				Usage: "how often (in milliseconds) to refresh the process list",
				Value: 2000,
			},
			&cli.BoolFlag{
				Name:  "mouse",
				Usage: "enable mouse capture",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(c *cli.Context) error {
	refresh := c.Int64("refresh-ms")
	if refresh <= 0 {
		return fmt.Errorf("refresh-ms must be positive, got %d", refresh)
	}

	s := sampler.New(sampler.Config{
		Interval: time.Duration(refresh) * time.Millisecond,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Run(ctx)

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if c.Bool("mouse") {
		opts = append(opts, tea.WithMouseCellMotion())
	}

	p := tea.NewProgram(ui.NewApp(s), opts...)
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}

	fmt.Println("Goodbye!")
	return nil
}
