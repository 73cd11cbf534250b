package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/urfave/cli/v3"
)

func handleValidate(ctx context.Context, c *cli.Command) error {
	rt, err := newRuntime()
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	ids := c.Args().Slice()
	if len(ids) == 0 {
		if ids, err = rt.loader.List(); err != nil {
			return err
		}
	}
	if len(ids) == 0 {
		fmt.Printf("No tenants found in %s\n", rt.loader.Dir())
		return nil
	}

	failed := 0
	for _, id := range ids {
		cfg, err := rt.loader.Load(id)
		if err != nil {
			color.Red("✗ %s: %v", id, err)
			failed++
			continue
		}

		warnings := cfg.Validate()
		if cfg.Fallback {
			warnings = append([]string{"no configuration file, the default tenant is used"}, warnings...)
		}
		if len(warnings) == 0 {
			color.Green("✓ %s", id)
			continue
		}

		color.Yellow("⚠️  %s: %d warning(s)", id, len(warnings))
		for _, w := range warnings {
			fmt.Printf("   - %s\n", w)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d tenant configuration(s) failed to load", failed)
	}
	return nil
}
