package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dshills/revet/internal/config"
	"github.com/dshills/revet/internal/log"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List available agents and the passes that run them",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(nil)
		if err != nil {
			return err
		}

		registry := buildRegistry(cfg, log.L())

		fmt.Fprintln(os.Stdout, "Available agents:")
		for _, id := range registry.IDs() {
			a, _ := registry.Get(id)
			paid := ""
			if a.UsesPaidInference() {
				paid = " (paid inference)"
			}
			fmt.Fprintf(os.Stdout, "  %-16s %s%s\n", id, a.Name(), paid)
		}

		fmt.Fprintln(os.Stdout, "\nConfigured passes:")
		for _, p := range cfg.Passes {
			state := "enabled"
			if !p.Enabled {
				state = "disabled"
			}
			kind := "optional"
			if p.Required {
				kind = "required"
			}
			fmt.Fprintf(os.Stdout, "  %-12s %s, %s: %v\n", p.Name, state, kind, p.Agents)
		}
		return nil
	},
}
