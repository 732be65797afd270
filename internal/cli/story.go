package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/TreasureLand/internal/story"
)

func (a *app) newStoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "story",
		Short: "Story file tools",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "validate [path]",
		Short: "Load a story file and check it compiles",
		Long:  "Validates the story at path, or the configured story when no path is given. An empty configured path checks the built-in story.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var path string
			if len(args) == 1 {
				path = args[0]
			} else {
				cfg, err := a.loadConfig(cmd)
				if err != nil {
					return err
				}
				path = cfg.Story.Path
			}

			engine, err := story.Load(path)
			if err != nil {
				return err
			}

			name := path
			if name == "" {
				name = "built-in story"
			}
			fmt.Fprintf(a.out, "%s: ok (%d nodes, start %s)\n", name, len(engine.NodeIDs()), engine.StartNode())
			return nil
		},
	})
	return cmd
}
