package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/TreasureLand/internal/session"
	"github.com/AaronLay10/TreasureLand/internal/wire"
)

func (a *app) newLeaderboardCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Print the top players by wins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			game, backend, err := openGame(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer backend.Close()

			entries, err := game.Leaderboard(cmd.Context(), limit)
			if err != nil {
				return err
			}
			return printLeaderboard(a.out, entries)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of players to show")
	return cmd
}

func printLeaderboard(out io.Writer, entries []session.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No winners yet.")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPLAYER\tWINS\tLAST WIN")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\n", i+1, e.UserID, e.Wins, wire.FormatTime(e.LastWin))
	}
	return tw.Flush()
}
