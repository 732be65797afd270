package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AaronLay10/TreasureLand/internal/session"
	"github.com/AaronLay10/TreasureLand/internal/story"
)

func (a *app) newPlayCmd() *cobra.Command {
	var user string

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play Treasure Land in the terminal",
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

			return Play(cmd.Context(), game, a.in, a.out, user)
		},
	}
	cmd.Flags().StringVarP(&user, "user", "u", "", "player name recorded on the leaderboard")
	return cmd
}

// Play runs one game session, reading choices line by line from in.
// End of input leaves the session unfinished.
func Play(ctx context.Context, game *session.Service, in io.Reader, out io.Writer, user string) error {
	sess, err := game.Create(ctx, user)
	if err != nil {
		return err
	}

	start := game.Engine().Start()
	if start.Art != "" {
		fmt.Fprintln(out, start.Art)
	}
	printNode(out, start.Message, start.Prompt, start.Choices)

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			if err := scanner.Err(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Game saved as %s.\n", sess.ID)
			return nil
		}

		_, outcome, err := game.ApplyChoice(ctx, sess.ID, strings.TrimSpace(scanner.Text()))
		if err != nil {
			return err
		}

		switch o := outcome.(type) {
		case story.Continue:
			printNode(out, o.Message, o.Prompt, o.Choices)
		case story.Terminal:
			fmt.Fprintln(out, o.Message)
			fmt.Fprintln(out, "Thank you for playing Treasure Land!")
			return nil
		}
	}
}

func printNode(out io.Writer, message, prompt string, choices map[string]string) {
	fmt.Fprintln(out, message)
	if prompt != "" {
		fmt.Fprintln(out, prompt)
	}

	keys := make([]string, 0, len(choices))
	for k := range choices {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(out, "  [%s] %s\n", k, choices[k])
	}
}
