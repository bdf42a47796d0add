package cli

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"uttt/display"
	"uttt/engine"
)

func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <script.yaml>...",
		Short: "Replay scripted games and check the result",
		Long: `Replay scripted games through the coordinator and the search worker,
checking after every move that both boards agree and at the end that the
script's expectations hold.

Examples:
  uttt replay testdata/sub_board.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, path := range args {
				script, err := engine.LoadScript(path)
				if err != nil {
					return err
				}
				replay, err := script.Replay(log.Logger)
				if err != nil {
					return fmt.Errorf("%s: %w", script.Name, err)
				}
				if err := script.Check(replay); err != nil {
					return err
				}
				fmt.Fprintf(out, "%s: ok (%d plies: %s)\n", script.Name, len(replay.Actions), strings.Join(replay.Actions, " "))
				fmt.Fprint(out, display.Render(replay.View))
			}
			return nil
		},
	}
	return cmd
}
