package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/inamate/timeline/backend-go/internal/document"
	"github.com/inamate/timeline/backend-go/internal/engine"
	"github.com/inamate/timeline/backend-go/internal/script"
)

var (
	Version = "dev"

	config struct {
		verbose         bool
		continueOnError bool
		report          bool
	}
)

var rootCmd = &cobra.Command{
	Use:   "timelinectl",
	Short: "Offline tools for the timeline engine",
	Long: `timelinectl replays YAML edit scripts against a fresh timeline engine
and prints the resulting state as JSON.

A script lists operations (type: clip.add, clip.move, ...), pointer events
(pointer: {event: down, x: 250, y: 50}) and key presses (key: {key: z, ctrl: true}).`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if config.verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay <script.yaml>",
	Short: "Replay a script and print the final state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := script.Load(args[0])
		if err != nil {
			return err
		}
		rep, err := script.Replay(s, script.ReplayOptions{ContinueOnError: config.continueOnError})
		if rep != nil {
			var out any = rep.State
			if config.report {
				out = rep
			}
			if werr := writeJSON(cmd.OutOrStdout(), out); werr != nil {
				return werr
			}
		}
		return err
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate <script.yaml>...",
	Short: "Check that scripts parse",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		failed := 0
		for _, path := range args {
			s, err := script.Load(path)
			if err != nil {
				failed++
				fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
				continue
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d steps)\n", path, len(s.Steps))
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d scripts invalid", failed, len(args))
		}
		return nil
	},
}

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Print the demo timeline state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		eng := engine.New(engine.DefaultSettings())
		if err := eng.Load(document.NewSampleTimeline()); err != nil {
			return err
		}
		return writeJSON(cmd.OutOrStdout(), eng.State())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&config.verbose, "verbose", "v", false,
		"Log each failed step and other debug output to stderr")
	replayCmd.Flags().BoolVar(&config.continueOnError, "continue-on-error", false,
		"Keep replaying after a step fails")
	replayCmd.Flags().BoolVar(&config.report, "report", false,
		"Print the per-step report instead of only the final state")

	rootCmd.AddCommand(replayCmd, validateCmd, sampleCmd)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
