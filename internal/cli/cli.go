// Package cli wires the repository engine to its command surface. The
// engine returns typed errors; this layer renders them and sets the exit
// code.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tbickford/vcs/internal/termcolor"
	"github.com/tbickford/vcs/internal/vcscore"
)

var colorFlag string

var rootCmd = &cobra.Command{
	Use:           "vcs",
	Short:         "vcs is a local content-addressed version control system",
	Long:          "vcs tracks snapshots of a working directory as an immutable DAG of hashed objects,\nwith a staging index bridging the working tree and the next snapshot.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&colorFlag, "color", "auto", "color output: auto, always, never")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(commitCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logCmd)
	rootCmd.AddCommand(branchCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the command line and returns the process exit code.
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", renderError(err))
		return 1
	}
	return 0
}

// The CLI's palette: semantic styles composed from SGR attributes.
var (
	styleStaged    = termcolor.Style{termcolor.FgGreen}
	styleUnstaged  = termcolor.Style{termcolor.FgRed}
	styleUntracked = termcolor.Style{termcolor.FgRed}
	styleCommit    = termcolor.Style{termcolor.FgYellow}
	styleCurrent   = termcolor.Style{termcolor.Bold, termcolor.FgGreen}
)

// stdoutPainter builds the styled stdout writer from the --color flag.
func stdoutPainter() (*termcolor.Painter, error) {
	return termcolor.NewPainter(os.Stdout, colorFlag)
}

// openRepo opens the repository containing the current directory.
func openRepo() (*vcscore.Repository, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return vcscore.Open(cwd)
}

// renderError maps the engine's sentinel errors to the short strings the
// CLI prints. Anything unrecognized renders as-is.
func renderError(err error) string {
	switch {
	case errors.Is(err, vcscore.ErrAlreadyInitialized):
		return "repository already initialized"
	case errors.Is(err, vcscore.ErrNotARepository):
		return "not a repository (or any of the parent directories)"
	case errors.Is(err, vcscore.ErrNoHead):
		return "repository is corrupt: HEAD is missing"
	case errors.Is(err, vcscore.ErrNothingToCommit):
		return "nothing to commit (use \"vcs add\" to stage files)"
	case errors.Is(err, vcscore.ErrFileTooLarge):
		return "file exceeds the 2 GiB limit"
	case errors.Is(err, vcscore.ErrBranchExists):
		return "a branch with that name already exists"
	case errors.Is(err, vcscore.ErrIndexHeader):
		return "index file is corrupt"
	default:
		return err.Error()
	}
}
