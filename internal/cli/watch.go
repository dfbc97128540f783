package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tbickford/vcs/internal/server"
	"github.com/tbickford/vcs/internal/vcscore"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the repository and reprint status on every change",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		repo, err := openRepo()
		if err != nil {
			return err
		}
		out, err := stdoutPainter()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
		return server.Watch(ctx, repo.WorkDir(), logger, func(status *vcscore.WorkTreeStatus) {
			fmt.Fprintln(out, "---")
			printLongStatus(out, status)
		})
	},
}
