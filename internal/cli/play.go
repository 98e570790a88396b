package cli

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"quiz-widget/internal/config"
	"quiz-widget/internal/logger"
)

// NewPlayCmd runs a quiz in the terminal. Progress is stored per scope and survives restarts.
func NewPlayCmd(configPath *string) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play the quiz in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlay(cmd.Context(), *configPath, scope, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "default", "storage scope; each scope keeps its own progress")
	return cmd
}

func runPlay(ctx context.Context, configPath, scope string, in io.Reader, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	// Logs go to stderr so they never interleave with the rendered quiz.
	log := logger.Setup(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, release, err := openSnapshotStore(ctx, cfg, config.BackendFile, log)
	if err != nil {
		return err
	}
	defer release()

	session, release, err := newSessionFactory(cfg, store, log).Open(ctx, scope)
	if err != nil {
		return err
	}
	defer release()

	return NewTerminal(session, out).Run(ctx, in)
}
