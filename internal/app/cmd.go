package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hitoshi/mesto/internal/database"
)

// サブコマンド名
const (
	// CommandServe はAPIサーバーモードで起動することを示す。引数なしの既定。
	CommandServe = "serve"
	// CommandMigrate はデータベースマイグレーションを実行することを示す。
	CommandMigrate = "migrate"
	// CommandHealthcheck はヘルスチェックを実行することを示す。
	// distroless環境でのDockerヘルスチェック用。
	CommandHealthcheck = "healthcheck"
)

// NewRootCommand はmestoのルートコマンドを生成する。
// サブコマンドを省略した場合はserveとして動作する。
// ログはwに出力する。
func NewRootCommand(w io.Writer) *cobra.Command {
	serve := func(cmd *cobra.Command, _ []string) error {
		cfg, err := Init(w)
		if err != nil {
			return fmt.Errorf("initialization failed: %w", err)
		}

		slog.Info("starting application",
			slog.String("command", CommandServe),
			slog.String("port", cfg.ServerPort),
		)

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return runServe(ctx, cfg)
	}

	root := &cobra.Command{
		Use:           "mesto",
		Short:         "Mesto social cards REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          serve,
	}

	root.AddCommand(
		&cobra.Command{
			Use:   CommandServe,
			Short: "Start the HTTP API server",
			Args:  cobra.NoArgs,
			RunE:  serve,
		},
		newMigrateCommand(w),
		newHealthcheckCommand(),
	)

	return root
}

// newMigrateCommand はマイグレーションコマンドを生成する。
// --downを指定すると適用済みのマイグレーションをすべて巻き戻す。
func newMigrateCommand(w io.Writer) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   CommandMigrate,
		Short: "Apply all pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := Init(w)
			if err != nil {
				return fmt.Errorf("initialization failed: %w", err)
			}
			direction := database.DirectionUp
			if down {
				direction = database.DirectionDown
			}
			return runMigrate(cfg, direction)
		},
	}
	cmd.Flags().BoolVar(&down, "down", false, "roll back all applied migrations")

	return cmd
}

// newHealthcheckCommand は軽量なヘルスチェックコマンドを生成する。
// フル初期化（設定の検証やログの設定）は行わない。
func newHealthcheckCommand() *cobra.Command {
	var baseURL string

	cmd := &cobra.Command{
		Use:   CommandHealthcheck,
		Short: "Probe the /health endpoint of a running server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if baseURL == "" {
				port := os.Getenv("SERVER_PORT")
				if port == "" {
					port = defaultHealthcheckPort
				}
				baseURL = "http://localhost:" + port
			}
			return runHealthcheck(cmd.Context(), baseURL)
		},
	}
	cmd.Flags().StringVar(&baseURL, "url", "", "server base URL (default http://localhost:$SERVER_PORT)")

	return cmd
}

// Run はコマンドライン引数を解釈してアプリケーションを実行する。
// argsにはos.Args[1:]を渡す。
func Run(ctx context.Context, w io.Writer, args []string) error {
	root := NewRootCommand(w)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
