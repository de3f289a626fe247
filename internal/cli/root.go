package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wesleyorama2/minigun/http"
	"github.com/wesleyorama2/minigun/internal/config"
	"github.com/wesleyorama2/minigun/internal/logging"
)

var version = "0.1.0"

// app carries state shared by all subcommands once the root command has
// loaded configuration.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{cfg: config.Default(), logger: zap.NewNop()}

	root := &cobra.Command{
		Use:     "minigun",
		Short:   "A small synchronous HTTP client with a scripting runtime",
		Version: version,
		Long: `Minigun sends one HTTP request at a time and hands back the status, headers
and body. It can be driven from the command line, from JavaScript scripts,
or hammered concurrently with the bench command.

Settings are read from MINIGUN_* environment variables; flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			return a.init(debug)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.logger.Sync()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().Bool("debug", false, "Log debug output to stderr")

	for _, method := range http.Methods {
		root.AddCommand(newRequestCmd(a, method))
	}
	root.AddCommand(newRunCmd(a))
	root.AddCommand(newBenchCmd(a))
	root.AddCommand(newEchoCmd(a))

	return root
}

// Execute runs the root command and prints any error to stderr.
// This is called by main.main().
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "Error: %v\n", err)
		return err
	}
	return nil
}

func (a *app) init(debug bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	a.cfg = cfg

	var logger *zap.Logger
	if debug {
		logger, err = logging.NewDevelopment()
	} else {
		logCfg := logging.DefaultConfig()
		logCfg.Level = cfg.LogLevel
		logCfg.Development = cfg.LogDev
		logger, err = logging.New(logCfg)
	}
	if err != nil {
		return fmt.Errorf("error creating logger: %w", err)
	}
	a.logger = logger
	return nil
}

func (a *app) userAgent() string {
	if a.cfg.UserAgent != "" {
		return a.cfg.UserAgent
	}
	return "minigun/" + version
}

func (a *app) newClient(timeout time.Duration, opts ...http.ClientOption) *http.Client {
	base := []http.ClientOption{
		http.WithTimeout(timeout),
		http.WithUserAgent(a.userAgent()),
		http.WithLogger(a.logger),
	}
	return http.NewClient(append(base, opts...)...)
}
