package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/creamcroissant/v2mng/internal/bootstrap"
	"github.com/creamcroissant/v2mng/internal/config"
)

// Build info - injected via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// rootOptions 保存全局参数。
type rootOptions struct {
	home       string
	configFile string
}

var rootOpts rootOptions

var rootCmd = &cobra.Command{
	Use:           "v2mng",
	Short:         "Manage vmess subscriptions for a v2ray/xray engine",
	Long:          "v2mng fetches vmess subscriptions, lists the decoded outbounds and writes the engine config for the one you pick.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&rootOpts.home, "path", "p", config.DefaultHome, "working directory")
	rootCmd.PersistentFlags().StringVar(&rootOpts.configFile, "config", "", "settings file (default <path>/v2mng.yaml)")
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(config.LoadOptions{Home: rootOpts.home, ConfigFile: rootOpts.configFile})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// openApp loads settings and wires the application for one command.
func openApp(cmd *cobra.Command) (*bootstrap.App, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return bootstrap.Build(cfg, bootstrap.Streams{
		In:     cmd.InOrStdin(),
		Out:    cmd.OutOrStdout(),
		ErrOut: cmd.ErrOrStderr(),
	})
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
