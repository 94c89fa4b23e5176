package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/m3rciful/airdropbot/airdrop/app"
	"github.com/m3rciful/airdropbot/core/buildinfo"
	corecmd "github.com/m3rciful/airdropbot/core/cmd"
	"github.com/m3rciful/airdropbot/core/logger"
)

const (
	configEnvVar      = "CONFIG_PATH"
	defaultConfigPath = "config.yaml"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:          "airdropbot",
		Short:        "Telegram bot that collects and lists airdrops",
		Version:      fmt.Sprintf("%s (%s, %s)", buildinfo.Version, buildinfo.Commit, buildinfo.Date),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (default $CONFIG_PATH or ./config.yaml)")

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the bot until interrupted",
		RunE: func(*cobra.Command, []string) error {
			return corecmd.Run(corecmd.Options{
				ConfigPath:        configPath,
				ConfigEnvVar:      configEnvVar,
				DefaultConfigPath: defaultConfigPath,
				LoadConfig:        app.LoadCarrier,
				Bootstrap:         app.BootstrapCarrier,
			})
		},
	}

	sweep := &cobra.Command{
		Use:   "sweep",
		Short: "Mark airdrops past their deadline as Ended, once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return oneShot(configPath, func(ctx context.Context, a *app.App) error {
				n, err := a.Sweep(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("updated %d rows\n", n)
				return nil
			})
		},
	}

	backup := &cobra.Command{
		Use:   "backup",
		Short: "Copy the airdrop table now",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return oneShot(configPath, func(ctx context.Context, a *app.App) error {
				name, err := a.Backup(ctx)
				if err != nil {
					return err
				}
				cmd.Printf("backup created: %s\n", name)
				return nil
			})
		},
	}

	root.AddCommand(serve, sweep, backup)
	// plain "airdropbot" behaves like "airdropbot serve"
	root.RunE = serve.RunE
	return root
}

// oneShot loads config, bootstraps the app without starting the bot and runs fn.
func oneShot(flagPath string, fn func(context.Context, *app.App) error) error {
	path, err := corecmd.ResolveConfigPath(flagPath, configEnvVar, defaultConfigPath)
	if err != nil {
		return err
	}
	cfg, err := app.LoadConfig(path)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	ctx, cancel := corecmd.SignalContext()
	defer cancel()
	defer func() {
		if err := logger.Shutdown(); err != nil {
			log.Printf("logger shutdown error: %v", err)
		}
	}()
	a, err := app.Bootstrap(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}
