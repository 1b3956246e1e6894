package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/km-arc/go-bakery/app/people"
	"github.com/km-arc/go-bakery/framework/app"
	"github.com/km-arc/go-bakery/framework/config"
	"github.com/km-arc/go-bakery/framework/container"
	"github.com/km-arc/go-bakery/framework/logging"
)

var (
	envFiles   []string
	valuesFile string
	addr       string
)

var rootCmd = &cobra.Command{
	Use:   "bakeryd",
	Short: "Runs the people service on a bakery container",
	Long: `bakeryd assembles the people service from recipes, opens its container,
serves HTTP until interrupted and then releases every resource in reverse order.`,
	SilenceUsage: true,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Open the container and serve HTTP",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringSliceVar(&envFiles, "env-file", nil, ".env files to load (default .env if present)")
	serveCmd.Flags().StringVar(&valuesFile, "values", "", "YAML file with container overrides (default $VALUES_FILE)")
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (default :$APP_PORT)")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context) error {
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return err
	}
	if valuesFile == "" {
		valuesFile = cfg.Values
	}
	values, err := config.LoadValues(valuesFile)
	if err != nil {
		return err
	}
	overrides := container.Kwargs(values)
	if g := config.Get("APP_GREETING", ""); g != "" {
		if overrides == nil {
			overrides = container.Kwargs{}
		}
		if _, set := overrides["greeting"]; !set {
			overrides["greeting"] = g
		}
	}

	log := logging.NewContainerLogger(cfg.App.Name, cfg.Log)
	var opts []app.Option
	if addr != "" {
		opts = append(opts, app.WithAddr(addr))
	}
	application := app.New(cfg, log, []container.ServiceProvider{&people.Provider{}}, opts...)
	return application.Run(ctx, overrides)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
