// Command weather-fetch queries OpenWeatherMap for the configured cities and
// prints the resulting JSON document. weather-web runs it in spawn mode.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/i474232898/weather-web/internal/config"
	"github.com/i474232898/weather-web/internal/forecast"
	"github.com/i474232898/weather-web/internal/weather/providers"
)

type options struct {
	configPath string
	outPath    string
}

func newRootCmd(stdout io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:           "weather-fetch",
		Short:         "OpenWeather fetcher that outputs JSON based on a YAML config",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), opts, stdout)
		},
	}

	cmd.Flags().StringVar(&opts.configPath, "config", "",
		"path to YAML config (default search: $WEATHER_CONFIG, ./config/rust.yaml, ./config.yaml, <config dir>/weather-app/config.yaml)")
	cmd.Flags().StringVar(&opts.outPath, "out", "", "write JSON here instead of stdout")

	return cmd
}

func run(ctx context.Context, opts options, stdout io.Writer) error {
	cfg, err := config.LoadFetcher(opts.configPath)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: 30 * time.Second}
	ow := providers.NewOpenWeatherProvider(client, providers.OpenWeatherOptions{
		APIKey:  cfg.OpenWeather.APIKey,
		Units:   cfg.OpenWeather.Units,
		Lang:    cfg.OpenWeather.Lang,
		BaseURL: cfg.OpenWeather.BaseURL,
	})

	out, err := forecast.Collect(ctx, ow, cfg.App.Cities, cfg.OpenWeather.Units, time.Now())
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}

	if opts.outPath != "" {
		if err := os.WriteFile(opts.outPath, data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", opts.outPath, err)
		}
		return nil
	}

	_, err = fmt.Fprintln(stdout, string(data))
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
