package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/samvad-hq/httpfetch/internal/app"
	"github.com/samvad-hq/httpfetch/internal/config"
	"github.com/samvad-hq/httpfetch/internal/logger"
	"github.com/samvad-hq/httpfetch/pkg/httpclient"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "httpget: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if len(args) > 0 {
		fetcher := httpclient.New(httpclient.WithTimeout(cfg.FetchTimeout), httpclient.WithLogger(log))
		return fetchAll(ctx, fetcher, args, cfg, os.Stdout)
	}

	logger.InfoObj("monitor starting", "config", cfg)

	mon, err := app.NewMonitor(ctx, cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize monitor", "error", err)
		return err
	}

	if err := mon.Run(ctx); err != nil {
		return fmt.Errorf("monitor run: %w", err)
	}
	return nil
}

// fetchAll performs one fetch per url, writing each status line and body to out.
func fetchAll(ctx context.Context, fetcher *httpclient.Fetcher, urls []string, cfg *config.Config, out io.Writer) error {
	var errs []error
	for _, u := range urls {
		fetcher.Do(ctx, u, cfg.FetchTimeout,
			func(err error) {
				errs = append(errs, fmt.Errorf("%s: %w", u, err))
			},
			func(status int, body []byte) {
				fmt.Fprintf(out, "%s %d\n", u, status)
				out.Write(body)
				if len(body) > 0 && body[len(body)-1] != '\n' {
					fmt.Fprintln(out)
				}
				if status != httpclient.StatusOK {
					errs = append(errs, fmt.Errorf("%s: unexpected status %d", u, status))
				}
			},
		)
	}
	return errors.Join(errs...)
}
