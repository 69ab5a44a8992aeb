package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"chuck-jokes/internal/chucknorris"
	"chuck-jokes/internal/config"
	"chuck-jokes/internal/models"
	"chuck-jokes/pkg/logger"

	"github.com/umputun/go-flags"
)

type options struct {
	Count   int           `short:"n" long:"count" default:"5" description:"number of jokes to fetch"`
	Config  string        `long:"config" env:"CONFIG_PATH" default:"configs/config.yaml" description:"config file"`
	Timeout time.Duration `long:"timeout" default:"60s" description:"overall timeout"`
	Debug   bool          `long:"dbg" description:"debug logging"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	level := "error"
	if opts.Debug {
		level = "debug"
	}
	logger.Init(level, os.Stderr)

	cfg, err := config.Read(opts.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.Timeout)
	defer cancel()

	fmt.Println("=== Probing joke API ===")
	fmt.Println()

	if err := probe(ctx, os.Stdout, chucknorris.New(cfg.API), opts.Count); err != nil {
		fmt.Fprintf(os.Stderr, "Probe failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("=== Probe Complete ===")
}

type fetcher interface {
	Random(ctx context.Context) (*models.Joke, error)
}

// probe fetches count jokes and prints how an import would treat each one.
func probe(ctx context.Context, w io.Writer, api fetcher, count int) error {
	seen := make(map[string]bool)
	for i := 1; i <= count; i++ {
		joke, err := api.Random(ctx)
		if errors.Is(err, chucknorris.ErrUnparseable) {
			fmt.Fprintf(w, "  %d: [unparseable] %v\n", i, err)
			continue
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(w, "  %d: [%s] %s %s\n", i, verdict(joke, seen), joke.ID, preview(joke.Value, 50))
		seen[joke.ID] = true
	}
	return nil
}

func verdict(joke *models.Joke, seen map[string]bool) string {
	switch {
	case joke.IsExplicit():
		return "explicit"
	case seen[joke.ID]:
		return "duplicate"
	default:
		return "ok"
	}
}

func preview(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + "..."
}
