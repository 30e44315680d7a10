// cmd/clashkings/main.go
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jason-s-yu/clashkings/internal/config"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
)

const usage = `usage: clashkings <command> [flags]

commands:
  play       play offline against bots
  host       create an online room on a server and host it
  join       join an online room by code or link
  tutorial   walk through the rules`

// app carries what every subcommand needs.
type app struct {
	cfg    *config.Config
	logger *logrus.Logger
	in     io.Reader
	out    *screen
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger.SetOutput(os.Stderr)
	// the table owns stdout; only warnings reach the terminal unless asked
	if os.Getenv("LOG_LEVEL") == "" {
		logger.SetLevel(logrus.WarnLevel)
	}

	a := &app{cfg: cfg, logger: logger, in: os.Stdin, out: newScreen(os.Stdout)}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	args := os.Args[2:]
	switch os.Args[1] {
	case "play":
		err = a.runPlay(ctx, args)
	case "host":
		err = a.runHost(ctx, args)
	case "join":
		err = a.runJoin(ctx, args)
	case "tutorial":
		err = a.runTutorial(ctx, args)
	case "help", "-h", "--help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Errorf("%s: %v", os.Args[1], err)
		os.Exit(1)
	}
}

// lines feeds parsed input until the reader ends or ctx is done.
// The channel is closed on EOF.
func lines(ctx context.Context, r io.Reader) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case out <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}
