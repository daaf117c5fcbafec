package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"nextvideo/internal/app"
	"nextvideo/internal/config"
	"nextvideo/internal/logging"
	"nextvideo/internal/model"
	"nextvideo/internal/peers"
	"nextvideo/internal/pipeline"
)

func main() {
	resetCache := flag.Bool("reset-cache", false, "Clear cached channel, catalog and peer artifacts, then exit")
	userID := flag.String("user", "", "Signed-in user id to run as")
	sessionID := flag.String("session", "", "Anonymous session id to run as (random when empty)")
	flag.Parse()

	envLine, envErr := config.LoadEnv()
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	// Terminal output belongs to the prompt; keep logs to warnings.
	level := cfg.LogLevel
	if level == "info" || level == "debug" {
		level = "warn"
	}
	log := logging.NewWithWriter(zerolog.ConsoleWriter{Out: os.Stderr}, level, "ideas")
	if envErr != nil {
		log.Warn().Err(envErr).Msg("env: load failed")
	} else if envLine != "" {
		log.Debug().Msg(envLine)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	a, err := app.Build(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("startup failed")
	}
	defer a.Close()

	if *resetCache {
		n, err := resetAll(ctx, a)
		if err != nil {
			log.Fatal().Err(err).Msg("reset failed")
		}
		fmt.Printf("reset: cleared %d cache entries (%s)\n", n, cfg.CacheBackend)
		return
	}

	owner := model.Owner{UserID: *userID, SessionID: *sessionID}
	if owner.IsZero() {
		owner.SessionID = uuid.NewString()
	}

	in := bufio.NewReader(os.Stdin)
	fmt.Println("Find your next video idea from peer channels one tier up.")
	fmt.Println("Enter a channel URL, @handle, or name. Enter 'q' to quit.")
	fmt.Println()

	for {
		query, ok := prompt(in, "channel")
		if !ok {
			return
		}
		if query == "" {
			fmt.Println("channel is required.")
			fmt.Println()
			continue
		}

		res, err := a.Service.Run(ctx, owner, query)
		if err != nil {
			fmt.Printf("ERROR: %v\n\n", err)
			if ctx.Err() != nil {
				return
			}
			continue
		}
		printResult(os.Stdout, res)
	}
}

func resetAll(ctx context.Context, a *app.App) (int64, error) {
	switch {
	case a.RedisCache != nil:
		n, err := a.RedisCache.Reset(ctx)
		return int64(n), err
	case a.PGCache != nil:
		return a.PGCache.Reset(ctx)
	default:
		return 0, nil
	}
}

func printResult(w io.Writer, res pipeline.RunResult) {
	ch := res.Analysis.Channel
	fmt.Fprintf(w, "\n%s (%s subscribers)\n", ch.Title, peers.FormatCount(ch.SubscriberCount))
	fmt.Fprintf(w, "niche: %s\n", strings.Join(res.Analysis.Niche, ", "))
	fmt.Fprintf(w, "peer range: %s - %s subscribers, %d peers, %d outliers\n\n",
		peers.FormatCount(res.Peers.Band.Min), peers.FormatCount(res.Peers.Band.Max),
		len(res.Peers.Peers), len(res.Peers.Outliers))

	for i, idea := range res.Generation.Ideas {
		fmt.Fprintf(w, "%d. %s\n", i+1, idea.Title)
		fmt.Fprintf(w, "   %s\n", idea.Insight)
		for _, ev := range idea.Evidence {
			fmt.Fprintf(w, "   - %s (%s, %.1fx, %s views)\n", ev.Title, ev.ChannelTitle, ev.Multiplier, peers.FormatCount(ev.ViewCount))
		}
		fmt.Fprintln(w)
	}
	if res.Generation.ID != "" {
		fmt.Fprintf(w, "saved as %s\n\n", res.Generation.ID)
	}
}

func prompt(in *bufio.Reader, label string) (string, bool) {
	fmt.Printf("%s: ", label)
	raw, err := in.ReadString('\n')
	if err != nil {
		return "", false
	}
	s := strings.TrimSpace(raw)
	if strings.EqualFold(s, "q") {
		return "", false
	}
	return s, true
}
