package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"postboard/internal/events"
	"postboard/internal/model"
	"postboard/internal/server"
	"postboard/internal/store"
	"postboard/internal/worker"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	redisAddr  string
	jsonLogs   bool
	addr       string
	titleMax   int
	contentMax int
	noSeed     bool
	feedMaxLen int64
)

var rootCmd = &cobra.Command{
	Use:   "postboard",
	Short: "postboard - an in-memory blog post REST API",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if jsonLogs {
			logger, err = zap.NewProduction()
		} else {
			logger, err = zap.NewDevelopment()
		}
		return err
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := shutdownContext()
		defer cancel()

		var opts []store.Option
		opts = append(opts, store.WithLimits(store.Limits{TitleMax: titleMax, ContentMax: contentMax}))
		if !noSeed {
			opts = append(opts, store.WithSeed(model.SeedPosts()...))
		}
		mem := store.NewMemoryStore(opts...)
		limits := mem.Limits()
		logger.Info("Store ready",
			zap.Int("posts", mem.Len()),
			zap.Int("title_max", limits.TitleMax),
			zap.Int("content_max", limits.ContentMax))

		// Change feed is optional; without --redis mutations are not published
		var st store.Store = mem
		if redisAddr != "" {
			feed, err := events.NewRedisFeed(redisAddr)
			if err != nil {
				logger.Fatal("Failed to init change feed", zap.Error(err))
			}
			defer feed.Close()
			st = events.NewNotifyingStore(mem, feed.WithMaxLen(feedMaxLen), logger)
			logger.Info("Publishing change feed", zap.String("redis", redisAddr), zap.String("key", events.DefaultKey))
		}

		srv := server.NewServer(st, logger)
		if err := srv.Run(ctx, addr, 5*time.Second); err != nil {
			logger.Fatal("Server failed", zap.Error(err))
		}
		logger.Info("Goodbye!")
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow the change feed and log every post event",
	Run: func(cmd *cobra.Command, args []string) {
		if redisAddr == "" {
			logger.Fatal("watch needs --redis")
		}
		ctx, cancel := shutdownContext()
		defer cancel()

		feed, err := events.NewRedisFeed(redisAddr)
		if err != nil {
			logger.Fatal("Failed to init change feed", zap.Error(err))
		}
		defer feed.Close()

		w := worker.NewWorker(feed, logger)
		stopped := make(chan struct{})
		go func() {
			w.Start(ctx)
			close(stopped)
		}()

		fmt.Println("Press 'q' + Enter or Ctrl+C to stop.")
		<-ctx.Done()

		// Pop notices the cancel within one poll interval
		<-stopped
		logger.Info("Goodbye!")
	},
}

// shutdownContext is cancelled on SIGINT, SIGTERM, or a 'q' line on stdin.
func shutdownContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			if scanner.Text() == "q" {
				fmt.Println(" 'q' pressed. Stopping...")
				cancel()
				return
			}
		}
	}()

	go func() {
		select {
		case <-sigChan:
			logger.Info("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func main() {
	rootCmd.PersistentFlags().StringVar(&redisAddr, "redis", "", "Address of Redis server for the change feed (empty disables it)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Log JSON lines instead of console output")

	serveCmd.Flags().StringVar(&addr, "addr", ":5002", "HTTP listen address")
	serveCmd.Flags().IntVar(&titleMax, "title-max", store.DefaultTitleMax, "Maximum title length in characters")
	serveCmd.Flags().IntVar(&contentMax, "content-max", store.DefaultContentMax, "Maximum content length in characters")
	serveCmd.Flags().BoolVar(&noSeed, "no-seed", false, "Start with an empty store instead of the two seed posts")
	serveCmd.Flags().Int64Var(&feedMaxLen, "feed-max", events.DefaultMaxLen, "Number of events the change feed retains")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)

	err := rootCmd.Execute()
	if logger != nil {
		logger.Sync()
	}
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
