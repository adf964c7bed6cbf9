package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/pharmassist/internal/assistant"
	"github.com/hyperjump/pharmassist/internal/cli"
	"github.com/hyperjump/pharmassist/internal/models"
	"github.com/hyperjump/pharmassist/internal/server"
	"github.com/hyperjump/pharmassist/internal/watcher"
)

func newServerCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			components, err := initializeComponents(ctx, cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Close()

			if cfg.Watch.LabelsDir != "" {
				w := watcher.New(
					cfg.Watch.LabelsDir,
					cfg.Watch.Extensions,
					cfg.Watch.RecursiveOrDefault(),
					components.Ingester,
					watcher.WithLogger(logger),
				)
				if err := w.Start(ctx); err != nil {
					return fmt.Errorf("failed to start watcher: %w", err)
				}
				defer w.Stop()
			}

			srv := server.NewServer(components.Assistant, &cfg.Server, logger)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			select {
			case err := <-errCh:
				if err != nil {
					return fmt.Errorf("server failed: %w", err)
				}
				return nil
			case <-ctx.Done():
			}

			logger.Info("Shutting down...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Stop(shutdownCtx)
		},
	}
}

// clientOptions select between a running server and direct in-process access.
type clientOptions struct {
	serverURL string
	apiKey    string
	output    string
}

func (c *clientOptions) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&c.serverURL, "server", "", "server URL (empty = run in-process)")
	cmd.Flags().StringVar(&c.apiKey, "api-key", "", "API key sent to the server (defaults to server.api_key)")
	cmd.Flags().StringVarP(&c.output, "output", "o", "text", "output format: text, compact or json")
}

// withService runs fn against an in-process assistant built from config.
func withService(ctx context.Context, opts *rootOptions, fn func(*assistant.Service) error) error {
	cfg, logger, err := setup(opts)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	components, err := initializeComponents(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}
	defer components.Close()
	return fn(components.Assistant)
}

// remote returns an API client for the --server URL, using the configured key when --api-key is unset.
func (c *clientOptions) remote(opts *rootOptions) (*apiClient, error) {
	key := c.apiKey
	if key == "" {
		cfg, _, err := loadConfig(opts)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		key = cfg.Server.APIKey
	}
	return newAPIClient(c.serverURL, key), nil
}

func newAskCmd(opts *rootOptions) *cobra.Command {
	var (
		client   clientOptions
		language string
	)
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Ask a drug question",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseFormat(client.output)
			if err != nil {
				return err
			}
			req := models.AskRequest{Question: joinArgs(args), Language: language}

			var answer *models.DrugAnswer
			if client.serverURL != "" {
				api, err := client.remote(opts)
				if err != nil {
					return err
				}
				answer, err = api.Ask(cmd.Context(), req)
				if err != nil {
					return err
				}
			} else {
				err = withService(cmd.Context(), opts, func(svc *assistant.Service) error {
					var askErr error
					answer, askErr = svc.Ask(cmd.Context(), req)
					return askErr
				})
				if err != nil {
					return err
				}
			}
			return cli.WriteAnswer(cmd.OutOrStdout(), answer, format)
		},
	}
	client.register(cmd)
	cmd.Flags().StringVarP(&language, "language", "l", "", "answer language (defaults to languages.default)")
	return cmd
}

func newSearchCmd(opts *rootOptions) *cobra.Command {
	var (
		client clientOptions
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search drug labels",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseFormat(client.output)
			if err != nil {
				return err
			}
			q := models.SearchQuery{Query: joinArgs(args), Limit: limit}

			var response *models.SearchResponse
			if client.serverURL != "" {
				api, err := client.remote(opts)
				if err != nil {
					return err
				}
				response, err = api.SearchDrugs(cmd.Context(), q)
				if err != nil {
					return err
				}
			} else {
				err = withService(cmd.Context(), opts, func(svc *assistant.Service) error {
					var searchErr error
					response, searchErr = svc.SearchDrugs(cmd.Context(), q)
					return searchErr
				})
				if err != nil {
					return err
				}
			}
			return cli.WriteSearchResults(cmd.OutOrStdout(), response, format)
		},
	}
	client.register(cmd)
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "maximum results (defaults to sources.default_limit)")
	return cmd
}

func newIngestCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file|directory>...",
		Short: "Index drug label files",
		Long: "Index drug label files into the vector index and catalog. Directories are walked " +
			"using the watch.extensions filter.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(opts)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			components, err := initializeComponents(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize components: %w", err)
			}
			defer components.Close()

			out := cmd.OutOrStdout()
			for _, path := range args {
				info, err := os.Stat(path)
				if err != nil {
					return err
				}
				if info.IsDir() {
					n, err := components.Ingester.Directory(cmd.Context(), path, cfg.Watch.Extensions)
					if err != nil {
						return fmt.Errorf("ingest %s: %w", path, err)
					}
					fmt.Fprintf(out, "%s: %d files ingested\n", path, n)
					continue
				}
				res, err := components.Ingester.File(cmd.Context(), path)
				if err != nil {
					return fmt.Errorf("ingest %s: %w", path, err)
				}
				fmt.Fprintf(out, "%s: %d documents indexed\n", path, res.Indexed)
				for _, id := range res.Skipped {
					logger.Warn("document skipped", zap.String("path", path), zap.String("id", id))
				}
			}
			fmt.Fprintf(out, "index now holds %d documents\n", components.Index.Count())
			return nil
		},
	}
}

func newStatusCmd(opts *rootOptions) *cobra.Command {
	var client clientOptions
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and catalog status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cli.ParseFormat(client.output)
			if err != nil {
				return err
			}
			var status *assistant.Status
			if client.serverURL != "" {
				api, err := client.remote(opts)
				if err != nil {
					return err
				}
				status, err = api.Status(cmd.Context())
				if err != nil {
					return err
				}
			} else {
				err = withService(cmd.Context(), opts, func(svc *assistant.Service) error {
					var statusErr error
					status, statusErr = svc.Status(cmd.Context())
					return statusErr
				})
				if err != nil {
					return err
				}
			}
			return cli.WriteStatus(cmd.OutOrStdout(), status, format)
		},
	}
	client.register(cmd)
	return cmd
}
