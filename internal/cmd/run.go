package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/javierturcios2607/ingestor/pkg/batch"
	"github.com/javierturcios2607/ingestor/pkg/fetch"
	"github.com/javierturcios2607/ingestor/pkg/logging"
	"github.com/javierturcios2607/ingestor/pkg/notify"
	"github.com/javierturcios2607/ingestor/pkg/pipeline"
	"github.com/javierturcios2607/ingestor/pkg/schema"
	"github.com/javierturcios2607/ingestor/pkg/sink"
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Fetch, validate and store one batch of resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewLogger("ingestor")

			ids, err := parseIdentifiers(viper.GetString("ids"), viper.GetString("id-range"))
			if err != nil {
				return err
			}

			cfg := fetch.DefaultConfig(viper.GetString("base-url"))
			cfg.MaxConcurrency = viper.GetInt("concurrency")
			cfg.Timeout = viper.GetDuration("timeout")
			cfg.MaxRetries = viper.GetInt("retries")
			if ua := viper.GetString("user-agent"); ua != "" {
				cfg.UserAgent = ua
			}

			dispatcher, err := fetch.New(cfg)
			if err != nil {
				return fmt.Errorf("configure dispatcher: %w", err)
			}

			orchestrator, err := batch.New(dispatcher, notify.NewLogNotifier())
			if err != nil {
				return fmt.Errorf("configure orchestrator: %w", err)
			}

			dest, err := sink.NewJSONFile(viper.GetString("output"))
			if err != nil {
				return fmt.Errorf("configure sink: %w", err)
			}

			ctx := cmd.Context()

			quarantine, closeRedis, err := buildQuarantine(ctx)
			if err != nil {
				return err
			}
			defer closeRedis()

			if addr := viper.GetString("metrics-addr"); addr != "" {
				go serveMetrics(addr)
			}

			extractor := pipeline.NewFetchExtractor(orchestrator, ids)
			validator := userContract()

			summary, err := pipeline.Run(ctx, extractor, validator, dest, quarantine)
			if err != nil {
				return err
			}

			event := logger.Info().
				Int("accepted", summary.Accepted).
				Int("rejected", summary.Rejected).
				Dur("elapsed", summary.Elapsed)
			if result := extractor.LastResult(); result != nil {
				event = event.
					Int("attempted", result.Attempted).
					Int("succeeded", result.Succeeded).
					Int("failed", result.Failed())
			}
			event.Msg("Ingest run finished")

			return nil
		},
	}

	cmd.Flags().String("base-url", "", "Base address; the identifier is appended per request")
	cmd.Flags().String("ids", "", "Comma-separated identifier list")
	cmd.Flags().String("id-range", "", "Inclusive numeric identifier range, e.g. 1-50")
	cmd.Flags().Int("concurrency", 10, "Maximum concurrent in-flight requests")
	cmd.Flags().Duration("timeout", 10*time.Second, "Per-request timeout")
	cmd.Flags().Int("retries", 0, "Extra attempts for retriable failures (0 disables)")
	cmd.Flags().String("user-agent", "", "User-Agent header override")
	cmd.Flags().String("output", "accepted.json", "Destination file for accepted records")
	cmd.Flags().String("redis-addr", "", "Redis address for the quarantine store (optional)")
	cmd.Flags().String("quarantine-key", sink.DefaultQuarantineKey, "Redis list key for quarantined records")
	cmd.Flags().String("metrics-addr", "", "Listen address for Prometheus metrics (optional)")
	cmd.MarkFlagRequired("base-url")

	for _, flag := range []string{
		"base-url", "ids", "id-range", "concurrency", "timeout", "retries",
		"user-agent", "output", "redis-addr", "quarantine-key", "metrics-addr",
	} {
		viper.BindPFlag(flag, cmd.Flags().Lookup(flag))
	}

	return cmd
}

// buildQuarantine picks the redis-backed store when an address is
// configured and falls back to the in-process collector otherwise.
func buildQuarantine(ctx context.Context) (sink.Quarantine, func(), error) {
	addr := viper.GetString("redis-addr")
	if addr == "" {
		return sink.NewMemory(), func() {}, nil
	}

	redisClient := redis.NewClient(&redis.Options{Addr: addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		redisClient.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", addr, err)
	}

	quarantine, err := sink.NewRedisQuarantine(redisClient, viper.GetString("quarantine-key"))
	if err != nil {
		redisClient.Close()
		return nil, nil, err
	}

	return quarantine, func() { redisClient.Close() }, nil
}

func serveMetrics(addr string) {
	logger := logging.NewLogger("metrics")
	logger.Info().Str("addr", addr).Msg("Serving Prometheus metrics")

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error().Err(err).Msg("Metrics server failed")
	}
}

// userContract is the default record contract: the user payloads the
// reference upstream serves, renamed to warehouse-friendly fields.
func userContract() *schema.Schema {
	return schema.New(
		schema.Field{Name: "user_id", Alias: "id", Type: schema.TypeInt, Required: true},
		schema.Field{Name: "full_name", Alias: "name", Type: schema.TypeString, Required: true},
		schema.Field{Name: "email", Type: schema.TypeEmail, Required: true},
	)
}
