package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/pkg/metrics"
)

func newReplayCmd(configPath *string) *cobra.Command {
	var (
		eventPath string
		dryRun    bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Feed a saved SQS event through the handler",
		Long: `Replay reads an SQS event in the Lambda JSON format and runs it through the
same handler the function uses. With --dry-run orders are kept in memory and
printed instead of being written to DynamoDB. If METRICS_ADDR is set, /metrics
is served until the command is interrupted.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			event, err := loadEvent(cmd.InOrStdin(), eventPath)
			if err != nil {
				return err
			}

			a, err := newApp(ctx, appOptions{configPath: *configPath, dryRun: dryRun})
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			var srv *http.Server
			if a.cfg.Metrics.Addr != "" {
				srv = &http.Server{
					Addr:              a.cfg.Metrics.Addr,
					Handler:           metricsMux(a),
					ReadHeaderTimeout: 5 * time.Second,
				}
				go func() {
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.log.Error("metrics server failed", zap.Error(err))
					}
				}()
			}

			resp, handleErr := a.handler.Handle(ctx, event)

			out := cmd.OutOrStdout()
			if handleErr == nil {
				if err := writeJSON(out, resp); err != nil {
					return err
				}
			}
			if a.memory != nil {
				if err := writeJSON(out, a.memory.Snapshot()); err != nil {
					return err
				}
			}

			if srv != nil {
				a.log.Info("serving metrics until interrupted", zap.String("addr", a.cfg.Metrics.Addr))
				<-ctx.Done()
				shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancelShutdown()
				_ = srv.Shutdown(shutdownCtx)
			}
			return handleErr
		},
	}

	cmd.Flags().StringVarP(&eventPath, "event", "e", "-", "path to the SQS event JSON, or - for stdin")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "store orders in memory instead of DynamoDB")
	return cmd
}

func loadEvent(stdin io.Reader, path string) (events.SQSEvent, error) {
	var r io.Reader = stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return events.SQSEvent{}, fmt.Errorf("opening event file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var event events.SQSEvent
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return events.SQSEvent{}, fmt.Errorf("decoding SQS event: %w", err)
	}
	if len(event.Records) == 0 {
		return events.SQSEvent{}, errors.New("event has no records")
	}
	return event, nil
}

func metricsMux(a *app) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(a.registry))
	return mux
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
