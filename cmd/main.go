package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "order-ingestor",
		Short:         "Stores order notifications from SQS in DynamoDB",
		SilenceUsage:  true,
		SilenceErrors: true,
		// The Lambda runtime invokes the binary without arguments.
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLambda(cmd.Context(), configPath)
		},
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "optional config file (yaml, json or toml); environment variables take precedence")

	root.AddCommand(
		&cobra.Command{
			Use:   "lambda",
			Short: "Run as an SQS-triggered Lambda function",
			RunE: func(cmd *cobra.Command, _ []string) error {
				return runLambda(cmd.Context(), configPath)
			},
		},
		newReplayCmd(&configPath),
		newGetCmd(&configPath),
	)
	return root
}

func runLambda(ctx context.Context, configPath string) error {
	a, err := newApp(ctx, appOptions{configPath: configPath})
	if err != nil {
		return err
	}
	a.log.Info("starting lambda handler")
	// StartWithOptions only returns by exiting the process.
	lambda.StartWithOptions(a.handler.Handle, lambda.WithEnableSIGTERM(func() {
		a.close(context.Background())
	}))
	return nil
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
