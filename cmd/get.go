package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmehra2102/prod-golang-projects/order-ingestor/internal/storage/dynamostore"
)

func newGetCmd(configPath *string) *cobra.Command {
	var orderID string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Print one stored order from DynamoDB",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx, appOptions{configPath: *configPath})
			if err != nil {
				return err
			}
			defer a.close(context.Background())

			order, err := a.dynamo.Get(ctx, orderID)
			if errors.Is(err, dynamostore.ErrNotFound) {
				return fmt.Errorf("order %q not found in %s", orderID, a.cfg.DynamoDB.Table)
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), order)
		},
	}

	cmd.Flags().StringVar(&orderID, "order-id", "", "order identifier to look up")
	_ = cmd.MarkFlagRequired("order-id")
	return cmd
}
