package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/clover/pkg/mockapi"
)

var (
	mockFixtures string
	mockAddr     string
	mockToken    string
)

var mockCmd = &cobra.Command{
	Use:   "mock",
	Short: "Serve canned search responses for local runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		fixtures := mockapi.NewFixtures()
		if mockFixtures != "" {
			var err error
			fixtures, err = mockapi.LoadFixturesFile(mockFixtures)
			if err != nil {
				return err
			}
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		server := mockapi.New(fixtures, mockToken, logger)
		errCh := make(chan error, 1)
		go func() {
			errCh <- server.Start(mockAddr)
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		logger.Infof("Mock search API stopped after %d requests", server.Requests())
		return nil
	},
}

func init() {
	mockCmd.Flags().StringVar(&mockFixtures, "fixtures", "", "YAML fixture file")
	mockCmd.Flags().StringVar(&mockAddr, "addr", ":8089", "Listen address")
	mockCmd.Flags().StringVar(&mockToken, "token", "", "Required bearer token, empty disables auth")
}
