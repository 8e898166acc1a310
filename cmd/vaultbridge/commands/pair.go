package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vaultbridge/internal/services/channel"
)

// pair: connect to the bridge and wait for the vault to approve us.
func pairCmd() *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Connect to the bridge and wait for vault approval",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			id, err := wire.Identities.Load(passphrase)
			if err != nil {
				return err
			}
			ch, err := wire.NewChannel(id)
			if err != nil {
				return err
			}
			defer ch.Close()

			cancel := ch.Subscribe(func(s channel.Snapshot) {
				if s.Err != nil {
					fmt.Printf("state: %s (%v)\n", s.State, s.Err)
					return
				}
				fmt.Printf("state: %s\n", s.State)
			})
			defer cancel()

			ctx, cancelCtx := context.WithTimeout(cmd.Context(), wait)
			defer cancelCtx()
			if err := ch.Connect(ctx, wire.BridgeURL()); err != nil {
				return err
			}
			if err := ch.WaitForAuthorization(ctx); err != nil {
				return fmt.Errorf("not paired: %w", err)
			}
			fmt.Printf("Paired. Client ID: %s\n", ch.ClientID())
			return nil
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 2*time.Minute, "how long to wait for approval")
	return cmd
}
