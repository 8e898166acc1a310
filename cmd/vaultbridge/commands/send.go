package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"vaultbridge/internal/domain"
	"vaultbridge/internal/services/channel"
)

// send <action>: send one encrypted request and print the response.
func sendCmd() *cobra.Command {
	var (
		pageURL  string
		itemID   string
		name     string
		username string
		password string
		retries  uint64
	)
	cmd := &cobra.Command{
		Use:   "send <action>",
		Short: "Send an encrypted request (ping, get-items, get-item-details, create-item)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			req, err := buildRequest(args[0], pageURL, itemID, name, username, password)
			if err != nil {
				return err
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

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()
			if err := ch.Connect(ctx, wire.BridgeURL()); err != nil {
				return err
			}
			if err := ch.WaitForAuthorization(ctx); err != nil {
				return fmt.Errorf("not paired, run `vaultbridge pair` first: %w", err)
			}

			retrier := &channel.Retrier{Sender: ch, MaxRetries: retries}
			payload, err := retrier.Do(ctx, req, wire.RequestDeadline())
			if err != nil {
				return err
			}

			var pretty bytes.Buffer
			if err := json.Indent(&pretty, payload, "", "  "); err != nil {
				return err
			}
			fmt.Println(pretty.String())
			return nil
		},
	}
	cmd.Flags().StringVar(&pageURL, "url", "", "page URL (get-items, create-item)")
	cmd.Flags().StringVar(&itemID, "item-id", "", "item id (get-item-details)")
	cmd.Flags().StringVar(&name, "name", "", "item name (create-item)")
	cmd.Flags().StringVar(&username, "username", "", "item username (create-item)")
	cmd.Flags().StringVar(&password, "password", "", "item password (create-item)")
	cmd.Flags().Uint64Var(&retries, "retries", 2, "retry attempts for timeouts and transport failures")
	return cmd
}

func buildRequest(action, pageURL, itemID, name, username, password string) (domain.Request, error) {
	switch action {
	case "ping":
		return domain.Ping{}, nil
	case "get-items":
		return domain.GetItems{URL: pageURL}, nil
	case "get-item-details":
		return domain.GetItemDetails{ItemID: itemID}, nil
	case "create-item":
		return domain.CreateItem{Name: name, URL: pageURL, Username: username, Password: password}, nil
	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}
