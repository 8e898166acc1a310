package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"vaultbridge/internal/crypto"
)

func fingerprintCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprint",
		Short: "Print the client id and public key",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			id, err := wire.Identities.Load(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Client ID:  %s\n", crypto.DeriveClientID(id.PublicKey))
			fmt.Printf("Public key: %s\n", crypto.B64(id.PublicKey))
			return nil
		},
	}
}
