package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate the identity key pair and store it encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			_, clientID, err := wire.Identities.Generate(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Identity created.\nClient ID: %s\n", clientID)
			return nil
		},
	}
}
