package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studiofisyo/ledger/internal/push"
)

var vapidCmd = &cobra.Command{
	Use:   "vapid",
	Short: "Manage VAPID credentials",
}

var vapidJSON bool

var vapidGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Print a fresh VAPID key pair",
	RunE: func(cmd *cobra.Command, args []string) error {
		public, private, err := push.GenerateVAPIDKeys()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if vapidJSON {
			// same shape as the vapid.secret_id secret
			return json.NewEncoder(out).Encode(push.VAPID{
				Subject:    subject,
				PublicKey:  public,
				PrivateKey: private,
			})
		}
		fmt.Fprintf(out, "FISYO_VAPID_PUBLIC_KEY=%s\n", public)
		fmt.Fprintf(out, "FISYO_VAPID_PRIVATE_KEY=%s\n", private)
		if subject != "" {
			fmt.Fprintf(out, "FISYO_VAPID_SUBJECT=%s\n", subject)
		}
		return nil
	},
}

var subject string

func init() {
	vapidGenerateCmd.Flags().BoolVar(&vapidJSON, "json", false, "print as a JSON secret")
	vapidGenerateCmd.Flags().StringVar(&subject, "subject", "", "contact URI, e.g. mailto:ops@studiofisyo.it")
	vapidCmd.AddCommand(vapidGenerateCmd)
	rootCmd.AddCommand(vapidCmd)
}
