package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newCheckCmd() *cobra.Command {
	var sessionID string
	var version string

	cmd := &cobra.Command{
		Use:   "check [token]",
		Short: "Validate and consume a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"token":      args[0],
				"session_id": sessionID,
			}
			if version != "" {
				body["version"] = version
			}

			var result CheckResult
			if err := client.Post("/api/v1/check", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			if !result.Valid {
				return fmt.Errorf("token rejected")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID claiming the token")
	cmd.Flags().StringVar(&version, "client-version", "", "Client version to present")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	var sessionID string

	cmd := &cobra.Command{
		Use:   "logout [token]",
		Short: "Release a session's claim on a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]string{
				"token":      args[0],
				"session_id": sessionID,
			}

			if err := client.Post("/api/v1/logout", body, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Session released")
			return nil
		},
	}

	cmd.Flags().StringVarP(&sessionID, "session", "s", "", "Session ID holding the claim")
	_ = cmd.MarkFlagRequired("session")

	return cmd
}
