package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
)

func newTokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Manage license tokens",
	}

	cmd.AddCommand(newTokenListCmd())
	cmd.AddCommand(newTokenIssueCmd())
	cmd.AddCommand(newTokenRevokeCmd())

	return cmd
}

func newTokenListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result TokenList
			if err := client.Get("/api/v1/admin/tokens", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newTokenIssueCmd() *cobra.Command {
	var token string
	var user string
	var expires string
	var uses int
	var version string

	cmd := &cobra.Command{
		Use:   "issue",
		Short: "Issue a new token",
		Long: `Issue a new token for a user.

If --token is omitted a FREE-prefixed token is generated by the server.
Re-issuing an existing token replaces it and resets its usage count.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"user":    user,
				"expires": expires,
				"uses":    uses,
			}
			if token != "" {
				body["token"] = token
			}
			if version != "" {
				body["version"] = version
			}

			var result TokenInfo
			if err := client.Post("/api/v1/admin/tokens", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Token value (generated when omitted)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "User the token belongs to")
	cmd.Flags().StringVarP(&expires, "expires", "e", "", "Expiry date (YYYY-MM-DD)")
	cmd.Flags().IntVarP(&uses, "uses", "n", 1, "Allowed number of uses")
	cmd.Flags().StringVar(&version, "client-version", "", "Required client version")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("expires")

	return cmd
}

func newTokenRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke [token]",
		Short: "Revoke a token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/admin/tokens/%s", url.PathEscape(args[0]))
			if err := client.Delete(path); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Token revoked")
			return nil
		},
	}
}
