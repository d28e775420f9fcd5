package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func newPlayersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "players",
		Short: "Manage the player identity log",
	}

	cmd.AddCommand(newPlayersListCmd())
	cmd.AddCommand(newPlayersObserveCmd())
	cmd.AddCommand(newPlayersBlacklistCmd())
	cmd.AddCommand(newPlayersImportCmd())
	cmd.AddCommand(newPlayersExportCmd())

	return cmd
}

func newPlayersListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all known players",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result PlayerList
			if err := client.Get("/api/v1/admin/players", &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayersObserveCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "observe [friend-code]",
		Short: "Record an observation of a player",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fc int64
			if _, err := fmt.Sscanf(args[0], "%d", &fc); err != nil {
				return fmt.Errorf("invalid friend code %q", args[0])
			}

			body := map[string]any{
				"players": []map[string]any{
					{"friend_code": fc, "name": name},
				},
			}

			if err := client.Post("/api/v1/players/observe", body, nil); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Observation recorded")
			return nil
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "Player name as observed")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newPlayersBlacklistCmd() *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "blacklist [friend-code]",
		Short: "Blacklist a friend code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var fc int64
			if _, err := fmt.Sscanf(args[0], "%d", &fc); err != nil {
				return fmt.Errorf("invalid friend code %q", args[0])
			}

			body := map[string]any{
				"friend_code": fc,
				"label":       label,
			}

			var result PlayerRecord
			if err := client.Post("/api/v1/admin/players/blacklist", body, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Label recorded alongside the blacklist flag")

	return cmd
}

func newPlayersImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import [file]",
		Short: "Import player records from a text file",
		Long: `Import player records from a text file.

Each line is either "fc: name" or "(fc, label): (name)" for a
blacklisted entry. Malformed lines are skipped by the server.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer func() { _ = f.Close() }()

			respBody, err := client.DoText(http.MethodPost, "/api/v1/admin/players/import", f)
			if err != nil {
				return err
			}

			var result ImportResult
			if err := json.Unmarshal(respBody, &result); err != nil {
				return fmt.Errorf("failed to parse response: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newPlayersExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the player log as text",
		RunE: func(cmd *cobra.Command, args []string) error {
			respBody, err := client.DoText(http.MethodGet, "/api/v1/admin/players/export", nil)
			if err != nil {
				return err
			}

			fmt.Print(string(respBody))
			return nil
		},
	}
}
