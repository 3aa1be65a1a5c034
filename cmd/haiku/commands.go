package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kalambet/haiku/internal/config"
	"github.com/kalambet/haiku/internal/controller"
	"github.com/kalambet/haiku/internal/haiku"
)

// --- generate ---

var generateCmd = &cobra.Command{
	Use:   "generate <theme...>",
	Short: "Generate and save a haiku about a theme",
	Long: `Generate and save a haiku about a theme on the running server.

Examples:
  haiku generate ocean
  haiku generate "first snow on the mountain"`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		theme := haiku.NormalizeTheme(strings.Join(args, " "))
		if theme == "" {
			return fmt.Errorf("theme is required")
		}

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		printStep("Generating...")
		resp, err := client.post(cmd.Context(), "/api/generate", map[string]string{"theme": theme})
		if err != nil {
			return err
		}

		var st controller.State
		if err := decodeJSON(resp, &st); err != nil {
			return err
		}
		if st.Current == nil {
			return fmt.Errorf("%s", haiku.GenericErrorMessage)
		}

		fmt.Fprintln(cmd.OutOrStdout(), formatHaiku(*st.Current, false))
		printSuccess("Saved haiku %s", st.Current.ID)
		return nil
	},
}

// --- list ---

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved haikus, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		client, err := newAPIClient()
		if err != nil {
			return err
		}

		resp, err := client.get(cmd.Context(), "/api/haikus")
		if err != nil {
			return err
		}

		var records []haiku.Record
		if err := decodeJSON(resp, &records); err != nil {
			return err
		}

		if len(records) == 0 {
			printWarning("No haikus yet")
			return nil
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Past Haikus (%d)\n\n", len(records))
		if limit > 0 && limit < len(records) {
			records = records[:limit]
		}
		for _, rec := range records {
			fmt.Fprintln(out, formatHaiku(rec, true))
			fmt.Fprintln(out)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().Int("limit", 0, "show at most this many haikus (0 = all)")
}

// --- config ---

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		for _, k := range config.ShowAll(cfg) {
			fmt.Fprintf(out, "  %s = %s  %s\n", render(labelStyle, k.Key), k.Value, render(mutedStyle, "("+k.EnvVar+")"))
		}
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: "Set a configuration value in the config file.\n\nValid keys:\n  " +
		strings.Join(config.ValidKeys(), "\n  "),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]

		if err := config.SetKey(key, value); err != nil {
			return err
		}

		printSuccess("Set %s = %s", key, value)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
