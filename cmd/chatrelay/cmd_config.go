package main

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/chatrelay/internal/config"
)

var (
	showSecrets bool
	listJSON    bool
)

func init() {
	configListCmd.Flags().BoolVar(&showSecrets, "show-secrets", false, "print secret values unmasked")
	configListCmd.Flags().BoolVar(&listJSON, "json", false, "print values as a JSON object")
	configCmd.AddCommand(configListCmd, configGetCmd, configSetCmd, configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect or change the config file",
	Long: "Keys are dot-separated paths into the config file, e.g. gateway.default_model.\n" +
		"Environment overrides (AI_GATEWAY_API_KEY, AI_GATEWAY_BASE_URL, CHATRELAY_LISTEN)\n" +
		"show up in list but are never written by set.",
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every key with its effective value",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		values, err := config.ListValues(loadConfig(), !showSecrets)
		if err != nil {
			return fmt.Errorf("list config: %w", err)
		}
		return writeValues(cmd.OutOrStdout(), values, listJSON)
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Print the stored value of one key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		val, err := config.GetValue(cfgPath, args[0])
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), val)
		return err
	},
}

var configSetCmd = &cobra.Command{
	Use:     "set <key> <value>",
	Short:   "Store a value under a key",
	Example: "  chatrelay config set gateway.default_model openai/gpt-4o\n  chatrelay config set max_concurrent 8",
	Args:    cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.SetValue(cfgPath, key, value); err != nil {
			return err
		}
		if config.IsSecretKey(key) {
			value = config.Mask(value)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "%s = %s\n", key, value)
		return err
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := fmt.Fprintln(cmd.OutOrStdout(), cfgPath)
		return err
	},
}

// writeValues prints flat config values sorted by key, either as
// "key = value" lines or as one indented JSON object.
func writeValues(w io.Writer, values map[string]any, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(values)
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var sb strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s = %v\n", k, values[k])
	}
	_, err := io.WriteString(w, sb.String())
	return err
}
