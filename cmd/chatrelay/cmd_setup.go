package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/chatrelay/internal/config"
)

func init() {
	rootCmd.AddCommand(setupCmd)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Environment overrides must not end up in the saved file.
		cfg, err := config.LoadFile(cfgPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		in := bufio.NewScanner(os.Stdin)
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, "chatrelay setup")
		fmt.Fprintln(out, "Press Enter to keep the value shown in brackets.")
		fmt.Fprintln(out)

		cfg.Gateway.BaseURL = ask(in, out, "Gateway base URL", cfg.Gateway.BaseURL)
		cfg.Gateway.APIKey = askSecret(in, out, "Gateway API key", cfg.Gateway.APIKey)
		cfg.Gateway.DefaultModel = ask(in, out, "Default model", cfg.Gateway.DefaultModel)
		cfg.HTTP.Listen = ask(in, out, "Listen address", cfg.HTTP.Listen)

		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("save config: %w", err)
		}

		fmt.Fprintln(out)
		fmt.Fprintln(out, "Configuration saved to", cfgPath)
		return nil
	},
}

// ask prints label with its current value and returns the trimmed answer,
// or def when the answer is empty.
func ask(in *bufio.Scanner, out io.Writer, label, def string) string {
	return readAnswer(in, out, label, def, def)
}

// askSecret is ask with the current value masked in the prompt.
func askSecret(in *bufio.Scanner, out io.Writer, label, def string) string {
	return readAnswer(in, out, label, config.Mask(def), def)
}

func readAnswer(in *bufio.Scanner, out io.Writer, label, shown, def string) string {
	if shown != "" {
		fmt.Fprintf(out, "%s [%s]: ", label, shown)
	} else {
		fmt.Fprintf(out, "%s: ", label)
	}
	if in.Scan() {
		if v := strings.TrimSpace(in.Text()); v != "" {
			return v
		}
	}
	return def
}
