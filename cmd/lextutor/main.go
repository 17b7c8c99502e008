// Package main is the lextutor command-line client. It sends questions to a
// running server and renders the answer in the terminal.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = &cobra.Command{
	Use:   "lextutor",
	Short: "Ask Swiss-law questions from the terminal",
	Long: `lextutor sends a legal question to a lextutor server and prints the
analysis together with the cited articles of federal law and related case law.

The server address is taken from --server or LEXTUTOR_SERVER.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("server", "http://localhost:8080", "lextutor server address")
	rootCmd.PersistentFlags().Bool("plain", false, "print raw markdown instead of rendering it")
	rootCmd.PersistentFlags().Int("width", 100, "word wrap width")

	viper.SetEnvPrefix("LEXTUTOR")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("server", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("plain", rootCmd.PersistentFlags().Lookup("plain"))
	_ = viper.BindPFlag("width", rootCmd.PersistentFlags().Lookup("width"))
}

func currentRenderer() (*renderer, error) {
	return newRenderer(viper.GetBool("plain"), viper.GetInt("width"))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
