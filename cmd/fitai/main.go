package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var (
	noColor    bool
	userHandle string
)

var rootCmd = &cobra.Command{
	Use:   "fitai",
	Short: "Conversational fitness assistant with personalized workout and diet plans",
	Long: `fitai keeps a fitness profile for each user, answers questions about
training and nutrition, and keeps the profile and plans current as you
mention changes in conversation.

Run without a subcommand to log in and start chatting.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if os.Getenv("NO_COLOR") != "" {
			noColor = true
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd.Context(), os.Stdin, os.Stdout)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVarP(&userHandle, "user", "u", "", "login handle of the profile to act on")

	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(profilesCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(plansCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(dataCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the fitai version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fitai version %s\n", version)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
