package cmd

import (
	"os"

	"github.com/emrgen/knuth"
	"github.com/emrgen/knuth/internal/config"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "knuth",
	Short: "hierarchical document repository",
	Example: `knuth db migrate
knuth create -t <title> -a <author> --tag <tag>
knuth attach -p <parent-id> -t <title>
knuth get -d <doc-id> --attachments
knuth list
knuth update -d <doc-id> --set title=<title> --set parent=<parent-id>
knuth upload -d <doc-id> -f <file>
knuth delete -d <doc-id> --dry-run
knuth index --all
knuth worker`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(contextCommand)
	rootCmd.SetHelpCommand(&cobra.Command{Use: "no-help", Hidden: true})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	cobra.EnableCommandSorting = false
}

// openClient loads the configuration and connects to the configured stores.
func openClient(cmd *cobra.Command) (*knuth.Client, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if err := config.SetupLogging(cfg.Log); err != nil {
		return nil, err
	}

	return knuth.NewClient(cmd.Context(), cfg)
}
