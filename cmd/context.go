package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	configFileName = "knuth.yml"
)

var contextCommand = &cobra.Command{
	Use:   "context",
	Short: "context commands",
	Long:  "save store settings to ~/.config/knuth/knuth.yml so later commands pick them up",
}

func init() {
	contextCommand.AddCommand(setContextCommand())
	contextCommand.AddCommand(currentContextCommand())
	contextCommand.AddCommand(resetContextCommand())
}

// contextFlags maps flag names to configuration keys.
var contextFlags = map[string]string{
	"database-driver": "database.driver",
	"database-dsn":    "database.dsn",
	"redis-addr":      "redis.addr",
	"blob-backend":    "blob.backend",
	"blob-root":       "blob.root",
	"index-backend":   "index.backend",
	"compression":     "index.compression",
}

func contextPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(home, ".config", "knuth", configFileName), nil
}

// saves the context info to the config file in ~/.config/knuth
func setContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:     "set",
		Short:   "set context",
		Example: "knuth context set --database-driver postgres --database-dsn postgres://knuth@localhost/knuth",
		Run: func(cmd *cobra.Command, args []string) {
			v, path, err := readContext()
			if err != nil {
				fmt.Println("error reading config file: ", err)
				return
			}

			changed := 0
			for flag, key := range contextFlags {
				if f := cmd.Flag(flag); f.Changed {
					v.Set(key, f.Value.String())
					changed++
				}
			}
			if changed == 0 {
				color.Red("missing: at least one of the context flags")
				return
			}

			if err := writeContext(v, path); err != nil {
				fmt.Println("error writing config file: ", err)
				return
			}

			fmt.Println("context saved")
		},
	}

	flags := make([]string, 0, len(contextFlags))
	for flag := range contextFlags {
		flags = append(flags, flag)
	}
	sort.Strings(flags)
	for _, flag := range flags {
		command.Flags().String(flag, "", contextFlags[flag])
	}

	return command
}

func currentContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "current",
		Short: "current context",
		Run: func(cmd *cobra.Command, args []string) {
			v, path, err := readContext()
			if err != nil {
				fmt.Println("error reading config file: ", err)
				return
			}

			keys := v.AllKeys()
			if len(keys) == 0 {
				color.Yellow("no context saved in %s", path)
				return
			}
			sort.Strings(keys)

			table := tablewriter.NewWriter(os.Stdout)
			table.SetHeader([]string{"Key", "Value"})
			for _, key := range keys {
				table.Append([]string{key, v.GetString(key)})
			}
			table.Render()
		},
	}

	return command
}

func resetContextCommand() *cobra.Command {
	command := &cobra.Command{
		Use:   "reset",
		Short: "reset context",
		Run: func(cmd *cobra.Command, args []string) {
			path, err := contextPath()
			if err != nil {
				fmt.Println("error locating config file: ", err)
				return
			}

			if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
				fmt.Println("error removing config file: ", err)
				return
			}

			fmt.Println("context reset")
		},
	}

	return command
}

func readContext() (*viper.Viper, string, error) {
	path, err := contextPath()
	if err != nil {
		return nil, "", err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yml")

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return v, path, nil
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, "", err
	}

	return v, path, nil
}

func writeContext(v *viper.Viper, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	return v.WriteConfigAs(path)
}
