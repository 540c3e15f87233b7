package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "db commands",
}

func init() {
	dbCmd.AddCommand(Migrate())
}

func Migrate() *cobra.Command {
	command := &cobra.Command{
		Use:   "migrate",
		Short: "Migrate the database",
		Run: func(cmd *cobra.Command, args []string) {
			client, err := openClient(cmd)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			if err := client.Migrate(); err != nil {
				logrus.Error(err)
				return
			}

			logrus.Info("database migrated")
		},
	}

	return command
}
