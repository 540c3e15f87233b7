package cmd

import (
	"github.com/emrgen/knuth/internal/jobs"
	"github.com/emrgen/knuth/internal/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(workerCmd())
}

func workerCmd() *cobra.Command {
	var once bool
	var addr string

	command := &cobra.Command{
		Use:     "worker",
		Short:   "run the background jobs",
		Long:    `drain the index sync queue, recreate missing index entries and sweep orphan blobs on their schedules`,
		Example: "knuth worker --metrics-addr :9090\nknuth worker --once",
		Run: func(cmd *cobra.Command, args []string) {
			client, err := openClient(cmd)
			if err != nil {
				logrus.Error(err)
				return
			}
			defer client.Close()

			executor := jobs.NewTaskExecutor(client.Jobs()...)
			if once {
				executor.RunAll(cmd.Context())
				return
			}

			if addr == "" {
				addr = client.Config().Worker.MetricsAddr
			}
			server.NewServer(addr, executor, client.HealthChecks()).Start()
		},
	}

	command.Flags().BoolVar(&once, "once", false, "run every job once and exit")
	command.Flags().StringVar(&addr, "metrics-addr", "", "address of the metrics and health endpoints")

	return command
}
