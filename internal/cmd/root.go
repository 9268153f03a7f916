package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/javierturcios2607/ingestor/pkg/logging"
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ingestor",
		Short: "Bounded-concurrency fetch-and-validate ingest pipeline",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.Setup(logging.Config{
				Level:  logging.LogLevel(viper.GetString("log-level")),
				Pretty: viper.GetBool("log-pretty"),
				Output: os.Stderr,
			})
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().Bool("log-pretty", false, "Human-readable console log output")
	viper.BindPFlag("log-level", cmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("log-pretty", cmd.PersistentFlags().Lookup("log-pretty"))
	viper.AutomaticEnv()
	viper.SetEnvPrefix("INGESTOR")

	cmd.AddCommand(newRunCommand())

	return cmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	cmd := NewRootCommand()
	if err := cmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
