// Package commands implements the telegraph command line.
package commands

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	cfgPath  string
	logLevel string
)

var rootCmd = &cobra.Command{
	Use:   "telegraph",
	Short: "Simulated telegraph line: emitters, channels, relays and receivers",
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		lvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		log.SetLevel(lvl)
		return nil
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to the line configuration (defaults when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logrus level: debug, info, warn, error")
	rootCmd.AddCommand(sendCmd, runCmd, validateCmd, encodeCmd, statsCmd)
}

// Execute executes root CLI command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
