// Command ewarrantyctl runs one-off maintenance tasks against the e-Warranty
// database: bootstrapping an administrator, hashing passwords and seeding
// reference data.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var envFile string

var rootCmd = &cobra.Command{
	Use:           "ewarrantyctl",
	Short:         "Maintenance commands for the e-Warranty backend",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// A missing .env is fine; the process environment still applies.
		if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading configuration")
	rootCmd.AddCommand(createAdminCmd, hashPasswordCmd, seedCmd)
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("ewarrantyctl failed")
		os.Exit(1)
	}
}
