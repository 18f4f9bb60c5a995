// Command noise-pipe is a minimal two-process demonstration of the noise
// handshake engine: one process listens, one dials, they run a Noise_XX
// handshake over a TCP socket and then exchange a few transport messages.
package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var log = logrus.New()

var rootCmd = &cobra.Command{
	Use:   "noise-pipe",
	Short: "Drive a Noise handshake and transport session over TCP",
	Long: `noise-pipe is a demonstration harness for the noise handshake engine.

Run "noise-pipe listen" in one terminal and "noise-pipe dial" in another to
watch a mutually-authenticated Noise_XX_25519_AESGCM_SHA256 handshake
complete and a few transport messages flow in both directions.`,
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
}

func applyLogLevel(cmd *cobra.Command) {
	levelName, _ := cmd.Flags().GetString("log-level")
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		log.WithField("log-level", levelName).Warn("unrecognized log level, defaulting to info")
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
}

// Execute runs the root command, returning the first error encountered.
func Execute() error {
	return rootCmd.Execute()
}
