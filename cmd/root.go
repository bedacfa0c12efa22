package cmd

import (
	"os"

	"github.com/BioHazard786/syncwatch/internal/ui"
	"github.com/BioHazard786/syncwatch/internal/version"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "syncwatch",
	Short: "Watch a video together: a relay server plus a peer-to-peer host and viewer",
	Long: `SyncWatch keeps a group of viewers on the same frame of the same video.

The relay (syncwatch serve) hands out room codes, forwards WebRTC negotiation
between the host and each viewer, fans out play, pause, seek and sync events,
and keeps the last few video chunks so late joiners can start from the live
edge. The host streams its file to every viewer over a WebRTC data channel.`,
	Version: version.Version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	if err := rootCmd.Execute(); err != nil {
		ui.PrintError(err.Error())
		os.Exit(1)
	}
}
