// Command borrelio is a headless participant for proximity rooms.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var flagServer string

var rootCmd = &cobra.Command{
	Use:   "borrelio",
	Short: "Join proximity voice rooms from the terminal",
	Long: `borrelio connects to a borrelio server, joins a room and keeps one
WebRTC connection per participant, scaling their volume by distance.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagServer, "server", "s", "http://localhost:8080", "server base URL")
	rootCmd.AddCommand(joinCmd, roomsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}
