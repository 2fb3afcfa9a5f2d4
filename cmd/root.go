package cmd

import (
	"fmt"
	"github.com/ValentinKolb/dTetris/cmd/play"
	"github.com/ValentinKolb/dTetris/cmd/serve"
	"github.com/ValentinKolb/dTetris/cmd/util"
	"github.com/spf13/cobra"
	"os"
)

const (
	Version = "0.3.1"
)

var (

	// RootCmd represents the base command when called without any subcommands
	RootCmd = &cobra.Command{
		Use:   "dtetris",
		Short: "networked two-player tetris server",
		Long: fmt.Sprintf(`dTetris (v%s)

A networked Tetris server written in Go. Players connect over TCP, Unix
sockets or WebSockets and either play alone or are paired with an opponent
whose board they watch live.`, Version),
		SilenceUsage: true,
	}
	versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number of dTetris",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("dTetris v%s\n", Version)
		},
	}
)

func init() {
	// Add Commands
	RootCmd.AddCommand(serve.ServeCmd)
	RootCmd.AddCommand(play.PlayCmd)
	RootCmd.AddCommand(versionCmd)

	// Add Flags
	key := "serializer"
	RootCmd.PersistentFlags().String(key, "json", util.WrapString("serializer to use (json, gob, binary)"))
	key = "transport"
	RootCmd.PersistentFlags().String(key, "tcp", util.WrapString("transport to use (tcp, unix, ws)"))
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
