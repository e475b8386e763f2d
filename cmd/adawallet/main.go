package main

import (
	"encoding/json"
	"fmt"
	"os"

	ada "github.com/adafoundation/adawallet/pkg"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string
	var config ada.Config

	// define root command
	rootCmd := &cobra.Command{
		Use: "adawallet",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			config = ada.LoadConfig(configPath)
			applyFlagOverrides(cmd, &config)
		},
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
			os.Exit(0)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "conf", "adawallet.yaml", "Path to config file")

	// Add flags for common configuration options
	rootCmd.PersistentFlags().String("network", "", "Cardano network (mainnet or testnet)")
	rootCmd.PersistentFlags().String("node-cli", "", "Path to the cardano-cli binary")
	rootCmd.PersistentFlags().String("node-socket", "", "Path to the cardano-node socket")
	rootCmd.PersistentFlags().String("store-db-file", "", "Store DB file")
	rootCmd.PersistentFlags().String("webapi-admin-port", "", "Admin API port")
	rootCmd.PersistentFlags().String("webapi-pub-port", "", "Public API port")

	serverCmd := &cobra.Command{
		Use:   "server",
		Short: "Start the Adawallet server",
		Run: func(cmd *cobra.Command, args []string) {
			Server(config)
		},
	}

	configCmd := &cobra.Command{
		Use:   "showconf",
		Short: "Print the config state and exit",
		Run: func(cmd *cobra.Command, args []string) {
			o, _ := json.MarshalIndent(config, ">", " ")
			fmt.Println(string(o))
			os.Exit(0)
		},
	}

	tipCmd := &cobra.Command{
		Use:   "tip",
		Short: "Query the chain tip of a running Adawallet server",
		Run: func(cmd *cobra.Command, args []string) {
			if err := Tip(config); err != nil {
				fmt.Println(err)
				os.Exit(1)
			}
		},
	}

	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(tipCmd)

	// Execute the Cobra command
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
	}
}

// flags beat config-file values when set
func applyFlagOverrides(cmd *cobra.Command, config *ada.Config) {
	flags := cmd.Flags()
	if v, _ := flags.GetString("network"); v != "" {
		config.Adawallet.Network = v
	}
	if v, _ := flags.GetString("node-cli"); v != "" {
		config.Node.CLIPath = v
	}
	if v, _ := flags.GetString("node-socket"); v != "" {
		config.Node.SocketPath = v
	}
	if v, _ := flags.GetString("store-db-file"); v != "" {
		config.Store.DBFile = v
	}
	if v, _ := flags.GetString("webapi-admin-port"); v != "" {
		config.WebAPI.AdminPort = v
	}
	if v, _ := flags.GetString("webapi-pub-port"); v != "" {
		config.WebAPI.PubPort = v
	}
}
