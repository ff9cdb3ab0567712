package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"studio_billing/internal/conf"
)

var rootCmd = &cobra.Command{
	Use:   "studio_billing",
	Short: "Studio Billing Service",
	Long:  `The main entry point for the studio billing service.`,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig(cmd *cobra.Command) (*conf.AppConfig, error) {
	confFile, _ := cmd.Flags().GetString("config")
	appConfig, err := conf.NewConfig(confFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	port, _ := cmd.Flags().GetInt("port")
	if port > 0 {
		appConfig.Port = port
	}

	return appConfig, nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the billing HTTP server",
	Long:  `Starts the HTTP server with the admin API, the webhook endpoint, and background workers.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Load configuration
		appConfig, err := loadConfig(cmd)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		// Initialize application using wire-generated function
		app, cleanup, err := InitializeServerApp(appConfig)
		if err != nil {
			log.Fatalf("failed to init server app: %v", err)
		}
		defer cleanup()

		// Run application
		if err := app.Run(); err != nil {
			log.Fatalf("failed to run server app: %v", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.PersistentFlags().IntP("port", "p", 0, "Port for the server to listen on, overrides the value in the config file")
	rootCmd.PersistentFlags().StringP("config", "c", "internal/conf/config.yaml", "path to config file")
}
