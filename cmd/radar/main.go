package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version is the version of the application, set at build time
var Version = "dev"

var (
	configPath string
	envFile    string
	dbPath     string
	logLevel   string
	offline    bool
)

var rootCmd = &cobra.Command{
	Use:   "radar",
	Short: "Startup & finance radar for Japanese news feeds",
	Long: `radar aggregates Japanese startup and financing news from RSS/RDF/Atom
feeds, filters out large-company and consumer noise, extracts the company
behind each headline and marks the first appearance of every company.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(_ *cobra.Command, _ []string) {
		fmt.Printf("radar %s\n", Version)
		fmt.Println("Startup & finance radar")
		fmt.Println("github.com/pders01/radar")
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configGenCmd = &cobra.Command{
	Use:   "generate",
	Short: "Write the default configuration file",
	Run: func(_ *cobra.Command, _ []string) {
		path := configPath
		if path == "" {
			path = defaultConfigPath()
		}
		if err := generateConfig(path); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to generate config: %v\n", err)
			return
		}
		fmt.Printf("Generated default configuration at: %s\n", path)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Path to configuration file")
	pf.StringVar(&envFile, "env-file", ".env", "Path to a .env file with RADAR_* overrides")
	pf.StringVar(&dbPath, "db", "", "Path to database file (overrides config)")
	pf.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error, off (overrides config)")
	pf.BoolVar(&offline, "offline", false, "Use the last stored snapshot instead of fetching feeds")

	configCmd.AddCommand(configGenCmd)
	rootCmd.AddCommand(versionCmd, configCmd, eventsCmd, companiesCmd, searchCmd, snapshotsCmd, openCmd, serveCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
