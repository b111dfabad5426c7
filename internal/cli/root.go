// Package cli provides the command-line interface for conrumbo.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/valentinabailoncano-code/conrumbo-go/internal/config"
	"github.com/valentinabailoncano-code/conrumbo-go/internal/service"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose bool

	// Global config and service, initialized per invocation.
	cfg config.Config
	svc *service.Service
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "conrumbo",
	Short: "Guía de primeros auxilios paso a paso",
	Long: `ConRumbo guía a una persona sin formación sanitaria durante una
emergencia: busca el protocolo adecuado, evalúa el riesgo de la situación
y reproduce las instrucciones paso a paso con comprobaciones de seguridad.

Esta herramienta no sustituye la atención médica profesional. Ante una
emergencia real, llama siempre al 112.`,
	Version: Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip service setup for version and help commands
		if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		_ = godotenv.Load()
		cfg = config.Load()

		// CLI output stays clean unless asked otherwise
		level := slog.LevelWarn
		if verbose {
			level = cfg.LogLevel
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		var err error
		svc, err = service.New(context.Background(), cfg, logger)
		if err != nil {
			return fmt.Errorf("init service: %w", err)
		}
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(triageCmd)
	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(protocolsCmd)
}
