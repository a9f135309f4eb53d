package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "agentdesk",
	Short: "Banco Agil multi-agent banking desk",
	Long: `agentdesk runs the Banco Agil conversational banking desk: a set of
specialist agents (triagem, credito, entrevista, cambio) coordinated by an
orchestrator that follows redirect and termination markers in their replies.`,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	// Missing .env is fine, the environment may be set elsewhere.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
