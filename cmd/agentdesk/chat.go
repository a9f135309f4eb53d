package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Talk to the desk from the terminal",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		defer a.close()

		o := a.sessions.Create()
		fmt.Printf("Sessao %s iniciada. Digite 'sair' para encerrar.\n\n", o.ID())

		reader := bufio.NewReader(os.Stdin)
		for {
			fmt.Print("> ")
			line, err := reader.ReadString('\n')
			if err != nil {
				return nil
			}
			message := strings.TrimSpace(line)
			if message == "" {
				continue
			}
			if message == "sair" || message == "exit" {
				fmt.Println("Ate logo!")
				return nil
			}

			reply, err := o.ProcessMessage(cmd.Context(), message)
			if err != nil {
				fmt.Printf("erro: %v\n", err)
				continue
			}
			fmt.Printf("\n%s\n\n", reply)

			if o.State().Terminated {
				return nil
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
