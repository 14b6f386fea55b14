package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "chatstream",
		Short:         "Streaming chat completion relay for OpenAI-compatible endpoints",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(newServeCommand(), newChatCommand())
	return root
}
