package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/RichardoC/caonline/internal/llm"
	"github.com/RichardoC/caonline/internal/models"
	"github.com/RichardoC/caonline/internal/prompt"
	"github.com/RichardoC/caonline/internal/render"
)

// askCmd sends one question straight to the provider, bypassing the relay.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single tax question from the terminal",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		question := strings.TrimSpace(strings.Join(args, " "))
		if question == "" {
			return fmt.Errorf("question must not be empty")
		}

		svc := llm.New(cfg.LLM.BaseURL, cfg.LLM.Model, apiKey)
		reply, err := svc.Complete(cmd.Context(), []models.Message{
			prompt.ClientMessage(),
			{Role: models.RoleUser, Content: question},
		})
		if err != nil {
			return fmt.Errorf("failed to generate completion: %w", err)
		}
		if reply == "" {
			reply = prompt.NoReply
		}
		fmt.Fprintln(cmd.OutOrStdout(), render.StripFence(reply))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
}
