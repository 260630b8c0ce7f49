package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/satriahrh/campus-chat/adapters/answering"
	"github.com/satriahrh/campus-chat/config"
	"github.com/satriahrh/campus-chat/domain"
	"github.com/satriahrh/campus-chat/usecase"
	"github.com/satriahrh/campus-chat/utils/log"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd(config.Load()).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(cfg *config.Config) *cobra.Command {
	var logFile string

	cmd := &cobra.Command{
		Use:   "campus-chat-console",
		Short: "Chat with the CDU assistant from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := log.InitFile(logFile, cfg.Debug); err != nil {
				return fmt.Errorf("opening log file: %w", err)
			}
			defer log.Sync()

			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			answerer, err := answering.FromConfig(ctx, cfg)
			if err != nil {
				return err
			}

			return run(answerer, cfg.MaxTokens)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.AnswerBackend, "backend", cfg.AnswerBackend, "answer backend (http or gemini)")
	flags.StringVar(&cfg.AnswerURL, "answer-url", cfg.AnswerURL, "text-generation endpoint for the http backend")
	flags.DurationVar(&cfg.AnswerTimeout, "timeout", cfg.AnswerTimeout, "request timeout, 0 for none")
	flags.IntVar(&cfg.MaxTokens, "max-tokens", cfg.MaxTokens, "max_tokens sent with every question")
	flags.StringVar(&cfg.GeminiModel, "model", cfg.GeminiModel, "model for the gemini backend")
	flags.StringVar(&logFile, "log-file", "", "write logs to this file instead of discarding them")

	return cmd
}

func run(answerer domain.Answerer, maxTokens int) error {
	changes := make(chan struct{}, 1)
	session := usecase.NewChatSession(answerer,
		usecase.WithMaxTokens(maxTokens),
		usecase.WithEventSink(notify(changes)),
	)
	defer session.Close()

	log.WithCtx(log.ContextWithSession(context.Background(), session.ID())).Info("Console session started")

	p := tea.NewProgram(newModel(session, changes), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		log.With().Error("Console stopped", zap.Error(err))
		return err
	}
	return nil
}
