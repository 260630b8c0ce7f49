package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/satriahrh/campus-chat/adapters/answering"
	"github.com/satriahrh/campus-chat/adapters/hasher"
	chathttp "github.com/satriahrh/campus-chat/adapters/http"
	"github.com/satriahrh/campus-chat/adapters/message_broker"
	"github.com/satriahrh/campus-chat/adapters/speech"
	"github.com/satriahrh/campus-chat/adapters/tts"
	"github.com/satriahrh/campus-chat/adapters/web"
	"github.com/satriahrh/campus-chat/adapters/websocket"
	"github.com/satriahrh/campus-chat/config"
	"github.com/satriahrh/campus-chat/usecase"
	"github.com/satriahrh/campus-chat/utils/log"
	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()
	log.Init(cfg.Debug)
	defer log.Sync()

	if err := cfg.Validate(); err != nil {
		log.With().Fatal("Invalid configuration", zap.Error(err))
	}
	if err := cfg.CheckSessionSecret(); err != nil {
		log.With().Fatal("Invalid configuration", zap.Error(err))
	}
	if cfg.UsesDefaultSessionSecret() {
		log.With().Warn("Using the default SESSION_SECRET; set it before deploying")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	answerer, err := answering.FromConfig(ctx, cfg)
	if err != nil {
		log.With().Fatal("Failed to create answerer", zap.Error(err))
	}

	broker := message_broker.NewChannelMessageBroker()
	defer broker.Close()
	publisher := message_broker.NewSessionEventPublisher(broker)

	sessions := usecase.NewSessionManager(func(id string) *usecase.ChatSession {
		return usecase.NewChatSession(answerer,
			usecase.WithID(id),
			usecase.WithMaxTokens(cfg.MaxTokens),
			usecase.WithEventSink(publisher.Publish),
		)
	}, cfg.SessionIdleTimeout)
	go sessions.Run(ctx)

	server := websocket.NewServer(sessions, broker)
	if err := server.Start(ctx); err != nil {
		log.With().Fatal("Failed to start websocket server", zap.Error(err))
	}

	tokens := chathttp.NewSessionTokens(cfg.SessionSecret, cfg.SessionTTL)
	chatHandler := chathttp.NewChatHandler(sessions, tokens, hasher.New())

	if cfg.VoiceEnabled {
		googleTTS, err := tts.NewGoogleTTS(ctx, cfg.VoiceLanguage)
		if err != nil {
			log.With().Fatal("Failed to create text-to-speech client", zap.Error(err))
		}
		defer googleTTS.Close()

		googleSpeech, err := speech.NewGoogleSpeech(ctx, cfg.VoiceLanguage)
		if err != nil {
			log.With().Fatal("Failed to create speech client", zap.Error(err))
		}
		defer googleSpeech.Close()

		chatHandler.WithVoice(googleTTS, googleSpeech)
	}

	renderer, err := web.NewRenderer()
	if err != nil {
		log.With().Fatal("Failed to parse page templates", zap.Error(err))
	}
	pageData := web.DefaultPageData()
	pageData.VoiceEnabled = chatHandler.VoiceEnabled()

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer

	e.Use(middleware.RequestID())
	e.Use(chathttp.RequestContext)
	e.Use(chathttp.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.Secure())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{echo.GET, echo.POST, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"If-None-Match",
		},
		ExposeHeaders: []string{"ETag"},
		MaxAge:        86400,
	}))
	e.Use(middleware.BodyLimit("11M"))

	e.GET("/", web.NewPage(pageData).Handler)
	e.GET("/ws", server.Handler, tokens.Middleware)
	chatHandler.Register(e.Group("/api/v1"))

	go func() {
		log.With(zap.String("addr", cfg.Addr()), zap.String("backend", cfg.AnswerBackend)).Info("Starting server")
		log.With().Info("Available endpoints:\n" +
			"  GET    /                                      - Chat page\n" +
			"  GET    /ws                                    - Session events (token required)\n" +
			"  GET    /api/v1/health                         - Health check\n" +
			"  POST   /api/v1/sessions                       - Open a chat session\n" +
			"  GET    /api/v1/sessions/messages              - Transcript (token required)\n" +
			"  POST   /api/v1/sessions/messages              - Ask a question (token required)\n" +
			"  DELETE /api/v1/sessions                       - Close the chat session (token required)")
		if err := e.Start(cfg.Addr()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.With().Fatal("Server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.With().Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.With().Error("Graceful shutdown failed", zap.Error(err))
	}
}
