package main

import (
	"context"
	"database/sql"
	"os"
	"time"

	"chatdesk/internal/api"
	"chatdesk/internal/config"
	"chatdesk/internal/logging"
	"chatdesk/internal/service/ai"
	"chatdesk/internal/service/chat"
	"chatdesk/internal/service/completion"
	"chatdesk/internal/service/turn"
	"chatdesk/internal/storage"
	"chatdesk/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func main() {
	cfgPath := os.Getenv("CHATDESK_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	logger, logCloser, err := logging.New(cfg.Logging)
	if err != nil {
		logrus.Fatalf("init logging: %v", err)
	}
	defer logCloser.Close()

	var (
		journal       chat.Journal
		journalReader api.JournalReader
	)
	if driver := cfg.Journal.Driver; driver != "" {
		logger.Infof("journal driver: %s", driver)
		var db *sql.DB
		db, err = storage.Open(driver, cfg)
		if err != nil {
			logger.Fatalf("open database: %v", err)
		}
		defer db.Close()
		// Create turn_events
		if err := storage.Migrate(db, driver); err != nil {
			logger.Fatalf("migrate database: %v", err)
		}
		j := storage.NewJournal(db)
		journal, journalReader = j, j

		cleanCtx, cleanCancel := context.WithCancel(context.Background())
		defer cleanCancel()
		retention := time.Duration(cfg.Journal.RetentionDays) * 24 * time.Hour
		j.StartRetentionCleaner(cleanCtx, retention, storage.DefaultPruneInterval, logger)
	}

	chatModel, err := ai.NewChatModel(context.Background(), cfg.Provider)
	if err != nil {
		logger.Fatalf("init chat model: %v", err)
	}
	adapter := completion.NewAdapter(chatModel, cfg.Assistant.SystemPrompt)
	chatService := chat.NewService(turn.NewBuilder(), adapter, journal, logger)

	workers := worker.NewManager(chatService, worker.Config{
		SystemPrompt: cfg.Assistant.SystemPrompt,
		IdleTimeout:  time.Duration(cfg.BasicConfig.SessionIdleMinutes) * time.Minute,
		Logger:       logger,
	})
	defer workers.Close()

	handlers := api.NewHandler(workers, journalReader, api.Options{
		Title:          cfg.Assistant.Title,
		MaxUploadBytes: int64(cfg.BasicConfig.MaxUploadMB) << 20,
		Logger:         logger,
	})

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(logging.GinLogger(logger), gin.Recovery())
	router.MaxMultipartMemory = int64(cfg.BasicConfig.MaxUploadMB) << 20
	handlers.RegisterRoutes(router)

	addr := cfg.BasicConfig.ServerAddress
	if addr == "" {
		addr = ":8090"
	}
	logger.WithFields(logrus.Fields{
		"addr":     addr,
		"provider": cfg.Provider.Kind,
		"model":    cfg.Provider.Model,
	}).Info("server listening")
	if err := router.Run(addr); err != nil {
		logger.Fatalf("server stopped: %v", err)
	}
}
