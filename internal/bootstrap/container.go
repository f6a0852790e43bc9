package bootstrap

import (
	"context"
	"log"
	"time"

	"ai-mentor-be/internal/config"
	"ai-mentor-be/internal/controller"
	"ai-mentor-be/internal/model"
	"ai-mentor-be/internal/pkg/logger"
	"ai-mentor-be/internal/repository/contract"
	"ai-mentor-be/internal/repository/implementation"
	memoryRepo "ai-mentor-be/internal/repository/memory"
	"ai-mentor-be/internal/service"
	embeddingFactory "ai-mentor-be/pkg/embedding/factory"
	"ai-mentor-be/pkg/events"
	"ai-mentor-be/pkg/graph"
	"ai-mentor-be/pkg/graph/state"
	llmFactory "ai-mentor-be/pkg/llm/factory"
	"ai-mentor-be/pkg/memory"
	"ai-mentor-be/pkg/retrieval"
	"ai-mentor-be/pkg/vectorstore"

	pktNats "ai-mentor-be/pkg/nats"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	ChatController   controller.IChatController
	SearchController controller.ISearchController
	AdminController  controller.IAdminController

	// Exposed for cmd/ingest and graceful shutdown
	IngestService service.IIngestService
	Logger        logger.ILogger
	NatsPublisher *pktNats.Publisher
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. AI Providers
	llmProvider, err := llmFactory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.LLMBaseURL,
		cfg.Ai.LLMAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	embeddingProvider, err := embeddingFactory.NewEmbeddingProvider(
		cfg.Ai.EmbeddingProvider,
		cfg.Ai.EmbeddingModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Ai.EmbeddingAPIKey,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize Embedding Provider: %v", err)
	}
	log.Printf("[INFO] Using Embedding Provider: %s (%s)", cfg.Ai.EmbeddingProvider, cfg.Ai.EmbeddingModel)

	// 3. Session Storage
	var sessionRepo contract.SessionRepository
	if db != nil {
		if err := db.AutoMigrate(&model.MentorSession{}); err != nil {
			log.Fatalf("[FATAL] Failed to migrate session table: %v", err)
		}
		sessionRepo = implementation.NewSessionRepository(db)
		log.Printf("[INFO] Using Postgres session storage")
	} else {
		sessionRepo = memoryRepo.NewSessionRepository()
		log.Printf("[INFO] Using In-Memory session storage")
	}

	// 4. Conversation Engine
	memoryEngine := memory.NewEngine(llmProvider, cfg.Ai.MaxContextChars)

	retrievalOpts := retrieval.Options{
		Enabled:          cfg.Retrieval.Enabled,
		TopK:             cfg.Retrieval.TopK,
		MaxCharsPerChunk: cfg.Retrieval.MaxCharsPerChunk,
		MaxContextChars:  cfg.Retrieval.MaxContextChars,
	}
	var retriever *retrieval.Retriever
	if cfg.Retrieval.UsePgVector && db != nil {
		pgStore, err := vectorstore.NewPgStore(db)
		if err != nil {
			log.Fatalf("[FATAL] Failed to initialize pgvector store: %v", err)
		}
		retriever = retrieval.NewRetrieverWithStore(embeddingProvider, pgStore, retrievalOpts)
		log.Printf("[INFO] Using pgvector knowledge index")
	} else {
		retriever = retrieval.NewRetriever(embeddingProvider, cfg.Retrieval.IndexPath, retrievalOpts)
	}

	mentorGraph := graph.NewRootGraph(graph.NewRetrieveExecutor(retriever, sysLogger))
	stateManager := state.NewManager(memoryEngine)
	processor := graph.NewProcessor(mentorGraph, llmProvider, stateManager, memoryEngine)

	// 5. Infrastructure
	var natsPub *pktNats.Publisher
	var publisher service.EventPublisher
	if cfg.App.NatsURL != "" {
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			publisher = natsPub
		}

		natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
		} else if err := natsSub.Subscribe("mentor.>", "mentor-audit", func(ctx context.Context, event events.Event) error {
			sysLogger.Info("EVENTS", "domain event", map[string]interface{}{
				"type":    event.EventType(),
				"payload": event.Payload(),
			})
			return nil
		}); err != nil {
			log.Printf("[WARN] Failed to start event audit consumer: %v", err)
		}
	}

	locker := service.NewInProcessLocker()
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis, falling back to in-process session locks: %v", err)
		} else {
			locker = service.NewRedisLocker(rdb)
			log.Printf("[INFO] Using Redis session locks")
		}
	}

	// 6. Services
	turnTimeout := time.Duration(cfg.App.TurnTimeoutSeconds) * time.Second
	chatService := service.NewChatService(sessionRepo, processor, memoryEngine, locker, publisher, sysLogger, turnTimeout)
	searchService := service.NewSearchService(retriever, sysLogger)
	adminService := service.NewAdminService(sysLogger)

	ingester := retrieval.NewIngester(
		embeddingProvider,
		retrieval.NewChunker(cfg.Retrieval.ChunkChars, cfg.Retrieval.ChunkOverlap),
		retrieval.NewPlainTextExtractor(),
		retrieval.NewPDFExtractor(cfg.Retrieval.PDFPageLimit),
	)
	ingestService := service.NewIngestService(ingester, cfg.Retrieval, publisher, sysLogger)

	// 7. Controllers
	return &Container{
		ChatController:   controller.NewChatController(chatService),
		SearchController: controller.NewSearchController(searchService),
		AdminController:  controller.NewAdminController(adminService),
		IngestService:    ingestService,
		Logger:           sysLogger,
		NatsPublisher:    natsPub,
	}
}
