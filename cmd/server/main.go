package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/vehicast/service/internal/api"
	"github.com/vehicast/service/internal/config"
	"github.com/vehicast/service/internal/llm"
	"github.com/vehicast/service/internal/models"
	"github.com/vehicast/service/internal/services"
	"github.com/vehicast/service/internal/store"
	"github.com/vehicast/service/internal/utils"
	"github.com/vehicast/service/pkg/supabase"
)

func main() {
	// 加载配置
	cfg := config.Load()
	log.Printf("[服务启动] 配置: %s", cfg)

	utils.InitLogrus(cfg.Debug)
	gin.SetMode(cfg.GinMode)

	// 外部依赖客户端
	supabaseClient, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey)
	if err != nil {
		log.Fatalf("[服务启动] 创建Supabase客户端失败: %v", err)
	}

	openaiClient, err := llm.NewOpenAIClient(&llm.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
		Temperature:    cfg.Temperature,
		MaxTokens:      cfg.MaxTokens,
	})
	if err != nil {
		log.Fatalf("[服务启动] 创建OpenAI客户端失败: %v", err)
	}

	// 故障模型
	failureModels, err := models.LoadFailureModels(cfg.ModelsDir)
	if err != nil {
		log.Fatalf("[服务启动] 加载故障模型失败: %v", err)
	}

	// 检索管线
	classifier := services.NewClassifier()
	dispatcher := services.NewDispatcher(supabaseClient, classifier, cfg.SimilarityThreshold, cfg.MatchCount)
	assembler := services.NewAssembler()
	embeddingCache := services.NewEmbeddingCache(openaiClient, cfg.EmbeddingCacheTTL, cfg.EmbeddingCacheCap)
	contextCache := services.NewContextCache(cfg.ContextCacheTTL, cfg.ContextCacheCap)
	contextService := services.NewContextService(classifier, dispatcher, assembler, embeddingCache, contextCache)

	// 会话与聊天
	sessions := store.NewSessionStore()
	chatService := services.NewChatService(openaiClient, contextService, sessions, cfg.HistoryLimit)

	// 时间线预测
	timelineService := services.NewTimelineService(failureModels, supabaseClient)

	// 后台会话清理
	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sessions.StartCleanupTask(rootCtx, cfg.SessionTimeout, cfg.CleanupInterval)

	// HTTP路由
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(utils.TraceIDMiddleware())

	corsConfig := cors.DefaultConfig()
	if cfg.CORSOrigin == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = []string{cfg.CORSOrigin}
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept", utils.TraceIDHeader}
	corsConfig.ExposeHeaders = []string{"Content-Length", utils.TraceIDHeader}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	handler := api.NewHandler(cfg, chatService, contextService, timelineService, openaiClient, supabaseClient, sessions)
	handler.RegisterRoutes(router)

	wsHandler := api.NewWebSocketHandler(chatService)
	router.GET("/ws", wsHandler.HandleWebSocket)

	// 启动服务
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Printf("[服务启动] HTTP服务监听 %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[服务启动] 监听失败: %v", err)
		}
	}()

	// 优雅关停
	sigint := make(chan os.Signal, 1)
	signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
	<-sigint

	log.Printf("[服务关停] 收到退出信号，开始优雅关停")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[服务关停] 关停失败: %v", err)
	}
	log.Printf("[服务关停] 服务已退出")
}
