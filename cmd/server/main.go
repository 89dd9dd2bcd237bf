package main

import (
	// Standard library
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	// External dependencies
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/houzhh15/meethub/cmd/server/internal/ai"
	"github.com/houzhh15/meethub/cmd/server/internal/api"
	"github.com/houzhh15/meethub/cmd/server/internal/config"
	"github.com/houzhh15/meethub/cmd/server/internal/hub"
	"github.com/houzhh15/meethub/cmd/server/internal/insight"
	"github.com/houzhh15/meethub/cmd/server/internal/middleware"
	"github.com/houzhh15/meethub/cmd/server/internal/notes"
	"github.com/houzhh15/meethub/cmd/server/internal/retrieval"
	"github.com/houzhh15/meethub/cmd/server/internal/store"
	"github.com/houzhh15/meethub/cmd/server/internal/transcribe"
	"github.com/houzhh15/meethub/pkg/logger"
)

func main() {
	// 先加载配置，日志级别和输出文件来自配置
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	logInstance, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Environment: cfg.Server.Env,
		File:        cfg.Log.File,
		WithSource:  !strings.EqualFold(cfg.Server.Env, "production"),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "web-server")

	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 转写服务：启动时探测一次 whisper 边车，不可达则降级到 mock，
	// 保证会议房间和笔记通道在无转写能力时仍然可用
	var transcriber transcribe.Transcriber
	whisper := transcribe.NewWhisperHTTP(cfg.Services.WhisperURL, cfg.Services.CallTimeout)
	if whisper.Ready() {
		transcriber = whisper
		appLogger.Info("whisper service ready", "url", cfg.Services.WhisperURL)
	} else {
		transcriber = transcribe.NewMockTranscriber(logInstance)
		appLogger.Warn("whisper service unreachable, running in degraded mode", "url", cfg.Services.WhisperURL)
	}

	// AI 协作服务（摘要 + 情绪分析共用一个推理端点）
	inference := ai.NewInferenceHTTP(cfg.Services.InferenceURL, cfg.Services.CallTimeout)
	appLogger.Info("inference client initialized", "url", cfg.Services.InferenceURL, "reachable", inference.Ready())

	// 知识检索
	knowledge := retrieval.NewKnowledgeBase(cfg.Data.KnowledgeDir, inference, logInstance)
	if cfg.Data.SeedFile != "" {
		if err := knowledge.LoadSeedFile(cfg.Data.SeedFile); err != nil {
			appLogger.Warn("failed to seed knowledge base", "file", cfg.Data.SeedFile, "error", err)
		}
	}
	appLogger.Info("knowledge base ready", "passages", knowledge.Count())

	// 持久化
	fileStore := store.NewFileStore(cfg.Data.MeetingsDir)

	// 房间：转写通道与笔记通道是互不相干的命名空间
	transcripts := hub.NewAccumulator()
	meetingRooms := hub.New("meeting", transcripts, logInstance)
	notesRooms := hub.New("notes", nil, logInstance)

	// 后台任务监督与洞察调度
	supervisor := insight.NewSupervisor()
	coordinator := insight.NewCoordinator(meetingRooms, transcripts, inference, inference, knowledge, supervisor, cfg.Services.CallTimeout, logInstance)
	relay := notes.NewRelay(notesRooms, fileStore, supervisor.Spawn, logInstance)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	startTime := time.Now()
	r.GET("/health", api.HandleHealth(startTime, transcriber, inference, knowledge, meetingRooms))
	r.GET("/readiness", api.HandleReadiness(transcriber))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	secret := []byte(cfg.Security.JWTSecret)
	r.POST("/api/v1/token", api.HandleIssueToken(secret, cfg.Security.APIPasswordHash, logInstance))

	r.Use(middleware.BearerAuth(secret, logInstance.With("component", "auth-middleware")))

	// Websocket 端点
	r.GET("/ws/meetings/:meeting_id", api.HandleMeetingSocket(meetingRooms, cfg.Audio.ChunkThreshold(), transcriber, coordinator, supervisor, cfg.Services.CallTimeout, logInstance))
	r.GET("/ws/notes/:meeting_id", api.HandleNotesSocket(notesRooms, relay, logInstance))

	// 整段录音上传：独立于流式状态机
	r.POST("/api/v1/meetings/:meeting_id/audio/upload", api.HandleAudioUpload(transcriber, fileStore, coordinator, logInstance))

	// 笔记回读
	r.GET("/api/v1/meetings/:meeting_id/notes", func(c *gin.Context) {
		note, err := fileStore.GetNote(c.Param("meeting_id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if note == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no notes for meeting"})
			return
		}
		c.JSON(http.StatusOK, note)
	})

	srv := &http.Server{
		Addr:    cfg.GetServerAddr(),
		Handler: r,
	}

	go func() {
		appLogger.Info("server starting", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// 等待后台洞察与持久化任务收尾
	if err := supervisor.Shutdown(ctx); err != nil {
		appLogger.Warn("detached tasks did not finish before deadline", "error", err)
	}
	appLogger.Info("server shutdown complete")
}
