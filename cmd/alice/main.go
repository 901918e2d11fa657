package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/MapGamer71223/AliceChatBot/internal/config"
	"github.com/MapGamer71223/AliceChatBot/internal/httpapi"
	"github.com/MapGamer71223/AliceChatBot/internal/memory"
	"github.com/MapGamer71223/AliceChatBot/internal/observability"
	"github.com/MapGamer71223/AliceChatBot/internal/responder"
	"github.com/MapGamer71223/AliceChatBot/internal/sysmon"
	"github.com/MapGamer71223/AliceChatBot/internal/voice"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	metrics := observability.NewMetrics(cfg.MetricsNamespace)

	ctx := context.Background()
	table := memory.DefaultTable()
	memoryStore, err := memory.NewStore(ctx, cfg.DatabaseURL, cfg.StorePath, table, cfg.ForgetAfter)
	if err != nil {
		log.Fatalf("memory store init failed: %v", err)
	}
	defer memoryStore.Close()

	var client responder.Client
	if strings.EqualFold(strings.TrimSpace(cfg.ResponderURL), "mock") {
		client = responder.NewMockClient()
		log.Printf("responder: mock")
	} else {
		client = responder.NewHTTPClient(responder.HTTPConfig{
			URL:         cfg.ResponderURL,
			Model:       cfg.ResponderModel,
			Temperature: cfg.ResponderTemperature,
			MaxTokens:   cfg.ResponderMaxTokens,
			TopP:        cfg.ResponderTopP,
			Timeout:     cfg.ResponderTimeout,
		})
		log.Printf("responder: %s (%s)", cfg.ResponderURL, cfg.ResponderModel)
	}
	resp := responder.New(client, cfg.Persona, cfg.FallbackPhrase, cfg.EmptyReplyPhrase)

	var (
		listener voice.Listener
		speaker  voice.Speaker
	)

	// Speech capture has no host backend yet, so the mock provider always
	// supplies Listen; utterances also arrive over the HTTP and ws APIs.
	mock := voice.NewMockProvider()
	mock.SetListenWindow(cfg.ListenWait)
	listener = mock

	voiceMode := strings.ToLower(strings.TrimSpace(cfg.VoiceProvider))
	if voiceMode == "" {
		voiceMode = "auto"
	}
	switch voiceMode {
	case "say":
		s, err := voice.NewExecSpeaker(cfg.TTSBinary)
		if err != nil {
			log.Fatalf("VOICE_PROVIDER=say but %v", err)
		}
		speaker = s
		log.Printf("voice provider: %s", cfg.TTSBinary)
	case "mock":
		speaker = mock
		log.Printf("voice provider: mock")
	case "auto":
		if s, err := voice.NewExecSpeaker(cfg.TTSBinary); err == nil {
			speaker = s
			log.Printf("voice provider: %s", cfg.TTSBinary)
		} else {
			speaker = mock
			log.Printf("voice provider: mock (%v)", err)
		}
	default:
		log.Fatalf("invalid VOICE_PROVIDER: %q (expected auto|say|mock)", cfg.VoiceProvider)
	}

	matcher := memory.NewMatcher(table, memoryStore)
	composer := memory.NewComposer(memoryStore, cfg.ContextLimit)

	coordinator := voice.NewCoordinator(
		listener,
		speaker,
		matcher,
		composer,
		memoryStore,
		resp,
		voice.NewGate(),
		metrics,
		voice.Config{
			Greeting:        cfg.Greeting,
			AutoListenDelay: cfg.AutoListenDelay,
			RetryDelay:      cfg.ListenRetryDelay,
			Continuous:      cfg.ListenContinuous,
		},
	)

	api := httpapi.New(cfg, coordinator, memoryStore, metrics)
	httpServer := &http.Server{
		Addr:    cfg.BindAddr,
		Handler: api.Router(),
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	defer runCancel()

	coordinator.Start(runCtx)

	poller := sysmon.NewPoller(cfg.StatsInterval, sysmon.HostReader, func(s sysmon.Stats) {
		metrics.CPUPercent.Set(s.CPUPercent)
		metrics.RAMPercent.Set(s.RAMPercent)
		coordinator.PublishStats(s.CPUPercent, s.RAMPercent)
	})
	poller.Start(runCtx)

	go func() {
		log.Printf("server listening on %s", cfg.BindAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("shutdown signal received")

	runCancel()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
		_ = httpServer.Close()
	}
	coordinator.Wait()

	log.Printf("shutdown complete")
}
