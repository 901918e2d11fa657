package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.BindAddr != ":8080" {
		t.Fatalf("BindAddr = %q, want :8080", cfg.BindAddr)
	}
	if cfg.StorePath != "memories.db" {
		t.Fatalf("StorePath = %q, want memories.db", cfg.StorePath)
	}
	if cfg.ForgetAfter != time.Hour {
		t.Fatalf("ForgetAfter = %s, want 1h", cfg.ForgetAfter)
	}
	if cfg.ContextLimit != 10 {
		t.Fatalf("ContextLimit = %d, want 10", cfg.ContextLimit)
	}
	if cfg.ResponderTimeout != 10*time.Second {
		t.Fatalf("ResponderTimeout = %s, want 10s", cfg.ResponderTimeout)
	}
	if cfg.ResponderTemperature != 0.7 || cfg.ResponderMaxTokens != 200 || cfg.ResponderTopP != 0.9 {
		t.Fatalf("sampling params = (%v, %v, %v), want (0.7, 200, 0.9)",
			cfg.ResponderTemperature, cfg.ResponderMaxTokens, cfg.ResponderTopP)
	}
	if cfg.ListenContinuous {
		t.Fatalf("ListenContinuous = true, want one-shot default")
	}
	if cfg.ListenWait != 5*time.Second {
		t.Fatalf("ListenWait = %s, want 5s", cfg.ListenWait)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MEMORY_FORGET_AFTER", "30m")
	t.Setenv("MEMORY_CONTEXT_LIMIT", "5")
	t.Setenv("LISTEN_CONTINUOUS", "true")
	t.Setenv("LISTEN_WAIT", "2s")
	t.Setenv("CHAT_TIMEOUT", "5s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ForgetAfter != 30*time.Minute {
		t.Fatalf("ForgetAfter = %s, want 30m", cfg.ForgetAfter)
	}
	if cfg.ContextLimit != 5 {
		t.Fatalf("ContextLimit = %d, want 5", cfg.ContextLimit)
	}
	if !cfg.ListenContinuous {
		t.Fatalf("ListenContinuous = false, want true")
	}
	if cfg.ResponderTimeout != 5*time.Second {
		t.Fatalf("ResponderTimeout = %s, want 5s", cfg.ResponderTimeout)
	}
	if cfg.ListenWait != 2*time.Second {
		t.Fatalf("ListenWait = %s, want 2s", cfg.ListenWait)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	cases := []struct {
		key   string
		value string
	}{
		{"MEMORY_FORGET_AFTER", "soon"},
		{"MEMORY_FORGET_AFTER", "-1h"},
		{"MEMORY_CONTEXT_LIMIT", "0"},
		{"CHAT_TIMEOUT", "30s"},
		{"LISTEN_WAIT", "-1s"},
		{"LISTEN_CONTINUOUS", "definitely"},
	}
	for _, tc := range cases {
		t.Run(tc.key+"="+tc.value, func(t *testing.T) {
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Fatalf("Load() error = nil, want rejection of %s=%s", tc.key, tc.value)
			}
		})
	}
}
