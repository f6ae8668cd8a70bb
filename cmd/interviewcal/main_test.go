package main

import (
	"errors"
	"os"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	appLog "interviewcal/internal/log"
)

// syncCounter counts flushes of the wrapped core.
type syncCounter struct {
	zapcore.Core
	syncs int
}

func (c *syncCounter) Sync() error {
	c.syncs++
	return c.Core.Sync()
}

func TestFatalFlushesBeforeExit(t *testing.T) {
	obs, logs := observer.New(zapcore.DebugLevel)
	core := &syncCounter{Core: obs}
	appLog.Replace(zap.New(core))

	code, syncsAtExit := -1, -1
	exit = func(c int) {
		code = c
		syncsAtExit = core.syncs
	}
	t.Cleanup(func() { exit = os.Exit })

	fatal("failed to load config", errors.New("bad yaml"), "config_path", "/tmp/x.yaml")

	if code != 1 {
		t.Fatalf("exit code = %d", code)
	}
	if syncsAtExit < 1 {
		t.Fatal("log was not flushed before exit")
	}
	if logs.FilterMessage("failed to load config").Len() != 1 {
		t.Fatalf("entries = %v", logs.All())
	}
}

func TestLocalURL(t *testing.T) {
	tests := map[string]string{
		"127.0.0.1:8080": "http://127.0.0.1:8080",
		":8080":          "http://127.0.0.1:8080",
		"0.0.0.0:9000":   "http://127.0.0.1:9000",
		"[::]:9000":      "http://127.0.0.1:9000",
		"calendar.local": "http://calendar.local",
	}
	for in, want := range tests {
		if got := localURL(in); got != want {
			t.Errorf("localURL(%q) = %q, want %q", in, got, want)
		}
	}
}
