package main

import (
	"os"
	"testing"
	"time"
)

func TestApplyEnvOverrides_Basic(t *testing.T) {
	base := &appConfig{
		serialDev:       "/dev/null",
		baud:            115200,
		listenAddr:      ":20000",
		serialReadTO:    50 * time.Millisecond,
		logFormat:       "text",
		logLevel:        "info",
		metricsAddr:     "",
		hubBuffer:       512,
		hubPolicy:       "drop",
		maxClients:      0,
		handshakeTO:     3 * time.Second,
		clientReadTO:    60 * time.Second,
		flushInterval:   5 * time.Millisecond,
		batchSize:       64,
		ringSize:        64 * 1024,
		logMetricsEvery: 0,
		mdnsEnable:      false,
		mdnsName:        "",
	}

	os.Setenv("CFF_BRIDGE_BAUD", "230400")
	os.Setenv("CFF_BRIDGE_MDNS_ENABLE", "true")
	os.Setenv("CFF_BRIDGE_SERIAL_READ_TIMEOUT", "100ms")
	os.Setenv("CFF_BRIDGE_LOG_METRICS_INTERVAL", "5s")
	os.Setenv("CFF_BRIDGE_BATCH_SIZE", "128")
	os.Setenv("CFF_BRIDGE_RING_SIZE", "131072")
	t.Cleanup(func() {
		os.Unsetenv("CFF_BRIDGE_BAUD")
		os.Unsetenv("CFF_BRIDGE_MDNS_ENABLE")
		os.Unsetenv("CFF_BRIDGE_SERIAL_READ_TIMEOUT")
		os.Unsetenv("CFF_BRIDGE_LOG_METRICS_INTERVAL")
		os.Unsetenv("CFF_BRIDGE_BATCH_SIZE")
		os.Unsetenv("CFF_BRIDGE_RING_SIZE")
	})
	if err := applyEnvOverrides(base, map[string]struct{}{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if base.baud != 230400 {
		t.Fatalf("expected baud override, got %d", base.baud)
	}
	if !base.mdnsEnable {
		t.Fatalf("expected mdnsEnable true")
	}
	if base.serialReadTO != 100*time.Millisecond {
		t.Fatalf("expected serialReadTO 100ms got %v", base.serialReadTO)
	}
	if base.logMetricsEvery != 5*time.Second {
		t.Fatalf("expected logMetricsEvery 5s got %v", base.logMetricsEvery)
	}
	if base.batchSize != 128 {
		t.Fatalf("expected batchSize 128 got %d", base.batchSize)
	}
	if base.ringSize != 131072 {
		t.Fatalf("expected ringSize 131072 got %d", base.ringSize)
	}
}

func TestApplyEnvOverrides_FlagPrecedence(t *testing.T) {
	base := &appConfig{baud: 115200}
	os.Setenv("CFF_BRIDGE_BAUD", "230400")
	t.Cleanup(func() { os.Unsetenv("CFF_BRIDGE_BAUD") })
	if err := applyEnvOverrides(base, map[string]struct{}{"baud": {}}); err != nil {
		t.Fatalf("err: %v", err)
	}
	if base.baud != 115200 {
		t.Fatalf("expected baud unchanged 115200 got %d", base.baud)
	}
}

func TestApplyEnvOverrides_BadInt(t *testing.T) {
	base := &appConfig{hubBuffer: 512}
	os.Setenv("CFF_BRIDGE_HUB_BUFFER", "notint")
	t.Cleanup(func() { os.Unsetenv("CFF_BRIDGE_HUB_BUFFER") })
	if err := applyEnvOverrides(base, map[string]struct{}{}); err == nil {
		t.Fatalf("expected error for bad integer")
	}
}
