package main

import (
	"testing"
	"time"
)

func baseConfig() *appConfig {
	return &appConfig{
		serialDev:     "/dev/null",
		baud:          115200,
		listenAddr:    ":20000",
		serialReadTO:  10 * time.Millisecond,
		logFormat:     "text",
		logLevel:      "info",
		hubBuffer:     8,
		hubPolicy:     "drop",
		maxClients:    0,
		handshakeTO:   time.Second,
		clientReadTO:  time.Second,
		flushInterval: 5 * time.Millisecond,
		batchSize:     64,
		ringSize:      64 * 1024,
	}
}

func TestConfigValidate_OK(t *testing.T) {
	if err := baseConfig().validate(); err != nil {
		t.Fatalf("expected ok got %v", err)
	}
}

func TestConfigValidate_Errors(t *testing.T) {
	tests := []struct {
		name string
		mod  func(*appConfig)
	}{
		{"badFormat", func(c *appConfig) { c.logFormat = "xx" }},
		{"badLevel", func(c *appConfig) { c.logLevel = "nope" }},
		{"badPolicy", func(c *appConfig) { c.hubPolicy = "x" }},
		{"badHubBuf", func(c *appConfig) { c.hubBuffer = 0 }},
		{"badBaud", func(c *appConfig) { c.baud = 0 }},
		{"badSerialTO", func(c *appConfig) { c.serialReadTO = 0 }},
		{"badHandshakeTO", func(c *appConfig) { c.handshakeTO = 0 }},
		{"badClientReadTO", func(c *appConfig) { c.clientReadTO = 0 }},
		{"badMaxClients", func(c *appConfig) { c.maxClients = -1 }},
		{"badBatchSize", func(c *appConfig) { c.batchSize = 0 }},
		{"badRingSize", func(c *appConfig) { c.ringSize = 1024 }},
	}
	for _, tc := range tests {
		c := baseConfig()
		tc.mod(c)
		if err := c.validate(); err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
	}
}
