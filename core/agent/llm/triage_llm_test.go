package llm

import (
	"testing"
	"time"
)

func TestNewClientDefaults(t *testing.T) {
	c := NewClient(ClientConfig{APIKey: "sk-test"})

	if c.model != DefaultModel {
		t.Errorf("got model %q, want %q", c.model, DefaultModel)
	}
	if c.maxTokens != 2048 {
		t.Errorf("got max tokens %d, want 2048", c.maxTokens)
	}
	if c.temperature != 0.7 {
		t.Errorf("got temperature %v, want 0.7", c.temperature)
	}
	if c.timeout != defaultTimeout {
		t.Errorf("got timeout %v, want %v", c.timeout, defaultTimeout)
	}
}

func TestNewClientOverrides(t *testing.T) {
	c := NewClient(ClientConfig{
		APIKey:      "sk-test",
		Model:       "gpt-4o",
		MaxTokens:   512,
		Temperature: 0.2,
		Timeout:     10 * time.Second,
	})

	if c.model != "gpt-4o" {
		t.Errorf("got model %q, want gpt-4o", c.model)
	}
	if c.maxTokens != 512 {
		t.Errorf("got max tokens %d, want 512", c.maxTokens)
	}
	if c.temperature != 0.2 {
		t.Errorf("got temperature %v, want 0.2", c.temperature)
	}
	if c.timeout != 10*time.Second {
		t.Errorf("got timeout %v, want 10s", c.timeout)
	}
}
