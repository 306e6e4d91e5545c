package engines

import (
	"testing"
	"time"

	"github.com/echoverse/echoverse/tts"
	"github.com/echoverse/echoverse/tts/engines/mock"
)

func TestNewMock(t *testing.T) {
	cfg := tts.DefaultConfig()
	cfg.Engine = "MOCK"
	cfg.Mock.Duration = 10 * time.Millisecond

	p, err := New(cfg, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if _, ok := p.(*mock.Engine); !ok {
		t.Errorf("Expected *mock.Engine, got %T", p)
	}
	if err := Close(p); err != nil {
		t.Errorf("Close failed: %v", err)
	}
}

func TestNewInvalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  tts.Config
	}{
		{"unknown engine", tts.Config{Engine: "festival"}},
		{"piper without models", tts.Config{Engine: tts.EnginePiper}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.cfg, nil); err == nil {
				t.Error("Expected error")
			}
		})
	}
}
