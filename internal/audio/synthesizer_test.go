package audio

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestNewUtteranceDefaults(t *testing.T) {
	u := NewUtterance("ب", "", 0)
	if u.Lang != "ar-SA" || u.Rate != 0.7 {
		t.Errorf("Unexpected defaults %+v", u)
	}

	u = NewUtterance("ب", "ar-EG", 1.2)
	if u.Lang != "ar-EG" || u.Rate != 1.2 {
		t.Errorf("Explicit values were overridden: %+v", u)
	}
}

func TestSynthesizerWithFallback(t *testing.T) {
	tests := []struct {
		name         string
		primary      *mockSynth
		wantErr      bool
		wantPrimary  int
		wantFallback int
	}{
		{
			name:         "primary succeeds",
			primary:      &mockSynth{name: "cloud"},
			wantPrimary:  1,
			wantFallback: 0,
		},
		{
			name:         "primary fails before start",
			primary:      &mockSynth{name: "cloud", failEarly: true, speakErr: errors.New("401")},
			wantPrimary:  1,
			wantFallback: 1,
		},
		{
			name:         "primary fails after start",
			primary:      &mockSynth{name: "cloud", speakErr: errors.New("device lost")},
			wantErr:      true,
			wantPrimary:  1,
			wantFallback: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := &mockSynth{name: "local"}
			synth := NewSynthesizerWithFallback(tt.primary, fallback)

			starts := 0
			err := synth.Speak(context.Background(), NewUtterance("مرحبا", "", 0), func() { starts++ })
			if (err != nil) != tt.wantErr {
				t.Fatalf("Speak() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.primary.calls() != tt.wantPrimary || fallback.calls() != tt.wantFallback {
				t.Errorf("calls primary=%d fallback=%d, want %d/%d",
					tt.primary.calls(), fallback.calls(), tt.wantPrimary, tt.wantFallback)
			}
			if starts != 1 {
				t.Errorf("onStart called %d times, want 1", starts)
			}
		})
	}
}

func TestSynthesizerWithFallbackAvailability(t *testing.T) {
	down := errors.New("down")

	synth := NewSynthesizerWithFallback(&mockSynth{name: "cloud", availableErr: down}, &mockSynth{name: "local"})
	if err := synth.IsAvailable(); err != nil {
		t.Errorf("IsAvailable() unexpected error: %v", err)
	}

	synth = NewSynthesizerWithFallback(&mockSynth{name: "cloud", availableErr: down}, &mockSynth{name: "local", availableErr: down})
	if err := synth.IsAvailable(); err == nil || !strings.Contains(err.Error(), "both synthesizers unavailable") {
		t.Errorf("IsAvailable() error = %v", err)
	}

	if got := synth.Name(); got != "cloud (fallback: local)" {
		t.Errorf("Name() = %s", got)
	}
}
