package push

import (
	"encoding/base64"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
)

func TestDeliveryOptions(t *testing.T) {
	tests := []struct {
		tag         string
		wantTTL     int
		wantUrgency webpush.Urgency
	}{
		{TagDailyDigest, 12 * 3600, webpush.UrgencyNormal},
		{TagTaskCompleted, 2 * 3600, webpush.UrgencyHigh},
		{"something-else", 24 * 3600, webpush.UrgencyNormal},
		{"", 24 * 3600, webpush.UrgencyNormal},
	}
	for _, tt := range tests {
		ttl, urgency := deliveryOptions(tt.tag)
		if ttl != tt.wantTTL || urgency != tt.wantUrgency {
			t.Errorf("deliveryOptions(%q) = (%d, %s), want (%d, %s)",
				tt.tag, ttl, urgency, tt.wantTTL, tt.wantUrgency)
		}
	}
}

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	if pub == "" {
		t.Error("expected non-empty public key")
	}
	if priv == "" {
		t.Error("expected non-empty private key")
	}

	// Public key should be base64url-encoded, 65 bytes uncompressed P-256 point
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	// Private key should be base64url-encoded, 32 bytes P-256 scalar
	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	// Generate again — should be different
	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

func TestSchedulerDigestHourClamp(t *testing.T) {
	s := NewScheduler(NewService("pub", "priv"), nil, nil, nil, -1, nil)
	if s.digestHour != defaultDigestHour {
		t.Errorf("digestHour = %d, want default %d", s.digestHour, defaultDigestHour)
	}

	s = NewScheduler(NewService("pub", "priv"), nil, nil, nil, 20, nil)
	if s.digestHour != 20 {
		t.Errorf("digestHour = %d, want 20", s.digestHour)
	}
}
