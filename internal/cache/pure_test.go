package cache

import (
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spotlight/userprofile/internal/model"
)

func TestProfileKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		id       string
		key      string
		negative string
	}{
		{"uuid", "de4310e5-b139-441a-99db-77c9c4a5fada", "profile:de4310e5-b139-441a-99db-77c9c4a5fada", "profile:de4310e5-b139-441a-99db-77c9c4a5fada:neg"},
		{"case preserved", "User-A", "profile:User-A", "profile:User-A:neg"},
		{"colon in id", "a:b", "profile:a:b", "profile:a:b:neg"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := profileKey(model.UserID(tt.id)); got != tt.key {
				t.Errorf("profileKey(%q) = %q, want %q", tt.id, got, tt.key)
			}
			if got := negativeProfileKey(model.UserID(tt.id)); got != tt.negative {
				t.Errorf("negativeProfileKey(%q) = %q, want %q", tt.id, got, tt.negative)
			}
		})
	}
}

func TestNewWithClient_DefaultTTL(t *testing.T) {
	t.Parallel()

	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	defer client.Close()

	c := NewWithClient(client, 0)
	if c.profileTTL != DefaultProfileTTL {
		t.Errorf("profileTTL = %v, want %v", c.profileTTL, DefaultProfileTTL)
	}

	c = NewWithClient(client, time.Minute)
	if c.profileTTL != time.Minute {
		t.Errorf("profileTTL = %v, want 1m", c.profileTTL)
	}

	if l := c.NewLocker(0); l.ttl != DefaultLockTTL {
		t.Errorf("lock ttl = %v, want %v", l.ttl, DefaultLockTTL)
	}
}
