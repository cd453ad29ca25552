package auth

import (
	"context"
	"errors"
	"testing"
)

func TestKeyring_Verify(t *testing.T) {
	t.Parallel()

	key, err := generateAPIKey(EnvTest, testParams)
	if err != nil {
		t.Fatalf("generateAPIKey failed: %v", err)
	}
	other, err := generateAPIKey(EnvLive, testParams)
	if err != nil {
		t.Fatalf("generateAPIKey failed: %v", err)
	}

	ring, err := NewKeyring([]string{key.Entry(), " ", other.Entry()})
	if err != nil {
		t.Fatalf("NewKeyring failed: %v", err)
	}
	if ring.Len() != 2 {
		t.Fatalf("Len = %d, want 2", ring.Len())
	}

	principal, cached, err := ring.Verify(key.Plaintext)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if cached {
		t.Error("first verification should not be cached")
	}
	if principal.KeyPrefix != key.Prefix || principal.Env != EnvTest {
		t.Errorf("unexpected principal: %+v", principal)
	}

	if _, cached, err := ring.Verify(key.Plaintext); err != nil || !cached {
		t.Errorf("second verification: cached=%v err=%v", cached, err)
	}

	forged := "up_test_" + key.Prefix + "_00000000000000000000000000000000"
	if _, _, err := ring.Verify(forged); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("forged key error = %v, want ErrUnknownKey", err)
	}

	if _, _, err := ring.Verify("garbage"); !errors.Is(err, ErrInvalidKeyFormat) {
		t.Errorf("garbage key error = %v, want ErrInvalidKeyFormat", err)
	}
}

func TestNewKeyring_InvalidEntries(t *testing.T) {
	t.Parallel()

	tests := []string{
		"nocolon",
		"abc:$argon2id$v=19$m=1,t=1,p=1$a$b",
		"abc123:plaintext",
	}

	for _, entry := range tests {
		if _, err := NewKeyring([]string{entry}); err == nil {
			t.Errorf("NewKeyring(%q) should fail", entry)
		}
	}
}

func TestPrincipalContext(t *testing.T) {
	t.Parallel()

	if PrincipalFromContext(context.Background()) != nil {
		t.Error("expected nil principal")
	}

	p := &Principal{KeyPrefix: "abc123", Env: EnvLive}
	ctx := ContextWithPrincipal(context.Background(), p)
	if PrincipalFromContext(ctx) != p {
		t.Error("principal not found in context")
	}
}
