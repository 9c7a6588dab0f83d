package security

import "testing"

func TestGenerateVerificationCode(t *testing.T) {
	t.Parallel()

	seen := map[string]struct{}{}
	for i := 0; i < 50; i++ {
		code, errGen := GenerateVerificationCode()
		if errGen != nil {
			t.Fatalf("generate: %v", errGen)
		}
		if len(code) != VerificationCodeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), VerificationCodeLength)
		}
		for _, r := range code {
			if r < '0' || r > '9' {
				t.Fatalf("code %q contains non-digit %q", code, r)
			}
		}
		seen[code] = struct{}{}
	}
	if len(seen) < 2 {
		t.Fatalf("expected varied codes, got %d distinct of 50", len(seen))
	}
}

func TestHashAndCheckPassword(t *testing.T) {
	t.Parallel()

	hash, errHash := HashPassword("hunter2hunter2")
	if errHash != nil {
		t.Fatalf("hash: %v", errHash)
	}
	if !CheckPassword(hash, "hunter2hunter2") {
		t.Fatalf("expected matching password to verify")
	}
	if CheckPassword(hash, "wrong") {
		t.Fatalf("expected mismatched password to fail")
	}
}

func TestHashPasswordRejectsEmpty(t *testing.T) {
	t.Parallel()

	if _, errHash := HashPassword(""); errHash == nil {
		t.Fatalf("expected error for empty password")
	}
}
