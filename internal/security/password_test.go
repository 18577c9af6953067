package security

import "testing"

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("P@ssw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	ok, err := VerifyPassword("P@ssw0rd!", hash)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok {
		t.Fatalf("expected password to verify")
	}

	ok, err = VerifyPassword("wrong", hash)
	if err != nil {
		t.Fatalf("verify wrong: %v", err)
	}
	if ok {
		t.Fatalf("wrong password verified")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	first, err := HashPassword("P@ssw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	second, err := HashPassword("P@ssw0rd!")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if string(first) == string(second) {
		t.Fatalf("expected distinct salted hashes")
	}
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	if _, err := VerifyPassword("x", []byte("not-a-hash")); err == nil {
		t.Fatalf("expected error for malformed hash")
	}
}
