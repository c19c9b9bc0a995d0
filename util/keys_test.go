package util

import (
	"strings"
	"testing"
)

func TestGeneratePemKeypair(t *testing.T) {
	pair, err := GeneratePemKeypair(512)
	if err != nil {
		t.Fatalf("GeneratePemKeypair failed: %v", err)
	}

	if !strings.Contains(pair.Private, "RSA PRIVATE KEY") {
		t.Error("Expected a PEM encoded private key")
	}

	if !strings.Contains(pair.Public, "RSA PUBLIC KEY") {
		t.Error("Expected a PEM encoded public key")
	}
}

func TestParseKeypairRoundtrip(t *testing.T) {
	pair, err := GeneratePemKeypair(512)
	if err != nil {
		t.Fatalf("GeneratePemKeypair failed: %v", err)
	}

	priv, err := ParsePrivateKey(pair.Private)
	if err != nil {
		t.Fatalf("ParsePrivateKey failed: %v", err)
	}

	pub, err := ParsePublicKey(pair.Public)
	if err != nil {
		t.Fatalf("ParsePublicKey failed: %v", err)
	}

	if priv.PublicKey.N.Cmp(pub.N) != 0 {
		t.Error("Expected parsed public key to match the private key")
	}

	if priv.PublicKey.Size()*8 != 512 {
		t.Errorf("Expected 512 bit modulus, got %d", priv.PublicKey.Size()*8)
	}
}

func TestParsePrivateKeyInvalid(t *testing.T) {
	if _, err := ParsePrivateKey("not a pem"); err == nil {
		t.Error("Expected an error for garbage input")
	}

	if _, err := ParsePublicKey(""); err == nil {
		t.Error("Expected an error for empty input")
	}
}
