package siwe

import (
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	fixtures := map[string]string{
		"canonical":     canonicalMessage,
		"required only": requiredOnlyMessage,
		"empty resources": requiredOnlyMessage + "\nResources:",
		"statement no optionals": "service.invalid wants you to sign in with your Ethereum account:\n" +
			"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2\n" +
			"\n" +
			"Sign in to ServiceOrg\n" +
			"\n" +
			"URI: https://service.invalid/login\n" +
			"Version: 1\n" +
			"Chain ID: 137\n" +
			"Nonce: k13XhsH2vNQ\n" +
			"Issued At: 2024-03-01T09:30:00Z",
	}

	for name, text := range fixtures {
		msg := Parse(text)
		if msg == nil {
			t.Fatalf("%s: expected valid message", name)
		}
		if rendered := msg.String(); rendered != text {
			t.Errorf("%s: render mismatch:\ngot:\n%s\n\nwant:\n%s", name, rendered, text)
		}

		// Parsing the rendering yields the same message.
		again := Parse(msg.String())
		if again == nil {
			t.Fatalf("%s: re-parse failed", name)
		}
		if again.String() != msg.String() {
			t.Errorf("%s: re-parse changed the message", name)
		}
	}
}

func TestMessageImmutability(t *testing.T) {
	msg := Parse(canonicalMessage)
	if msg == nil {
		t.Fatal("expected valid message")
	}

	// Getter results are copies; mutating them must not leak back.
	*msg.Statement() = "tampered"
	*msg.ExpirationTime() = time.Time{}
	*msg.RequestID() = "tampered"
	msg.Resources()[0] = msg.URI()

	if *msg.Statement() == "tampered" {
		t.Error("statement leaked through getter")
	}
	if msg.ExpirationTime().IsZero() {
		t.Error("expiration time leaked through getter")
	}
	if *msg.RequestID() == "tampered" {
		t.Error("request id leaked through getter")
	}
	if msg.Resources()[0].String() != "ipfs://bafybeiemxf5abjwjbikoz4mc3a3dla6ual3jsgpdr4cjr3oz3evfyavhwq/" {
		t.Error("resources leaked through getter")
	}
	if msg.String() != canonicalMessage {
		t.Error("message no longer renders the original text")
	}
}

func TestValidAt(t *testing.T) {
	text := "service.invalid wants you to sign in with your Ethereum account:\n" +
		"0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2\n" +
		"\n" +
		"URI: https://service.invalid/login\n" +
		"Version: 1\n" +
		"Chain ID: 1\n" +
		"Nonce: 32891756\n" +
		"Issued At: 2024-01-01T00:00:00Z\n" +
		"Expiration Time: 2024-01-01T01:00:00Z\n" +
		"Not Before: 2024-01-01T00:30:00Z"

	msg := Parse(text)
	if msg == nil {
		t.Fatal("expected valid message")
	}

	cases := []struct {
		at   time.Time
		want error
	}{
		{time.Date(2024, 1, 1, 0, 45, 0, 0, time.UTC), nil},
		{time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC), nil}, // boundary is inclusive
		{time.Date(2024, 1, 1, 2, 0, 0, 0, time.UTC), ErrExpired},
		{time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), ErrNotYetValid},
	}
	for i, c := range cases {
		if err := msg.ValidAt(c.at); err != c.want {
			t.Errorf("case %d: ValidAt = %v, want %v", i, err, c.want)
		}
	}

	// No window fields means always valid.
	open := Parse(requiredOnlyMessage)
	if open == nil {
		t.Fatal("expected valid message")
	}
	if err := open.ValidNow(); err != nil {
		t.Errorf("open-ended message rejected: %v", err)
	}
}
