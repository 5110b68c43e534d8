package delivery

import (
	"errors"
	"testing"
)

func TestNewClientClassifiesOnce(t *testing.T) {
	cases := []struct {
		id   string
		kind Kind
	}{
		{"https://h/ook", KindWebhook},
		{"http://example.com/hook", KindWebhook},
		{"conn-123", KindConnection},
		{"ftp://example.com", KindConnection},
		{"example.com/hook", KindConnection},
	}
	for _, tc := range cases {
		c, err := NewClient(tc.id, "g")
		if err != nil {
			t.Fatalf("unexpected error for %s: %v", tc.id, err)
		}
		if c.Kind != tc.kind {
			t.Fatalf("expected %s for %s, got %s", tc.kind, tc.id, c.Kind)
		}
	}
}

func TestNewClientRejectsEmpty(t *testing.T) {
	if _, err := NewClient("  ", "g"); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("expected ErrInvalidClient, got %v", err)
	}
}

func TestClientKeyDependsOnIDAndGroup(t *testing.T) {
	a := Connection("c1", "g1")
	if a.Key() != Connection("c1", "g1").Key() {
		t.Fatal("expected stable key")
	}
	if a.Key() == Connection("c1", "g2").Key() {
		t.Fatal("expected group to change the key")
	}
	if Connection("c1g", "1").Key() == Connection("c1", "g1").Key() {
		t.Fatal("expected id/group boundary to be unambiguous")
	}
}

func TestClientValidate(t *testing.T) {
	if err := Webhook("not a url", "g").Validate(); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("expected invalid webhook, got %v", err)
	}
	if err := (Client{Kind: "carrier-pigeon", ID: "x"}).Validate(); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("expected unknown kind rejected, got %v", err)
	}
	if err := Connection("c1", "").Validate(); err != nil {
		t.Fatalf("expected valid connection, got %v", err)
	}
}
