package registry

import (
	"errors"
	"testing"

	"github.com/preston-bernstein/footy-live-service/internal/delivery"
)

func TestEncodeIsDeterministic(t *testing.T) {
	c := delivery.Webhook("https://h/ook", "g1")
	a, err := Encode(KindClient, c)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	b, _ := Encode(KindClient, c)
	if a != b {
		t.Fatalf("expected identical encodings, got %s and %s", a, b)
	}

	var got delivery.Client
	if err := Decode(a, KindClient, &got); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if got != c {
		t.Fatalf("expected %+v, got %+v", c, got)
	}
}

func TestDecodeRejectsUnknownVersionAndKind(t *testing.T) {
	var c delivery.Client
	err := Decode(`{"v":2,"kind":"client","data":{}}`, KindClient, &c)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}

	err = Decode(`{"v":1,"kind":"goal","data":{}}`, KindClient, &c)
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}

	if err := Decode("\x80pickle", KindClient, &c); err == nil {
		t.Fatalf("expected error for non-json value")
	}
}
