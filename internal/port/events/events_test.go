package events

import (
	"context"
	"strings"
	"testing"
	"time"
)

func TestEncodeDecode(t *testing.T) {
	ev := Ingested{
		RunID:       "0b8f0c34-5d1e-4c57-9d1c-3f3b5d0f3a10",
		Languages:   3,
		Programs:    5,
		Projects:    3,
		Tested:      2,
		CompletedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	data, err := Encode(ev)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !strings.Contains(string(data), `"duration_ms":0`) {
		t.Errorf("expected duration_ms field in %s", data)
	}
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.RunID != ev.RunID || got.Programs != 5 || !got.CompletedAt.Equal(ev.CompletedAt) {
		t.Errorf("Decode = %+v, want %+v", got, ev)
	}
}

func TestEncodeRequiresFields(t *testing.T) {
	tests := []struct {
		name string
		ev   Ingested
	}{
		{"missing run id", Ingested{CompletedAt: time.Now()}},
		{"missing completion time", Ingested{RunID: "r"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Encode(tt.ev); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDecodeInvalid(t *testing.T) {
	for _, in := range []string{`not json`, `{"languages":1}`} {
		if _, err := Decode([]byte(in)); err == nil {
			t.Errorf("Decode(%q) succeeded, want error", in)
		}
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), Ingested{}); err != nil {
		t.Fatal(err)
	}
}
