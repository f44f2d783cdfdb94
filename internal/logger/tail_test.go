package logger

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestTailCapturesEntries(t *testing.T) {
	tail := NewTail(10)
	log := zerolog.New(tail).With().Timestamp().Logger()

	log.Info().Str("component", "search").Str("requestId", "req-1").Msg("Search started")
	log.Warn().Msg("Something odd")

	entries := tail.Recent()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}

	first := entries[0]
	if first.Level != "info" || first.Message != "Search started" {
		t.Errorf("unexpected first entry %+v", first)
	}
	if first.Component != "search" {
		t.Errorf("Component = %q", first.Component)
	}
	if first.Fields["requestId"] != "req-1" {
		t.Errorf("Fields[requestId] = %v", first.Fields["requestId"])
	}
	if entries[1].Level != "warn" {
		t.Errorf("second level = %q", entries[1].Level)
	}
}

func TestTailDropsOldestWhenFull(t *testing.T) {
	tail := NewTail(2)
	log := zerolog.New(tail)

	log.Info().Msg("one")
	log.Info().Msg("two")
	log.Info().Msg("three")

	entries := tail.Recent()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Message != "two" || entries[1].Message != "three" {
		t.Errorf("unexpected entries %+v", entries)
	}
}

func TestTailIgnoresMalformedLines(t *testing.T) {
	tail := NewTail(10)

	if _, err := tail.Write([]byte("not json")); err != nil {
		t.Fatalf("Write should swallow malformed input: %v", err)
	}
	if len(tail.Recent()) != 0 {
		t.Error("malformed input should not be buffered")
	}
}
