package progress

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingChannelReturnsDefault(t *testing.T) {
	svc, err := NewService(t.TempDir())
	if err != nil {
		t.Fatalf("failed to create progress service: %v", err)
	}

	p := svc.Load("UCnew")
	if p.ChannelID != "UCnew" {
		t.Fatalf("expected channel id to be set, got %q", p.ChannelID)
	}
	if p.LastPageToken != "" || len(p.ProcessedVideoIDs) != 0 {
		t.Fatalf("expected empty default progress, got %+v", p)
	}
}

func TestSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewService(dir)
	if err != nil {
		t.Fatalf("failed to create progress service: %v", err)
	}

	p := svc.Load("UCabc")
	p.LastPageToken = "tok42"
	p.MarkProcessed("v1")
	p.MarkProcessed("v2")
	p.MarkProcessed("v1") // set semantics

	if err := svc.Save("UCabc", p); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	reloaded, err := NewService(dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	got := reloaded.Load("UCabc")
	if got.LastPageToken != "tok42" {
		t.Fatalf("expected cursor tok42, got %q", got.LastPageToken)
	}
	if len(got.ProcessedVideoIDs) != 2 {
		t.Fatalf("expected 2 processed ids, got %v", got.ProcessedVideoIDs)
	}
	if !got.HasProcessed("v1") || !got.HasProcessed("v2") {
		t.Fatalf("processed set lost entries: %v", got.ProcessedVideoIDs)
	}
}

func TestCursorReset(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewService(dir)
	if err != nil {
		t.Fatalf("failed to create progress service: %v", err)
	}

	p := svc.Load("UCabc")
	p.LastPageToken = "tok1"
	if err := svc.Save("UCabc", p); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Drained channel: cursor cleared, processed set retained.
	p = svc.Load("UCabc")
	p.LastPageToken = ""
	p.MarkProcessed("v1")
	if err := svc.Save("UCabc", p); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	got := svc.Load("UCabc")
	if got.LastPageToken != "" {
		t.Fatalf("expected cleared cursor, got %q", got.LastPageToken)
	}
	if !got.HasProcessed("v1") {
		t.Fatal("processed set must survive cursor reset")
	}
}

func TestFailedSaveRollsBack(t *testing.T) {
	dir := t.TempDir()
	svc, err := NewService(dir)
	if err != nil {
		t.Fatalf("failed to create progress service: %v", err)
	}

	p := svc.Load("UCabc")
	p.LastPageToken = "tok1"
	if err := svc.Save("UCabc", p); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	tmp := filepath.Join(dir, "channel_progress.json.tmp")
	if err := os.Mkdir(tmp, 0o755); err != nil {
		t.Fatalf("failed to block temp path: %v", err)
	}

	p.LastPageToken = "tok2"
	if err := svc.Save("UCabc", p); err == nil {
		t.Fatal("expected save to fail when temp file cannot be created")
	}

	if got := svc.Load("UCabc"); got.LastPageToken != "tok1" {
		t.Fatalf("in-memory state must roll back, got cursor %q", got.LastPageToken)
	}

	os.Remove(tmp)
	reloaded, err := NewService(dir)
	if err != nil {
		t.Fatalf("reload failed: %v", err)
	}
	if got := reloaded.Load("UCabc"); got.LastPageToken != "tok1" {
		t.Fatalf("durable state changed after failed write, got cursor %q", got.LastPageToken)
	}
}
