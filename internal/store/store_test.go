package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/amberseal/amberseal/internal/engine"
	"github.com/amberseal/amberseal/internal/schema"
)

type echoGateway struct{ n int }

func (g *echoGateway) Complete(context.Context, string, []schema.ContextEntry, schema.EngineConfig) (string, error) {
	g.n++
	return fmt.Sprintf("ack-%d", g.n), nil
}

func (g *echoGateway) Summarize(context.Context, string, schema.EngineConfig) (string, error) {
	return "condensed", nil
}

func testTemplate() schema.Template {
	return schema.Template{
		ID:   "tmpl-1",
		Name: "keeper",
		Persona: schema.PersonaConfig{
			Traits:       []string{"curious"},
			Backstory:    "b",
			Instructions: "i",
		},
		Memory: schema.MemoryPolicyConfig{
			MemoryType:           schema.MemoryConversation,
			SummarizationEnabled: true,
			RetentionPeriod:      schema.RetentionIndefinite,
		},
		Engine: schema.EngineConfig{Model: "m", MaxTokens: 64, Temperature: 0.7},
	}
}

func TestSaveLoad_RoundTripAfterTurns(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	sess := engine.NewSession("agent-1", testTemplate(), &echoGateway{})
	for i := 0; i < 6; i++ {
		if _, err := sess.ProcessMessage(context.Background(), fmt.Sprintf("turn %d", i)); err != nil {
			t.Fatalf("turn %d: %v", i, err)
		}
	}
	want := sess.Snapshot()

	if err := s.Save(want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := s.Load("agent-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok {
		t.Fatal("Load reported the snapshot absent")
	}

	if got.AgentID != want.AgentID || got.TemplateID != want.TemplateID || got.Status != want.Status {
		t.Errorf("identity/status mismatch: got %+v", got)
	}
	if got.Summary.Text != want.Summary.Text || got.Summary.Interactions != want.Summary.Interactions {
		t.Errorf("summary = %+v, want %+v", got.Summary, want.Summary)
	}
	if len(got.Messages) != len(want.Messages) {
		t.Fatalf("message count = %d, want %d", len(got.Messages), len(want.Messages))
	}
	for i := range got.Messages {
		g, w := got.Messages[i], want.Messages[i]
		if g.Role != w.Role || g.Content != w.Content || !g.Timestamp.Equal(w.Timestamp) {
			t.Errorf("message[%d] = %+v, want %+v", i, g, w)
		}
	}
	if !got.CreatedAt.Equal(want.CreatedAt) || !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("timestamps drifted: got %v/%v want %v/%v",
			got.CreatedAt, got.UpdatedAt, want.CreatedAt, want.UpdatedAt)
	}

	// Rehydrated session picks up exactly where the original left off.
	// LastUpdated is a pointer, so compare the instants, not the structs.
	resumed := engine.RestoreSession(got, testTemplate(), &echoGateway{})
	rs, ws := resumed.Summary(), sess.Summary()
	if rs.Text != ws.Text || rs.Interactions != ws.Interactions {
		t.Errorf("resumed summary = %+v, want %+v", rs, ws)
	}
	if !sameInstant(rs.LastUpdated, ws.LastUpdated) {
		t.Errorf("resumed lastUpdated = %v, want %v", rs.LastUpdated, ws.LastUpdated)
	}
}

func sameInstant(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func TestLoad_AbsentAgent(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	_, ok, err := s.Load("ghost")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("absent snapshot reported present")
	}
}

func TestLoad_SkipsMalformedAndInvalidLines(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	ts := time.Now().UTC().Format(time.RFC3339Nano)
	raw := `{"_type":"metadata","agent_id":"a1","template_id":"t1","status":"active","summary":{"text":"","interactionCount":2},"created_at":"` + ts + `","updated_at":"` + ts + `"}
{not json
{"role":"wizard","content":"bad role","timestamp":"` + ts + `"}
{"role":"user","content":"","timestamp":"` + ts + `"}
{"role":"user","content":"kept","timestamp":"` + ts + `"}
`
	if err := os.WriteFile(filepath.Join(dir, "agents", "a1.jsonl"), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, ok, err := s.Load("a1")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if len(snap.Messages) != 1 || snap.Messages[0].Content != "kept" {
		t.Errorf("messages = %+v, want only the valid line", snap.Messages)
	}
	// "active" is never a valid persisted status; it coerces to idle.
	if snap.Status != schema.StatusIdle {
		t.Errorf("status = %q, want idle", snap.Status)
	}
}

func TestLoad_MissingMetadataLineDefaultsToIdle(t *testing.T) {
	dir := t.TempDir()
	s, err := NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}

	// A torn write can leave a snapshot without its metadata line; the
	// messages still load and the status must stay a valid terminal one.
	ts := time.Now().UTC().Format(time.RFC3339Nano)
	raw := `{"role":"user","content":"hi","timestamp":"` + ts + `"}
{"role":"assistant","content":"hello","timestamp":"` + ts + `"}
`
	if err := os.WriteFile(filepath.Join(dir, "agents", "a1.jsonl"), []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	snap, ok, err := s.Load("a1")
	if err != nil || !ok {
		t.Fatalf("Load: ok=%v err=%v", ok, err)
	}
	if snap.Status != schema.StatusIdle {
		t.Errorf("status = %q, want idle", snap.Status)
	}
	if len(snap.Messages) != 2 {
		t.Errorf("messages = %+v, want both lines", snap.Messages)
	}
}

func TestDeleteAndList(t *testing.T) {
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	for _, id := range []string{"a1", "a2"} {
		sess := engine.NewSession(id, testTemplate(), &echoGateway{})
		if _, err := sess.ProcessMessage(context.Background(), "hi"); err != nil {
			t.Fatal(err)
		}
		if err := s.Save(sess.Snapshot()); err != nil {
			t.Fatal(err)
		}
	}

	metas, err := s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 2 {
		t.Fatalf("List returned %d entries, want 2", len(metas))
	}

	if err := s.Delete("a1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("a1"); err != nil {
		t.Errorf("deleting an absent snapshot should not error: %v", err)
	}

	metas, err = s.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(metas) != 1 || metas[0].AgentID != "a2" {
		t.Errorf("List after delete = %+v, want just a2", metas)
	}
}
