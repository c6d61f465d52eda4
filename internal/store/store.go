// Package store persists agent state under the workspace directory.
//
// Each agent's durable state lives in one JSONL snapshot file:
//
//	Line 1:  {"_type":"metadata","agent_id":"…","template_id":"…",
//	           "status":"idle","summary":{…},"created_at":"…","updated_at":"…"}
//	Line 2+: one JSON message object per line
//
// Save replaces the whole file; there is no incremental write. Shape
// validation happens here, at the persistence boundary — the engine above
// only ever sees well-formed snapshots.
package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/amberseal/amberseal/internal/engine"
	"github.com/amberseal/amberseal/internal/schema"
)

// Store reads and writes agent snapshots as JSONL files. Construct one
// explicitly and pass it where needed; there is no ambient global store.
type Store struct {
	agentsDir string // workspace/agents/
}

// NewStore creates a Store rooted at the workspace directory, creating the
// agents subdirectory if necessary.
func NewStore(workspace string) (*Store, error) {
	dir := filepath.Join(workspace, "agents")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create agents dir: %w", err)
	}
	return &Store{agentsDir: dir}, nil
}

// Save writes the snapshot to disk, replacing any previous one.
func (s *Store) Save(snap engine.Snapshot) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	meta := snapshotMeta{
		Type:       "metadata",
		AgentID:    snap.AgentID,
		TemplateID: snap.TemplateID,
		Status:     string(snap.Status),
		Summary:    snap.Summary,
		CreatedAt:  snap.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:  snap.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	if err := enc.Encode(meta); err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	for _, msg := range snap.Messages {
		if err := enc.Encode(messageToWire(msg)); err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
	}

	path := s.snapshotPath(snap.AgentID)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write snapshot %s: %w", path, err)
	}
	return nil
}

// Load reads an agent's snapshot. The second return value is false when no
// snapshot exists for agentID.
func (s *Store) Load(agentID string) (engine.Snapshot, bool, error) {
	path := s.snapshotPath(agentID)

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return engine.Snapshot{}, false, nil
		}
		return engine.Snapshot{}, false, fmt.Errorf("open snapshot %s: %w", path, err)
	}
	defer f.Close()

	// Default to idle so a snapshot with a torn or missing metadata line
	// still loads with a valid status.
	snap := engine.Snapshot{AgentID: agentID, Status: schema.StatusIdle}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 1<<20) // 1 MB per line
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var probe struct {
			Type string `json:"_type"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			slog.Warn("skipping malformed snapshot line", "agent", agentID, "err", err)
			continue
		}

		if probe.Type == "metadata" {
			var meta snapshotMeta
			if err := json.Unmarshal(line, &meta); err != nil {
				slog.Warn("skipping malformed metadata line", "agent", agentID, "err", err)
				continue
			}
			applyMeta(&snap, meta)
			continue
		}

		var wire wireMessage
		if err := json.Unmarshal(line, &wire); err != nil {
			slog.Warn("skipping malformed message line", "agent", agentID, "err", err)
			continue
		}
		msg, ok := wireToMessage(wire)
		if !ok {
			slog.Warn("skipping message with invalid shape", "agent", agentID, "role", wire.Role)
			continue
		}
		snap.Messages = append(snap.Messages, msg)
	}
	if err := scanner.Err(); err != nil {
		return engine.Snapshot{}, false, fmt.Errorf("read snapshot %s: %w", path, err)
	}

	return snap, true, nil
}

// Delete removes an agent's snapshot file. Deleting an absent snapshot is
// not an error.
func (s *Store) Delete(agentID string) error {
	err := os.Remove(s.snapshotPath(agentID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// SnapshotMeta is the listing entry for one persisted agent.
type SnapshotMeta struct {
	AgentID    string             `json:"agentId"`
	TemplateID string             `json:"templateId"`
	Status     schema.AgentStatus `json:"status"`
	UpdatedAt  time.Time          `json:"updatedAt"`
}

// List returns metadata for all persisted agents, newest-first.
func (s *Store) List() ([]SnapshotMeta, error) {
	entries, err := filepath.Glob(filepath.Join(s.agentsDir, "*.jsonl"))
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	out := make([]SnapshotMeta, 0, len(entries))
	for _, path := range entries {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		if scanner.Scan() {
			var meta snapshotMeta
			if json.Unmarshal(scanner.Bytes(), &meta) == nil && meta.Type == "metadata" {
				id := meta.AgentID
				if id == "" {
					id = strings.TrimSuffix(filepath.Base(path), ".jsonl")
				}
				out = append(out, SnapshotMeta{
					AgentID:    id,
					TemplateID: meta.TemplateID,
					Status:     validStatus(meta.Status),
					UpdatedAt:  parseTime(meta.UpdatedAt),
				})
			}
		}
		f.Close()
	}

	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

// ---------------------------------------------------------------------------
// Wire format

type snapshotMeta struct {
	Type       string                `json:"_type"`
	AgentID    string                `json:"agent_id"`
	TemplateID string                `json:"template_id"`
	Status     string                `json:"status"`
	Summary    schema.RunningSummary `json:"summary"`
	CreatedAt  string                `json:"created_at"`
	UpdatedAt  string                `json:"updated_at"`
}

type wireMessage struct {
	Role      string `json:"role"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

func messageToWire(m schema.Message) wireMessage {
	return wireMessage{
		Role:      string(m.Role),
		Content:   m.Content,
		Timestamp: m.Timestamp.UTC().Format(time.RFC3339Nano),
	}
}

// wireToMessage validates and converts one on-disk message line. Messages
// with an unknown role or empty content fail validation here so corrupted
// lines never reach the engine.
func wireToMessage(w wireMessage) (schema.Message, bool) {
	role := schema.Role(w.Role)
	if !role.Valid() || w.Content == "" {
		return schema.Message{}, false
	}
	return schema.Message{
		Role:      role,
		Content:   w.Content,
		Timestamp: parseTime(w.Timestamp),
	}, true
}

func applyMeta(snap *engine.Snapshot, meta snapshotMeta) {
	if meta.AgentID != "" {
		snap.AgentID = meta.AgentID
	}
	snap.TemplateID = meta.TemplateID
	snap.Status = validStatus(meta.Status)
	snap.Summary = meta.Summary
	snap.CreatedAt = parseTime(meta.CreatedAt)
	snap.UpdatedAt = parseTime(meta.UpdatedAt)
}

// validStatus coerces the persisted status to a terminal one. Snapshots are
// only written after a turn completes, so anything else means the file was
// tampered with or predates this schema; idle is the safe default.
func validStatus(s string) schema.AgentStatus {
	switch schema.AgentStatus(s) {
	case schema.StatusIdle, schema.StatusError:
		return schema.AgentStatus(s)
	}
	return schema.StatusIdle
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *Store) snapshotPath(agentID string) string {
	return filepath.Join(s.agentsDir, safeFilename(agentID)+".jsonl")
}

// safeFilename replaces filesystem-unsafe characters with underscores.
func safeFilename(name string) string {
	const unsafe = `<>:"/\|?*`
	var b strings.Builder
	for _, r := range name {
		if strings.ContainsRune(unsafe, r) {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
