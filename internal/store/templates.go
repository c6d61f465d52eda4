package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/amberseal/amberseal/internal/schema"
)

// Catalog holds the agent templates, persisted as one versioned JSON file
// under the workspace (workspace/templates.json).
type Catalog struct {
	path string

	mu        sync.Mutex
	templates map[string]schema.Template
}

type catalogFile struct {
	Version   int               `json:"version"`
	Templates []schema.Template `json:"templates"`
}

// NewCatalog loads the catalog from workspace/templates.json, starting empty
// if the file does not exist yet, then merges in any YAML seed personas from
// workspace/personas/.
func NewCatalog(workspace string) (*Catalog, error) {
	c := &Catalog{
		path:      filepath.Join(workspace, "templates.json"),
		templates: make(map[string]schema.Template),
	}

	data, err := os.ReadFile(c.path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read templates: %w", err)
	}
	if err == nil {
		var file catalogFile
		if err := json.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse templates %s: %w", c.path, err)
		}
		for _, t := range file.Templates {
			c.templates[t.ID] = t
		}
	}

	c.seedFromYAML(filepath.Join(workspace, "personas"))
	return c, nil
}

// seedFromYAML loads persona seed files (one template per *.yaml) that have
// not been imported yet, keyed by the id declared in the file.
func (c *Catalog) seedFromYAML(dir string) {
	entries, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil || len(entries) == 0 {
		return
	}

	changed := false
	for _, path := range entries {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var t schema.Template
		if err := yaml.Unmarshal(data, &t); err != nil {
			slog.Warn("skipping malformed persona seed", "path", path, "err", err)
			continue
		}
		if t.ID == "" {
			t.ID = strings.TrimSuffix(filepath.Base(path), ".yaml")
		}
		if _, exists := c.templates[t.ID]; exists {
			continue
		}
		now := time.Now().UTC()
		t.CreatedAt = now
		t.UpdatedAt = now
		c.templates[t.ID] = t
		changed = true
		slog.Info("seeded template from persona file", "id", t.ID, "path", path)
	}

	if changed {
		if err := c.save(); err != nil {
			slog.Warn("failed to persist seeded templates", "err", err)
		}
	}
}

// Create registers a new template, assigning an id when absent, and persists
// the catalog.
func (c *Catalog) Create(t schema.Template) (schema.Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if _, exists := c.templates[t.ID]; exists {
		return schema.Template{}, fmt.Errorf("template %s already exists", t.ID)
	}
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	c.templates[t.ID] = t

	return t, c.save()
}

// Get returns the template by id.
func (c *Catalog) Get(id string) (schema.Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.templates[id]
	return t, ok
}

// List returns all templates sorted by name.
func (c *Catalog) List() []schema.Template {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]schema.Template, 0, len(c.templates))
	for _, t := range c.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Update replaces an existing template's configuration, keeping its id and
// creation time.
func (c *Catalog) Update(t schema.Template) (schema.Template, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	old, ok := c.templates[t.ID]
	if !ok {
		return schema.Template{}, fmt.Errorf("template %s not found", t.ID)
	}
	t.CreatedAt = old.CreatedAt
	t.UpdatedAt = time.Now().UTC()
	c.templates[t.ID] = t

	return t, c.save()
}

// Delete removes a template. Agents already instantiated from it keep their
// snapshots; they just can no longer be rehydrated.
func (c *Catalog) Delete(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.templates[id]; !ok {
		return fmt.Errorf("template %s not found", id)
	}
	delete(c.templates, id)
	return c.save()
}

// save writes the catalog file. Caller must hold c.mu.
func (c *Catalog) save() error {
	file := catalogFile{Version: 1}
	for _, t := range c.templates {
		file.Templates = append(file.Templates, t)
	}
	sort.Slice(file.Templates, func(i, j int) bool { return file.Templates[i].ID < file.Templates[j].ID })

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal templates: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return fmt.Errorf("write templates %s: %w", c.path, err)
	}
	return nil
}
