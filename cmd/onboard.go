package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/amberseal/amberseal/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Initialize configuration and workspace",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	if _, err := os.Stat(cfgPath); err == nil {
		fmt.Printf("Config already exists at %s\n", cfgPath)
		fmt.Printf("Press Enter to refresh (keep existing values) or Ctrl+C to cancel: ")
		fmt.Scanln()
		existing, loadErr := config.Load(cfgPath)
		if loadErr != nil {
			def := config.DefaultConfig()
			existing = &def
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	def := config.DefaultConfig()
	workspace := def.WorkspacePath()
	if err := os.MkdirAll(workspace, 0o755); err != nil {
		return fmt.Errorf("create workspace: %w", err)
	}
	fmt.Printf("✓ Workspace at %s\n", workspace)

	seedPersonas(workspace)

	fmt.Printf("\n%s amberseal is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Add your API key to %s\n", cfgPath)
	fmt.Printf("  2. Chat: amberseal chat -m \"Hello!\"\n")
	fmt.Printf("  3. Or run the server: amberseal serve\n")
	return nil
}

// seedPersonas drops starter persona files into workspace/personas/.
// The template catalog imports them on first load.
func seedPersonas(workspace string) {
	personas := map[string]string{
		"assistant.yaml": `id: assistant
name: Assistant
persona:
  traits:
    - helpful
    - concise
  backstory: A general-purpose assistant created during onboarding.
  instructions: Be accurate and to the point. Ask when a request is ambiguous.
memory:
  memoryType: conversation
  summarizationEnabled: true
  retentionPeriod: session
engine:
  model: gpt-4o-mini
  maxTokens: 4096
  temperature: 0.7
`,
		"archivist.yaml": `id: archivist
name: Archivist
persona:
  traits:
    - meticulous
    - patient
  backstory: Keeps long-running conversations organized and recalls past context.
  instructions: Summarize faithfully. Prefer exact quotes over paraphrase.
memory:
  memoryType: long_term
  summarizationEnabled: true
  retentionPeriod: indefinite
engine:
  model: gpt-4o-mini
  maxTokens: 4096
  temperature: 0.3
`,
	}

	dir := filepath.Join(workspace, "personas")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		fmt.Printf("  (could not create personas dir: %v)\n", err)
		return
	}
	for filename, content := range personas {
		p := filepath.Join(dir, filename)
		if _, err := os.Stat(p); os.IsNotExist(err) {
			_ = os.WriteFile(p, []byte(content), 0o644)
			fmt.Printf("  Created personas/%s\n", filename)
		}
	}
}
