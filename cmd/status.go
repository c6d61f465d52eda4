package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/amberseal/amberseal/internal/config"
	"github.com/amberseal/amberseal/internal/store"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show amberseal status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := config.ConfigPath()

	fmt.Printf("%s amberseal Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	cfgMark := "✗"
	if statErr == nil {
		cfgMark = "✓"
	}
	fmt.Printf("Config:    %s %s\n", cfgPath, cfgMark)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	ws := cfg.WorkspacePath()
	_, wsErr := os.Stat(ws)
	wsMark := "✗"
	if wsErr == nil {
		wsMark = "✓"
	}

	fmt.Printf("Workspace: %s %s\n", ws, wsMark)
	fmt.Printf("Provider:  %s\n", cfg.Agents.Defaults.Provider)
	fmt.Printf("Model:     %s\n\n", cfg.Agents.Defaults.Model)

	fmt.Println("Providers:")
	for _, name := range []string{"openai", "anthropic", "custom"} {
		p := cfg.ProviderByName(name)
		if p.APIKey != "" {
			fmt.Printf("  %-12s ✓\n", name)
		} else {
			fmt.Printf("  %-12s (not set)\n", name)
		}
	}
	fmt.Println()

	if wsErr != nil {
		return nil
	}

	catalog, err := store.NewCatalog(ws)
	if err == nil {
		fmt.Printf("Templates: %d\n", len(catalog.List()))
	}

	st, err := store.NewStore(ws)
	if err != nil {
		return nil
	}
	metas, err := st.List()
	if err != nil {
		return nil
	}
	fmt.Printf("Agents:    %d\n", len(metas))
	for _, m := range metas {
		fmt.Printf("  %s  template=%s status=%s updated=%s\n",
			m.AgentID, m.TemplateID, m.Status, m.UpdatedAt.Format("2006-01-02 15:04"))
	}
	return nil
}
