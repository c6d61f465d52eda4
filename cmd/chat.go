package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/amberseal/amberseal/internal/config"
	"github.com/amberseal/amberseal/internal/dependency"
	"github.com/amberseal/amberseal/internal/runtime"
)

var (
	chatAgent    string
	chatTemplate string
	chatMessage  string
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat with an agent",
	Long: `Chat opens an interactive session against a local agent.
With --agent it resumes an existing agent; with --template it creates
a fresh agent from that template first.`,
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVarP(&chatAgent, "agent", "a", "", "Existing agent ID to resume")
	chatCmd.Flags().StringVarP(&chatTemplate, "template", "t", "", "Template ID to create a new agent from")
	chatCmd.Flags().StringVarP(&chatMessage, "message", "m", "", "Send a single message and exit")
}

var exitCommands = map[string]bool{
	"exit":  true,
	"quit":  true,
	"/exit": true,
	"/quit": true,
	":q":    true,
}

func runChat(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	container, err := dependency.New(cfg)
	if err != nil {
		return err
	}
	rt := container.Runtime()

	agentID, err := resolveChatAgent(rt, container)
	if err != nil {
		return err
	}

	if chatMessage != "" {
		return runSingleMessage(rt, agentID)
	}
	return runInteractive(rt, agentID)
}

// resolveChatAgent picks the agent to talk to: --agent wins, then --template
// creates a fresh one, otherwise the only template in the catalog is used.
func resolveChatAgent(rt *runtime.Runtime, container *dependency.Container) (string, error) {
	if chatAgent != "" {
		if _, err := rt.Agent(chatAgent); err != nil {
			return "", err
		}
		return chatAgent, nil
	}

	templateID := chatTemplate
	if templateID == "" {
		templates := container.Catalog().List()
		switch len(templates) {
		case 0:
			return "", fmt.Errorf("no templates available — run 'amberseal onboard' first")
		case 1:
			templateID = templates[0].ID
		default:
			return "", fmt.Errorf("multiple templates available, pick one with --template")
		}
	}

	agent, err := rt.CreateAgent(templateID)
	if err != nil {
		return "", err
	}
	fmt.Printf("Created agent %s from template %s\n", agent.ID, templateID)
	return agent.ID, nil
}

// runSingleMessage sends one message to the agent and prints the response.
func runSingleMessage(rt *runtime.Runtime, agentID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	fmt.Fprintf(os.Stderr, "  ↳ thinking...\n")
	res, err := rt.ProcessMessage(ctx, agentID, chatMessage)
	if err != nil {
		return err
	}
	printResponse(res.Response)
	return nil
}

// runInteractive starts the REPL: reads lines from stdin and runs one turn
// per line until the user exits.
func runInteractive(rt *runtime.Runtime, agentID string) error {
	fmt.Printf("%s Interactive mode with agent %s (type 'exit' or Ctrl+C to quit)\n\n", logo, agentID)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")

		if !scanner.Scan() {
			fmt.Println("\nGoodbye!")
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if exitCommands[strings.ToLower(line)] {
			fmt.Println("Goodbye!")
			return nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		res, err := rt.ProcessMessage(ctx, agentID, line)
		cancel()
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		printResponse(res.Response)
	}
}

func printResponse(text string) {
	fmt.Printf("\n%s amberseal\n%s\n\n", logo, text)
}
