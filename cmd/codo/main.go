package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/yanmxa/codo/internal/agent"
	"github.com/yanmxa/codo/internal/config"
	"github.com/yanmxa/codo/internal/controller"
	"github.com/yanmxa/codo/internal/log"
	"github.com/yanmxa/codo/internal/message"
	"github.com/yanmxa/codo/internal/metrics"
	"github.com/yanmxa/codo/internal/permission"
	"github.com/yanmxa/codo/internal/preview"
	"github.com/yanmxa/codo/internal/provider"
	"github.com/yanmxa/codo/internal/readtrack"
	"github.com/yanmxa/codo/internal/session"
	"github.com/yanmxa/codo/internal/tool"
	"github.com/yanmxa/codo/internal/tui"

	// Providers register themselves on import.
	_ "github.com/yanmxa/codo/internal/provider/anthropic"
	_ "github.com/yanmxa/codo/internal/provider/openai"
)

func init() {
	_ = godotenv.Load()

	// Debug logging is enabled via CODO_DEBUG=1.
	_ = log.Init()
}

func main() {
	defer log.Sync()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var (
	promptFlag   string
	continueFlag bool
)

var rootCmd = &cobra.Command{
	Use:   "codo [message]",
	Short: "codo - AI coding assistant for the terminal",
	Long: `codo is an AI coding assistant for the terminal.

Interactive mode:
  codo                      Start a new session
  codo -c                   Resume the most recent session in this directory

Non-interactive mode:
  codo "your message"       Send a message directly
  echo "message" | codo     Send a message via stdin
  codo -p "prompt"          Use a custom prompt`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		if msg := inputMessage(args); msg != "" {
			return runOneShot(cmd.Context(), msg)
		}
		return runInteractive(cmd.Context())
	},
}

func init() {
	rootCmd.Flags().StringVarP(&promptFlag, "prompt", "p", "", "Custom prompt to send")
	rootCmd.Flags().BoolVarP(&continueFlag, "continue", "c", false, "Resume the most recent session in this directory")
}

// inputMessage reads the one-shot message from the flag, args, or a pipe.
func inputMessage(args []string) string {
	if promptFlag != "" {
		return promptFlag
	}
	if len(args) > 0 {
		return strings.Join(args, " ")
	}
	stat, _ := os.Stdin.Stat()
	if (stat.Mode() & os.ModeCharDevice) == 0 {
		data, err := io.ReadAll(bufio.NewReader(os.Stdin))
		if err == nil && len(data) > 0 {
			return strings.TrimSpace(string(data))
		}
	}
	return ""
}

// app holds the wired pieces shared by both modes.
type app struct {
	agent          *agent.Agent
	validator      *readtrack.Validator
	settings       *config.Settings
	classification permission.Classification
	providerName   string
	model          string
	cwd            string
}

func setup(ctx context.Context) (*app, error) {
	loader := config.NewLoader()
	settings := loader.Load()
	classification := loader.LoadClassification()
	for k, v := range settings.Env {
		os.Setenv(k, v)
	}

	providerName := settings.Provider
	if providerName == "" {
		providerName = detectProvider()
	}
	llm, err := provider.Get(ctx, providerName)
	if err != nil {
		return nil, fmt.Errorf("provider %q not available: %w (set ANTHROPIC_API_KEY or OPENAI_API_KEY)", providerName, err)
	}

	model := settings.Model
	if model == "" {
		model = defaultModel(providerName)
	}

	cwd, _ := os.Getwd()
	tracker := readtrack.NewTracker()
	validator := readtrack.NewValidator()
	validator.SetTracker(tracker)

	a := agent.New(agent.Options{
		Provider:       llm,
		Tools:          tool.Default(tracker, validator),
		Classification: classification,
		Settings:       settings,
		SystemPrompt:   systemPrompt(cwd),
		Model:          model,
		MaxIterations:  settings.MaxIterations,
		Cwd:            cwd,
	})
	return &app{
		agent:          a,
		validator:      validator,
		settings:       settings,
		classification: classification,
		providerName:   providerName,
		model:          model,
		cwd:            cwd,
	}, nil
}

func detectProvider() string {
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		return "anthropic"
	}
	if os.Getenv("OPENAI_API_KEY") != "" {
		return "openai"
	}
	return "anthropic"
}

func defaultModel(providerName string) string {
	switch providerName {
	case "openai":
		return "gpt-4o"
	default:
		return "claude-sonnet-4-20250514"
	}
}

func systemPrompt(cwd string) string {
	return fmt.Sprintf(`You are codo, an AI coding assistant running in a terminal.

Working directory: %s

Use the available tools to read, search, and modify files, and to run
commands. Read a file before editing it. Prefer small, focused edits.
Answer concisely.`, cwd)
}

// runInteractive starts the TUI around a controller.
func runInteractive(ctx context.Context) error {
	app, err := setup(ctx)
	if err != nil {
		return err
	}

	updates := make(chan struct{}, 16)
	ctrl := controller.New(controller.Options{
		Client:         app.agent,
		Classification: app.classification,
		Metrics:        metrics.NewTracker(),
		OnUpdate: func() {
			select {
			case updates <- struct{}{}:
			default:
			}
		},
	})

	store, err := session.NewStore()
	if err != nil {
		return err
	}

	var resumed *session.Session
	if continueFlag {
		sess, err := store.LatestByCwd(app.cwd)
		if err != nil {
			fmt.Fprintln(os.Stderr, "no previous session in this directory, starting fresh")
		} else {
			app.agent.SetMessages(sess.Messages)
			ctrl.RestoreHistory(sess.Messages)
			resumed = sess
		}
	}

	return tui.Run(tui.Options{
		Controller:   ctrl,
		Agent:        app.agent,
		Preview:      preview.NewGenerator(app.validator),
		Store:        store,
		Resumed:      resumed,
		ProviderName: app.providerName,
		Model:        app.model,
		Cwd:          app.cwd,
		Updates:      updates,
	})
}

// runOneShot sends one message without the TUI. Approval-required tools
// are auto-approved; dangerous tools are rejected.
func runOneShot(ctx context.Context, text string) error {
	app, err := setup(ctx)
	if err != nil {
		return err
	}
	a, classification := app.agent, app.classification

	a.SetCallbacks(agent.Callbacks{
		OnToolStart: func(name string, _ map[string]any) {
			fmt.Fprintf(os.Stderr, "• %s\n", name)
		},
		OnToolEnd: func(name string, r message.ToolResult) {
			if !r.Success {
				fmt.Fprintf(os.Stderr, "  %s failed: %s\n", name, r.Error)
			}
		},
		OnToolApproval: func(name string, _ map[string]any) agent.Approval {
			approved := classification.Level(name) != permission.Dangerous
			if !approved {
				fmt.Fprintf(os.Stderr, "  %s requires interactive approval, rejected\n", name)
			}
			return agent.Approval{Approved: approved}
		},
		OnFinalMessage: func(text, _ string) {
			fmt.Println(text)
		},
		OnMaxIterations: func(int) bool { return false },
	})

	return a.Chat(ctx, text)
}
