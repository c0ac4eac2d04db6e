// Copyright (c) 2025 eLISA Mobile Team
// SPDX-License-Identifier: AGPL-3.0-or-later

// chat.go - Interactive chat command for the elisa CLI.
//
// Command: chat
// Short:   Start an interactive assistant session
//
// Interactive commands (during chat):
//   /help, /h       Show available commands
//   /clear, /c      Clear the conversation (re-seeds the greeting)
//   /retry          Dismiss the connection notice and mark connected
//   /status, /s     Show session status
//   /sources        Toggle source listing under replies
//   /quit, /q       Exit chat
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/elisa-mobile/elisa-tui/internal/auth"
	"github.com/elisa-mobile/elisa-tui/internal/chat"
	"github.com/elisa-mobile/elisa-tui/internal/config"
	"github.com/elisa-mobile/elisa-tui/internal/fallback"
	"github.com/elisa-mobile/elisa-tui/internal/model"
	"github.com/elisa-mobile/elisa-tui/internal/rag"
	"github.com/elisa-mobile/elisa-tui/internal/storage"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive assistant session",
	RunE:  runChat,
}

// uiOptions is the part of the config the watcher may swap mid-session.
type uiOptions struct {
	mu          sync.Mutex
	markdown    bool
	showSources bool
}

func (o *uiOptions) get() (markdown, sources bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.markdown, o.showSources
}

func (o *uiOptions) set(markdown, sources bool) {
	o.mu.Lock()
	o.markdown = markdown
	o.showSources = sources
	o.mu.Unlock()
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	dataDir, err := cfg.DataDir()
	if err != nil {
		return err
	}
	prefs, err := storage.Open(dataDir)
	if err != nil {
		return err
	}
	defer prefs.Close()

	authMgr := auth.NewManager(prefs, cfg.Auth.DemoMode)
	if !authMgr.IsAuthenticated() {
		fmt.Println(warningStyle.Render("Not signed in - run 'elisa login' to store a session."))
	}

	// Wire the exchange loop: store, backend client, local responder.
	client := rag.NewClient().
		WithBaseURL(cfg.RAG.BaseURL).
		WithEndpoint(cfg.RAG.Endpoint).
		WithTimeout(time.Duration(cfg.RAG.TimeoutSecs) * time.Second).
		WithUserAgent(cfg.RAG.UserAgent)
	if cfg.RAG.RequestsPerSec > 0 {
		client = client.WithRateLimit(cfg.RAG.RequestsPerSec, cfg.RAG.Burst)
	}

	var responder *fallback.Responder
	if cfg.Fallback.Deterministic {
		responder = fallback.New()
	} else {
		responder = fallback.NewRandomized(time.Now().UnixNano())
	}

	store := chat.NewStore()
	dispatcher := chat.NewDispatcher(store, client, responder).
		WithAppVersion(Version).
		WithHistoryWindow(cfg.Chat.HistoryWindow).
		WithMaxMessageLen(cfg.Chat.MaxMessageLen).
		WithTimeout(time.Duration(cfg.RAG.TimeoutSecs) * time.Second)
	if user, err := authMgr.CurrentUser(); err == nil {
		dispatcher = dispatcher.WithUserID(user.ID)
	}

	opts := &uiOptions{}
	opts.set(cfg.UI.Markdown, cfg.UI.ShowSources)

	// Live-reload presentation settings when the config file changes.
	if path, err := config.ConfigPath(); err == nil {
		if w, err := config.NewWatcher(path, func(next *config.Config) {
			opts.set(next.UI.Markdown, next.UI.ShowSources)
		}); err == nil {
			if err := w.Watch(); err == nil {
				defer w.Close()
			}
		}
	}

	store.Initialize(cfg.Chat.WelcomeText)
	printGreeting(store, opts)

	return replLoop(cmd.Context(), store, dispatcher, opts, dataDir)
}

// printGreeting renders the seeded welcome message.
func printGreeting(store *chat.Store, opts *uiOptions) {
	snap := store.Snapshot()
	if len(snap.Messages) == 0 {
		return
	}
	markdown, _ := opts.get()
	fmt.Println(assistantStyle.Render("eLISA"))
	fmt.Println(renderMarkdown(snap.Messages[0].Text, markdown))
	fmt.Println(infoStyle.Render("Type /help for commands."))
}

// replLoop reads lines until quit or EOF.
func replLoop(ctx context.Context, store *chat.Store, dispatcher *chat.Dispatcher, opts *uiOptions, dataDir string) error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer line.Close()

	historyFile := filepath.Join(dataDir, "chat_history")
	loadHistory(line, historyFile)
	defer saveHistory(line, historyFile)

	for {
		input, err := line.Prompt(promptStyle.Render("you> "))
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if errors.Is(err, io.EOF) {
			fmt.Println()
			return nil
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(input)
		if trimmed == "" {
			continue
		}
		line.AppendHistory(input)

		if strings.HasPrefix(trimmed, "/") {
			if quit := handleCommand(trimmed, store, dispatcher, opts); quit {
				return nil
			}
			continue
		}

		sendAndRender(ctx, store, dispatcher, opts, trimmed)
	}
}

// sendAndRender runs one assistant turn and prints the outcome.
func sendAndRender(ctx context.Context, store *chat.Store, dispatcher *chat.Dispatcher, opts *uiOptions, text string) {
	fmt.Println(infoStyle.Render("eLISA is typing..."))

	if err := dispatcher.Send(ctx, text); err != nil {
		// Only overlapping sends surface here; the session itself is fine.
		fmt.Println(warningStyle.Render(err.Error()))
		return
	}

	snap := store.Snapshot()
	markdown, showSources := opts.get()

	last := snap.Messages[len(snap.Messages)-1]
	if last.Sender == model.SenderAssistant && !last.IsEmpty() {
		fmt.Println(assistantStyle.Render("eLISA"))
		fmt.Println(renderMarkdown(last.Text, markdown))
		if showSources && last.Metadata != nil && len(last.Metadata.Sources) > 0 {
			fmt.Println(sourceStyle.Render("Sources: " + strings.Join(last.Metadata.Sources, ", ")))
		}
	}
	if snap.Error != "" {
		fmt.Println(errorStyle.Render(snap.Error))
		fmt.Println(infoStyle.Render("Use /retry to dismiss once you are back online."))
	}
}

// handleCommand executes a slash command. Returns true to quit.
func handleCommand(cmd string, store *chat.Store, dispatcher *chat.Dispatcher, opts *uiOptions) bool {
	switch strings.ToLower(strings.Fields(cmd)[0]) {
	case "/quit", "/q", "/exit":
		return true

	case "/help", "/h":
		fmt.Println(infoStyle.Render(strings.TrimSpace(`
/help, /h       Show this help
/clear, /c      Clear the conversation
/retry          Dismiss the connection notice
/status, /s     Show session status
/sources        Toggle source listing
/quit, /q       Exit`)))

	case "/clear", "/c":
		cfg, err := config.Load()
		welcome := config.DefaultWelcomeText
		if err == nil {
			welcome = cfg.Chat.WelcomeText
		}
		store.Clear(welcome)
		fmt.Println(infoStyle.Render("Conversation cleared."))
		printGreeting(store, opts)

	case "/retry":
		dispatcher.RetryConnection()
		fmt.Println(infoStyle.Render("Connection notice dismissed."))

	case "/status", "/s":
		snap := store.Snapshot()
		status := fmt.Sprintf("session %s | %d messages | %s",
			snap.SessionID, len(snap.Messages), snap.ConnectionStatus)
		if n := len(snap.Messages); n > 0 {
			status += " | last: " + snap.Messages[n-1].Preview(40)
		}
		fmt.Println(infoStyle.Render(status))

	case "/sources":
		markdown, sources := opts.get()
		opts.set(markdown, !sources)
		if !sources {
			fmt.Println(infoStyle.Render("Source listing on."))
		} else {
			fmt.Println(infoStyle.Render("Source listing off."))
		}

	default:
		fmt.Println(warningStyle.Render("Unknown command. Type /help."))
	}
	return false
}

// loadHistory restores the liner history file, if present.
func loadHistory(line *liner.State, path string) {
	if f, err := os.Open(path); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
}

// saveHistory persists the liner history file.
func saveHistory(line *liner.State, path string) {
	if f, err := os.Create(path); err == nil {
		line.WriteHistory(f)
		f.Close()
	}
}
