package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/study-buddy-core/server/internal/agent/graph"
	"github.com/study-buddy-core/server/internal/agent/model"
	errx "github.com/study-buddy-core/server/internal/core/error"
)

const greeting = "Hi! I'm ready to study."

var errQuit = errors.New("quit")

type noteUploader interface {
	Upload(ctx context.Context, userID, filename string, data []byte) (int, error)
}

// Terminal is the interactive study buddy on stdin/stdout.
type Terminal struct {
	runner  graph.Runner
	history model.HistoryStore
	notes   noteUploader
	in      *bufio.Scanner
	out     io.Writer
	clock   clockwork.Clock
	saveDir string
}

// NewTerminal builds a terminal; notes may be nil to disable /upload and /ask.
func NewTerminal(runner graph.Runner, history model.HistoryStore, notes noteUploader, in io.Reader, out io.Writer, clock clockwork.Clock) *Terminal {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Terminal{
		runner:  runner,
		history: history,
		notes:   notes,
		in:      bufio.NewScanner(in),
		out:     out,
		clock:   clock,
		saveDir: ".",
	}
}

func (t *Terminal) printf(format string, args ...any) {
	fmt.Fprintf(t.out, format, args...)
}

// readLine returns io.EOF when input is exhausted.
func (t *Terminal) readLine(prompt string) (string, error) {
	t.printf("%s", prompt)
	if !t.in.Scan() {
		if err := t.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(t.in.Text()), nil
}

// Run loops over persona selection until the user quits or input ends.
func (t *Terminal) Run(ctx context.Context) error {
	t.printf("\n🎓 Study Buddy AI – Terminal Edition\n%s\n", strings.Repeat("=", 60))
	for {
		t.printf("\nSelect your study buddy mode:\n")
		for _, p := range model.Personas() {
			t.printf("  %s. %s %s\n", p.ID, p.Emoji, p.Name)
		}
		t.printf("  q. Quit\n\n")

		choice, err := t.readLine("Enter choice (1-3 or 'q' to quit): ")
		if err != nil {
			return t.finish(err)
		}
		choice = strings.ToLower(choice)
		if choice == "q" {
			t.printf("👋 Goodbye!\n")
			return nil
		}
		if !model.IsPersona(choice) {
			t.printf("❌ Invalid selection. Please choose 1, 2, or 3.\n")
			continue
		}

		userID, err := t.readLine("Enter your user ID: ")
		if err != nil {
			return t.finish(err)
		}
		if userID == "" || strings.ContainsAny(userID, " \t") {
			t.printf("❌ Invalid user ID.\n")
			continue
		}

		sessionID := fmt.Sprintf("session_%s_%s", userID, t.clock.Now().Format("20060102150405"))
		if err := t.chat(ctx, model.ResolvePersona(choice), userID, sessionID); err != nil {
			return t.finish(err)
		}
	}
}

func (t *Terminal) finish(err error) error {
	if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
		t.printf("\n👋 Goodbye!\n")
		return nil
	}
	return err
}

// chat runs one persona session. It returns nil on /exit and errQuit on /quit.
func (t *Terminal) chat(ctx context.Context, persona model.Persona, userID, sessionID string) error {
	t.printf("\n✨ Chatting with %s %s. Type your message or a command.\n\n", persona.Emoji, persona.Name)
	t.printf("Available commands:\n" +
		"  /upload <path>  - Upload notes from a file\n" +
		"  /ask <question> - Ask a question using your uploaded notes\n" +
		"  /clear          - Clear the conversation history\n" +
		"  /save           - Save the conversation to a file\n" +
		"  /exit           - Exit to persona selection\n" +
		"  /quit           - Quit the application\n\n")

	t.say(ctx, persona, userID, sessionID, greeting, false)

	for {
		line, err := t.readLine("You: ")
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}
		cmd, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		switch cmd {
		case "/quit":
			return errQuit
		case "/exit":
			return nil
		case "/clear":
			if err := t.history.Delete(ctx, sessionID); err != nil && !errors.Is(err, model.ErrHistoryNotFound) {
				t.printf("❌ Failed to clear conversation: %v\n", err)
				continue
			}
			t.printf("🧹 Conversation cleared.\n\n")
		case "/save":
			name, err := t.save(ctx, persona, sessionID)
			if err != nil {
				t.printf("❌ Failed to save conversation: %v\n", err)
				continue
			}
			t.printf("💾 Conversation saved to %s\n\n", name)
		case "/upload":
			if arg == "" {
				t.printf("❗ Usage: /upload <path>\n")
				continue
			}
			t.upload(ctx, userID, strings.Trim(arg, `"`))
		case "/ask":
			if arg == "" {
				t.printf("❗ Usage: /ask <question>\n")
				continue
			}
			t.say(ctx, persona, userID, sessionID, arg, t.notes != nil)
		default:
			t.say(ctx, persona, userID, sessionID, line, false)
		}
	}
}

func (t *Terminal) say(ctx context.Context, persona model.Persona, userID, sessionID, message string, useNotes bool) {
	res, err := t.runner.Invoke(ctx, model.QueryInput{
		SessionID: sessionID,
		UserID:    userID,
		Message:   message,
		Persona:   persona.ID,
		UseNotes:  useNotes,
	})
	if err != nil {
		t.printf("❌ %s: %v\n\n", persona.Name, err)
		return
	}
	t.printf("%s %s: %s\n\n", persona.Emoji, persona.Name, res.Reply)
}

func (t *Terminal) upload(ctx context.Context, userID, path string) {
	if t.notes == nil {
		t.printf("❌ Note upload needs GEMINI_API_KEY for embeddings.\n")
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.printf("❌ File not found: %s\n", path)
		return
	}
	n, err := t.notes.Upload(ctx, userID, filepath.Base(path), data)
	if err != nil {
		t.printf("❌ Failed to extract text: %s\n", errx.MessageOf(err))
		return
	}
	t.printf("📄 Uploaded and stored %d chunks from %s\n\n", n, path)
}

// save writes the session transcript to study_session_<id>_<timestamp>.txt.
func (t *Terminal) save(ctx context.Context, persona model.Persona, sessionID string) (string, error) {
	var messages []model.Message
	h, err := t.history.Get(ctx, sessionID)
	switch {
	case err == nil:
		messages = h.Messages
	case !errors.Is(err, model.ErrHistoryNotFound):
		return "", err
	}

	now := t.clock.Now()
	var b strings.Builder
	fmt.Fprintf(&b, "Study Buddy Session - %s\n", persona.Name)
	fmt.Fprintf(&b, "Date: %s\n", now.Format("2006-01-02 15:04:05"))
	b.WriteString(strings.Repeat("=", 60) + "\n\n")
	for _, m := range messages {
		speaker := persona.Name
		if m.IsUser {
			speaker = "You"
		}
		fmt.Fprintf(&b, "%s: %s\n\n", speaker, m.Text)
	}

	name := filepath.Join(t.saveDir, fmt.Sprintf("study_session_%s_%s.txt", sessionID, now.Format("20060102_150405")))
	if err := os.WriteFile(name, []byte(b.String()), 0o644); err != nil {
		return "", err
	}
	return name, nil
}
