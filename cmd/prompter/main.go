// Command prompter runs a script as a teleprompter in the terminal.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/stwalsh4118/prompter/internal/config"
	"github.com/stwalsh4118/prompter/internal/db"
	"github.com/stwalsh4118/prompter/internal/logger"
	"github.com/stwalsh4118/prompter/internal/models"
	"github.com/stwalsh4118/prompter/internal/prompter"
	"github.com/stwalsh4118/prompter/internal/script"
	"github.com/stwalsh4118/prompter/internal/settings"
	"github.com/stwalsh4118/prompter/internal/terminal"
	"golang.org/x/term"
)

const sizePollInterval = 250 * time.Millisecond

func main() {
	var (
		scriptID = flag.String("script", "", "ID of a stored script to present")
		file     = flag.String("file", "", "path of a text file to present")
		logPath  = flag.String("log", "", "write logs to this file")
	)
	flag.Parse()

	if err := run(*scriptID, *file, *logPath); err != nil {
		fmt.Fprintln(os.Stderr, "prompter:", err)
		os.Exit(1)
	}
}

func run(scriptID, file, logPath string) error {
	if (scriptID == "") == (file == "") {
		return errors.New("exactly one of -script or -file is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// The screen belongs to the prompter; logs only go to a file
	if logPath != "" {
		logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer logFile.Close()
		logger.Init(cfg.Logging.Level, false, logFile)
	}

	database, err := db.Open(&cfg.Database)
	if err != nil {
		return err
	}
	defer database.Close()

	repos := db.NewRepositories(database)
	settingsService := settings.NewSettingsService(repos)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	id, content, err := loadScript(ctx, script.NewScriptService(database, repos), scriptID, file)
	if err != nil {
		return err
	}

	current, err := settingsService.Get(ctx)
	if err != nil {
		return err
	}

	var changes <-chan string
	if file != "" {
		watcher, err := terminal.NewFileWatcher(file, 0)
		if err != nil {
			return err
		}
		if err := watcher.Start(); err != nil {
			return err
		}
		defer func() { _ = watcher.Stop() }()
		changes = watcher.Changes()
	}

	return present(ctx, cfg, id, content, *current, settingsService, changes)
}

func loadScript(ctx context.Context, scripts *script.ScriptService, scriptID, file string) (uuid.UUID, string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return uuid.Nil, "", fmt.Errorf("failed to read script file: %w", err)
		}
		return uuid.Nil, string(data), nil
	}

	id, err := uuid.Parse(scriptID)
	if err != nil {
		return uuid.Nil, "", fmt.Errorf("invalid script ID %q", scriptID)
	}
	found, err := scripts.GetByID(ctx, id)
	if err != nil {
		return uuid.Nil, "", err
	}
	return found.ID, found.Content, nil
}

// present runs the prompter until the user quits. Edits arriving on changes
// replace the script text in place.
func present(ctx context.Context, cfg *config.Config, id uuid.UUID, content string, current models.Settings, store terminal.SettingsStore, changes <-chan string) error {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return errors.New("stdin is not a terminal")
	}
	cols, rows, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return fmt.Errorf("failed to read terminal size: %w", err)
	}

	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return fmt.Errorf("failed to enter raw mode: %w", err)
	}
	defer func() { _ = term.Restore(fd, oldState) }()

	surface := terminal.NewSurface(cols, rows, current.FontSize, current.PaddingX)
	renderer := terminal.NewRenderer(os.Stdout)
	if err := renderer.Enter(); err != nil {
		return err
	}
	defer func() { _ = renderer.Exit() }()

	session := prompter.NewSession(id, content, surface, current, prompter.Options{
		FrameInterval:   cfg.Prompter.FrameInterval,
		StatsInterval:   cfg.Prompter.StatsInterval,
		ControlsTimeout: cfg.Prompter.ControlsTimeout,
		OnUpdate: func(snap prompter.Snapshot) {
			if err := renderer.Draw(surface, snap); err != nil {
				logger.Log.Error().Err(err).Msg("Failed to draw prompter")
			}
		},
	})
	defer session.Close()

	controller := terminal.NewController(session, store, current)
	if _, err := session.Activity(); err != nil {
		return err
	}

	input := make(chan []byte)
	go readInput(os.Stdin, input)

	sizeTicker := time.NewTicker(sizePollInterval)
	defer sizeTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-session.Done():
			return nil
		case chunk, ok := <-input:
			if !ok {
				return nil
			}
			for _, action := range terminal.ParseKeys(chunk) {
				quit, err := controller.Handle(ctx, action)
				if err != nil {
					logger.Log.Error().Err(err).Str("action", action.String()).Msg("Key action failed")
				}
				if quit {
					return nil
				}
			}
		case text := <-changes:
			if _, err := session.SetContent(text); err != nil {
				return err
			}
		case <-sizeTicker.C:
			newCols, newRows, err := term.GetSize(int(os.Stdout.Fd()))
			if err != nil || (newCols == cols && newRows == rows) {
				continue
			}
			cols, rows = newCols, newRows
			if _, err := session.Resize(float64(cols), float64(rows)); err != nil {
				return err
			}
		}
	}
}

// readInput forwards raw input chunks until the reader fails
func readInput(r io.Reader, out chan<- []byte) {
	defer close(out)
	buf := make([]byte, 64)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			out <- chunk
		}
		if err != nil {
			return
		}
	}
}
