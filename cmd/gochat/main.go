// gochat is a terminal chat client for OpenAI-compatible chat completion APIs.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/atotto/clipboard"
	"github.com/chzyer/readline"
	flag "github.com/spf13/pflag"
	"github.com/tnglemongrass/gochat/internal/chat"
	"github.com/tnglemongrass/gochat/internal/config"
	"github.com/tnglemongrass/gochat/internal/i18n"
	"github.com/tnglemongrass/gochat/internal/logger"
	"github.com/tnglemongrass/gochat/internal/models"
	"github.com/tnglemongrass/gochat/internal/persona"
	"github.com/tnglemongrass/gochat/internal/render"
	"golang.org/x/term"
)

const catalogTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.WithDebug(cfg.Debug), logger.WithPretty(cfg.PrettyLog))
	ctx := context.Background()

	if cfg.APIKey == "" && cfg.Endpoint == config.OfficialEndpoint {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", i18n.NewPrinter(cfg.Language).Text(i18n.NoAPIKeyWarning))
	}

	fd := int(os.Stdout.Fd())
	tty := term.IsTerminal(fd)
	width := 100
	if tty {
		if w, _, err := term.GetSize(fd); err == nil {
			width = w - 4
		}
	}

	p, err := persona.Load(cfg.Persona)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading persona: %v\n", err)
		os.Exit(1)
	}
	if p.HasContent() {
		log.Debug("loaded persona", "source", p.Source)
	}

	session, err := chat.NewSession(cfg, os.Stdout,
		chat.WithLogger(log),
		chat.WithCatalog(loadCatalog(ctx, cfg, log)),
		chat.WithPersona(p),
		chat.WithClipboard(clipboard.WriteAll),
		chat.WithRenderOptions(render.WithWidth(width), render.WithPlain(!tty)),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating session: %v\n", err)
		os.Exit(1)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "gochat> ",
		HistoryFile:     historyPath(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing readline: %v\n", err)
		os.Exit(1)
	}
	defer rl.Close()

	// Ctrl-C outside readline stops the reply being generated.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt)
	defer signal.Stop(sigs)
	go func() {
		for range sigs {
			if session.Interrupt() {
				log.Debug("generation interrupted")
			}
		}
	}()

	fmt.Println("gochat - chat with any OpenAI-compatible API")
	fmt.Printf("Model: %s | Endpoint: %s\n", cfg.Model, cfg.Endpoint)
	fmt.Println("Type /help for commands, /quit to exit. Ctrl-C stops a reply.")

	readInput := func(_ string) (string, error) {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			return "", io.EOF
		}
		return line, err
	}

	if err := session.Run(ctx, readInput); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadCatalog merges the configured model table and registry into the
// built-in catalog. Failures are logged and skipped.
func loadCatalog(ctx context.Context, cfg *config.Config, log *slog.Logger) *models.Catalog {
	catalog := models.Default()
	if cfg.ModelsFile != "" {
		descs, err := models.LoadFile(cfg.ModelsFile)
		if err != nil {
			log.Warn("skipping models file", "path", cfg.ModelsFile, "error", err)
		} else {
			catalog = catalog.Merge(descs)
		}
	}
	if cfg.ModelsURL != "" {
		ctx, cancel := context.WithTimeout(ctx, catalogTimeout)
		defer cancel()
		descs, err := models.NewLoader(cfg.ModelsURL).Load(ctx)
		if err != nil {
			log.Warn("skipping models registry", "url", cfg.ModelsURL, "error", err)
		} else {
			catalog = catalog.Merge(descs)
		}
	}
	return catalog
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	dir := filepath.Join(home, ".gochat")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "history")
}
