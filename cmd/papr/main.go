package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/papr-project/papr/internal/auth"
	"github.com/papr-project/papr/internal/backend"
	"github.com/papr-project/papr/internal/citation"
	"github.com/papr-project/papr/internal/dashboard"
	"github.com/papr-project/papr/internal/foldersync"
	"github.com/papr-project/papr/internal/preview"
	"github.com/papr-project/papr/internal/search"
	"github.com/papr-project/papr/internal/themeapi"
	"github.com/papr-project/papr/internal/token"
	"github.com/papr-project/papr/internal/tui"
)

const defaultGraphQLEndpoint = "http://localhost:4000/graphql"

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	// A .env next to the binary overrides nothing already in the environment.
	_ = godotenv.Load()

	graphqlEndpoint := flag.String("graphql", envOr("PAPR_GRAPHQL_ENDPOINT", defaultGraphQLEndpoint), "GraphQL endpoint URL")
	apiBase := flag.String("api", os.Getenv("PAPR_API_URL"), "REST base URL for uploads (defaults to the GraphQL host)")
	tokenPath := flag.String("token-file", os.Getenv("PAPR_TOKEN_FILE"), "path to the persisted auth token")
	themeAddr := flag.String("theme-addr", os.Getenv("PAPR_THEME_ADDR"), "listen address for the local theme endpoint (empty disables it)")
	themeURL := flag.String("theme-url", os.Getenv("PAPR_THEME_URL"), "base URL of an external theme endpoint")
	noAltScreen := flag.Bool("no-alt-screen", false, "disable the alternate screen buffer")
	flag.Parse()

	if err := run(*graphqlEndpoint, *apiBase, *tokenPath, *themeAddr, *themeURL, *noAltScreen); err != nil {
		fmt.Fprintln(os.Stderr, "papr:", err)
		os.Exit(1)
	}
}

func run(graphqlEndpoint, apiBase, tokenPath, themeAddr, themeURL string, noAltScreen bool) error {
	if os.Getenv("PAPR_DEBUG") != "" {
		logFile, err := tea.LogToFile("papr-debug.log", "papr")
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer logFile.Close()
	} else {
		// The TUI owns the terminal; stray log output would corrupt it.
		log.SetOutput(io.Discard)
	}

	if apiBase == "" {
		apiBase = strings.TrimSuffix(graphqlEndpoint, "/graphql")
	}
	if tokenPath == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return fmt.Errorf("resolve config dir: %w", err)
		}
		tokenPath = filepath.Join(configDir, "papr", "token")
	}
	if err := os.MkdirAll(filepath.Dir(tokenPath), 0o700); err != nil {
		return fmt.Errorf("create token dir: %w", err)
	}

	client := backend.New(backend.Config{
		Endpoint: graphqlEndpoint,
		APIBase:  apiBase,
	})
	store := token.NewStore(tokenPath)

	session := auth.New(client, store, nil)
	form := auth.NewForm(client, session, auth.ModeLogin, nil)
	searcher := search.New(client, session, nil)
	library := dashboard.New(client, nil)
	citations := citation.New(nil)

	syncer := foldersync.New(searcher, library)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	syncer.Start(ctx)
	defer syncer.Close()

	fetcher, err := preview.NewFetcher(nil)
	if err != nil {
		return fmt.Errorf("init preview cache: %w", err)
	}

	themeClient, themeServer, err := wireTheme(themeAddr, themeURL)
	if err != nil {
		return err
	}
	if themeServer != nil {
		go func() {
			if serveErr := themeServer.Start(); serveErr != nil {
				log.Printf("theme endpoint stopped: %v", serveErr)
			}
		}()
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer shutdownCancel()
			_ = themeServer.Stop(shutdownCtx)
		}()
	}

	opts := []tea.ProgramOption{}
	if !noAltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Backend:   client,
			Session:   session,
			Form:      form,
			Search:    searcher,
			Dashboard: library,
			Citations: citations,
			Syncer:    syncer,
			Preview:   fetcher,
			Theme:     themeClient,
			OpenURL:   openURL,
		}),
		opts...,
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}

// wireTheme picks between an external theme endpoint and a locally hosted
// one. With neither configured the theme toggle stays purely client-side.
func wireTheme(themeAddr, themeURL string) (*themeapi.Client, *themeapi.Server, error) {
	if themeURL != "" {
		return themeapi.NewClient(themeURL, nil), nil, nil
	}
	if themeAddr == "" {
		return nil, nil, nil
	}
	logger, err := themeLogger()
	if err != nil {
		return nil, nil, err
	}
	server := themeapi.NewServer(themeAddr, logger)
	base := themeAddr
	if strings.HasPrefix(base, ":") {
		base = "localhost" + base
	}
	return themeapi.NewClient("http://"+base, nil), server, nil
}

func themeLogger() (*zap.Logger, error) {
	if os.Getenv("PAPR_DEBUG") == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{"papr-theme.log"}
	cfg.ErrorOutputPaths = []string{"papr-theme.log"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build theme logger: %w", err)
	}
	return logger, nil
}

func openURL(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
