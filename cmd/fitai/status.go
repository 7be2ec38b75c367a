package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/kalambet/fitai/internal/engine"
	"github.com/kalambet/fitai/internal/ollama"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show fitai system status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func showStatus(ctx context.Context) error {
	a, err := openApp()
	if err != nil {
		// Still show partial status even if config fails.
		printError("config error: %v", err)
		return nil
	}
	defer a.Close()
	cfg := a.cfg

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(fmt.Sprintf("http://127.0.0.1:%d/health", cfg.Server.Port))
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	printStatus("Provider", "%s", cfg.Model.Provider)
	printStatus("Chat model", "%s", cfg.ChatModel())

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	switch {
	case cfg.Model.Provider == engine.ProviderOllama:
		oc := ollama.New(cfg.Ollama.BaseURL)
		if !oc.IsRunning(checkCtx) {
			printStatus("Ollama", "not running at %s", cfg.Ollama.BaseURL)
			break
		}
		printStatus("Ollama", "running at %s", cfg.Ollama.BaseURL)
		if oc.HasModel(checkCtx, cfg.Ollama.Model) {
			printStatus("Model", "%s available", cfg.Ollama.Model)
		} else {
			printStatus("Model", "%s not pulled (run `fitai chat` to pull it)", cfg.Ollama.Model)
		}
	default:
		eng, err := a.openEngine(checkCtx)
		if err != nil {
			printStatus("Model", "unavailable: %v", err)
			break
		}
		if eng.IsRunning(checkCtx) {
			printStatus("Model", "reachable")
		} else {
			printStatus("Model", "not reachable")
		}
	}

	refs, err := a.store.ListProfiles(ctx)
	if err == nil {
		printStatus("Profiles", "%d", len(refs))
	}
	printStatus("Data dir", "%s", cfg.Storage.DataDir)
	return nil
}
