package ollama

import (
	"context"
	"fmt"
	"io"
	"time"
)

// EnsureReady checks that Ollama is running and the chat model is present,
// pulling it if needed, then sends a trivial prompt so the first real
// reply does not pay the model load time.
func EnsureReady(ctx context.Context, c *Client, model string, w io.Writer) error {
	if !c.IsRunning(ctx) {
		return fmt.Errorf("Ollama is not running at %s. Start it with: ollama serve", c.baseURL)
	}

	if c.HasModel(ctx, model) {
		fmt.Fprintf(w, "model %s: ready\n", model)
	} else {
		fmt.Fprintf(w, "model %s: pulling...\n", model)
		err := c.PullModel(ctx, model, func(p PullProgress) {
			if p.Total > 0 {
				fmt.Fprintf(w, "  %s %.0f%%\n", p.Status, float64(p.Completed)/float64(p.Total)*100)
				return
			}
			fmt.Fprintf(w, "  %s\n", p.Status)
		})
		if err != nil {
			return fmt.Errorf("pulling model %s: %w", model, err)
		}
		fmt.Fprintf(w, "model %s: ready\n", model)
	}

	warmCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := c.Chat(warmCtx, model, []Message{{Role: "user", Content: "ping"}}, nil); err != nil {
		fmt.Fprintf(w, "model %s: warm-up failed (non-fatal): %v\n", model, err)
	}
	return nil
}
