package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/kalambet/fitai/internal/api"
	"github.com/kalambet/fitai/internal/config"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the local profile API (foreground), or MCP over stdio with --mcp",
	RunE: func(cmd *cobra.Command, args []string) error {
		mcpMode, _ := cmd.Flags().GetBool("mcp")
		return runServer(cmd.Context(), mcpMode)
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the running fitai server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return stopServer()
	},
}

func init() {
	serveCmd.Flags().Bool("mcp", false, "serve MCP on stdin/stdout instead of HTTP")
}

func pidFilePath(dataDir string) string {
	return filepath.Join(dataDir, "fitai.pid")
}

func writePIDFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

func readPIDFile(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}

func removePIDFile(path string) {
	os.Remove(path)
}

func runServer(ctx context.Context, mcpMode bool) error {
	fmt.Fprintf(os.Stderr, "fitai version %s\n", version)

	a, err := openApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	eng, err := a.openEngine(ctx)
	if err != nil {
		return err
	}
	coach := a.coach(eng)

	if mcpMode {
		slog.Info("MCP server started (stdio transport)")
		stdioSrv := server.NewStdioServer(api.NewMCPServer(coach, version))
		if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("MCP server: %w", err)
		}
		return nil
	}

	// Refuse to start twice on the same port.
	pidPath := pidFilePath(a.cfg.Storage.DataDir)
	healthURL := fmt.Sprintf("http://127.0.0.1:%d/health", a.cfg.Server.Port)
	healthClient := &http.Client{Timeout: 2 * time.Second}
	if resp, err := healthClient.Get(healthURL); err == nil {
		resp.Body.Close()
		if pid, pidErr := readPIDFile(pidPath); pidErr == nil {
			printWarning("fitai is already running (PID %d)", pid)
			return fmt.Errorf("server already running (PID %d)", pid)
		}
		printWarning("fitai is already running on port %d", a.cfg.Server.Port)
		return fmt.Errorf("server already running on port %d", a.cfg.Server.Port)
	}
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	defer removePIDFile(pidPath)

	if a.cfg.Server.Token == "" {
		printWarning("server.token is not set; the API accepts any local request")
	}

	addr := fmt.Sprintf("127.0.0.1:%d", a.cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: api.NewAppHandler(api.AppDeps{Coach: coach, Token: a.cfg.Server.Token}),
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		printStep("fitai listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		fmt.Fprintln(os.Stderr, "shutting down...")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func stopServer() error {
	cfg, err := config.Load()
	if err != nil {
		printError("could not load config: %v", err)
		return err
	}

	pidPath := pidFilePath(cfg.Storage.DataDir)
	pid, err := readPIDFile(pidPath)
	if err != nil {
		printError("fitai is not running (no PID file)")
		return fmt.Errorf("not running: %w", err)
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		printError("could not find process %d", pid)
		return err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		printError("could not stop fitai (PID %d): %v", pid, err)
		removePIDFile(pidPath)
		return err
	}

	printSuccess("Sent stop signal to fitai (PID %d)", pid)
	return nil
}
