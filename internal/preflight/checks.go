package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"golang.org/x/sys/unix"

	"voxpost/internal/article"
	"voxpost/internal/config"
	"voxpost/internal/services/llm"
)

// CheckLLM verifies that the LLM API is reachable and the key is valid.
// It uses a 30-second timeout and a single attempt (no retries).
func CheckLLM(ctx context.Context, name string, cfg config.LLM) Result {
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := llm.NewClient(llm.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Referer: cfg.Referer,
		Title:   cfg.Title,
	}, llm.WithRetryMaxAttempts(1))

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeRemoteError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckCredential reports whether an adapter key is configured. The
// transcription and image endpoints have no cheap probe call.
func CheckCredential(name, apiKey string) Result {
	if apiKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}
	return Result{Name: name, Passed: true, Detail: "API key set"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckArticleStore opens and closes the configured article store.
func CheckArticleStore(ctx context.Context, cfg *config.Config) Result {
	name := "Article store (" + cfg.Store.Backend + ")"

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	store, err := article.Open(checkCtx, cfg)
	if err != nil {
		return Result{Name: name, Detail: summarizeRemoteError(err)}
	}
	if err := store.Close(); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("close failed (%v)", err)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// CheckNATS dials the trigger broker and confirms JetStream is enabled.
func CheckNATS(ctx context.Context, queue config.Queue) Result {
	const name = "NATS JetStream"

	nc, err := nats.Connect(queue.NATSURL, nats.Name("voxpost-preflight"), nats.Timeout(5*time.Second))
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", queue.NATSURL, err)}
	}
	defer nc.Close()

	js, err := nc.JetStream()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("jetstream unavailable (%v)", err)}
	}
	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if _, err := js.AccountInfo(nats.Context(checkCtx)); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("jetstream unavailable (%v)", err)}
	}
	if _, err := js.StreamInfo(queue.NATSStream, nats.Context(checkCtx)); errors.Is(err, nats.ErrStreamNotFound) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("stream %s will be created on start", queue.NATSStream)}
	}
	return Result{Name: name, Passed: true, Detail: "Reachable"}
}

// summarizeRemoteError produces a human-readable summary for probe failures.
func summarizeRemoteError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (service unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (service unreachable)"
	}
	return err.Error()
}
