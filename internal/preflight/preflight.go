package preflight

import (
	"context"

	"voxpost/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// Options selects the checks that talk to remote services.
type Options struct {
	// Remote enables the LLM probe call, which spends a small completion.
	Remote bool
}

// RunAll executes the checks that apply to cfg.
func RunAll(ctx context.Context, cfg *config.Config, opts Options) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckArticleStore(ctx, cfg),
	}

	if cfg.Queue.Transport == config.TransportNATS {
		results = append(results, CheckNATS(ctx, cfg.Queue))
	}

	if opts.Remote {
		results = append(results, CheckLLM(ctx, "Content LLM", cfg.LLM))
	} else {
		results = append(results, CheckCredential("Content LLM", cfg.LLM.APIKey))
	}
	results = append(results,
		CheckCredential("Transcription", cfg.Transcription.APIKey),
		CheckCredential("Image generation", cfg.Images.APIKey),
	)
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
