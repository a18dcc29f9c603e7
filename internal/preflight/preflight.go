package preflight

import (
	"context"
	"fmt"

	"cardsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Detail   string
	Optional bool
}

// Pinger is a remote dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Remote names a Pinger for RunAll.
type Remote struct {
	Name     string
	Pinger   Pinger
	Optional bool
}

// RunAll executes the filesystem checks for cfg and src plus the given
// remote checks.
func RunAll(ctx context.Context, cfg *config.Config, src config.Source, remotes ...Remote) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))

	if cfg.Storage.Backend == config.StorageLocal {
		results = append(results, CheckDirectoryAccess("Storage directory", cfg.Storage.LocalDir))
		results = append(results, CheckFreeSpace("Storage free space", cfg.Storage.LocalDir, cfg.Pipeline.MaxImageBytes*int64(max(cfg.Pipeline.Concurrency, 1))))
	}

	if src.Kind == config.KindJSONFile {
		results = append(results, CheckFileReadable(fmt.Sprintf("Catalog file (%s)", src.Name), src.CatalogFile))
	}

	for _, remote := range remotes {
		if remote.Pinger == nil {
			continue
		}
		res := CheckPing(ctx, remote.Name, remote.Pinger)
		res.Optional = remote.Optional
		results = append(results, res)
	}
	return results
}

// Failed returns the required checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}
