// Package pipeline orchestrates the sync, bundle, and drift runs. Each run
// reads its inputs fully, computes a complete output, and writes it
// atomically; there is no incremental state between runs.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/oisplabs/registrar/internal/bundle"
	"github.com/oisplabs/registrar/internal/cache"
	"github.com/oisplabs/registrar/internal/config"
	"github.com/oisplabs/registrar/internal/drift"
	"github.com/oisplabs/registrar/internal/httpclient"
	"github.com/oisplabs/registrar/internal/normalize"
	"github.com/oisplabs/registrar/internal/registry"
	"github.com/oisplabs/registrar/internal/specconf"
	"github.com/oisplabs/registrar/internal/upstream"
	"github.com/oisplabs/registrar/internal/validate"
)

// ExitCode constants for the CLI.
const (
	ExitSuccess = 0
	ExitDrift   = 2 // Drift detected (drift mode)
)

// Pipeline wires the components together for one invocation.
type Pipeline struct {
	cfg      *config.Config
	mappings normalize.Mappings
}

// New creates a new Pipeline with the default mapping tables.
func New(cfg *config.Config) *Pipeline {
	return &Pipeline{cfg: cfg, mappings: normalize.DefaultMappings()}
}

// RegistryPath returns the canonical registry JSON location.
func (p *Pipeline) RegistryPath() string {
	return filepath.Join(p.cfg.GeneratedDir, "models.json")
}

// SyncOptions controls a sync run.
type SyncOptions struct {
	// InputFile loads a local upstream snapshot instead of fetching.
	InputFile string
	// SkipBundle leaves the bundle untouched after the registry write.
	SkipBundle bool
	// Force writes the registry even when no drift was detected.
	Force bool
	// DryRun computes everything but writes nothing.
	DryRun bool
}

// SyncResult reports the outcome of one sync run.
type SyncResult struct {
	Skipped        bool
	SkipReason     string
	Drift          *drift.Report
	TotalModels    int
	Providers      int
	SkippedEntries int
	DuplicateKeys  int
	Summary        []string
	RegistryPath   string
	BundlePath     string
	PRNumber       int
}

// Sync fetches the upstream catalog, normalizes it, and writes the canonical
// registry (plus bundle and optional PR). When the previous registry shows
// no drift against the fresh snapshot, the write is skipped entirely.
func (p *Pipeline) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	res := &SyncResult{RegistryPath: p.RegistryPath()}

	snapshot, err := p.loadUpstream(ctx, opts.InputFile)
	if err != nil {
		return nil, err
	}
	slog.Info("upstream catalog loaded", "entries", len(snapshot))

	if prev, err := registry.Load(p.RegistryPath()); err == nil && !opts.Force {
		rep := drift.Compare(prev, snapshot, p.mappings)
		res.Drift = rep
		if !rep.Changed() {
			slog.Info("no drift against previous registry, skipping sync")
			res.Skipped = true
			res.SkipReason = "no drift"
			return res, nil
		}
	}

	norm := normalize.New(p.mappings).Run(snapshot)
	res.SkippedEntries = norm.Skipped()
	slog.Info("normalization complete",
		"models", len(norm.Records),
		"skipped_sentinel", norm.SkippedSentinel,
		"skipped_size_variant", norm.SkippedVariant,
		"skipped_no_provider", norm.SkippedNoProvider,
		"skipped_malformed", norm.SkippedMalformed)

	reg := registry.Build(norm.Records, p.cfg.Registry.Version, p.cfg.Registry.Source, p.cfg.Upstream.URL, time.Now())
	res.TotalModels = reg.Stats.TotalModels
	res.Providers = reg.Stats.Providers
	res.DuplicateKeys = len(norm.Records) - reg.Stats.TotalModels
	res.Summary = ProviderSummaries(reg)
	if res.DuplicateKeys > 0 {
		slog.Warn("colliding registry keys resolved last-seen-wins", "count", res.DuplicateKeys)
	}

	if valResult := validate.ValidateRegistry(reg); valResult.HasErrors() {
		return nil, fmt.Errorf("registry validation failed:\n%s", validate.FormatResult(valResult))
	}

	if opts.DryRun {
		slog.Info("dry run, skipping writes", "models", res.TotalModels, "providers", res.Providers)
		res.Skipped = true
		res.SkipReason = "dry run"
		return res, nil
	}

	if err := reg.WriteJSON(res.RegistryPath); err != nil {
		return nil, err
	}
	if err := reg.WriteYAML(filepath.Join(p.cfg.GeneratedDir, "models.yaml")); err != nil {
		return nil, err
	}
	slog.Info("registry written", "path", res.RegistryPath,
		"models", res.TotalModels, "providers", res.Providers)

	if !opts.SkipBundle {
		doc, err := p.Bundle()
		if err != nil {
			return nil, err
		}
		res.BundlePath = p.cfg.Bundle.Output
		slog.Info("bundle written", "path", res.BundlePath,
			"providers", len(doc.Providers),
			"domains", len(doc.DomainLookup),
			"patterns", len(doc.DomainPatterns))
	}

	if p.cfg.GitHub.Token != "" && res.Drift != nil {
		prNum, err := p.publishPR(ctx, res.Drift)
		if err != nil {
			return nil, fmt.Errorf("publishing PR: %w", err)
		}
		res.PRNumber = prNum
	}

	return res, nil
}

// Bundle compiles the current registry and provider configs into the bundle
// document and writes it with its minified twin. An absent registry is a
// fatal precondition failure: the compiler never emits an empty bundle.
func (p *Pipeline) Bundle() (*bundle.Document, error) {
	reg, err := registry.Load(p.RegistryPath())
	if err != nil {
		return nil, fmt.Errorf("canonical registry required before compiling: %w", err)
	}

	set, err := specconf.Load(p.cfg.SpecDir)
	if err != nil {
		return nil, err
	}

	doc := bundle.NewCompiler(p.cfg.Bundle.Schema).Compile(reg, set)
	if err := bundle.Write(doc, p.cfg.Bundle.Output); err != nil {
		return nil, err
	}
	return doc, nil
}

// Drift compares the current registry against a fresh upstream snapshot and
// writes the markdown report. The report file is touched even when nothing
// changed.
func (p *Pipeline) Drift(ctx context.Context, inputFile, outputPath string) (*drift.Report, error) {
	current, err := registry.Load(p.RegistryPath())
	if err != nil {
		return nil, err
	}

	snapshot, err := p.loadUpstream(ctx, inputFile)
	if err != nil {
		return nil, err
	}

	rep := drift.Compare(current, snapshot, p.mappings)

	if outputPath == "" {
		outputPath = filepath.Join(p.cfg.DistDir, "model-drift.md")
	}
	if err := drift.WriteReport(rep, outputPath, time.Now()); err != nil {
		return nil, fmt.Errorf("writing drift report: %w", err)
	}

	if rep.Changed() {
		slog.Info("drift detected",
			"new_providers", len(rep.NewProviders),
			"removed_providers", len(rep.RemovedProviders),
			"new_models", len(rep.NewModels),
			"removed_models", len(rep.RemovedModels),
			"pricing_changes", len(rep.PricingChanges),
			"report", outputPath)
	} else {
		slog.Info("no drift detected", "report", outputPath)
	}

	return rep, nil
}

// ProviderSummaries returns "provider: N models" lines for run output,
// sorted by provider id.
func ProviderSummaries(reg *registry.Registry) []string {
	ids := make([]string, 0, len(reg.Providers))
	for id := range reg.Providers {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("%s: %d models", id, reg.Providers[id].ModelCount))
	}
	return lines
}

func (p *Pipeline) loadUpstream(ctx context.Context, inputFile string) (upstream.Catalog, error) {
	if inputFile != "" {
		return upstream.LoadFile(inputFile)
	}

	opts := []httpclient.Option{
		httpclient.WithRateLimit(10),
		httpclient.WithTimeout(p.cfg.UpstreamTimeout()),
	}
	if p.cfg.NoCache {
		opts = append(opts, httpclient.WithNoCache())
	} else {
		ttl, err := time.ParseDuration(p.cfg.CacheTTL)
		if err != nil {
			ttl = time.Hour
		}
		if fc, err := cache.New(p.cfg.CacheDir, ttl); err != nil {
			slog.Warn("failed to create cache, continuing without", "error", err)
		} else {
			opts = append(opts, httpclient.WithCache(fc))
		}
	}

	return upstream.Fetch(ctx, httpclient.New(opts...), p.cfg.Upstream.URL)
}
