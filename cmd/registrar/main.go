package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/oisplabs/registrar/internal/config"
	"github.com/oisplabs/registrar/internal/pipeline"
	"github.com/oisplabs/registrar/internal/registry"
	"github.com/oisplabs/registrar/internal/validate"
)

var cfgFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "registrar",
		Short: "Model registry normalizer and spec bundle compiler",
		Long:  "Syncs the canonical model registry from the upstream catalog and compiles the runtime spec bundle.",
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Bypass the HTTP response cache")

	rootCmd.AddCommand(
		syncCmd(),
		bundleCmd(),
		driftCmd(),
		validateCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Full pipeline: fetch → normalize → validate → write → bundle",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			inputFile, _ := cmd.Flags().GetString("input-file")
			noBundle, _ := cmd.Flags().GetBool("no-bundle")
			force, _ := cmd.Flags().GetBool("force")
			dryRun, _ := cmd.Flags().GetBool("dry-run")

			p := pipeline.New(cfg)
			res, err := p.Sync(cmd.Context(), pipeline.SyncOptions{
				InputFile:  inputFile,
				SkipBundle: noBundle,
				Force:      force,
				DryRun:     dryRun,
			})
			if err != nil {
				return err
			}

			if res.Skipped {
				slog.Info("sync skipped", "reason", res.SkipReason)
				return nil
			}

			for _, line := range res.Summary {
				fmt.Println(line)
			}
			slog.Info("sync complete",
				"models", res.TotalModels,
				"providers", res.Providers,
				"skipped_entries", res.SkippedEntries,
				"duplicate_keys", res.DuplicateKeys)
			if res.PRNumber > 0 {
				slog.Info("PR opened", "pr", res.PRNumber)
			}
			return nil
		},
	}

	cmd.Flags().String("input-file", "", "Local upstream snapshot instead of fetching")
	cmd.Flags().Bool("no-bundle", false, "Skip bundle compilation after the registry write")
	cmd.Flags().Bool("force", false, "Write even when no drift is detected")
	cmd.Flags().Bool("dry-run", false, "Show what would change without writing")

	return cmd
}

func bundleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Compile the spec bundle from the registry and provider configs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if output, _ := cmd.Flags().GetString("output"); output != "" {
				cfg.Bundle.Output = output
			}

			p := pipeline.New(cfg)
			doc, err := p.Bundle()
			if err != nil {
				return err
			}

			slog.Info("bundle written",
				"path", cfg.Bundle.Output,
				"providers", len(doc.Providers),
				"models", doc.Stats.TotalModels,
				"domains", len(doc.DomainLookup),
				"patterns", len(doc.DomainPatterns))
			return nil
		},
	}

	cmd.Flags().String("output", "", "Bundle output path (default: from config)")

	return cmd
}

func driftCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drift",
		Short: "Compare the registry against upstream and write a report",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			inputFile, _ := cmd.Flags().GetString("input-file")
			output, _ := cmd.Flags().GetString("output")

			p := pipeline.New(cfg)
			rep, err := p.Drift(cmd.Context(), inputFile, output)
			if err != nil {
				return err
			}

			if rep.Changed() {
				os.Exit(pipeline.ExitDrift)
			}
			return nil
		},
	}

	cmd.Flags().String("input-file", "", "Local upstream snapshot instead of fetching")
	cmd.Flags().String("output", "", "Report output path (default: <dist_dir>/model-drift.md)")

	return cmd
}

func validateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the generated registry (CI check)",
		RunE: func(cmd *cobra.Command, args []string) error {
			registryPath, _ := cmd.Flags().GetString("registry-path")
			if registryPath == "" {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				registryPath = pipeline.New(cfg).RegistryPath()
			}

			reg, err := registry.Load(registryPath)
			if err != nil {
				return fmt.Errorf("loading registry: %w", err)
			}

			result := validate.ValidateRegistry(reg)
			fmt.Println(validate.FormatResult(result))

			if result.HasErrors() {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().String("registry-path", "", "Path to generated registry (default: from config)")

	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	setupLogging(cfg.LogLevel)
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.NoCache = true
	}
	return cfg, nil
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
