package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/snaptoflash/backend/apimodels"
	"github.com/snaptoflash/backend/internal/analyzer"
	"github.com/snaptoflash/backend/internal/config"
	"github.com/snaptoflash/backend/internal/export"
	"github.com/snaptoflash/backend/internal/llm"
	"github.com/snaptoflash/backend/internal/logging"
	"github.com/snaptoflash/backend/internal/metrics"
	"github.com/snaptoflash/backend/internal/server"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP relay",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			m := metrics.New()
			a, err := buildAnalyzer(cfg, m)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(*cfg, a, m)
			if err := srv.Run(ctx); err != nil {
				slog.Error("Server failed", "error", err)
				return err
			}
			slog.Info("Server stopped")
			return nil
		},
	}
}

func analyzeCmd() *cobra.Command {
	var (
		pageID string
		format string
	)
	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze one page image and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "json", "csv":
			default:
				return fmt.Errorf("unknown format %q", format)
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := buildAnalyzer(cfg, metrics.New())
			if err != nil {
				return err
			}

			image, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read image: %w", err)
			}
			req := apimodels.AnalysisRequest{
				Image:    image,
				Filename: filepath.Base(args[0]),
				PageID:   strings.TrimSpace(pageID),
			}

			resp := analyzeOrStub(cmd.Context(), a, req)
			if format == "csv" {
				return export.WriteCSV(cmd.OutOrStdout(), resp.Notes)
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().StringVar(&pageID, "page-id", "", "Page id to report (defaults to the file name)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or csv")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Log.Level = level
	}
	if err := logging.Setup(os.Stderr, cfg.Log.Level, cfg.Log.JSON); err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}
	return cfg, nil
}

// buildAnalyzer leaves the provider nil when no credential is configured so
// the analyzer runs in stub-only mode.
func buildAnalyzer(cfg *config.Config, m *metrics.Metrics) (*analyzer.Analyzer, error) {
	var provider llm.Provider
	if cfg.OpenAI.Enabled() {
		p, err := llm.NewOpenAI(&cfg.OpenAI)
		if err != nil {
			return nil, fmt.Errorf("failed to create LLM provider: %w", err)
		}
		provider = p
	} else {
		slog.Warn("OPENAI_API_KEY not set; serving stub responses only")
	}

	a, err := analyzer.New(provider,
		analyzer.WithLLMOptions(
			llm.WithModel(cfg.OpenAI.Model),
			llm.WithMaxTokens(cfg.OpenAI.MaxTokens),
		),
		analyzer.WithLatencyObserver(m.ObserveLLM),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create analyzer: %w", err)
	}
	return a, nil
}

func analyzeOrStub(ctx context.Context, a *analyzer.Analyzer, req apimodels.AnalysisRequest) *apimodels.AnalysisResponse {
	pageID := req.EffectivePageID()
	resp, err := a.Analyze(ctx, req)
	if err == nil {
		return resp
	}
	var aerr *analyzer.Error
	if errors.As(err, &aerr) && aerr.Kind == analyzer.KindConfigurationAbsent {
		return analyzer.Stub(pageID, analyzer.WarningNoCredential)
	}
	slog.Error("Page analysis failed; returning stub", "page_id", pageID, "error", err)
	return analyzer.Stub(pageID, analyzer.FailureWarning(err))
}
