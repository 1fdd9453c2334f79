package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"resume-analyzer/internal/analysis"
	"resume-analyzer/internal/extract"
	"resume-analyzer/internal/llm"
	"resume-analyzer/internal/llm/gemini"
	"resume-analyzer/internal/llm/openai"
	"resume-analyzer/internal/services/health"
	"resume-analyzer/internal/shared/config"
	"resume-analyzer/internal/shared/server"
	"resume-analyzer/internal/shared/storage/scratch"
	"resume-analyzer/internal/shared/telemetry"
)

const defaultOpenAIModel = "gpt-4o-mini"

// App holds the wired dependencies of the service.
type App struct {
	Config          config.Config
	Router          *gin.Engine
	Scratch         *scratch.Store
	LLM             *llm.Guard
	AnalysisService *analysis.Service
	AnalysisHandler *analysis.Handler
	Health          *health.Service
}

// Build wires the analysis pipeline and the HTTP router from cfg.
func Build(ctx context.Context, cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}

	provider, err := buildLLM(ctx, cfg)
	if err != nil {
		return nil, err
	}
	guard := llm.NewGuard(provider, llm.GuardConfig{
		Name:         "llm-" + cfg.LLMProvider,
		Enabled:      cfg.Breaker.Enabled,
		MaxRequests:  cfg.Breaker.MaxRequests,
		Interval:     cfg.Breaker.Interval,
		Timeout:      cfg.Breaker.Timeout,
		MinRequests:  cfg.Breaker.MinRequests,
		FailureRatio: cfg.Breaker.FailureRatio,
	})

	analyzer, err := analysis.NewLLMAnalyzer(guard, cfg.PromptVersion)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config:  cfg,
		Scratch: scratch.New(cfg.ScratchDir),
		LLM:     guard,
		Health:  health.NewService(cfg.LLMProvider, guard),
	}
	app.AnalysisService = &analysis.Service{
		Scratch:   app.Scratch,
		Extractor: extract.NewFileExtractor(),
		Analyzer:  analyzer,
		Timeout:   cfg.AnalysisTimeout,
	}
	app.AnalysisHandler = analysis.NewHandler(app.AnalysisService, cfg.MaxUploadBytes)
	app.Router = server.NewRouter(server.RouterDeps{
		Config:   cfg,
		Analysis: app.AnalysisHandler,
		Health:   app.Health,
	})

	telemetry.Info("bootstrap.ready", map[string]any{
		"env":            cfg.Env,
		"llm_provider":   cfg.LLMProvider,
		"llm_model":      cfg.LLMModel,
		"prompt_version": cfg.PromptVersion,
		"scratch_dir":    app.Scratch.Dir(),
		"breaker":        guard.State(),
	})
	return app, nil
}

func buildLLM(ctx context.Context, cfg config.Config) (llm.Client, error) {
	switch cfg.LLMProvider {
	case "openai":
		model := cfg.LLMModel
		if model == "" {
			model = defaultOpenAIModel
		}
		client, err := openai.NewClient(cfg.OpenAIAPIKey, model, cfg.OpenAIBaseURL)
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		return client, nil
	case "gemini":
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.LLMModel)
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return client, nil
	default:
		telemetry.Warn("bootstrap.llm_not_configured", map[string]any{"provider": cfg.LLMProvider})
		return llm.PlaceholderClient{}, nil
	}
}
