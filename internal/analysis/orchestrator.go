// Package analysis runs the mood analysis of a captured plant photo.
package analysis

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/vbonduro/plantasking/internal/domain"
	"github.com/vbonduro/plantasking/internal/prompt"
	"github.com/vbonduro/plantasking/internal/vision"
)

// FailureImageMissing is reported when Run is given an image without pixels.
// No backend call is made in that case.
const FailureImageMissing vision.FailureKind = "image_missing"

// User-facing recommendations returned in place of a parsed one when the
// backend could not answer. The underlying error is only logged.
const (
	RecommendationNetwork      = "Não foi possível falar com a planta agora. Verifique sua conexão e tente novamente."
	RecommendationBackend      = "O serviço de análise está indisponível no momento. Tente novamente em alguns instantes."
	RecommendationImageMissing = "Nenhuma imagem recebida. Tire uma foto da planta para analisar."
)

var failureRecommendations = map[vision.FailureKind]string{
	vision.FailureNetwork:       RecommendationNetwork,
	vision.FailureBackend:       RecommendationBackend,
	vision.FailureEmptyResponse: vision.RecommendationNoAnswer,
	FailureImageMissing:         RecommendationImageMissing,
}

// analyzer is the subset of vision.Client that Orchestrator requires.
type analyzer interface {
	Analyze(ctx context.Context, req vision.Request) vision.Outcome
}

// Result is the outcome of one analysis run. Failure is empty when the
// backend answered, even if the answer could not be classified.
type Result struct {
	vision.AnalysisResult
	Failure vision.FailureKind `json:"failure,omitempty"`
}

func (r Result) Failed() bool {
	return r.Failure != ""
}

type Orchestrator struct {
	ai       analyzer
	timeout  time.Duration
	logger   *slog.Logger
	inFlight atomic.Int64
}

func New(ai analyzer, timeout time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		ai:      ai,
		timeout: timeout,
		logger:  logger.With("module", "analysis"),
	}
}

// Loading reports whether any analysis is currently waiting on the backend.
func (o *Orchestrator) Loading() bool {
	return o.inFlight.Load() > 0
}

// Run classifies the plant's mood in img. It never returns an error: every
// failure is folded into a Result with MoodUnknown and a stable
// recommendation.
func (o *Orchestrator) Run(ctx context.Context, img domain.Image) Result {
	if img.Empty() {
		o.logger.Warn("analysis requested without image")
		return failed(FailureImageMissing)
	}

	o.inFlight.Add(1)
	defer o.inFlight.Add(-1)

	if o.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	start := time.Now()
	out := o.ai.Analyze(ctx, vision.Request{
		Image:  domain.Image{Data: img.Data, MimeType: vision.NormaliseMIME(img.MimeType)},
		Prompt: prompt.BuildAnalysisPrompt(),
	})
	elapsed := time.Since(start).Milliseconds()

	if !out.OK() {
		o.logger.Error("analysis failed",
			"failure", out.Failure,
			"error", out.Err,
			"duration_ms", elapsed,
		)
		return failed(out.Failure)
	}

	res := vision.ParseAnalysis(out.Text)
	o.logger.Info("analysis complete", "mood", res.Mood, "duration_ms", elapsed)
	o.logger.Debug("analysis raw response", "text", out.Text)
	return Result{AnalysisResult: res}
}

func failed(kind vision.FailureKind) Result {
	return Result{
		AnalysisResult: vision.AnalysisResult{
			Mood:           domain.MoodUnknown,
			Recommendation: failureRecommendations[kind],
		},
		Failure: kind,
	}
}
