package app

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"gymos/internal/domain"
	"gymos/internal/logging"
	"gymos/internal/metrics"

	"go.uber.org/zap"
)

const scanPrompt = `Identify this food. Estimate calories and protein.
Return ONLY valid JSON. Format: { "food_name": "string", "calories": number, "protein": number }`

var scanMIMETypes = []string{"image/jpeg", "image/png", "image/webp"}

// FoodEstimate is the nutrition estimate for a photographed meal.
type FoodEstimate struct {
	FoodName string `json:"foodName"`
	Calories int    `json:"calories"`
	Protein  int    `json:"protein"`
}

type foodReply struct {
	FoodName looseText `json:"food_name"`
	Calories quantity  `json:"calories"`
	Protein  quantity  `json:"protein"`
}

// FoodScannerConfig bounds image size and completion calls.
type FoodScannerConfig struct {
	Timeout     time.Duration
	CallCeiling time.Duration
	MaxBytes    int
}

// FoodScanner estimates nutrition from a meal photo via the vision variant
// of the completion service. There is no substitute estimate: AI failures
// are returned to the caller.
type FoodScanner struct {
	ai      domain.Completer
	cfg     FoodScannerConfig
	metrics *metrics.Recorder
	log     *zap.Logger
}

// NewFoodScanner creates a FoodScanner. A nil completer makes every scan
// fail with domain.ErrAIUnavailable.
func NewFoodScanner(ai domain.Completer, cfg FoodScannerConfig, m *metrics.Recorder, log *zap.Logger) *FoodScanner {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.CallCeiling < cfg.Timeout {
		cfg.CallCeiling = cfg.Timeout
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 4 << 20
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &FoodScanner{ai: ai, cfg: cfg, metrics: m, log: log}
}

// MaxBytes is the largest accepted image.
func (s *FoodScanner) MaxBytes() int { return s.cfg.MaxBytes }

// Scan estimates the food in image.
func (s *FoodScanner) Scan(ctx context.Context, caller domain.Caller, image []byte, mimeType string) (FoodEstimate, error) {
	if caller.MemberID == "" {
		return FoodEstimate{}, domain.ErrNotAuthorized
	}
	mimeType = strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))
	switch {
	case len(image) == 0:
		return FoodEstimate{}, fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	case len(image) > s.cfg.MaxBytes:
		return FoodEstimate{}, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidInput, s.cfg.MaxBytes)
	case !slices.Contains(scanMIMETypes, mimeType):
		return FoodEstimate{}, fmt.Errorf("%w: unsupported image type %q", domain.ErrInvalidInput, mimeType)
	}
	if s.ai == nil {
		return FoodEstimate{}, fmt.Errorf("%w: completion service not configured", domain.ErrAIUnavailable)
	}

	log := logging.FromContext(ctx, s.log)
	r := awaitCompletion(ctx, s.cfg.Timeout, s.cfg.CallCeiling,
		func(callCtx context.Context) (string, error) {
			return s.ai.CompleteWithImage(callCtx, scanPrompt, image, mimeType)
		},
		func(late completionReply) {
			log.Info("late scan completion discarded", zap.Duration("elapsed", late.elapsed))
		})
	if r.err != nil {
		log.Warn("food scan failed", zap.String("reason", failureReason(r.err)), zap.Error(r.err))
		if errors.Is(r.err, domain.ErrAIUnavailable) || errors.Is(r.err, domain.ErrAIMalformed) {
			return FoodEstimate{}, r.err
		}
		return FoodEstimate{}, fmt.Errorf("%w: %w", domain.ErrAIUnavailable, r.err)
	}
	s.metrics.CompletionLatency("scan", r.elapsed)

	raw, err := decodeReply[foodReply](r.text)
	if err == nil && strings.TrimSpace(string(raw.FoodName)) == "" {
		err = &ReplyParseError{Stage: StageValidate, Err: errors.New("reply has no food name")}
	}
	if err != nil {
		log.Warn("food scan reply malformed", zap.Error(err))
		return FoodEstimate{}, err
	}
	return FoodEstimate{
		FoodName: strings.TrimSpace(string(raw.FoodName)),
		Calories: int(raw.Calories),
		Protein:  int(raw.Protein),
	}, nil
}
