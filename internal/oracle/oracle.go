package oracle

import (
	"context"
	"errors"
	"fmt"

	"github.com/dvloznov/telegrana/internal/logger"
)

var (
	// ErrUnavailable is returned when no backend produced a response.
	ErrUnavailable = errors.New("intent oracle unavailable")
	// ErrQuotaExceeded marks a backend error that should advance to the next
	// model instead of failing the request.
	ErrQuotaExceeded = errors.New("model quota exceeded")
)

// Backend generates a raw text response for a prompt with the named model.
type Backend interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Classifier is implemented by Oracle and by test fakes.
type Classifier interface {
	Classify(ctx context.Context, text string, h Hints) (Intent, error)
}

// Oracle classifies messages with one backend call, trying models in order.
type Oracle struct {
	backend Backend
	models  []string
}

// New creates an oracle that tries models in the given order.
func New(backend Backend, models []string) *Oracle {
	return &Oracle{backend: backend, models: append([]string(nil), models...)}
}

// Classify returns the intent for text. A quota error moves on to the next
// model; any other backend error stops immediately. Unparsable output is
// reported as Other.
func (o *Oracle) Classify(ctx context.Context, text string, h Hints) (Intent, error) {
	log := logger.FromContext(ctx)
	prompt := BuildPrompt(text, h)

	var lastErr error
	for _, model := range o.models {
		raw, err := o.backend.Generate(ctx, model, prompt)
		if err != nil {
			if errors.Is(err, ErrQuotaExceeded) {
				log.Warn().Err(err).Str("model", model).Msg("Model quota exhausted, trying next model")
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("Classify: model %s: %w: %w", model, ErrUnavailable, err)
		}

		intent, err := Decode(raw)
		if err != nil {
			log.Warn().Err(err).Str("model", model).Str("raw", raw).Msg("Discarding unparsable model output")
			return Other{}, nil
		}
		log.Debug().Str("model", model).Str("intent", string(intent.Kind())).Msg("Message classified")
		return intent, nil
	}

	if lastErr == nil {
		return nil, fmt.Errorf("Classify: no models configured: %w", ErrUnavailable)
	}
	return nil, fmt.Errorf("Classify: all %d models exhausted: %w: %w", len(o.models), ErrUnavailable, lastErr)
}

var _ Classifier = (*Oracle)(nil)
