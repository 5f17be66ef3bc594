package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/MRenAIAgent/math-content-engine-sub000/internal/providers"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/render"
	"github.com/MRenAIAgent/math-content-engine-sub000/internal/validate"
)

// Loop runs the bounded generate-validate-render cycle. Attempts are
// strictly sequential: each prompt depends on the previous attempt's
// failure, so there is nothing to parallelize.
type Loop struct {
	generator   providers.Generator
	renderer    render.Renderer
	maxAttempts int
	model       string
	logger      *slog.Logger
}

// Run drives the state machine to a terminal state. Failure is
// returned inside the Result; the error return is reserved for fatal
// provider problems (bad credentials) and infrastructure faults, in
// which case the Result is still populated with State Aborted.
func (l *Loop) Run(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	id := req.ID
	if id == "" {
		id = uuid.New().String()
	}
	result := &Result{
		ID:    id,
		Topic: req.Topic,
		State: StatePrompting,
	}

	// Only the most recent failure is carried into the next prompt.
	errorContext := ""

	for attemptNum := 1; attemptNum <= l.maxAttempts; attemptNum++ {
		attempt := Attempt{Number: attemptNum}
		attemptStart := time.Now()

		if err := ctx.Err(); err != nil {
			result.State = StateAborted
			result.ErrorMessage = err.Error()
			result.Duration = time.Since(start)
			return result, err
		}

		result.State = StatePrompting
		prompt := BuildPrompt(req, errorContext)
		l.logger.Info("generating scene source",
			"id", result.ID,
			"attempt", attemptNum,
			"max_attempts", l.maxAttempts,
			"has_error_context", errorContext != "")

		genResult, err := l.generator.Generate(ctx, &providers.GenerateRequest{
			System:    systemPrompt,
			Prompt:    prompt,
			Model:     l.model,
			RequestID: result.ID,
		})
		if err != nil {
			attempt.ProviderError = err.Error()
			attempt.Duration = time.Since(attemptStart)
			result.Attempts = append(result.Attempts, attempt)

			if providers.IsFatal(err) {
				l.logger.Error("provider error is fatal, aborting", "id", result.ID, "error", err)
				result.State = StateAborted
				result.ErrorMessage = err.Error()
				result.Duration = time.Since(start)
				return result, err
			}
			if ctx.Err() != nil {
				result.State = StateAborted
				result.ErrorMessage = ctx.Err().Error()
				result.Duration = time.Since(start)
				return result, ctx.Err()
			}

			l.logger.Warn("provider error, retrying", "id", result.ID, "attempt", attemptNum, "error", err)
			if rle, ok := providers.IsRateLimitError(err); ok && rle.RetryAfter > 0 {
				if waitErr := sleepCtx(ctx, rle.RetryAfter); waitErr != nil {
					result.State = StateAborted
					result.ErrorMessage = waitErr.Error()
					result.Duration = time.Since(start)
					return result, waitErr
				}
			}
			// A transient provider error consumed the attempt but
			// produced no new code feedback; keep the old context.
			continue
		}

		source := ExtractSource(genResult.Text)
		attempt.Source = source

		result.State = StateValidating
		validation := validate.Validate(source)
		if !validation.Valid {
			attempt.ValidationReasons = validation.Reasons
			attempt.Duration = time.Since(attemptStart)
			result.Attempts = append(result.Attempts, attempt)

			errorContext = "The code failed validation: " + validation.ErrorText()
			l.logger.Warn("validation failed",
				"id", result.ID,
				"attempt", attemptNum,
				"reasons", validation.Reasons)
			continue
		}

		sceneName := validate.SceneName(source)

		result.State = StateRendering
		outcome, err := l.renderer.Render(ctx, &render.Job{
			Source:     source,
			SceneName:  sceneName,
			Quality:    req.Quality,
			OutputPath: req.OutputPath,
		})
		if err != nil {
			// Renderer infrastructure faults (scratch dir, artifact
			// placement) are not something a new prompt can fix.
			result.State = StateAborted
			result.ErrorMessage = err.Error()
			attempt.Duration = time.Since(attemptStart)
			result.Attempts = append(result.Attempts, attempt)
			result.Duration = time.Since(start)
			return result, err
		}
		if !outcome.Success {
			attempt.RenderError = outcome.ErrorText
			attempt.Duration = time.Since(attemptStart)
			result.Attempts = append(result.Attempts, attempt)

			errorContext = "The code failed to render: " + outcome.ErrorText
			l.logger.Warn("render failed",
				"id", result.ID,
				"attempt", attemptNum,
				"duration", outcome.Duration)
			continue
		}

		attempt.Duration = time.Since(attemptStart)
		result.Attempts = append(result.Attempts, attempt)
		result.Success = true
		result.State = StateSucceeded
		result.Source = source
		result.SceneName = sceneName
		result.ArtifactPath = outcome.ArtifactPath
		result.Duration = time.Since(start)

		l.logger.Info("generation succeeded",
			"id", result.ID,
			"attempts", attemptNum,
			"artifact", outcome.ArtifactPath,
			"duration", result.Duration)
		return result, nil
	}

	result.State = StateFailed
	result.ErrorMessage = errorContext
	if result.ErrorMessage == "" {
		result.ErrorMessage = "all attempts failed without producing code feedback"
	}
	result.Duration = time.Since(start)

	l.logger.Warn("generation exhausted attempts",
		"id", result.ID,
		"attempts", l.maxAttempts,
		"error", result.ErrorMessage)
	return result, nil
}

// sleepCtx waits for d or until the context is done.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
