package suite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"storefront_e2e/application/storefront"
	"storefront_e2e/domain/entities"
	"storefront_e2e/domain/interfaces"
)

// ErrPageErrors - the page raised script errors the noise filter did not ignore
var ErrPageErrors = errors.New("uncaught page errors")

// RunnerOptions tunes the runner
type RunnerOptions struct {
	// Retries is how many times a failed scenario is run again
	Retries int
	// ScenarioTimeout bounds one attempt, zero means no bound
	ScenarioTimeout time.Duration
}

// Runner executes scenarios one at a time, each attempt on a fresh page
type Runner struct {
	browser interfaces.Browser
	helpers *storefront.Helpers
	store   interfaces.ReportStore
	noise   interfaces.NoiseFilter
	logger  *logrus.Logger
	opts    RunnerOptions
}

// NewRunner - creates a runner; store and noise may be nil
func NewRunner(browser interfaces.Browser, helpers *storefront.Helpers, store interfaces.ReportStore, noise interfaces.NoiseFilter, logger *logrus.Logger, opts RunnerOptions) *Runner {
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	return &Runner{
		browser: browser,
		helpers: helpers,
		store:   store,
		noise:   noise,
		logger:  logger,
		opts:    opts,
	}
}

// Run executes scenarios serially and saves the report. The returned error
// is about the run itself; scenario failures are in the report.
func (r *Runner) Run(ctx context.Context, scenarios []Definition) (*entities.RunReport, error) {
	report := &entities.RunReport{
		ID:        uuid.NewString(),
		BaseURL:   r.helpers.Options().BaseURL,
		Driver:    r.browser.Name(),
		StartedAt: time.Now(),
	}
	r.logger.WithFields(logrus.Fields{
		"run":       report.ID,
		"scenarios": len(scenarios),
		"driver":    report.Driver,
	}).Info("suite started")

	for _, sc := range scenarios {
		if ctx.Err() != nil {
			report.Results = append(report.Results, entities.ScenarioResult{
				ScenarioID: sc.ID,
				Status:     entities.ScenarioSkipped,
				Error:      ctx.Err().Error(),
			})
			continue
		}
		report.Results = append(report.Results, r.RunScenario(ctx, report.ID, sc))
	}
	report.FinishedAt = time.Now()

	r.logger.WithFields(logrus.Fields{
		"run":     report.ID,
		"passed":  report.Count(entities.ScenarioPassed),
		"failed":  report.Count(entities.ScenarioFailed),
		"skipped": report.Count(entities.ScenarioSkipped),
	}).Info("suite finished")

	if r.store != nil {
		if err := r.store.SaveReport(report); err != nil {
			return report, fmt.Errorf("failed to save report: %w", err)
		}
	}
	return report, nil
}

// RunScenario runs one scenario, retrying a failure up to the configured bound
func (r *Runner) RunScenario(ctx context.Context, runID string, sc Definition) entities.ScenarioResult {
	var result entities.ScenarioResult
	for attempt := 1; attempt <= r.opts.Retries+1; attempt++ {
		result = r.attempt(ctx, runID, sc, attempt)
		result.Attempts = attempt
		if result.Status == entities.ScenarioPassed || ctx.Err() != nil {
			break
		}
	}
	return result
}

func (r *Runner) attempt(ctx context.Context, runID string, sc Definition, attempt int) entities.ScenarioResult {
	log := r.logger.WithFields(logrus.Fields{"scenario": sc.ID, "attempt": attempt})
	log.Info("scenario started")
	start := time.Now()
	result := entities.ScenarioResult{ScenarioID: sc.ID, Status: entities.ScenarioRunning}

	if r.opts.ScenarioTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.ScenarioTimeout)
		defer cancel()
	}

	page, err := r.browser.NewPage(ctx)
	if err != nil {
		result.Status = entities.ScenarioFailed
		result.Error = fmt.Sprintf("open page: %v", err)
		result.Duration = time.Since(start)
		log.Errorf("scenario failed: %s", result.Error)
		return result
	}
	defer func() {
		if err := page.Close(); err != nil {
			log.Warnf("Failed to close page: %v", err)
		}
	}()

	var mu sync.Mutex
	var pageErrors, ignored []string
	page.OnPageError(func(message, source string) {
		mu.Lock()
		defer mu.Unlock()
		if r.noise != nil && r.noise.Ignore(message, source) {
			ignored = append(ignored, message)
			return
		}
		pageErrors = append(pageErrors, message)
	})

	session := newSession(page, r.helpers, log)
	err = r.execute(ctx, session, sc)
	if f, ok := page.(interfaces.PageErrorFlusher); ok {
		f.FlushPageErrors()
	}

	mu.Lock()
	result.PageErrors = append(result.PageErrors, pageErrors...)
	result.IgnoredErrors = append(result.IgnoredErrors, ignored...)
	mu.Unlock()
	if err == nil && len(result.PageErrors) > 0 {
		err = fmt.Errorf("%w: %s", ErrPageErrors, strings.Join(result.PageErrors, "; "))
	}

	result.Steps = session.steps
	result.Outcomes = session.outcomes
	result.Duration = time.Since(start)
	if err != nil {
		result.Status = entities.ScenarioFailed
		result.Error = err.Error()
		result.Screenshot = r.screenshot(ctx, page, runID, fmt.Sprintf("%s-%d", sc.ID, attempt), log)
		log.Errorf("scenario failed: %v", err)
		return result
	}
	result.Status = entities.ScenarioPassed
	log.WithField("duration", result.Duration.Round(time.Millisecond)).Info("scenario passed")
	return result
}

func (r *Runner) execute(ctx context.Context, s *Session, sc Definition) error {
	if err := s.Step(entities.StepWait, "viewport "+sc.Viewport.String(), func() error {
		return s.Helpers.SetViewport(ctx, s.Page, sc.Viewport)
	}); err != nil {
		return err
	}
	if sc.EmptyCart {
		if err := s.Step(entities.StepCart, "clear cart", func() error {
			return s.Helpers.ClearCart(ctx, s.Page)
		}); err != nil {
			return err
		}
	}
	if sc.Path != "" {
		if err := s.Visit(ctx, sc.Path); err != nil {
			return err
		}
	}
	if sc.Run == nil {
		return nil
	}
	return sc.Run(ctx, s)
}

func (r *Runner) screenshot(ctx context.Context, page interfaces.Page, runID, name string, log logrus.FieldLogger) string {
	if r.store == nil {
		return ""
	}
	// the scenario context may already be spent
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	png, err := page.Screenshot(ctx)
	if err != nil {
		log.Warnf("Failed to capture screenshot: %v", err)
		return ""
	}
	path, err := r.store.SaveScreenshot(runID, name, png)
	if err != nil {
		log.Warnf("Failed to save screenshot: %v", err)
		return ""
	}
	return path
}
