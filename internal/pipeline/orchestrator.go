// internal/pipeline/orchestrator.go
package pipeline

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"pagesmith/internal/common/errors"
	"pagesmith/internal/common/logger"
	"pagesmith/internal/common/metrics"
	"pagesmith/internal/genai"
	"pagesmith/internal/models"
)

// Generator produces deployable site files from a brief.
type Generator interface {
	Generate(ctx context.Context, brief string, checks []string, attachments []models.Attachment) ([]models.GeneratedFile, error)
}

// Repos is the repository-hosting surface the pipeline depends on.
type Repos interface {
	Owner() string
	CreateRepository(ctx context.Context, name string) (*models.RepoHandle, error)
	UploadFile(ctx context.Context, fullName string, file models.GeneratedFile) error
	EnablePages(ctx context.Context, fullName string) (*models.RepoHandle, error)
	GetLatestCommit(ctx context.Context, fullName string) (string, error)
}

// Notifier delivers the evaluation result to the callback URL.
type Notifier interface {
	Notify(ctx context.Context, url string, payload interface{}) error
}

// RunStore records run state transitions. A nil store disables persistence.
type RunStore interface {
	Create(ctx context.Context, record *models.RunRecord) error
	Update(ctx context.Context, record *models.RunRecord) error
}

// Orchestrator sequences one background pipeline run: generate, publish,
// configure hosting (round 1), resolve the commit, notify. Failure before the
// notify step aborts the run without a callback.
type Orchestrator struct {
	generator  Generator
	repos      Repos
	notifier   Notifier
	store      RunStore
	logger     logger.Logger
	errHandler *errors.ErrorHandler
}

func NewOrchestrator(gen Generator, repos Repos, notif Notifier, store RunStore, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		generator:  gen,
		repos:      repos,
		notifier:   notif,
		store:      store,
		logger:     log,
		errHandler: errors.NewErrorHandler(log),
	}
}

// Run executes the full pipeline for one accepted task request. It is meant
// to be called on its own goroutine; the error return exists for tests and
// for the run record.
func (o *Orchestrator) Run(ctx context.Context, runID string, req *models.TaskRequest) error {
	log := o.logger.With(map[string]interface{}{
		"runId": runID,
		"task":  req.Task,
		"round": req.Round,
	})

	record := &models.RunRecord{
		RunID: runID,
		Task:  req.Task,
		Round: req.Round,
		State: models.RunStateScheduled,
	}
	o.persist(ctx, record, true)

	metrics.PipelineRunsActive.Inc()
	defer metrics.PipelineRunsActive.Dec()

	start := time.Now()
	roundLabel := strconv.Itoa(req.Round)

	result, err := o.execute(ctx, req, record, log)
	if err != nil {
		stdErr := o.errHandler.HandleRunError(runID, req.Task, req.Round, err)
		record.State = models.RunStateFailed
		record.ErrorCode = string(stdErr.Code)
		record.Error = stdErr.Details
		o.persist(ctx, record, false)
		metrics.PipelineRunsFailed.WithLabelValues(roundLabel, string(stdErr.Code)).Inc()
		return stdErr
	}

	record.State = models.RunStateDone
	record.Result = result
	o.persist(ctx, record, false)

	metrics.PipelineRunsCompleted.WithLabelValues(roundLabel).Inc()
	metrics.PipelineRunDuration.WithLabelValues(roundLabel).Observe(time.Since(start).Seconds())

	log.Info("pipeline run completed", map[string]interface{}{
		"repoUrl":  result.RepoURL,
		"duration": time.Since(start).String(),
	})

	return nil
}

func (o *Orchestrator) execute(ctx context.Context, req *models.TaskRequest, record *models.RunRecord, log logger.Logger) (*models.EvaluationResult, error) {
	// The endpoint rejects other rounds before scheduling; this is the last
	// line of defense for direct callers.
	if req.Round != 1 && req.Round != 2 {
		return nil, errors.NewUnsupportedRoundError(req.Round)
	}

	o.transition(ctx, record, models.RunStateGenerating)
	files, err := o.generator.Generate(ctx, req.Brief, req.Checks, req.Attachments)
	if err != nil {
		switch {
		case stderrors.Is(err, genai.ErrGenerationTimeout):
			return nil, errors.NewGenerationTimeoutError()
		case stderrors.Is(err, genai.ErrInvalidOutput):
			return nil, errors.NewInvalidGeneratedOutputError(err.Error())
		default:
			return nil, errors.NewGenerationFailedError(err)
		}
	}
	log.Info("site files generated", map[string]interface{}{
		"fileCount": len(files),
	})

	var handle *models.RepoHandle
	if req.Round == 1 {
		handle, err = o.repos.CreateRepository(ctx, req.Task)
		if err != nil {
			return nil, errors.NewRepoCreateFailedError(req.Task, err)
		}
	} else {
		// Round 2 trusts the repository from a prior round 1 to exist and
		// derives every URL from the naming convention.
		fullName := fmt.Sprintf("%s/%s", o.repos.Owner(), req.Task)
		handle = &models.RepoHandle{
			FullName: fullName,
			HTMLURL:  fmt.Sprintf("https://github.com/%s", fullName),
			PagesURL: fmt.Sprintf("https://%s.github.io/%s/", o.repos.Owner(), req.Task),
		}
	}

	o.transition(ctx, record, models.RunStatePublishing)
	for _, file := range files {
		if err := o.repos.UploadFile(ctx, handle.FullName, file); err != nil {
			return nil, errors.NewFilePushFailedError(file.Path, err)
		}
	}

	pagesURL := handle.PagesURL
	if req.Round == 1 {
		o.transition(ctx, record, models.RunStateConfiguringPage)
		pages, err := o.repos.EnablePages(ctx, handle.FullName)
		if err != nil {
			return nil, errors.NewPagesConfigFailedError(handle.FullName, err)
		}
		pagesURL = pages.PagesURL
	}

	o.transition(ctx, record, models.RunStateResolvingCommit)
	commitSHA, err := o.repos.GetLatestCommit(ctx, handle.FullName)
	if err != nil {
		return nil, errors.NewCommitLookupFailedError(handle.FullName, err)
	}

	result := &models.EvaluationResult{
		Email:     req.Email,
		Task:      req.Task,
		Round:     strconv.Itoa(req.Round),
		Nonce:     req.Nonce,
		RepoURL:   handle.HTMLURL,
		CommitSHA: commitSHA,
		PagesURL:  pagesURL,
	}

	o.transition(ctx, record, models.RunStateNotifying)
	if err := o.notifier.Notify(ctx, req.EvaluationURL, result); err != nil {
		// The run produced a site; only the callback was lost.
		return nil, err
	}

	return result, nil
}

func (o *Orchestrator) transition(ctx context.Context, record *models.RunRecord, state models.RunState) {
	record.State = state
	o.persist(ctx, record, false)
}

// persist updates the run record; store failures are logged, never fatal.
func (o *Orchestrator) persist(ctx context.Context, record *models.RunRecord, create bool) {
	if o.store == nil {
		return
	}

	var err error
	if create {
		err = o.store.Create(ctx, record)
	} else {
		err = o.store.Update(ctx, record)
	}

	if err != nil {
		stdErr := errors.NewRunStoreFailedError(err)
		o.logger.Warn("run record persistence failed", map[string]interface{}{
			"runId":     record.RunID,
			"state":     string(record.State),
			"errorCode": string(stdErr.Code),
			"error":     stdErr.Details,
		})
	}
}
