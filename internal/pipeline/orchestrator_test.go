// internal/pipeline/orchestrator_test.go
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	commonerrors "pagesmith/internal/common/errors"
	"pagesmith/internal/common/logger"
	"pagesmith/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type mockGenerator struct {
	files []models.GeneratedFile
	err   error
	calls int
}

func (m *mockGenerator) Generate(ctx context.Context, brief string, checks []string, attachments []models.Attachment) ([]models.GeneratedFile, error) {
	m.calls++
	return m.files, m.err
}

type mockRepos struct {
	owner string

	createCalls  int
	createdName  string
	createErr    error
	uploadCalls  []string
	uploadErr    error
	pagesCalls   int
	pagesErr     error
	commitSHA    string
	commitErr    error
	uploadedRepo string
}

func (m *mockRepos) Owner() string { return m.owner }

func (m *mockRepos) CreateRepository(ctx context.Context, name string) (*models.RepoHandle, error) {
	m.createCalls++
	m.createdName = name
	if m.createErr != nil {
		return nil, m.createErr
	}
	return &models.RepoHandle{
		FullName: m.owner + "/" + name,
		HTMLURL:  "https://github.com/" + m.owner + "/" + name,
	}, nil
}

func (m *mockRepos) UploadFile(ctx context.Context, fullName string, file models.GeneratedFile) error {
	m.uploadedRepo = fullName
	m.uploadCalls = append(m.uploadCalls, file.Path)
	return m.uploadErr
}

func (m *mockRepos) EnablePages(ctx context.Context, fullName string) (*models.RepoHandle, error) {
	m.pagesCalls++
	if m.pagesErr != nil {
		return nil, m.pagesErr
	}
	return &models.RepoHandle{
		FullName: fullName,
		PagesURL: fmt.Sprintf("https://%s.github.io/demo/", m.owner),
	}, nil
}

func (m *mockRepos) GetLatestCommit(ctx context.Context, fullName string) (string, error) {
	if m.commitErr != nil {
		return "", m.commitErr
	}
	return m.commitSHA, nil
}

type mockNotifier struct {
	calls    int
	lastURL  string
	payloads []interface{}
	err      error
}

func (m *mockNotifier) Notify(ctx context.Context, url string, payload interface{}) error {
	m.calls++
	m.lastURL = url
	m.payloads = append(m.payloads, payload)
	return m.err
}

type memoryStore struct {
	records map[string]models.RunRecord
	states  []models.RunState
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[string]models.RunRecord)}
}

func (m *memoryStore) Create(ctx context.Context, record *models.RunRecord) error {
	m.records[record.RunID] = *record
	m.states = append(m.states, record.State)
	return nil
}

func (m *memoryStore) Update(ctx context.Context, record *models.RunRecord) error {
	m.records[record.RunID] = *record
	m.states = append(m.states, record.State)
	return nil
}

// ==========================
// Test Helper Functions
// ==========================

func validFiles() []models.GeneratedFile {
	return []models.GeneratedFile{
		{Path: "index.html", Content: "<html></html>"},
		{Path: "style.css", Content: "body {}"},
		{Path: "README.md", Content: "# Demo"},
	}
}

func testRequest(round int) *models.TaskRequest {
	return &models.TaskRequest{
		Task:          "demo",
		Brief:         "a calculator site",
		Checks:        []string{},
		Round:         round,
		Email:         "a@b.com",
		Nonce:         "n1",
		EvaluationURL: "https://eval.example/evaluate",
	}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestRun_Round1(t *testing.T) {
	gen := &mockGenerator{files: validFiles()}
	repos := &mockRepos{owner: "octo", commitSHA: "0123456789abcdef0123456789abcdef01234567"}
	notif := &mockNotifier{}
	store := newMemoryStore()

	orch := NewOrchestrator(gen, repos, notif, store, logger.NewTestLogger(t))
	err := orch.Run(context.Background(), "run-1", testRequest(1))
	require.NoError(t, err)

	assert.Equal(t, 1, gen.calls)
	assert.Equal(t, 1, repos.createCalls)
	assert.Equal(t, "demo", repos.createdName)
	assert.Equal(t, []string{"index.html", "style.css", "README.md"}, repos.uploadCalls)
	assert.Equal(t, 1, repos.pagesCalls)
	assert.Equal(t, 1, notif.calls)
	assert.Equal(t, "https://eval.example/evaluate", notif.lastURL)

	result := notif.payloads[0].(*models.EvaluationResult)
	assert.Equal(t, "a@b.com", result.Email)
	assert.Equal(t, "demo", result.Task)
	assert.Equal(t, "1", result.Round)
	assert.Equal(t, "n1", result.Nonce)
	assert.Equal(t, "https://github.com/octo/demo", result.RepoURL)
	assert.Len(t, result.CommitSHA, 40)
	assert.Equal(t, "https://octo.github.io/demo/", result.PagesURL)

	record := store.records["run-1"]
	assert.Equal(t, models.RunStateDone, record.State)
	require.NotNil(t, record.Result)
	assert.Equal(t, "1", record.Result.Round)

	// Full state trajectory, in order.
	assert.Equal(t, []models.RunState{
		models.RunStateScheduled,
		models.RunStateGenerating,
		models.RunStatePublishing,
		models.RunStateConfiguringPage,
		models.RunStateResolvingCommit,
		models.RunStateNotifying,
		models.RunStateDone,
	}, store.states)
}

func TestRun_Round2(t *testing.T) {
	gen := &mockGenerator{files: validFiles()}
	repos := &mockRepos{owner: "octo", commitSHA: "feedfacefeedfacefeedfacefeedfacefeedface"}
	notif := &mockNotifier{}
	store := newMemoryStore()

	orch := NewOrchestrator(gen, repos, notif, store, logger.NewTestLogger(t))
	err := orch.Run(context.Background(), "run-2", testRequest(2))
	require.NoError(t, err)

	// No creation and no pages call; URLs come from the naming convention.
	assert.Equal(t, 0, repos.createCalls)
	assert.Equal(t, 0, repos.pagesCalls)
	assert.Equal(t, "octo/demo", repos.uploadedRepo)

	result := notif.payloads[0].(*models.EvaluationResult)
	assert.Equal(t, "2", result.Round)
	assert.Equal(t, "https://github.com/octo/demo", result.RepoURL)
	assert.Equal(t, "https://octo.github.io/demo/", result.PagesURL)
}

func TestRun_UnsupportedRound(t *testing.T) {
	gen := &mockGenerator{files: validFiles()}
	repos := &mockRepos{owner: "octo"}
	notif := &mockNotifier{}

	orch := NewOrchestrator(gen, repos, notif, newMemoryStore(), logger.NewTestLogger(t))
	err := orch.Run(context.Background(), "run-3", testRequest(3))

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeUnsupportedRound, commonerrors.CodeOf(err))
	assert.Equal(t, 0, gen.calls)
	assert.Equal(t, 0, repos.createCalls)
	assert.Equal(t, 0, notif.calls)
}

func TestRun_GenerationFailureAbortsBeforeNotify(t *testing.T) {
	gen := &mockGenerator{err: errors.New("model produced garbage")}
	repos := &mockRepos{owner: "octo"}
	notif := &mockNotifier{}
	store := newMemoryStore()

	orch := NewOrchestrator(gen, repos, notif, store, logger.NewTestLogger(t))
	err := orch.Run(context.Background(), "run-4", testRequest(1))

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeGenerationFailed, commonerrors.CodeOf(err))
	assert.Equal(t, 0, repos.createCalls)
	assert.Equal(t, 0, notif.calls)

	record := store.records["run-4"]
	assert.Equal(t, models.RunStateFailed, record.State)
	assert.Equal(t, string(commonerrors.ErrCodeGenerationFailed), record.ErrorCode)
}

func TestRun_PushFailureAbortsBeforeNotify(t *testing.T) {
	gen := &mockGenerator{files: validFiles()}
	repos := &mockRepos{owner: "octo", uploadErr: errors.New("status 409")}
	notif := &mockNotifier{}

	orch := NewOrchestrator(gen, repos, notif, newMemoryStore(), logger.NewTestLogger(t))
	err := orch.Run(context.Background(), "run-5", testRequest(1))

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeFilePushFailed, commonerrors.CodeOf(err))
	assert.Equal(t, 0, repos.pagesCalls)
	assert.Equal(t, 0, notif.calls)
}

func TestRun_DeliveryExhaustionMarksRunFailed(t *testing.T) {
	gen := &mockGenerator{files: validFiles()}
	repos := &mockRepos{owner: "octo", commitSHA: "abc"}
	notif := &mockNotifier{err: commonerrors.NewDeliveryExhaustedError("https://eval.example/evaluate", 100)}
	store := newMemoryStore()

	orch := NewOrchestrator(gen, repos, notif, store, logger.NewTestLogger(t))
	err := orch.Run(context.Background(), "run-6", testRequest(1))

	require.Error(t, err)
	assert.Equal(t, commonerrors.ErrCodeDeliveryExhausted, commonerrors.CodeOf(err))
	assert.Equal(t, 1, notif.calls)

	record := store.records["run-6"]
	assert.Equal(t, models.RunStateFailed, record.State)
}

type failingStore struct {
	calls int
}

func (f *failingStore) Create(ctx context.Context, record *models.RunRecord) error {
	f.calls++
	return errors.New("connection refused")
}

func (f *failingStore) Update(ctx context.Context, record *models.RunRecord) error {
	f.calls++
	return errors.New("connection refused")
}

func TestRun_StoreFailuresAreTolerated(t *testing.T) {
	gen := &mockGenerator{files: validFiles()}
	repos := &mockRepos{owner: "octo", commitSHA: "abc"}
	notif := &mockNotifier{}
	store := &failingStore{}

	orch := NewOrchestrator(gen, repos, notif, store, logger.NewTestLogger(t))
	err := orch.Run(context.Background(), "run-8", testRequest(1))

	require.NoError(t, err)
	assert.Equal(t, 1, notif.calls)
	// Every transition was attempted against the broken store.
	assert.Equal(t, 7, store.calls)
}

func TestRun_NilStoreIsTolerated(t *testing.T) {
	gen := &mockGenerator{files: validFiles()}
	repos := &mockRepos{owner: "octo", commitSHA: "abc"}
	notif := &mockNotifier{}

	orch := NewOrchestrator(gen, repos, notif, nil, logger.NewNoOpLogger())
	err := orch.Run(context.Background(), "run-7", testRequest(1))
	require.NoError(t, err)
}
