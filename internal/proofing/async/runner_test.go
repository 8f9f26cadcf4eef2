package async

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"idproof/internal/platform/queue"
	"idproof/internal/proofing/agent"
	"idproof/internal/proofing/metrics"
	"idproof/internal/proofing/models"
	"idproof/internal/proofing/resolve"
	"idproof/internal/proofing/session"
	"idproof/internal/proofing/store"
	"idproof/internal/proofing/vendors"
	"idproof/internal/proofing/vendors/mock"
	"idproof/pkg/domain"
)

// recordingSsnChecker captures every consultation so tests can assert the
// fraud signal fired without it affecting the job.
type recordingSsnChecker struct {
	mu     sync.Mutex
	calls  int
	ssn    string
	userID domain.UserID
	issuer string
	unique bool
}

func (c *recordingSsnChecker) SsnIsUnique(_ context.Context, ssn string, userID domain.UserID, issuer string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.ssn = ssn
	c.userID = userID
	c.issuer = issuer
	return c.unique, nil
}

type runnerFixture struct {
	runner   *Runner
	results  *store.InMemoryStore
	sessions *session.InMemoryStore
	ssnCheck *recordingSsnChecker
}

func newRunnerFixture(t *testing.T) *runnerFixture {
	t.Helper()
	registry, err := vendors.NewRegistry(nil, nil, mock.All(), true)
	require.NoError(t, err)

	results := store.NewInMemoryStore()
	sessions := session.NewInMemoryStore()
	m := metrics.NewWith(prometheus.NewRegistry())
	a := agent.New(registry, results, nil, resolve.DefaultChain(), m, slog.Default(), time.Second)
	ssnCheck := &recordingSsnChecker{unique: true}

	return &runnerFixture{
		runner:   NewRunner(a, results, sessions, ssnCheck, m, nil, slog.Default()),
		results:  results,
		sessions: sessions,
		ssnCheck: ssnCheck,
	}
}

func testApplicant() models.Applicant {
	return models.Applicant{
		FirstName:           "Jane",
		LastName:            "Doe",
		SSN:                 "123-45-6789",
		Phone:               "703-555-0100",
		StateIDNumber:       "V12345678",
		StateIDJurisdiction: "VA",
	}
}

func testPayload(t *testing.T, applicant models.Applicant, stages ...models.Stage) JobPayload {
	t.Helper()
	userID, err := domain.ParseUserID(uuid.New().String())
	require.NoError(t, err)
	applicantJSON, err := json.Marshal(applicant)
	require.NoError(t, err)
	stagesJSON, err := json.Marshal(stages)
	require.NoError(t, err)
	return JobPayload{
		ResultID:      domain.NewResultID(),
		ApplicantJSON: string(applicantJSON),
		StagesJSON:    string(stagesJSON),
		SessionUUID:   uuid.New().String(),
		UserID:        userID,
		Issuer:        "acme",
		TraceID:       "trace-1",
	}
}

func messageFor(t *testing.T, payload JobPayload) queue.Message {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return queue.Message{Topic: "proofing.jobs", Key: []byte(payload.ResultID.String()), Payload: raw}
}

func TestHandleRunsAllRequestedStages(t *testing.T) {
	ctx := context.Background()
	f := newRunnerFixture(t)
	payload := testPayload(t, testApplicant(), models.StageResolution, models.StageStateID, models.StageAddress, models.StagePhoneFinder)

	require.NoError(t, f.runner.Handle(ctx, messageFor(t, payload)))

	rec, err := f.results.Find(ctx, payload.ResultID)
	require.NoError(t, err)
	assert.True(t, rec.Completed())
	assert.Contains(t, rec.Stages, models.StageResolution)
	assert.Contains(t, rec.Stages, models.StageStateID)
	assert.Contains(t, rec.Stages, models.StageAddress)
	assert.Contains(t, rec.Stages, models.StagePhoneFinder)
	assert.True(t, rec.Stages[models.StageResolution].Success)
}

func TestHandlePhoneFinderOnlySubmission(t *testing.T) {
	ctx := context.Background()
	f := newRunnerFixture(t)
	payload := testPayload(t, testApplicant(), models.StagePhoneFinder)

	require.NoError(t, f.runner.Handle(ctx, messageFor(t, payload)))

	rec, err := f.results.Find(ctx, payload.ResultID)
	require.NoError(t, err)
	assert.True(t, rec.Completed())
	require.Contains(t, rec.Stages, models.StagePhoneFinder)
	assert.True(t, rec.Stages[models.StagePhoneFinder].Success)
	assert.NotContains(t, rec.Stages, models.StageResolution)
}

func TestHandleFailedResolutionStillCompletes(t *testing.T) {
	ctx := context.Background()
	f := newRunnerFixture(t)
	applicant := testApplicant()
	applicant.SSN = mock.UnverifiableSSN
	payload := testPayload(t, applicant, models.StageResolution, models.StageStateID)

	require.NoError(t, f.runner.Handle(ctx, messageFor(t, payload)))

	rec, err := f.results.Find(ctx, payload.ResultID)
	require.NoError(t, err)
	assert.True(t, rec.Completed(), "a failed stage is still a finished job")
	assert.False(t, rec.Stages[models.StageResolution].Success)
	assert.NotContains(t, rec.Stages, models.StageStateID)
}

func TestHandleSkipsRedeliveryOfCompletedJob(t *testing.T) {
	ctx := context.Background()
	f := newRunnerFixture(t)
	msg := messageFor(t, testPayload(t, testApplicant(), models.StageResolution))

	require.NoError(t, f.runner.Handle(ctx, msg))
	require.NoError(t, f.runner.Handle(ctx, msg))

	assert.Equal(t, 1, f.ssnCheck.calls, "redelivered completed jobs short-circuit before any work")
}

func TestHandleDropsPoisonPayload(t *testing.T) {
	f := newRunnerFixture(t)

	t.Run("unparseable envelope", func(t *testing.T) {
		msg := queue.Message{Topic: "proofing.jobs", Payload: []byte("{not json")}
		assert.NoError(t, f.runner.Handle(context.Background(), msg), "undecodable payloads must not redeliver forever")
	})

	t.Run("corrupt embedded snapshot", func(t *testing.T) {
		payload := testPayload(t, testApplicant(), models.StageResolution)
		payload.ApplicantJSON = "{broken"
		assert.NoError(t, f.runner.Handle(context.Background(), messageFor(t, payload)))
	})

	assert.Zero(t, f.ssnCheck.calls)
}

func TestHandleConsultsDuplicateSsnSignal(t *testing.T) {
	ctx := context.Background()
	f := newRunnerFixture(t)
	f.ssnCheck.unique = false
	applicant := testApplicant()
	payload := testPayload(t, applicant, models.StageResolution)

	require.NoError(t, f.runner.Handle(ctx, messageFor(t, payload)))

	assert.Equal(t, 1, f.ssnCheck.calls)
	assert.Equal(t, applicant.SSN, f.ssnCheck.ssn)
	assert.Equal(t, payload.UserID, f.ssnCheck.userID)
	assert.Equal(t, "acme", f.ssnCheck.issuer)

	// A duplicate flags but never blocks: the job still completes.
	rec, err := f.results.Find(ctx, payload.ResultID)
	require.NoError(t, err)
	assert.True(t, rec.Completed())
}

func TestHandleFallsBackToPayloadSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newRunnerFixture(t)
	// Nothing saved in the session store: the worker runs off the payload.
	payload := testPayload(t, testApplicant(), models.StageResolution, models.StageAddress)

	require.NoError(t, f.runner.Handle(ctx, messageFor(t, payload)))

	rec, err := f.results.Find(ctx, payload.ResultID)
	require.NoError(t, err)
	assert.True(t, rec.Completed())
	assert.True(t, rec.Stages[models.StageResolution].Success)
	assert.True(t, rec.Stages[models.StageAddress].Success)
}

func TestHandlePrefersStoredSession(t *testing.T) {
	ctx := context.Background()
	f := newRunnerFixture(t)
	applicant := testApplicant()
	payload := testPayload(t, applicant, models.StageResolution)

	// The stored session carries document PII the payload snapshot lacks.
	doc := applicant
	doc.FirstName = "Janet"
	require.NoError(t, f.sessions.Save(ctx, &session.CaptureSession{
		UUID:        payload.SessionUUID,
		UserID:      payload.UserID,
		Issuer:      payload.Issuer,
		Applicant:   applicant,
		DocumentPII: &doc,
	}))

	require.NoError(t, f.runner.Handle(ctx, messageFor(t, payload)))

	rec, err := f.results.Find(ctx, payload.ResultID)
	require.NoError(t, err)
	result := rec.Stages[models.StageResolution]
	require.NotNil(t, result.NormalizedApplicant)
	assert.Equal(t, "Janet", result.NormalizedApplicant.FirstName, "document values flow through the resolution chain")
}
