package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/complaint-assistant/internal/mail"
	"github.com/jonathan/complaint-assistant/internal/types"
)

var fixedNow = time.Date(2025, time.October, 1, 5, 4, 0, 0, time.UTC)

type storedComplaint struct {
	id      uuid.UUID
	status  types.Status
	created time.Time
	email   string
}

// fakeStore applies the same filter as the database query.
type fakeStore struct {
	complaints []storedComplaint
	err        error
	gotCutoff  time.Time
	gotStatus  []types.Status
}

func (f *fakeStore) ListStaleComplaints(_ context.Context, statuses []types.Status, cutoff time.Time) ([]types.ReminderCandidate, error) {
	f.gotCutoff = cutoff
	f.gotStatus = statuses
	if f.err != nil {
		return nil, f.err
	}
	var out []types.ReminderCandidate
	for _, c := range f.complaints {
		if c.created.After(cutoff) {
			continue
		}
		for _, s := range statuses {
			if c.status == s {
				out = append(out, types.ReminderCandidate{
					ComplaintID: c.id,
					Category:    types.CategoryCivicIssue,
					Status:      c.status,
					CreatedAt:   c.created,
					OwnerEmail:  c.email,
				})
				break
			}
		}
	}
	return out, nil
}

type fakeSender struct {
	mu     sync.Mutex
	sent   []mail.Message
	failTo map[string]bool
	block  chan struct{}
}

func (f *fakeSender) Send(_ context.Context, msg mail.Message) error {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTo[msg.To] {
		return errors.New("smtp: connection reset")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newTestScheduler(t *testing.T, store Store, sender mail.Sender) *Scheduler {
	t.Helper()
	s, err := New(store, sender, Config{
		Schedule:  "34 10 * * *",
		Location:  time.UTC,
		Threshold: 14 * 24 * time.Hour,
		BaseURL:   "https://complaints.example.org/",
	})
	require.NoError(t, err)
	s.now = func() time.Time { return fixedNow }
	return s
}

func daysAgo(d int) time.Time {
	return fixedNow.Add(-time.Duration(d) * 24 * time.Hour)
}

func TestRunOnce_SelectsStaleFiledComplaints(t *testing.T) {
	stale := uuid.New()
	store := &fakeStore{complaints: []storedComplaint{
		{id: stale, status: types.StatusFiled, created: daysAgo(15), email: "a@example.org"},
		{id: uuid.New(), status: types.StatusFiled, created: daysAgo(10), email: "b@example.org"},
		{id: uuid.New(), status: types.StatusResolved, created: daysAgo(20), email: "c@example.org"},
	}}
	sender := &fakeSender{}

	result, err := newTestScheduler(t, store, sender).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &TickResult{Candidates: 1, Sent: 1}, result)
	assert.Equal(t, fixedNow.Add(-14*24*time.Hour), store.gotCutoff)
	assert.ElementsMatch(t, []types.Status{types.StatusFiled, types.StatusAwaitingResponse}, store.gotStatus)

	require.Len(t, sender.sent, 1)
	msg := sender.sent[0]
	assert.Equal(t, "a@example.org", msg.To)
	assert.Equal(t, `💡 Time to follow up on your complaint about "Civic Issue"`, msg.Subject)
	assert.Contains(t, msg.HTMLBody, "https://complaints.example.org/follow-up/"+stale.String())
	assert.Contains(t, msg.HTMLBody, "over 14 days")
}

func TestRunOnce_AwaitingResponseAtCutoff(t *testing.T) {
	store := &fakeStore{complaints: []storedComplaint{
		{id: uuid.New(), status: types.StatusAwaitingResponse, created: daysAgo(14), email: "a@example.org"},
	}}
	sender := &fakeSender{}

	result, err := newTestScheduler(t, store, sender).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, result.Sent)
}

func TestRunOnce_SendFailureContinues(t *testing.T) {
	store := &fakeStore{complaints: []storedComplaint{
		{id: uuid.New(), status: types.StatusFiled, created: daysAgo(30), email: "broken@example.org"},
		{id: uuid.New(), status: types.StatusFiled, created: daysAgo(30), email: ""},
		{id: uuid.New(), status: types.StatusAwaitingResponse, created: daysAgo(20), email: "ok@example.org"},
	}}
	sender := &fakeSender{failTo: map[string]bool{"broken@example.org": true}}

	result, err := newTestScheduler(t, store, sender).RunOnce(context.Background())
	require.NoError(t, err)

	assert.Equal(t, &TickResult{Candidates: 3, Sent: 1, Failed: 1, Skipped: 1}, result)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "ok@example.org", sender.sent[0].To)
}

func TestRunOnce_QueryFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection refused")}
	s := newTestScheduler(t, store, &fakeSender{})

	result, err := s.RunOnce(context.Background())
	assert.Nil(t, result)
	assert.ErrorContains(t, err, "connection refused")
	assert.False(t, s.Running(), "scheduler must return to idle")
}

func TestRunOnce_NoCandidates(t *testing.T) {
	result, err := newTestScheduler(t, &fakeStore{}, &fakeSender{}).RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &TickResult{}, result)
}

func TestRunOnce_SkipsOverlappingTick(t *testing.T) {
	store := &fakeStore{complaints: []storedComplaint{
		{id: uuid.New(), status: types.StatusFiled, created: daysAgo(30), email: "a@example.org"},
	}}
	sender := &fakeSender{block: make(chan struct{})}
	s := newTestScheduler(t, store, sender)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.RunOnce(context.Background())
	}()

	require.Eventually(t, s.Running, time.Second, time.Millisecond)
	_, err := s.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrTickInProgress)

	close(sender.block)
	<-done
	assert.False(t, s.Running())
}

func TestRunOnce_EscapesCategory(t *testing.T) {
	store := &storeFunc{candidates: []types.ReminderCandidate{{
		ComplaintID: uuid.New(),
		Category:    types.Category("<script>alert(1)</script>"),
		OwnerEmail:  "a@example.org",
	}}}
	sender := &fakeSender{}

	_, err := newTestScheduler(t, store, sender).RunOnce(context.Background())
	require.NoError(t, err)
	require.Len(t, sender.sent, 1)
	assert.NotContains(t, sender.sent[0].HTMLBody, "<script>")
}

type storeFunc struct {
	candidates []types.ReminderCandidate
}

func (s *storeFunc) ListStaleComplaints(context.Context, []types.Status, time.Time) ([]types.ReminderCandidate, error) {
	return s.candidates, nil
}

func TestNew_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{name: "bad schedule", cfg: Config{Schedule: "every day", Threshold: time.Hour}},
		{name: "six fields", cfg: Config{Schedule: "0 34 10 * * *", Threshold: time.Hour}},
		{name: "zero threshold", cfg: Config{Schedule: "34 10 * * *"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&fakeStore{}, &fakeSender{}, tt.cfg)
			assert.Error(t, err)
		})
	}

	_, err := New(nil, &fakeSender{}, Config{Schedule: "34 10 * * *", Threshold: time.Hour})
	assert.Error(t, err)
}

func TestNext_UsesConfiguredTimezone(t *testing.T) {
	kolkata, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	s, err := New(&fakeStore{}, &fakeSender{}, Config{
		Schedule:  "34 10 * * *",
		Location:  kolkata,
		Threshold: 14 * 24 * time.Hour,
	})
	require.NoError(t, err)

	// 05:04 UTC is 10:34 IST, so the next run is the following day.
	next := s.Next(fixedNow)
	assert.True(t, next.Equal(time.Date(2025, time.October, 2, 10, 34, 0, 0, kolkata)), "got %s", next)
	assert.Equal(t, "Asia/Kolkata", next.Location().String())
}

func TestRun_StopsOnCancel(t *testing.T) {
	s := newTestScheduler(t, &fakeStore{}, &fakeSender{})
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}
}
