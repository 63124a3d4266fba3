package server

import (
	"context"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/complaint-assistant/internal/config"
	"github.com/jonathan/complaint-assistant/internal/db"
	"github.com/jonathan/complaint-assistant/internal/server/ratelimit"
	"github.com/jonathan/complaint-assistant/internal/types"
)

// memoryDB is an in-memory DBClient with the same ownership rules as db.DB.
type memoryDB struct {
	mu         sync.Mutex
	users      map[uuid.UUID]*db.User
	complaints map[uuid.UUID]*types.Complaint
	clock      time.Time
}

func newMemoryDB() *memoryDB {
	return &memoryDB{
		users:      make(map[uuid.UUID]*db.User),
		complaints: make(map[uuid.UUID]*types.Complaint),
		clock:      time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *memoryDB) tick() time.Time {
	m.clock = m.clock.Add(time.Minute)
	return m.clock
}

func (m *memoryDB) CreateUser(_ context.Context, email, passwordHash string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(email)
	for _, u := range m.users {
		if u.Email == email {
			return uuid.Nil, db.ErrEmailTaken
		}
	}
	now := m.tick()
	u := &db.User{ID: uuid.New(), Email: email, PasswordHash: passwordHash, CreatedAt: now, UpdatedAt: now}
	m.users[u.ID] = u
	return u.ID, nil
}

func (m *memoryDB) GetUser(_ context.Context, id uuid.UUID) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memoryDB) GetUserByEmail(_ context.Context, email string) (*db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memoryDB) CheckEmailExists(ctx context.Context, email string) (bool, error) {
	u, err := m.GetUserByEmail(ctx, email)
	return u != nil, err
}

func (m *memoryDB) CreateComplaint(_ context.Context, owner uuid.UUID, originalProblem string, pkg *types.ComplaintPackage) (*types.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.tick()
	c := &types.Complaint{
		ID:              uuid.New(),
		UserID:          owner,
		OriginalProblem: originalProblem,
		ComplaintDraft:  pkg.ComplaintDraft,
		Category:        pkg.Category,
		Portal:          pkg.Portal,
		PortalID:        pkg.PortalID,
		Documents:       pkg.Documents,
		Guide:           pkg.Guide,
		Status:          types.StatusDraft,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	m.complaints[c.ID] = c
	cp := *c
	return &cp, nil
}

func (m *memoryDB) owned(id, owner uuid.UUID) (*types.Complaint, error) {
	c, ok := m.complaints[id]
	if !ok || c.UserID != owner {
		return nil, db.ErrNotFound
	}
	return c, nil
}

func (m *memoryDB) GetComplaintForUser(_ context.Context, id, owner uuid.UUID) (*types.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	cp := *c
	return &cp, nil
}

func (m *memoryDB) ListComplaintsByUser(_ context.Context, owner uuid.UUID) ([]types.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []types.Complaint{}
	for _, c := range m.complaints {
		if c.UserID == owner {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryDB) UpdateComplaintDraft(_ context.Context, id, owner uuid.UUID, draft string) (*types.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	c.ComplaintDraft = draft
	c.UpdatedAt = m.tick()
	cp := *c
	return &cp, nil
}

func (m *memoryDB) UpdateComplaintStatus(_ context.Context, id, owner uuid.UUID, status types.Status) (*types.Complaint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, err := m.owned(id, owner)
	if err != nil {
		return nil, err
	}
	c.Status = status
	c.UpdatedAt = m.tick()
	cp := *c
	return &cp, nil
}

func (m *memoryDB) DeleteComplaint(_ context.Context, id, owner uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.owned(id, owner); err != nil {
		return err
	}
	delete(m.complaints, id)
	return nil
}

// fakeComplaints is a scripted ComplaintService.
type fakeComplaints struct {
	pkg         *types.ComplaintPackage
	genErr      error
	newDraft    string
	refineErr   error
	answer      string
	followUp    string
	followErr   error
	calls       []string
	lastContext string
}

func (f *fakeComplaints) ClassifyAndGenerate(_ context.Context, problem string) (*types.ComplaintPackage, error) {
	f.calls = append(f.calls, "classify:"+problem)
	if f.genErr != nil {
		return nil, f.genErr
	}
	cp := *f.pkg
	return &cp, nil
}

func (f *fakeComplaints) RefineComplaint(_ context.Context, _, _, instruction string) (string, error) {
	f.calls = append(f.calls, "refine:"+instruction)
	return f.newDraft, f.refineErr
}

func (f *fakeComplaints) GetClarification(_ context.Context, stepContext, question, _ string) string {
	f.calls = append(f.calls, "clarify:"+question)
	f.lastContext = stepContext
	return f.answer
}

func (f *fakeComplaints) GenerateFollowUp(_ context.Context, c *types.Complaint) (*types.FollowUp, error) {
	f.calls = append(f.calls, "follow-up:"+c.ID.String())
	if f.followErr != nil {
		return nil, f.followErr
	}
	return &types.FollowUp{FollowUpDraft: f.followUp}, nil
}

func samplePackage() *types.ComplaintPackage {
	return &types.ComplaintPackage{
		Category:       types.CategoryConsumerComplaint,
		Portal:         "https://consumerhelpline.gov.in",
		PortalID:       "national-consumer-helpline",
		ComplaintDraft: "To the Grievance Officer...",
		Documents:      "- Invoice",
		Guide:          []types.GuideStep{{StepNumber: 1, Instruction: "Register"}},
	}
}

type testEnv struct {
	server     *Server
	db         *memoryDB
	complaints *fakeComplaints
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newMemoryDB()
	complaints := &fakeComplaints{pkg: samplePackage()}

	s, err := New(Config{
		Port:              0,
		BaseURL:           "http://localhost:8080",
		SessionCookieName: "session",
		JWT:               &config.JWTConfig{Secret: "test-secret-key-for-jwt-signing-minimum-32-bytes", ExpirationHours: 24},
		Password:          &config.PasswordConfig{BcryptCost: 10},
		RateLimit:         &ratelimit.Config{Enabled: false},
	}, store, complaints)
	require.NoError(t, err)
	t.Cleanup(s.rateLimiter.Stop)

	return &testEnv{server: s, db: store, complaints: complaints}
}

// do sends a request through the full middleware chain.
func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

// newUser registers an account directly and returns its ID and a token.
func (e *testEnv) newUser(t *testing.T, email string) (uuid.UUID, string) {
	t.Helper()
	id, err := e.db.CreateUser(context.Background(), email, "unused-hash")
	require.NoError(t, err)
	token, err := e.server.jwtService.GenerateToken(id)
	require.NoError(t, err)
	return id, token
}

func (e *testEnv) seedComplaint(t *testing.T, owner uuid.UUID) *types.Complaint {
	t.Helper()
	c, err := e.db.CreateComplaint(context.Background(), owner, "defective phone", samplePackage())
	require.NoError(t, err)
	return c
}
