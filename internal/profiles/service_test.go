package profiles

import (
	"context"
	"testing"
	"time"

	"travelhub/internal/shared/apperrors"
	"travelhub/internal/shared/session"
	"travelhub/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory Repository.
type memRepo struct {
	rows  map[uuid.UUID]Profile
	saves int
}

func newMemRepo() *memRepo { return &memRepo{rows: map[uuid.UUID]Profile{}} }

func (m *memRepo) Create(_ context.Context, p *Profile) error {
	m.rows[p.ID] = *p
	return nil
}

func (m *memRepo) Get(_ context.Context, id uuid.UUID) (*Profile, error) {
	p, ok := m.rows[id]
	if !ok {
		return nil, apperrors.NotFound("profile")
	}
	return &p, nil
}

func (m *memRepo) Save(_ context.Context, p *Profile) error {
	m.saves++
	m.rows[p.ID] = *p
	return nil
}

func (m *memRepo) ClearExpiredPremium(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for id, p := range m.rows {
		if p.PremiumLapsed(now) {
			p.clearPremium()
			m.rows[id] = p
			n++
		}
	}
	return n, nil
}

var now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestService(repo Repository) (*service, *session.Broker) {
	b := session.NewBroker(4)
	svc := NewService(repo, b, logger.Discard()).(*service)
	svc.now = func() time.Time { return now }
	return svc, b
}

func ptr[T any](v T) *T { return &v }

func TestGetDowngradesLapsedPremium(t *testing.T) {
	repo := newMemRepo()
	uid := uuid.New()
	repo.rows[uid] = Profile{ID: uid, IsPremium: true, PremiumType: ptr(PlanMonthly), PremiumExpiry: ptr(now.Add(-time.Minute))}

	svc, _ := newTestService(repo)
	p, err := svc.Get(context.Background(), &session.Session{UserID: uid})
	require.NoError(t, err)

	assert.False(t, p.IsPremium)
	assert.Nil(t, p.PremiumType)
	assert.Nil(t, p.PremiumExpiry)
	assert.False(t, repo.rows[uid].IsPremium, "downgrade must be persisted")
}

func TestGetKeepsActivePremium(t *testing.T) {
	repo := newMemRepo()
	uid := uuid.New()
	repo.rows[uid] = Profile{ID: uid, IsPremium: true, PremiumType: ptr(PlanYearly), PremiumExpiry: ptr(now.Add(time.Hour))}

	svc, _ := newTestService(repo)
	p, err := svc.Get(context.Background(), &session.Session{UserID: uid})
	require.NoError(t, err)
	assert.True(t, p.IsPremium)
	assert.Zero(t, repo.saves)
}

func TestGetRequiresSession(t *testing.T) {
	svc, _ := newTestService(newMemRepo())
	_, err := svc.Get(context.Background(), nil)
	assert.ErrorIs(t, err, apperrors.ErrAuthRequired)
}

func TestUpdateValidatesPhone(t *testing.T) {
	repo := newMemRepo()
	uid := uuid.New()
	svc, broker := newTestService(repo)
	events, cancel := broker.Subscribe(uid)
	defer cancel()
	sess := &session.Session{UserID: uid}

	_, err := svc.Update(context.Background(), sess, &UpdateProfileRequest{Phone: ptr("12-34")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	p, err := svc.Update(context.Background(), sess, &UpdateProfileRequest{Phone: ptr("+91 98765 43210"), FirstName: ptr(" Asha ")})
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", *p.Phone)
	assert.Equal(t, "Asha", p.FirstName)
	assert.Equal(t, session.EventProfileUpdated, (<-events).Type)

	_, err = svc.Update(context.Background(), sess, &UpdateProfileRequest{DateOfBirth: ptr("2099-01-01")})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestActivatePremiumExtendsActiveMembership(t *testing.T) {
	repo := newMemRepo()
	uid := uuid.New()
	svc, _ := newTestService(repo)

	p, err := svc.ActivatePremium(context.Background(), uid, PlanMonthly)
	require.NoError(t, err)
	assert.True(t, p.IsPremium)
	assert.Equal(t, now.Add(30*24*time.Hour), *p.PremiumExpiry)

	p, err = svc.ActivatePremium(context.Background(), uid, PlanYearly)
	require.NoError(t, err)
	assert.Equal(t, PlanYearly, *p.PremiumType)
	assert.Equal(t, now.Add(395*24*time.Hour), *p.PremiumExpiry)

	_, err = svc.ActivatePremium(context.Background(), uid, PremiumPlan("lifetime"))
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestExpireLapsed(t *testing.T) {
	repo := newMemRepo()
	a, b := uuid.New(), uuid.New()
	repo.rows[a] = Profile{ID: a, IsPremium: true, PremiumExpiry: ptr(now.Add(-time.Hour))}
	repo.rows[b] = Profile{ID: b, IsPremium: true, PremiumExpiry: ptr(now.Add(time.Hour))}

	svc, _ := newTestService(repo)
	n, err := svc.ExpireLapsed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
