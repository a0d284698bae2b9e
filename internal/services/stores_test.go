package services

// In-memory store implementations used by the service tests. Each guards its
// state with a mutex and mirrors the atomicity the GORM store promises.

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/example/truenumber/internal/models"
	"github.com/example/truenumber/internal/store"
)

type memChallenges struct {
	mu  sync.Mutex
	seq int
	all []*models.OTPChallenge
}

func (m *memChallenges) add(ch *models.OTPChallenge) *models.OTPChallenge {
	if ch.ID == uuid.Nil {
		ch.ID = uuid.New()
	}
	m.seq++
	ch.CreatedAt = time.Unix(int64(m.seq), 0)
	m.all = append(m.all, ch)
	return ch
}

// seed inserts a challenge without voiding priors, for crafting fixtures.
func (m *memChallenges) seed(ch *models.OTPChallenge) *models.OTPChallenge {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.add(ch)
}

func (m *memChallenges) newestMatch(match func(*models.OTPChallenge) bool) *models.OTPChallenge {
	var newest *models.OTPChallenge
	for _, ch := range m.all {
		if match(ch) && (newest == nil || ch.CreatedAt.After(newest.CreatedAt)) {
			newest = ch
		}
	}
	return newest
}

func (m *memChallenges) Active(ctx context.Context, mobileNumber, countryCode string) (*models.OTPChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	ch := m.newestMatch(func(ch *models.OTPChallenge) bool {
		return ch.MobileNumber == mobileNumber && ch.CountryCode == countryCode &&
			!ch.IsVerified && ch.ExpiresAt.After(now)
	})
	if ch == nil {
		return nil, store.ErrNotFound
	}
	copied := *ch
	return &copied, nil
}

func (m *memChallenges) Issue(ctx context.Context, ch *models.OTPChallenge) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, prior := range m.all {
		if prior.MobileNumber == ch.MobileNumber && prior.CountryCode == ch.CountryCode {
			prior.IsVerified = true
		}
	}
	m.add(ch)
	return nil
}

func (m *memChallenges) FindByCode(ctx context.Context, mobileNumber, countryCode, code string) (*models.OTPChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := m.newestMatch(func(ch *models.OTPChallenge) bool {
		return ch.MobileNumber == mobileNumber && ch.CountryCode == countryCode &&
			ch.Code == code && !ch.IsVerified
	})
	if ch == nil {
		return nil, store.ErrNotFound
	}
	copied := *ch
	return &copied, nil
}

func (m *memChallenges) Consume(ctx context.Context, id uuid.UUID) (*models.OTPChallenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.all {
		if ch.ID == id {
			if ch.IsVerified {
				return nil, store.ErrConflict
			}
			ch.Attempts++
			ch.IsVerified = true
			copied := *ch
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memChallenges) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []*models.OTPChallenge
	var purged int64
	for _, ch := range m.all {
		if ch.ExpiresAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, ch)
	}
	m.all = kept
	return purged, nil
}

type memUsers struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{byID: map[uuid.UUID]*models.User{}}
}

func (m *memUsers) Create(ctx context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.byID[u.ID] = u
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) GetByIdentity(ctx context.Context, mobileNumber, countryCode string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.MobileNumber == mobileNumber && u.CountryCode == countryCode {
			return u, nil
		}
	}
	return nil, store.ErrNotFound
}

type memCompanies struct {
	mu   sync.Mutex
	byID map[uuid.UUID]*models.Company
}

func newMemCompanies() *memCompanies {
	return &memCompanies{byID: map[uuid.UUID]*models.Company{}}
}

func (m *memCompanies) Create(ctx context.Context, c *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	m.byID[c.ID] = c
	return nil
}

func (m *memCompanies) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.byID[id]; ok {
		return c, nil
	}
	return nil, store.ErrNotFound
}

func (m *memCompanies) GetByDomain(ctx context.Context, domain string) (*models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.byID {
		if c.Domain == domain {
			return c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memCompanies) List(ctx context.Context, limit, offset int) ([]models.Company, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Company
	for _, c := range m.byID {
		out = append(out, *c)
	}
	return out, nil
}

func (m *memCompanies) Update(ctx context.Context, c *models.Company) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[c.ID] = c
	return nil
}

type memRequests struct {
	mu  sync.Mutex
	seq int
	all []*models.VerificationRequest
}

func (m *memRequests) Create(ctx context.Context, r *models.VerificationRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.seq++
	r.CreatedAt = time.Unix(int64(m.seq), 0)
	m.all = append(m.all, r)
	return nil
}

func (m *memRequests) Get(ctx context.Context, id uuid.UUID) (*models.VerificationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.all {
		if r.ID == id {
			copied := *r
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memRequests) PendingForUser(ctx context.Context, userID uuid.UUID) ([]models.VerificationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	var out []models.VerificationRequest
	for i := len(m.all) - 1; i >= 0; i-- {
		r := m.all[i]
		if r.UserID == userID && r.Status == models.StatusUserActionPending && r.ExpiryTime.After(now) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *memRequests) ForCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]models.VerificationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.VerificationRequest
	for i := len(m.all) - 1; i >= 0; i-- {
		if m.all[i].CompanyID == companyID {
			out = append(out, *m.all[i])
		}
	}
	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (m *memRequests) Transition(ctx context.Context, id uuid.UUID, from, to models.RequestStatus) (*models.VerificationRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.all {
		if r.ID == id {
			if r.Status != from {
				return nil, store.ErrConflict
			}
			r.Status = to
			r.UpdatedAt = time.Now()
			copied := *r
			return &copied, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memRequests) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, r := range m.all {
		if r.ExpiryTime.Before(now) && !r.Status.Terminal() {
			r.Status = models.StatusExpired
			r.UpdatedAt = now
			count++
		}
	}
	return count, nil
}

// countingNotifier records deliveries for assertions.
type countingNotifier struct {
	mu    sync.Mutex
	sent  int
	codes []string
}

func (n *countingNotifier) SendCode(mobileNumber, countryCode, code string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent++
	n.codes = append(n.codes, code)
	return nil
}
