package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/example/truenumber/internal/models"
)

// GormStore bundles the GORM-backed implementations of every store interface
// on a single connection so all entities share one transactional boundary.
type GormStore struct {
	Challenges ChallengeStore
	Users      UserStore
	Companies  CompanyStore
	Requests   RequestStore
}

// NewGormStore builds the store bundle around db.
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{
		Challenges: &gormChallenges{db: db},
		Users:      &gormUsers{db: db},
		Companies:  &gormCompanies{db: db},
		Requests:   &gormRequests{db: db},
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

type gormChallenges struct {
	db *gorm.DB
}

func (s *gormChallenges) Active(ctx context.Context, mobileNumber, countryCode string) (*models.OTPChallenge, error) {
	var ch models.OTPChallenge
	err := s.db.WithContext(ctx).
		Where("mobile_number = ? AND country_code = ? AND is_verified = ? AND expires_at > ?",
			mobileNumber, countryCode, false, time.Now()).
		Order("created_at DESC").
		First(&ch).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ch, nil
}

// Issue voids prior unverified challenges and inserts the new one in a single
// transaction. The UPDATE's row locks serialize two concurrent issues for the
// same identity.
func (s *gormChallenges) Issue(ctx context.Context, ch *models.OTPChallenge) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.OTPChallenge{}).
			Where("mobile_number = ? AND country_code = ? AND is_verified = ?",
				ch.MobileNumber, ch.CountryCode, false).
			Update("is_verified", true).Error; err != nil {
			return err
		}
		return tx.Create(ch).Error
	})
}

func (s *gormChallenges) FindByCode(ctx context.Context, mobileNumber, countryCode, code string) (*models.OTPChallenge, error) {
	var ch models.OTPChallenge
	err := s.db.WithContext(ctx).
		Where("mobile_number = ? AND country_code = ? AND code = ? AND is_verified = ?",
			mobileNumber, countryCode, code, false).
		Order("created_at DESC").
		First(&ch).Error
	if err != nil {
		return nil, translate(err)
	}
	return &ch, nil
}

// Consume increments attempts and flips is_verified in one guarded UPDATE so
// only one of two concurrent verifies can win.
func (s *gormChallenges) Consume(ctx context.Context, id uuid.UUID) (*models.OTPChallenge, error) {
	res := s.db.WithContext(ctx).Model(&models.OTPChallenge{}).
		Where("id = ? AND is_verified = ?", id, false).
		Updates(map[string]interface{}{
			"attempts":    gorm.Expr("attempts + 1"),
			"is_verified": true,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}

	var ch models.OTPChallenge
	if err := s.db.WithContext(ctx).First(&ch, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &ch, nil
}

func (s *gormChallenges) PurgeExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("expires_at < ?", cutoff).
		Delete(&models.OTPChallenge{})
	return res.RowsAffected, res.Error
}

type gormUsers struct {
	db *gorm.DB
}

func (s *gormUsers) Create(ctx context.Context, u *models.User) error {
	return s.db.WithContext(ctx).Create(u).Error
}

func (s *gormUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (s *gormUsers) GetByIdentity(ctx context.Context, mobileNumber, countryCode string) (*models.User, error) {
	var u models.User
	err := s.db.WithContext(ctx).
		First(&u, "mobile_number = ? AND country_code = ?", mobileNumber, countryCode).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

type gormCompanies struct {
	db *gorm.DB
}

func (s *gormCompanies) Create(ctx context.Context, c *models.Company) error {
	return s.db.WithContext(ctx).Create(c).Error
}

func (s *gormCompanies) GetByID(ctx context.Context, id uuid.UUID) (*models.Company, error) {
	var c models.Company
	if err := s.db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *gormCompanies) GetByDomain(ctx context.Context, domain string) (*models.Company, error) {
	var c models.Company
	if err := s.db.WithContext(ctx).First(&c, "domain = ?", domain).Error; err != nil {
		return nil, translate(err)
	}
	return &c, nil
}

func (s *gormCompanies) List(ctx context.Context, limit, offset int) ([]models.Company, error) {
	var companies []models.Company
	err := s.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&companies).Error
	return companies, err
}

func (s *gormCompanies) Update(ctx context.Context, c *models.Company) error {
	return s.db.WithContext(ctx).Save(c).Error
}

type gormRequests struct {
	db *gorm.DB
}

func (s *gormRequests) Create(ctx context.Context, r *models.VerificationRequest) error {
	return s.db.WithContext(ctx).Create(r).Error
}

func (s *gormRequests) Get(ctx context.Context, id uuid.UUID) (*models.VerificationRequest, error) {
	var r models.VerificationRequest
	err := s.db.WithContext(ctx).
		Preload(clause.Associations).
		First(&r, "id = ?", id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &r, nil
}

func (s *gormRequests) PendingForUser(ctx context.Context, userID uuid.UUID) ([]models.VerificationRequest, error) {
	var requests []models.VerificationRequest
	err := s.db.WithContext(ctx).
		Preload("Company").
		Where("user_id = ? AND status = ? AND expiry_time > ?",
			userID, models.StatusUserActionPending, time.Now()).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (s *gormRequests) ForCompany(ctx context.Context, companyID uuid.UUID, limit, offset int) ([]models.VerificationRequest, error) {
	var requests []models.VerificationRequest
	err := s.db.WithContext(ctx).
		Preload("User").
		Where("company_id = ?", companyID).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&requests).Error
	return requests, err
}

// Transition is guarded on the status the caller read; zero rows affected
// means a concurrent writer moved the request first.
func (s *gormRequests) Transition(ctx context.Context, id uuid.UUID, from, to models.RequestStatus) (*models.VerificationRequest, error) {
	res := s.db.WithContext(ctx).Model(&models.VerificationRequest{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrConflict
	}
	return s.Get(ctx, id)
}

func (s *gormRequests) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.VerificationRequest{}).
		Where("expiry_time < ? AND status NOT IN ?", now, []models.RequestStatus{
			models.StatusCompleted, models.StatusExpired, models.StatusUserRejected,
		}).
		Update("status", models.StatusExpired)
	return res.RowsAffected, res.Error
}
