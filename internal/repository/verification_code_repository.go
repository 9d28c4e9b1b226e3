package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Shalbulov/zentro-risk-prediction/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var ErrCodeNotFound = errors.New("verification code not found or expired")

// CodeRecord is one outstanding verification code. The email is the key:
// issuing a new code for the same address overwrites the previous row.
type CodeRecord struct {
	Email     string    `gorm:"primaryKey;column:email"`
	Code      string    `gorm:"column:code"`
	CreatedAt time.Time `gorm:"column:created_at"`
	ExpiresAt time.Time `gorm:"column:expires_at"`
}

// CodeRepository backs both the registration and login code tables; the two
// constructors differ only in the table they bind. Every read carries an
// expiry predicate, so stale rows are invisible even though no sweeper
// removes them.
type CodeRepository interface {
	Upsert(ctx context.Context, record *CodeRecord) error
	FindActive(ctx context.Context, email, code string, now time.Time) (*CodeRecord, error)
	DeleteByEmail(ctx context.Context, email string) (int64, error)
	WithTx(tx *gorm.DB) CodeRepository
}

type GormCodeRepository struct {
	db    *gorm.DB
	table string
}

func NewRegistrationCodeRepository(db *gorm.DB) CodeRepository {
	return &GormCodeRepository{db: db, table: domain.RegistrationCode{}.TableName()}
}

func NewLoginCodeRepository(db *gorm.DB) CodeRepository {
	return &GormCodeRepository{db: db, table: domain.LoginCode{}.TableName()}
}

func (r *GormCodeRepository) WithTx(tx *gorm.DB) CodeRepository {
	return &GormCodeRepository{db: tx, table: r.table}
}

func (r *GormCodeRepository) Upsert(ctx context.Context, record *CodeRecord) error {
	return r.db.WithContext(ctx).Table(r.table).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "email"}},
			DoUpdates: clause.AssignmentColumns([]string{"code", "created_at", "expires_at"}),
		}).
		Create(record).Error
}

func (r *GormCodeRepository) FindActive(ctx context.Context, email, code string, now time.Time) (*CodeRecord, error) {
	var rec CodeRecord
	err := r.db.WithContext(ctx).Table(r.table).
		Where("email = ? AND code = ? AND expires_at > ?", email, code, now).
		Take(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCodeNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// DeleteByEmail returns the number of rows removed. Callers consuming a code
// inside a transaction treat zero rows as a lost race and fail the whole
// verification.
func (r *GormCodeRepository) DeleteByEmail(ctx context.Context, email string) (int64, error) {
	res := r.db.WithContext(ctx).Table(r.table).Where("email = ?", email).Delete(&CodeRecord{})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
