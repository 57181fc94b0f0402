package repo

import (
	"context"
	"errors"

	"passport/biz/model/convert"
	"passport/biz/model/domain"
	"passport/biz/model/storage"
	"passport/biz/util/id_gen"

	"gorm.io/gorm"
)

var ErrDuplicated = errors.New("account duplicated")

// AccountRepository is the read/insert surface of credential records.
// Lookups return (nil, nil) when nothing matches.
type AccountRepository interface {
	FindByAccount(ctx context.Context, account string) (*domain.Account, error)
	FindByUserID(ctx context.Context, userID string) (*domain.Account, error)
	Insert(ctx context.Context, a *domain.Account) (string, error)
}

type AccountRepositoryGorm struct {
	db *gorm.DB
}

func NewAccountRepositoryGorm(db *gorm.DB) *AccountRepositoryGorm {
	return &AccountRepositoryGorm{db: db}
}

func (r *AccountRepositoryGorm) FindByAccount(ctx context.Context, account string) (*domain.Account, error) {
	return r.findOne(ctx, "account = ?", account)
}

func (r *AccountRepositoryGorm) FindByUserID(ctx context.Context, userID string) (*domain.Account, error) {
	return r.findOne(ctx, "user_id = ?", userID)
}

// Insert stores a and returns its user id, generating one when a has none.
func (r *AccountRepositoryGorm) Insert(ctx context.Context, a *domain.Account) (string, error) {
	m := convert.AccountDomainToRecord(a)
	if m.UserId == "" {
		m.UserId = id_gen.NewID()
	}
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		if isDuplicated(err) {
			return "", ErrDuplicated
		}
		return "", err
	}
	return m.UserId, nil
}

func (r *AccountRepositoryGorm) findOne(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var m storage.LoginRecord
	err := r.db.WithContext(ctx).Where(query, arg).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return convert.AccountRecordToDomain(&m), nil
}
