package convert

import (
	"passport/biz/model/domain"
	"passport/biz/model/storage"
)

func AccountDomainToRecord(a *domain.Account) *storage.LoginRecord {
	if a == nil {
		return nil
	}
	return &storage.LoginRecord{
		GormModel: storage.GormModel{
			CreatedAt: a.CreatedAt,
			UpdatedAt: a.UpdatedAt,
		},
		UserId:       a.UserID,
		Account:      a.Account,
		PasswordHash: a.PasswordHash,
		PasswordSalt: a.Salt,
		State:        int8(a.State),
		Phone:        a.Phone,
	}
}

func AccountRecordToDomain(m *storage.LoginRecord) *domain.Account {
	if m == nil {
		return nil
	}
	return &domain.Account{
		UserID:       m.UserId,
		Account:      m.Account,
		PasswordHash: m.PasswordHash,
		Salt:         m.PasswordSalt,
		State:        domain.AccountState(m.State),
		Phone:        m.Phone,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}
