package token

import (
	"errors"
	"fmt"
	"time"

	"passport/biz/config"
	"passport/biz/model/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidUserID       = errors.New("user id is empty")
	ErrMissingSecret       = errors.New("token secret is empty")
	ErrUnexpectedJwtMethod = errors.New("unexpected jwt method")
	ErrTokenInvalid        = errors.New("token is invalid")
	ErrTokenExpired        = errors.New("token is expired")
)

const DefaultExpiration = 2 * time.Hour

// Claims binds a token to one user and one client signature.
type Claims struct {
	jwt.RegisteredClaims

	UserID    string `json:"user_id"`
	Signature string `json:"sig"`
}

// Issuer mints HS256 login tokens. A token cannot be forged without the
// secret and names the user and signature it was issued for.
type Issuer struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

func NewIssuer(conf config.TokenConf) *Issuer {
	exp := time.Duration(conf.Expiration) * time.Second
	if exp <= 0 {
		exp = DefaultExpiration
	}
	return &Issuer{
		secret:     []byte(conf.Secret),
		issuer:     conf.Issuer,
		expiration: exp,
		now:        time.Now,
	}
}

func NewDefault() *Issuer {
	return NewIssuer(config.GetTokenConf())
}

// Expiration is the lifetime of every issued token.
func (i *Issuer) Expiration() time.Duration {
	return i.expiration
}

func (i *Issuer) GenerateToken(userID, signature string) (*domain.TokenInfo, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if len(i.secret) == 0 {
		return nil, ErrMissingSecret
	}

	issuedAt := i.now()
	expiresAt := issuedAt.Add(i.expiration)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    i.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		UserID:    userID,
		Signature: signature,
	}

	tokenStr, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &domain.TokenInfo{
		Token:     tokenStr,
		UserID:    userID,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
	}, nil
}

func (i *Issuer) ParseToken(tokenStr string) (*Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenStr, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrHashUnavailable
		}
		return i.secret, nil
	}, jwt.WithTimeFunc(i.now))
	if err != nil {
		if errors.Is(err, jwt.ErrHashUnavailable) {
			return nil, ErrUnexpectedJwtMethod
		}
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	if !token.Valid || claims.UserID == "" || claims.Subject != claims.UserID {
		return nil, ErrTokenInvalid
	}

	return &claims, nil
}
