package assertion

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "examreg/pkg/domain-errors"
	"examreg/pkg/platform/sentinel"
	"examreg/pkg/requestcontext"
)

// UsedStore records consumed token IDs for replay rejection.
type UsedStore interface {
	MarkUsed(ctx context.Context, jti string, ttl time.Duration) error
}

// Service signs and consumes contact-verification assertions.
type Service struct {
	signingKey []byte
	ttl        time.Duration
	used       UsedStore
}

func NewService(signingKey string, ttl time.Duration, used UsedStore) *Service {
	return &Service{signingKey: []byte(signingKey), ttl: ttl, used: used}
}

// Issue signs an assertion bound to the given contact address.
func (s *Service) Issue(ctx context.Context, address string) (string, error) {
	now := requestcontext.Now(ctx)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Address: address,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   address,
			Issuer:    issuer,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "sign assertion")
	}
	return signed, nil
}

// Consume validates the assertion against the expected address and retires
// its token ID. A second Consume of the same token fails even if the
// signature and expiry are still good.
func (s *Service) Consume(ctx context.Context, tokenString, address string) error {
	claims, err := s.parse(ctx, tokenString)
	if err != nil {
		return err
	}

	if !strings.EqualFold(claims.Address, address) {
		return dErrors.New(dErrors.CodeAssertionInvalid, "assertion does not match contact address")
	}

	// Retain the jti for the token's remaining lifetime; after that the
	// expiry check rejects it anyway.
	remaining := s.ttl
	if claims.ExpiresAt != nil {
		remaining = claims.ExpiresAt.Sub(requestcontext.Now(ctx))
	}
	if err := s.used.MarkUsed(ctx, claims.ID, remaining); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return dErrors.New(dErrors.CodeAssertionInvalid, "assertion already used")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "consume assertion")
	}
	return nil
}

func (s *Service) parse(ctx context.Context, tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	},
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(func() time.Time { return requestcontext.Now(ctx) }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeAssertionInvalid, "assertion has expired")
		}
		return nil, dErrors.New(dErrors.CodeAssertionInvalid, "invalid assertion")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.ID == "" {
		return nil, dErrors.New(dErrors.CodeAssertionInvalid, "invalid assertion claims")
	}
	return claims, nil
}
