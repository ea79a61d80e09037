package receipt

import (
	"errors"
	"fmt"
	"time"

	receipterrors "go-salary/internal/receipt/errors"

	"github.com/golang-jwt/jwt/v5"
)

type receiptClaims struct {
	Ref string `json:"ref"`
	jwt.RegisteredClaims
}

// ErrTokenMismatch keeps the verification cause for logs while the client
// only ever sees ErrInvalidReceiptToken.
func ErrTokenMismatch(cause error) error {
	if cause == nil {
		return receipterrors.ErrInvalidReceiptToken
	}
	return errors.Join(receipterrors.ErrInvalidReceiptToken, cause)
}

// Signer issues and verifies short-lived download tokens for receipt links.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

func (s *Signer) Sign(ref string, expiry time.Duration) (string, error) {
	issued := s.now()
	claims := receiptClaims{
		Ref: ref,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "receipt",
			IssuedAt:  jwt.NewNumericDate(issued),
			ExpiresAt: jwt.NewNumericDate(issued.Add(expiry)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Verify returns the receipt reference embedded in a valid token.
func (s *Signer) Verify(token string) (string, error) {
	claims := &receiptClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return "", errors.Join(receipterrors.ErrInvalidReceiptToken, err)
	}
	if claims.Subject != "receipt" || claims.Ref == "" {
		return "", receipterrors.ErrInvalidReceiptToken
	}
	return claims.Ref, nil
}
