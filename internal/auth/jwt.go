package auth

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/annel0/ufo-survivor/internal/logging"
)

// Issuer — значение поля iss в токенах забега
const Issuer = "ufo-survivor"

// ErrInvalidToken возвращается для поддельного, просроченного или чужого токена
var ErrInvalidToken = errors.New("invalid run token")

// Claims represents JWT claims of a run control token
type Claims struct {
	RunID string `json:"run_id"`
	jwt.RegisteredClaims
}

// TokenIssuer выпускает и проверяет токены управления забегом.
// Токен даёт право менять намерение игрока, стрелять и выбирать улучшения.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenIssuer создаёт выпускающего с секретом из конфигурации.
// Пустой секрет заменяется случайным, токены тогда живут до перезапуска.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	key := []byte(secret)
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			logging.Error("КРИТИЧЕСКАЯ ОШИБКА: не удалось сгенерировать JWT секрет: %v", err)
		}
		logging.Warn("🔐 JWT секрет не задан, используется случайный")
	}
	return &TokenIssuer{secret: key, ttl: ttl}
}

// Issue creates a signed token for the given run
func (ti *TokenIssuer) Issue(runID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		RunID: runID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    Issuer,
			Subject:   runID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("sign run token: %w", err)
	}
	return signed, nil
}

// Validate checks token validity and returns the run it grants access to
func (ti *TokenIssuer) Validate(tokenString string) (string, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return ti.secret, nil
	}, jwt.WithIssuer(Issuer))

	if err != nil || !token.Valid || claims.RunID == "" {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return claims.RunID, nil
}

// Authorize проверяет, что токен выдан именно для runID
func (ti *TokenIssuer) Authorize(tokenString, runID string) error {
	got, err := ti.Validate(tokenString)
	if err != nil {
		return err
	}
	if got != runID {
		return fmt.Errorf("%w: token for run %s", ErrInvalidToken, got)
	}
	return nil
}

// GenerateSecureSecret generates a new secure secret key
func GenerateSecureSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
