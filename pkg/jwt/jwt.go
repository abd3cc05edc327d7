package jwt

import (
	"errors"
	"time"

	"go-boutique/pkg/config"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var ErrInvalidToken = errors.New("invalid token")

type Claims struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Manager 负责签发和解析 Token
type Manager struct {
	key        []byte
	issuer     string
	expiration time.Duration
}

// NewManager builds a Manager from config. An empty secret (allowed outside
// production) gets a random per-process key, so tokens do not survive restarts.
func NewManager(cfg config.JWTConfig) *Manager {
	key := []byte(cfg.Secret)
	if len(key) == 0 {
		key = []byte(uuid.NewString())
	}
	exp := cfg.Expiration
	if exp <= 0 {
		exp = 24 * time.Hour
	}
	return &Manager{key: key, issuer: cfg.Issuer, expiration: exp}
}

// GenerateToken 生成 Token
func (m *Manager) GenerateToken(userID uint, username, role string) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiration)),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.key)
}

// ParseToken 解析 Token
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.key, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}

// Expiration is the lifetime given to new tokens.
func (m *Manager) Expiration() time.Duration {
	return m.expiration
}
