package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sena-asistencia/backend/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
)

const (
	tokenAccess  = "access"
	tokenRefresh = "refresh"
)

// Claims holds JWT claims including user ID and role.
type Claims struct {
	UserID   int64       `json:"user_id"`
	Document string      `json:"documento"`
	Role     models.Role `json:"role"`
	Type     string      `json:"typ"`
	jwt.RegisteredClaims
}

// TokenPair is an access token with the refresh token that renews it.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// JWTService handles token generation and validation.
type JWTService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTService creates a JWT service.
func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) *JWTService {
	return &JWTService{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// GeneratePair creates an access and a refresh token for the user.
func (s *JWTService) GeneratePair(u *models.User) (TokenPair, error) {
	access, err := s.sign(u, tokenAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(u, tokenRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{Access: access, Refresh: refresh}, nil
}

func (s *JWTService) sign(u *models.User, typ string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := Claims{
		UserID:   u.ID,
		Document: u.Document,
		Role:     u.Role,
		Type:     typ,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(u.ID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// ValidateAccess parses an access token and returns its principal.
func (s *JWTService) ValidateAccess(tokenString string) (models.Principal, error) {
	claims, err := s.validate(tokenString, tokenAccess)
	if err != nil {
		return models.Principal{}, err
	}
	return models.Principal{UserID: claims.UserID, Role: claims.Role}, nil
}

// ValidateRefresh parses a refresh token and returns its claims.
func (s *JWTService) ValidateRefresh(tokenString string) (*Claims, error) {
	return s.validate(tokenString, tokenRefresh)
}

func (s *JWTService) validate(tokenString, typ string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Type != typ {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
