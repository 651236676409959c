package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/inkfoldhq/inkfold-composer-backend/internal/models"
)

// AuthService authenticates the single admin principal that may browse and
// delete content keys. The admin is configured through ADMIN_USERNAME and
// ADMIN_PASSWORD; there is no user table.
type AuthService struct {
	adminUsername     string
	adminPasswordHash []byte
	jwtSecret         []byte
	accessTokenTTL    time.Duration
}

func NewAuthService() (*AuthService, error) {
	jwtSecret := []byte(os.Getenv("JWT_SECRET"))
	if len(jwtSecret) == 0 {
		jwtSecret = []byte("default-secret-key-change-in-production")
		logrus.Warn("JWT_SECRET not set, using default secret")
	}

	accessTokenTTL := 15 * time.Minute
	if ttl := os.Getenv("ACCESS_TOKEN_TTL"); ttl != "" {
		if parsed, err := time.ParseDuration(ttl); err == nil {
			accessTokenTTL = parsed
		}
	}

	username := os.Getenv("ADMIN_USERNAME")
	password := os.Getenv("ADMIN_PASSWORD")
	if username == "" || password == "" {
		return nil, errors.New("ADMIN_USERNAME and ADMIN_PASSWORD must be set")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash admin password: %w", err)
	}

	return &AuthService{
		adminUsername:     username,
		adminPasswordHash: hash,
		jwtSecret:         jwtSecret,
		accessTokenTTL:    accessTokenTTL,
	}, nil
}

// Login checks the admin credentials and issues an access token
func (s *AuthService) Login(req *models.LoginRequest) (*models.AuthResponse, error) {
	if req.Username != s.adminUsername {
		return nil, errors.New("invalid username or password")
	}
	if err := bcrypt.CompareHashAndPassword(s.adminPasswordHash, []byte(req.Password)); err != nil {
		return nil, errors.New("invalid username or password")
	}

	now := time.Now()
	claims := &models.JWTClaims{
		Username: req.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTokenTTL)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.AuthResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.accessTokenTTL.Seconds()),
	}, nil
}

// ValidateToken validates and parses a JWT token
func (s *AuthService) ValidateToken(tokenString string) (*models.TokenInfo, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*models.JWTClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}
	if claims.Username != s.adminUsername {
		return nil, errors.New("unknown principal")
	}

	return &models.TokenInfo{
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
