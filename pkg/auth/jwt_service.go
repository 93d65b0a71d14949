package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mlazarev/accounts-api/pkg/apperror"
	"github.com/mlazarev/accounts-api/pkg/logger"
)

const (
	accessSidLength  = 6
	refreshSidLength = 8
	sidLinkSeparator = "#"
)

// JWTService issues and verifies HS256-signed access/refresh tokens.
// Any decode failure collapses into a single authentication error so the
// caller can't tell an expired token from a forged one; the real cause is
// only logged.
type JWTService struct {
	secretKey       []byte
	accessLifespan  time.Duration
	refreshLifespan time.Duration
	logger          logger.Logger
}

type AccessClaims struct {
	UUID  string `json:"uuid"`
	Email string `json:"email"`
	Sid   string `json:"sid"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UUID string `json:"uuid"`
	Sid  string `json:"sid"`
	jwt.RegisteredClaims
}

// TokensPair is an access token plus the refresh token issued alongside it.
// The refresh sid carries the access sid after the "#" so the pair stays
// linked.
type TokensPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

func NewJWTService(secretKey string, accessLifespan, refreshLifespan time.Duration, log logger.Logger) *JWTService {
	return &JWTService{
		secretKey:       []byte(secretKey),
		accessLifespan:  accessLifespan,
		refreshLifespan: refreshLifespan,
		logger:          log,
	}
}

func (s *JWTService) CreateAccessToken(uuid, email, sid string) (string, error) {
	claims := AccessClaims{
		UUID:  uuid,
		Email: email,
		Sid:   sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.accessLifespan)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("cannot sign access token: %w", err)
	}
	return signed, nil
}

func (s *JWTService) CreateRefreshToken(uuid, sid string) (string, error) {
	claims := RefreshClaims{
		UUID: uuid,
		Sid:  sid,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.refreshLifespan)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", fmt.Errorf("cannot sign refresh token: %w", err)
	}
	return signed, nil
}

// CreateTokensPair issues both tokens with a shared session linkage. The
// user's secret is part of the issuance contract for future key-rotation
// lookups but is never embedded in claims.
func (s *JWTService) CreateTokensPair(uuid, email, secret string) (*TokensPair, error) {
	_ = secret

	accessSid := GenerateString(accessSidLength)
	refreshSid := GenerateString(refreshSidLength) + sidLinkSeparator + accessSid

	access, err := s.CreateAccessToken(uuid, email, accessSid)
	if err != nil {
		return nil, err
	}
	refresh, err := s.CreateRefreshToken(uuid, refreshSid)
	if err != nil {
		return nil, err
	}

	return &TokensPair{Access: access, Refresh: refresh}, nil
}

func (s *JWTService) VerifyAccessToken(tokenString string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		s.logger.Info("access token rejected: " + err.Error())
		return nil, apperror.NewUnauthorized("could not validate credentials", nil)
	}
	return claims, nil
}

func (s *JWTService) VerifyRefreshToken(tokenString string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := s.parse(tokenString, claims); err != nil {
		s.logger.Info("refresh token rejected: " + err.Error())
		return nil, apperror.NewUnauthorized("could not validate credentials", nil)
	}
	return claims, nil
}

// TODO: consult a server-side revocation list once refresh sessions are
// persisted; today expiry is the only way a token dies.
func (s *JWTService) parse(tokenString string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("invalid signature algorithm: %v", token.Header["alg"])
		}
		return s.secretKey, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return fmt.Errorf("token is not valid")
	}
	return nil
}

// AccessSidOf extracts the linked access sid from a refresh sid. A refresh
// sid without a link marker is returned as is.
func AccessSidOf(refreshSid string) string {
	if i := strings.LastIndex(refreshSid, sidLinkSeparator); i >= 0 {
		return refreshSid[i+1:]
	}
	return refreshSid
}
