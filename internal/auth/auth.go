package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// TokenGenerator creates and validates signed tokens.
type TokenGenerator interface {
	GenerateAccessToken(actor Actor) (token string, err error)
	GenerateRefreshToken(actor Actor) (token string, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// TokenRevoker remembers logged-out token ids until they would expire anyway.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type RepositoryAPI interface {
	GetPasswordForUsername(ctx context.Context, email string) (passwordHash string, userID int64, err error)
	GetActorByID(ctx context.Context, userID int64) (*Actor, error)
	LoadRoleModules(ctx context.Context) (map[Role][]Module, error)
	// SaveRoleModules replaces the whole stored table with the given one.
	SaveRoleModules(ctx context.Context, table map[Role][]Module) error
}

type ServiceAPI interface {
	Authenticate(ctx context.Context, dto LoginDTO) (LoginResponse, error)
	RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error)
	Logout(ctx context.Context, accessToken string) error
	ResolveSession(ctx context.Context, accessToken string) Session
	NavigationDecision(ctx context.Context, s Session, path string) Decision
	AllowedModules(actor *Actor) []Module
	Permissions() map[Role][]Module
	SetPermission(ctx context.Context, actor *Actor, role Role, module Module, op PermissionOp) (bool, error)
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Claims represents JWT token claims
type Claims struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}

type PermissionOp string

const (
	PermissionGrant  PermissionOp = "grant"
	PermissionRevoke PermissionOp = "revoke"
	PermissionToggle PermissionOp = "toggle"
)
