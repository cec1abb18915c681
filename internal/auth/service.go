package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/a1media/agency-dashboard/internal"
	"github.com/a1media/agency-dashboard/internal/core/common/validation"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Service is the main auth service with dependencies
type Service struct {
	repo        RepositoryAPI
	tokens      TokenGenerator
	revoker     TokenRevoker
	permissions *PermissionTable
	routes      *RouteTable
	logger      *slog.Logger
}

// NewService creates a new auth service
func NewService(repo RepositoryAPI, tokens TokenGenerator, revoker TokenRevoker, permissions *PermissionTable, logger *slog.Logger) *Service {
	if revoker == nil {
		revoker = NewMemoryRevoker()
	}
	if permissions == nil {
		permissions = NewDefaultPermissionTable()
	}
	return &Service{
		repo:        repo,
		tokens:      tokens,
		revoker:     revoker,
		permissions: permissions,
		routes:      DefaultRoutes(),
		logger:      logger,
	}
}

// NewJWTTokenGenerator creates a new JWT token generator
func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	if refreshTTL <= 0 {
		refreshTTL = 24 * 7 * time.Hour
	}
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

func (s *Service) PermissionTable() *PermissionTable {
	return s.permissions
}

func (s *Service) Routes() *RouteTable {
	return s.routes
}

// LoadPermissions overlays the persisted role table on the defaults. An empty
// store leaves the defaults in place; otherwise the store is authoritative.
func (s *Service) LoadPermissions(ctx context.Context) error {
	stored, err := s.repo.LoadRoleModules(ctx)
	if err != nil {
		return fmt.Errorf("load role modules: %w", err)
	}
	if len(stored) == 0 {
		s.logger.Info("no stored role modules, keeping defaults")
		return nil
	}
	for _, r := range AllRoles {
		s.permissions.Replace(r, stored[r])
	}
	s.logger.Info("role modules loaded", "roles", len(stored))
	return nil
}

// Authenticate validates credentials and returns tokens
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (LoginResponse, error) {
	if err := validation.Struct(dto); err != nil {
		return LoginResponse{}, err
	}

	storedHash, userID, err := s.repo.GetPasswordForUsername(ctx, dto.Email)
	if err != nil {
		s.logger.Warn("login lookup failed", "email", dto.Email, "error", err)
		return LoginResponse{}, internal.ErrInvalidCredentials
	}

	if err := VerifyPassword(storedHash, dto.Password); err != nil {
		return LoginResponse{}, internal.ErrInvalidCredentials
	}

	actor, err := s.repo.GetActorByID(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return LoginResponse{}, internal.ErrUserInactive
		}
		return LoginResponse{}, internal.NewInternalError("failed to load user", err)
	}

	tokens, err := s.issueTokens(*actor)
	if err != nil {
		return LoginResponse{}, err
	}

	s.logger.Info("user logged in", "user_id", actor.ID, "role", actor.Role)
	return LoginResponse{AuthTokens: tokens, Actor: *actor}, nil
}

// RefreshTokens validates refresh token and returns new tokens. The role is
// re-read so a changed role takes effect on the next refresh.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	if err := validation.Struct(RefreshTokenDTO{RefreshToken: refreshToken}); err != nil {
		return AuthTokens{}, err
	}

	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to check token revocation", err)
	}
	if revoked {
		return AuthTokens{}, internal.ErrTokenRevoked
	}

	uid, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	actor, err := s.repo.GetActorByID(ctx, uid)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return AuthTokens{}, internal.ErrUserInactive
		}
		return AuthTokens{}, internal.NewInternalError("failed to load user", err)
	}

	tokens, err := s.issueTokens(*actor)
	if err != nil {
		return AuthTokens{}, err
	}

	// refresh tokens are single use
	if err := s.revoker.Revoke(ctx, claims.ID, remaining(claims)); err != nil {
		s.logger.Warn("failed to revoke used refresh token", "user_id", claims.UserID, "error", err)
	}

	return tokens, nil
}

// Logout revokes the access token until its natural expiry.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.ValidateToken(accessToken)
	if err != nil {
		return err
	}
	if err := s.revoker.Revoke(ctx, claims.ID, remaining(claims)); err != nil {
		return internal.NewInternalError("failed to revoke token", err)
	}
	s.logger.Info("user logged out", "user_id", claims.UserID)
	return nil
}

// ResolveSession turns a bearer token into a session. Bad or missing tokens
// settle as anonymous; store failures leave the session unsettled.
func (s *Service) ResolveSession(ctx context.Context, accessToken string) Session {
	if accessToken == "" {
		return Session{Settled: true}
	}

	claims, err := s.tokens.ValidateToken(accessToken)
	if err != nil || claims.TokenType != TokenTypeAccess {
		return Session{Settled: true}
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		s.logger.Error("session resolution: revocation check failed", "error", err)
		return Session{Settled: false}
	}
	if revoked {
		return Session{Settled: true}
	}

	uid, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return Session{Settled: true}
	}

	actor, err := s.repo.GetActorByID(ctx, uid)
	if err != nil {
		if errors.Is(err, internal.ErrUserNotFound) {
			return Session{Settled: true}
		}
		s.logger.Error("session resolution: actor lookup failed", "user_id", uid, "error", err)
		return Session{Settled: false}
	}

	return Session{Actor: actor, Settled: true}
}

// NavigationDecision runs the gate for a dashboard path. The login page is
// always reachable; an unknown path sends a signed-in actor home.
func (s *Service) NavigationDecision(_ context.Context, sess Session, path string) Decision {
	if normalizePath(path) == LoginPath {
		return Decision{Outcome: OutcomeAllow}
	}

	route, ok := s.routes.Resolve(path)
	if !ok {
		d := Authorize(sess, nil, path)
		if d.Allowed() {
			return Decision{Outcome: OutcomeRedirectHome, RedirectTo: HomePath}
		}
		return d
	}

	return Authorize(sess, route.AllowedRoles(s.permissions), path)
}

func (s *Service) AllowedModules(actor *Actor) []Module {
	if actor == nil {
		return []Module{}
	}
	return s.permissions.ModulesFor(actor.Role)
}

func (s *Service) Permissions() map[Role][]Module {
	return s.permissions.Snapshot()
}

// SetPermission applies one change to the role table and persists the
// whole table, so a stored table always covers every role. Only admins may
// change it. A failed save restores the role's previous set.
func (s *Service) SetPermission(ctx context.Context, actor *Actor, role Role, module Module, op PermissionOp) (bool, error) {
	if !actor.IsAdmin() {
		return false, internal.ErrUnauthorizedAccess
	}
	if !role.Valid() {
		return false, internal.NewValidationFieldError("role", fmt.Sprintf("unknown role %q", role), internal.ErrCodeInvalidRole)
	}
	if !module.Valid() {
		return false, internal.NewValidationFieldError("module", fmt.Sprintf("unknown module %q", module), internal.ErrCodeInvalidModule)
	}

	previous := s.permissions.ModulesFor(role)

	var granted bool
	switch op {
	case PermissionGrant:
		s.permissions.Grant(role, module)
		granted = true
	case PermissionRevoke:
		s.permissions.Revoke(role, module)
	case PermissionToggle:
		granted = s.permissions.Toggle(role, module)
	default:
		return false, internal.NewValidationError(fmt.Sprintf("unknown permission operation %q", op), internal.ErrCodeValidationFailed)
	}

	if err := s.repo.SaveRoleModules(ctx, s.permissions.Snapshot()); err != nil {
		s.permissions.Replace(role, previous)
		s.logger.Error("failed to persist role modules", "role", role, "module", module, "error", err)
		return false, internal.NewInternalError("failed to save permissions", err)
	}

	s.logger.Info("role permission changed",
		"role", role,
		"module", module,
		"granted", granted,
		"changed_by", actor.ID)
	return granted, nil
}

func (s *Service) issueTokens(actor Actor) (AuthTokens, error) {
	accessToken, err := s.tokens.GenerateAccessToken(actor)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(actor)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	return AuthTokens{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

func remaining(c *Claims) time.Duration {
	if c.ExpiresAt == nil {
		return time.Hour
	}
	if d := time.Until(c.ExpiresAt.Time); d > 0 {
		return d
	}
	return time.Second
}

// GenerateAccessToken creates a new access token
func (j *JWTTokenGenerator) GenerateAccessToken(actor Actor) (string, error) {
	return j.sign(actor, TokenTypeAccess, j.AccessTokenTTL, j.AccessTokenSecret)
}

// GenerateRefreshToken creates a new refresh token
func (j *JWTTokenGenerator) GenerateRefreshToken(actor Actor) (string, error) {
	return j.sign(actor, TokenTypeRefresh, j.RefreshTokenTTL, j.RefreshTokenSecret)
}

func (j *JWTTokenGenerator) sign(actor Actor, tokenType string, ttl time.Duration, secret []byte) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:    actor.ID,
		Email:     actor.Email,
		Role:      actor.Role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   actor.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a JWT token and returns claims
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		if claims, ok := token.Claims.(*Claims); ok && claims.TokenType == TokenTypeRefresh {
			return j.RefreshTokenSecret, nil
		}
		return j.AccessTokenSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}

func VerifyPassword(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}

func HashPassword(password string, cost int) (string, error) {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
