package echoapi

import (
	"net/http"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/user"
)

const (
	contextTokenKey    = "userToken"
	contextIdentityKey = "identity"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	ID   string `json:"id"`
	Role string `json:"role"`
}

// AuthIdentity is the acting identity of an authenticated request.
type AuthIdentity struct {
	user.Identity
	Claims Claims
}

func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    contextTokenKey,
		Claims:        new(Claims),
	}
}

func (s *Server) newClaims(usr user.Identity) *Claims {
	now := time.Now()
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Id:        uuid.NewString(),
			Issuer:    s.deps.Conf.AppName,
			Subject:   usr.ID,
			ExpiresAt: now.Add(s.deps.Conf.JWTExpirationDelta).Unix(),
			IssuedAt:  now.Unix(),
		},
		ID:   usr.ID,
		Role: usr.Role,
	}
}

// GenerateToken generates a signed JWT token string for usr.
func (s *Server) GenerateToken(usr user.Identity) (string, error) {
	method := jwt.GetSigningMethod(s.jwtConf.SigningMethod)
	token := jwt.NewWithClaims(method, s.newClaims(usr))

	ss, err := token.SignedString(s.jwtConf.SigningKey)
	if err != nil {
		return "", errors.Wrap(err, "signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(contextTokenKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

// ctxIdentity returns the identity attached by authenticate.
func ctxIdentity(ctx echo.Context) (AuthIdentity, bool) {
	ai, ok := ctx.Get(contextIdentityKey).(AuthIdentity)
	return ai, ok
}

func mustCtxIdentity(ctx echo.Context) (AuthIdentity, error) {
	if ai, ok := ctxIdentity(ctx); ok {
		return ai, nil
	}
	return AuthIdentity{}, errUnauthorized
}

// authenticate runs after the JWT middleware: it rejects revoked tokens and attaches
// the identity the token was issued to.
func (s *Server) authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		claims, err := getContextClaims(ctx)
		if err != nil {
			return err
		}
		rctx := ctx.Request().Context()

		revoked, err := s.deps.Revoker.IsRevoked(rctx, claims.Id)
		if err != nil {
			return errors.Wrap(err, "checking token revocation")
		}
		if revoked {
			return errTokenRevoked
		}

		usr, err := s.deps.UserSvc.GetByID(rctx, claims.ID)
		if err != nil {
			return errors.Wrap(err, "finding user by ID")
		}
		ctx.Set(contextIdentityKey, AuthIdentity{Identity: usr, Claims: claims})
		return next(ctx)
	}
}

// requireRole only lets identities holding exactly role through.
func requireRole(role string) echo.MiddlewareFunc {
	errDenied := core.NewForbiddenError(errors.Errorf("Access denied. Only %ss are allowed.", role))
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			ai, err := mustCtxIdentity(ctx)
			if err != nil {
				return err
			}
			if ai.Role != role {
				return errDenied
			}
			return next(ctx)
		}
	}
}

type (
	LoginRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	LoginResponse struct {
		Message string `json:"message"`
		Token   string `json:"token"`
		Role    string `json:"role"`
	}
)

func (lr *LoginRequest) Clean() {
	lr.Email = core.CleanString(lr.Email, true /* lower */)
}

// login returns a handler that issues a token to identities of role.
// Students must have been approved first.
func (s *Server) login(role string) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		var data LoginRequest
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to LoginRequest")
		}
		data.Clean()
		if err := s.deps.Validate.Struct(&data); err != nil {
			return err
		}

		usr, ok, err := s.deps.UserSvc.Authenticate(ctx.Request().Context(), data.Email, data.Password, role)
		if err != nil {
			return errors.Wrap(err, "authenticating")
		}
		if !ok {
			return errInvalidCredentials
		}
		if usr.IsStudent() && !usr.IsApproved {
			return errNotApproved
		}

		token, err := s.GenerateToken(usr)
		if err != nil {
			return errors.Wrap(err, "generating token")
		}
		return ctx.JSON(http.StatusOK, LoginResponse{Message: "Login successful", Token: token, Role: usr.Role})
	}
}

// logout revokes the presented token until it would have expired anyway.
func (s *Server) logout(ctx echo.Context) error {
	ai, err := mustCtxIdentity(ctx)
	if err != nil {
		return err
	}
	expiresAt := time.Unix(ai.Claims.ExpiresAt, 0)
	if err = s.deps.Revoker.Revoke(ctx.Request().Context(), ai.Claims.Id, expiresAt); err != nil {
		return errors.Wrap(err, "revoking token")
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Logout successful"})
}
