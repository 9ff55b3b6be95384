package http

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

// userService is the subset of services.UserService used by the HTTP layer.
type userService interface {
	Signup(ctx context.Context, name, email, password string) (*models.User, error)
	VerifyEmail(ctx context.Context, email, code string) error
	ResendCode(ctx context.Context, email string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	GetUser(ctx context.Context, id string) (*models.User, error)
}

// Pinger reports database reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// bind parses the JSON body into dst and validates it. On failure the 422
// response is already written and the returned bool is false.
func (s *HTTPServer) bind(c *fiber.Ctx, dst any) (bool, error) {
	if err := c.BodyParser(dst); err != nil {
		return false, c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationErrorResponse{
			Detail: []ValidationError{{Field: "body", Tag: "json", Message: "request body must be valid JSON"}},
		})
	}
	if err := s.validate.Struct(dst); err != nil {
		return false, c.Status(fiber.StatusUnprocessableEntity).JSON(ValidationErrorResponse{
			Detail: formatValidationErrors(err),
		})
	}
	return true, nil
}

func (s *HTTPServer) Signup(c *fiber.Ctx) error {
	var req SignupRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}

	u, err := s.users.Signup(c.UserContext(), req.Name, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toUserResponse(u))
}

func (s *HTTPServer) VerifyCode(c *fiber.Ctx) error {
	var req VerifyCodeRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}

	if err := s.users.VerifyEmail(c.UserContext(), req.Email, req.Code); err != nil {
		return writeError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Email verified successfully"})
}

func (s *HTTPServer) ResendCode(c *fiber.Ctx) error {
	var req EmailRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}

	if err := s.users.ResendCode(c.UserContext(), req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Verification code resent successfully"})
}

func (s *HTTPServer) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}

	pair, err := s.users.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}

	s.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(TokenResponse{AccessToken: pair.AccessToken, TokenType: common.TokenTypeBearer})
}

func (s *HTTPServer) Refresh(c *fiber.Ctx) error {
	token := c.Cookies(common.RefreshTokenCookieName)
	if token == "" {
		c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{Detail: msgMissingRefresh})
	}

	pair, err := s.users.RefreshToken(c.UserContext(), token)
	if err != nil {
		s.clearRefreshCookie(c)
		return writeError(c, err)
	}

	s.setRefreshCookie(c, pair.RefreshToken)
	return c.JSON(TokenResponse{AccessToken: pair.AccessToken, TokenType: common.TokenTypeBearer})
}

// Logout only discards the client-held cookie; tokens are not tracked
// server-side.
func (s *HTTPServer) Logout(c *fiber.Ctx) error {
	s.clearRefreshCookie(c)
	return c.JSON(MessageResponse{Message: "Logged out successfully"})
}

func (s *HTTPServer) ForgotPassword(c *fiber.Ctx) error {
	var req EmailRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}

	if err := s.users.ForgotPassword(c.UserContext(), req.Email); err != nil {
		return writeError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Password reset code sent to your email"})
}

func (s *HTTPServer) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if ok, err := s.bind(c, &req); !ok {
		return err
	}

	if err := s.users.ResetPassword(c.UserContext(), req.Email, req.Code, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	return c.JSON(MessageResponse{Message: "Password reset successfully"})
}

// Me returns the account behind the bearer access token.
func (s *HTTPServer) Me(c *fiber.Ctx) error {
	id, _ := c.Locals(localUserID).(string)

	u, err := s.users.GetUser(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(toUserResponse(u))
}

func (s *HTTPServer) Root(c *fiber.Ctx) error {
	return c.JSON(WelcomeResponse{
		Message: "Welcome to the Authentication System API",
		Health:  "/health",
		Metrics: "/metrics",
	})
}

// Health always answers 200; the database field tells whether storage is
// reachable.
func (s *HTTPServer) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn(ctx, "health check: database unreachable", "error", err)
		return c.JSON(HealthResponse{Status: "online", Database: "error", Message: "Database connection failed"})
	}
	return c.JSON(HealthResponse{Status: "online", Database: "connected", Message: "System is healthy"})
}

func (s *HTTPServer) setRefreshCookie(c *fiber.Ctx, token string) {
	c.Cookie(&fiber.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.tokens.RefreshTTL().Seconds()),
		Secure:   s.cookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func (s *HTTPServer) clearRefreshCookie(c *fiber.Ctx) {
	c.Cookie(&fiber.Cookie{
		Name:     common.RefreshTokenCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		Secure:   s.cookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	})
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		Name:       u.Name,
		Email:      u.Email,
		IsVerified: u.IsVerified,
		CreatedAt:  u.CreatedAt,
	}
}
