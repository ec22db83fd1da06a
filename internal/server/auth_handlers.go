package server

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"artfeed/internal/middleware"
	"artfeed/internal/models"
	"artfeed/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	tokenIssuer   = "artfeed-api"
	tokenAudience = "artfeed-client"
	tokenTTL      = 7 * 24 * time.Hour
)

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req service.SignupInput
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}

	user, err := s.accountService.Signup(c.UserContext(), req)
	if err != nil {
		return respondAppError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  models.NewAccountView(user),
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.accountService.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		if models.ErrorCode(err) == models.CodeUnauthorized {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}
		return respondAppError(c, err)
	}

	token, err := s.generateToken(user.ID, user.Username)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  models.NewAccountView(user),
	})
}

// UpdateEmail handles PUT /api/auth/email. The profile email follows the
// account email.
func (s *Server) UpdateEmail(c *fiber.Ctx) error {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	if req.Email == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email is required"))
	}

	user, err := s.accountService.UpdateUserEmail(c.UserContext(), currentUserID(c), req.Email)
	if err != nil {
		return respondAppError(c, err)
	}
	return c.JSON(models.NewAccountView(user))
}

// Logout handles POST /api/auth/logout. The token's jti is blacklisted until
// the token would have expired.
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, ok := c.Locals("claims").(jwt.MapClaims)
	if ok && s.redis != nil {
		if jti, _ := claims["jti"].(string); jti != "" {
			ttl := tokenTTL
			if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
				ttl = time.Until(exp.Time)
			}
			if ttl > 0 {
				if err := s.redis.Set(c.UserContext(), "blacklist:"+jti, "1", ttl).Err(); err != nil {
					return respondAppError(c, fmt.Errorf("blacklist token: %w", err))
				}
			}
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, claims, err := s.parseToken(c.UserContext(), tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized, err)
		}

		c.Locals("userID", userID)
		c.Locals("claims", claims)
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, userID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// optionalUserID returns the caller's ID when a valid bearer token is present.
func (s *Server) optionalUserID(c *fiber.Ctx) (uint, bool) {
	tokenString := bearerToken(c)
	if tokenString == "" {
		return 0, false
	}
	userID, _, err := s.parseToken(c.UserContext(), tokenString)
	if err != nil {
		return 0, false
	}
	return userID, true
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get(fiber.HeaderAuthorization), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

// parseToken validates signature, issuer, audience, subject and revocation.
func (s *Server) parseToken(ctx context.Context, tokenString string) (uint, jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(tokenIssuer), jwt.WithAudience(tokenAudience), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return 0, nil, models.NewUnauthorizedError("Invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, nil, models.NewUnauthorizedError("Invalid token claims")
	}

	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return 0, nil, models.NewUnauthorizedError("Invalid subject claim")
	}
	userID, err := strconv.ParseUint(sub, 10, 32)
	if err != nil || userID == 0 {
		return 0, nil, models.NewUnauthorizedError("Invalid user ID in token")
	}

	if jti, _ := claims["jti"].(string); jti != "" && s.redis != nil {
		revoked, err := s.redis.Exists(ctx, "blacklist:"+jti).Result()
		if err == nil && revoked > 0 {
			return 0, nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}

	return uint(userID), claims, nil
}

// generateToken creates a JWT token for the given user ID and username
func (s *Server) generateToken(userID uint, username string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.FormatUint(uint64(userID), 10),
		"username": username,
		"iss":      tokenIssuer,
		"aud":      tokenAudience,
		"exp":      now.Add(tokenTTL).Unix(),
		"iat":      now.Unix(),
		"nbf":      now.Unix(),
		"jti":      generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

func generateJTI() string {
	return uuid.NewString()
}
