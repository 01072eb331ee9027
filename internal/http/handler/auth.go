package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"studioapi/internal/config"
	"studioapi/internal/http/middleware"
	"studioapi/internal/model"
	"studioapi/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Admin     model.AdminView `json:"admin"`
	ExpiresAt time.Time       `json:"expires_at"`
}

func sessionCookie(cfg config.AuthConfig, value string, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     cfg.CookieName,
		Value:    value,
		Path:     "/",
		Domain:   cfg.CookieDomain,
		Expires:  expires,
		Secure:   cfg.CookieSecure,
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
	}
}

// Login verifies credentials and sets the session cookie.
func Login(svc service.Auth, cfg config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req loginRequest
		if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Password == "" {
			return writeError(c, fiber.StatusBadRequest, "BAD_REQUEST", "email and password are required")
		}
		sess, err := svc.Login(c.UserContext(), req.Email, req.Password)
		if err != nil {
			return fail(c, err)
		}
		c.Cookie(sessionCookie(cfg, sess.Token, sess.ExpiresAt))
		return c.JSON(sessionResponse{Admin: sess.Admin, ExpiresAt: sess.ExpiresAt})
	}
}

// Logout revokes the current token and clears the cookie.
func Logout(svc service.Auth, cfg config.AuthConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := svc.Logout(c.UserContext(), middleware.Claims(c)); err != nil {
			return fail(c, err)
		}
		c.Cookie(sessionCookie(cfg, "", time.Unix(0, 0)))
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// Me returns the signed-in admin.
func Me(svc service.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		view, err := svc.Me(c.UserContext(), middleware.Claims(c))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view)
	}
}

func ListAdmins(svc service.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, qerr := listParams(c)
		if qerr != nil {
			return writeError(c, fiber.StatusBadRequest, qerr.code, qerr.message)
		}
		res, err := svc.ListAdmins(c.UserContext(), p)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(res)
	}
}

func GetAdmin(svc service.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return invalidID(c)
		}
		view, err := svc.GetAdmin(c.UserContext(), id)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view)
	}
}

func CreateAdmin(svc service.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in service.AdminInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		view, err := svc.CreateAdmin(c.UserContext(), in)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(view)
	}
}

// UpdateAdmin serves both PUT and PATCH; empty fields are left unchanged.
func UpdateAdmin(svc service.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return invalidID(c)
		}
		var in service.AdminInput
		if err := c.BodyParser(&in); err != nil {
			return invalidBody(c)
		}
		view, err := svc.UpdateAdmin(c.UserContext(), id, in)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(view)
	}
}

func DeleteAdmin(svc service.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := paramID(c)
		if !ok {
			return invalidID(c)
		}
		claims := middleware.Claims(c)
		if claims == nil {
			return fail(c, service.ErrUnauthorized)
		}
		if err := svc.DeleteAdmin(c.UserContext(), claims.AdminID(), id); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
