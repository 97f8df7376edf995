package controllers

import (
	"billweave-backend/identity"
	"billweave-backend/middlewares"
	"billweave-backend/session"

	"github.com/gofiber/fiber/v2"
)

type RegisterDTO struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
	Name            string `json:"name" validate:"omitempty,max=200"`
	Phone           string `json:"phone" validate:"omitempty,max=32"`
	ShopName        string `json:"shop_name" validate:"omitempty,max=200"`
}

type LoginDTO struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type FederatedLoginDTO struct {
	Assertion string `json:"assertion" validate:"required"`
}

func signedIn(c *fiber.Ctx, status int, s *identity.AuthSession, state *session.State) error {
	return c.Status(status).JSON(fiber.Map{
		"token":      s.Token,
		"expires_at": s.ExpiresAt,
		"provider":   s.Provider,
		"user":       state.Account,
		"is_admin":   state.IsAdmin,
	})
}

// POST /api/registration
func (h *Handlers) Register(c *fiber.Ctx) error {
	var in RegisterDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	profile := identity.Profile{Name: in.Name, Phone: in.Phone, ShopName: in.ShopName}
	s, state, err := h.Sessions.SignUp(c.UserContext(), in.Email, in.Password, profile)
	if err != nil {
		return err
	}
	return signedIn(c, fiber.StatusCreated, s, state)
}

// POST /api/login
func (h *Handlers) Login(c *fiber.Ctx) error {
	var in LoginDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	s, state, err := h.Sessions.SignIn(c.UserContext(), in.Email, in.Password)
	if err != nil {
		return err
	}
	return signedIn(c, fiber.StatusOK, s, state)
}

// POST /api/login/federated
func (h *Handlers) LoginFederated(c *fiber.Ctx) error {
	var in FederatedLoginDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	s, state, err := h.Sessions.SignInWithFederatedProvider(c.UserContext(), in.Assertion)
	if err != nil {
		return err
	}
	return signedIn(c, fiber.StatusOK, s, state)
}

// POST /api/logout
func (h *Handlers) Logout(c *fiber.Ctx) error {
	if err := h.Sessions.SignOut(c.UserContext(), middlewares.SessionID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": "success",
	})
}
