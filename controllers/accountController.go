package controllers

import (
	"billweave-backend/middlewares"
	"billweave-backend/models"
	"billweave-backend/services"

	"github.com/gofiber/fiber/v2"
)

type ProfileUpdateDTO struct {
	Name     *string `json:"name" validate:"omitempty,max=200"`
	Phone    *string `json:"phone" validate:"omitempty,max=32"`
	ShopName *string `json:"shop_name" validate:"omitempty,max=200"`
}

type BlockDTO struct {
	Blocked *bool `json:"blocked" validate:"required"`
}

type RoleDTO struct {
	Role models.Role `json:"role" validate:"required,oneof=admin user"`
}

// GET /api/me
func (h *Handlers) Me(c *fiber.Ctx) error {
	state, err := h.Sessions.Current(c.UserContext(), middlewares.SessionID(c), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"user":     state.Account,
		"is_admin": state.IsAdmin,
	})
}

// PUT /api/me
func (h *Handlers) UpdateMe(c *fiber.Ctx) error {
	var in ProfileUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	account, err := h.Accounts.UpdateProfile(c.UserContext(), userID(c), services.ProfilePatch{
		Name:     in.Name,
		Phone:    in.Phone,
		ShopName: in.ShopName,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": account})
}

// GET /api/admin/users
func (h *Handlers) GetUsers(c *fiber.Ctx) error {
	accounts, err := h.Accounts.ListAll(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"users":   accounts,
		"message": "success",
	})
}

// PUT /api/admin/users/:id/block
func (h *Handlers) SetUserBlocked(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in BlockDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if id == userID(c) && *in.Blocked {
		return fiber.NewError(fiber.StatusBadRequest, "cannot block yourself")
	}
	if err := h.Accounts.SetBlocked(c.UserContext(), id, *in.Blocked, userID(c)); err != nil {
		return err
	}
	return h.getUser(c, id)
}

// PUT /api/admin/users/:id/role
func (h *Handlers) SetUserRole(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in RoleDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if err := h.Accounts.SetRole(c.UserContext(), id, in.Role, userID(c)); err != nil {
		return err
	}
	return h.getUser(c, id)
}

// DELETE /api/admin/users/:id
func (h *Handlers) DeleteUser(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if id == userID(c) {
		return fiber.NewError(fiber.StatusBadRequest, "cannot delete yourself")
	}
	if err := h.Accounts.Delete(c.UserContext(), id, userID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *Handlers) getUser(c *fiber.Ctx, id string) error {
	account, err := h.Accounts.Get(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"user": account})
}
