package controllers

import (
	"billweave-backend/middlewares"
	"billweave-backend/models"
	"billweave-backend/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type InventoryCreateDTO struct {
	Name        string               `json:"name" validate:"required,max=200"`
	Type        models.InventoryType `json:"type" validate:"required,oneof=fabric service accessory"`
	Quantity    decimal.Decimal      `json:"quantity" validate:"gte=0"`
	Unit        string               `json:"unit" validate:"omitempty,max=32"`
	Price       decimal.Decimal      `json:"price" validate:"gte=0"`
	Description string               `json:"description" validate:"omitempty,max=2000"`
}

type InventoryUpdateDTO struct {
	Name        *string               `json:"name" validate:"omitempty,min=1,max=200"`
	Type        *models.InventoryType `json:"type" validate:"omitempty,oneof=fabric service accessory"`
	Quantity    *decimal.Decimal      `json:"quantity" validate:"omitempty,gte=0"`
	Unit        *string               `json:"unit" validate:"omitempty,max=32"`
	Price       *decimal.Decimal      `json:"price" validate:"omitempty,gte=0"`
	Description *string               `json:"description" validate:"omitempty,max=2000"`
}

// POST /api/inventory
func (h *Handlers) CreateInventoryItem(c *fiber.Ctx) error {
	var in InventoryCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	item := models.InventoryItem{
		Name:        in.Name,
		Type:        in.Type,
		Quantity:    in.Quantity,
		Unit:        in.Unit,
		Price:       in.Price,
		Description: in.Description,
	}
	if _, err := h.Inventory.Create(c.UserContext(), &item, userID(c)); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// GET /api/inventory
func (h *Handlers) GetInventory(c *fiber.Ctx) error {
	items, err := h.Inventory.ListAll(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"items":   items,
		"message": "success",
	})
}

// GET /api/inventory/:id
func (h *Handlers) GetInventoryItem(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	item, err := h.Inventory.Get(c.UserContext(), id, userID(c))
	if err != nil {
		return err
	}
	return c.JSON(item)
}

// PUT /api/inventory/:id
func (h *Handlers) UpdateInventoryItem(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in InventoryUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}
	if err := h.Inventory.Update(c.UserContext(), id, updates, userID(c)); err != nil {
		return err
	}
	return h.GetInventoryItem(c)
}

// DELETE /api/inventory/:id
func (h *Handlers) DeleteInventoryItem(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Inventory.Delete(c.UserContext(), id, userID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
