package controllers

import (
	"billweave-backend/middlewares"
	"billweave-backend/models"
	"billweave-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type CustomerCreateDTO struct {
	Name         string              `json:"name" validate:"required,max=200"`
	Phone        string              `json:"phone" validate:"required,max=32"`
	Email        string              `json:"email" validate:"omitempty,email"`
	Address      string              `json:"address" validate:"omitempty,max=500"`
	Measurements models.Measurements `json:"measurements"`
}

type CustomerUpdateDTO struct {
	Name         *string              `json:"name" validate:"omitempty,min=1,max=200"`
	Phone        *string              `json:"phone" validate:"omitempty,min=1,max=32"`
	Email        *string              `json:"email" validate:"omitempty,email"`
	Address      *string              `json:"address" validate:"omitempty,max=500"`
	Measurements *models.Measurements `json:"measurements"`
}

// POST /api/customers
func (h *Handlers) CreateCustomer(c *fiber.Ctx) error {
	var in CustomerCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	customer := models.Customer{
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        in.Email,
		Address:      in.Address,
		Measurements: models.NewMeasurements(in.Measurements),
	}
	if _, err := h.Customers.Create(c.UserContext(), &customer, userID(c)); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(customer)
}

// GET /api/customers
func (h *Handlers) GetCustomers(c *fiber.Ctx) error {
	customers, err := h.Customers.ListAll(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"customers": customers,
		"message":   "success",
	})
}

// GET /api/customers/:id
func (h *Handlers) GetCustomer(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	customer, err := h.Customers.Get(c.UserContext(), id, userID(c))
	if err != nil {
		return err
	}
	return c.JSON(customer)
}

// PUT /api/customers/:id
func (h *Handlers) UpdateCustomer(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in CustomerUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&in, nil)
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}
	if err := h.Customers.Update(c.UserContext(), id, updates, userID(c)); err != nil {
		return err
	}
	return h.GetCustomer(c)
}

// DELETE /api/customers/:id
func (h *Handlers) DeleteCustomer(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Customers.Delete(c.UserContext(), id, userID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/customers/:id/bills
func (h *Handlers) GetCustomerBills(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if _, err := h.Customers.Get(c.UserContext(), id, userID(c)); err != nil {
		return err
	}
	bills, err := h.Bills.ListForCustomer(c.UserContext(), id, userID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"bills":   bills,
		"message": "success",
	})
}
