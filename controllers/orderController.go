package controllers

import (
	"time"

	"billweave-backend/middlewares"
	"billweave-backend/models"
	"billweave-backend/utils"

	"github.com/gofiber/fiber/v2"
)

type OrderCreateDTO struct {
	// BillID copies customer, items and total from an existing bill.
	BillID        string             `json:"bill_id"`
	CustomerID    string             `json:"customer_id"`
	CustomerName  string             `json:"customer_name" validate:"required_without=BillID,max=200"`
	CustomerPhone string             `json:"customer_phone" validate:"omitempty,max=32"`
	Status        models.OrderStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed delivered"`
	DueDate       time.Time          `json:"due_date" validate:"required"`
	Items         []LineItemDTO      `json:"items" validate:"omitempty,dive"`
	Notes         string             `json:"notes" validate:"omitempty,max=2000"`
}

type OrderUpdateDTO struct {
	CustomerName  *string             `json:"customer_name" validate:"omitempty,min=1,max=200"`
	CustomerPhone *string             `json:"customer_phone" validate:"omitempty,max=32"`
	Status        *models.OrderStatus `json:"status" validate:"omitempty,oneof=pending in_progress completed delivered"`
	DueDate       *time.Time          `json:"due_date"`
	Items         *[]LineItemDTO      `json:"items" validate:"omitempty,dive"`
	Notes         *string             `json:"notes" validate:"omitempty,max=2000"`
}

type OrderStatusDTO struct {
	Status models.OrderStatus `json:"status" validate:"required,oneof=pending in_progress completed delivered"`
}

// POST /api/orders
func (h *Handlers) CreateOrder(c *fiber.Ctx) error {
	var in OrderCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	order := models.Order{
		CustomerID:    in.CustomerID,
		CustomerName:  in.CustomerName,
		CustomerPhone: in.CustomerPhone,
		Status:        in.Status,
		DueDate:       in.DueDate.UTC(),
		Items:         toLineItems(in.Items),
		Notes:         in.Notes,
	}
	if in.BillID != "" {
		bill, err := h.Bills.Get(c.UserContext(), in.BillID, userID(c))
		if err != nil {
			return err
		}
		order.BillID = bill.ID
		order.BillNumber = bill.BillNumber
		order.CustomerID = bill.CustomerID
		order.CustomerName = bill.CustomerName
		order.CustomerPhone = bill.CustomerPhone
		order.Items = bill.Items
		order.Total = bill.Total
	}

	if _, err := h.Orders.Create(c.UserContext(), &order, userID(c)); err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(order)
}

// GET /api/orders
func (h *Handlers) GetOrders(c *fiber.Ctx) error {
	orders, err := h.Orders.ListAll(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"orders":  orders,
		"message": "success",
	})
}

// GET /api/orders/:id
func (h *Handlers) GetOrder(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	order, err := h.Orders.Get(c.UserContext(), id, userID(c))
	if err != nil {
		return err
	}
	return c.JSON(order)
}

// PUT /api/orders/:id
func (h *Handlers) UpdateOrder(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in OrderUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	updates := utils.UpdatesFromPtrDTO(&in, map[string]string{"items": "-"})
	if in.Items != nil {
		updates["items"] = toLineItems(*in.Items)
	}
	if due, ok := updates["due_date"].(time.Time); ok {
		updates["due_date"] = due.UTC()
	}
	if len(updates) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no fields to update")
	}
	if err := h.Orders.Update(c.UserContext(), id, updates, userID(c)); err != nil {
		return err
	}
	return h.GetOrder(c)
}

// PUT /api/orders/:id/status
func (h *Handlers) UpdateOrderStatus(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in OrderStatusDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	if err := h.Orders.UpdateStatus(c.UserContext(), id, in.Status, userID(c)); err != nil {
		return err
	}
	return h.GetOrder(c)
}

// DELETE /api/orders/:id
func (h *Handlers) DeleteOrder(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Orders.Delete(c.UserContext(), id, userID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}
