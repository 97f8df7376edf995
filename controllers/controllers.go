// Package controllers holds the Fiber handlers of the JSON API. Handlers
// translate HTTP to service calls; authorization and bookkeeping live in the
// services.
package controllers

import (
	"strings"
	"time"

	"billweave-backend/middlewares"
	"billweave-backend/models"
	"billweave-backend/services"
	"billweave-backend/session"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Handlers carries the services the HTTP API calls into.
type Handlers struct {
	Customers *services.CustomerService
	Bills     *services.BillService
	Orders    *services.OrderService
	Inventory *services.InventoryService
	Accounts  *services.AccountService
	Stats     *services.StatsService
	Sessions  *session.Manager

	// ShopName is printed on invoices of accounts that have not set one.
	ShopName string
	// Location is the shop's time zone for invoice dates.
	Location *time.Location
}

type LineItemDTO struct {
	Name     string          `json:"name" validate:"required,max=200"`
	Quantity int             `json:"quantity" validate:"gt=0"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
}

func toLineItems(in []LineItemDTO) []models.LineItem {
	items := make([]models.LineItem, len(in))
	for i, it := range in {
		items[i] = models.LineItem{
			ID:       uuid.NewString(),
			Name:     strings.TrimSpace(it.Name),
			Quantity: it.Quantity,
			Price:    it.Price,
		}
	}
	return items
}

func pathID(c *fiber.Ctx) (string, error) {
	id := strings.TrimSpace(c.Params("id"))
	if id == "" {
		return "", fiber.NewError(fiber.StatusBadRequest, "missing id in path")
	}
	return id, nil
}

func userID(c *fiber.Ctx) string {
	return middlewares.UserID(c)
}
