package controllers

import (
	"bytes"
	"strings"
	"time"

	"billweave-backend/invoice"
	"billweave-backend/middlewares"
	"billweave-backend/models"
	"billweave-backend/services"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type BillCreateDTO struct {
	CustomerID    string               `json:"customer_id" validate:"required"`
	Items         []LineItemDTO        `json:"items" validate:"required,min=1,dive"`
	TaxPercentage decimal.Decimal      `json:"tax_percentage" validate:"gte=0,lte=100"`
	PaymentStatus models.PaymentStatus `json:"payment_status" validate:"omitempty,oneof=paid pending partial"`
	AmountPaid    decimal.Decimal      `json:"amount_paid" validate:"gte=0"`
	Notes         string               `json:"notes" validate:"omitempty,max=2000"`

	// CreateOrder opens a production order for the bill, due on DueDate.
	CreateOrder bool       `json:"create_order"`
	DueDate     *time.Time `json:"due_date" validate:"required_if=CreateOrder true"`
}

type BillUpdateDTO struct {
	CustomerID    *string               `json:"customer_id" validate:"omitempty,min=1"`
	Items         *[]LineItemDTO        `json:"items" validate:"omitempty,min=1,dive"`
	TaxPercentage *decimal.Decimal      `json:"tax_percentage" validate:"omitempty,gte=0,lte=100"`
	PaymentStatus *models.PaymentStatus `json:"payment_status" validate:"omitempty,oneof=paid pending partial"`
	AmountPaid    *decimal.Decimal      `json:"amount_paid" validate:"omitempty,gte=0"`
	Notes         *string               `json:"notes" validate:"omitempty,max=2000"`
}

// POST /api/bills
func (h *Handlers) CreateBill(c *fiber.Ctx) error {
	var in BillCreateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	bill := models.Bill{
		CustomerID:    in.CustomerID,
		Items:         toLineItems(in.Items),
		TaxPercentage: in.TaxPercentage,
		PaymentStatus: in.PaymentStatus,
		AmountPaid:    in.AmountPaid,
		Notes:         in.Notes,
	}
	var req *services.OrderRequest
	if in.CreateOrder {
		req = &services.OrderRequest{DueDate: *in.DueDate, Notes: in.Notes}
	}

	_, orderID, err := h.Bills.CreateWithOrder(c.UserContext(), &bill, userID(c), req)
	if err != nil {
		return err
	}
	out := fiber.Map{"bill": bill}
	if orderID != "" {
		out["order_id"] = orderID
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GET /api/bills
func (h *Handlers) GetBills(c *fiber.Ctx) error {
	bills, err := h.Bills.ListAll(c.UserContext(), userID(c))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"bills":   bills,
		"message": "success",
	})
}

// GET /api/bills/next-number?owner=<account id>
// Without owner the caller's own scope is previewed (the global one for admins).
func (h *Handlers) GetNextBillNumber(c *fiber.Ctx) error {
	var (
		number string
		err    error
	)
	if owner := strings.TrimSpace(c.Query("owner")); owner != "" {
		number, err = h.Bills.GenerateNextBillNumberForOwner(c.UserContext(), owner, userID(c))
	} else {
		number, err = h.Bills.GenerateNextBillNumber(c.UserContext(), userID(c))
	}
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"bill_number": number})
}

// GET /api/bills/:id
func (h *Handlers) GetBill(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	bill, err := h.Bills.Get(c.UserContext(), id, userID(c))
	if err != nil {
		return err
	}
	return c.JSON(bill)
}

// PUT /api/bills/:id
// Derived amounts (subtotal, tax, total, amount_due) are not accepted; they
// are recomputed from the inputs.
func (h *Handlers) UpdateBill(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in BillUpdateDTO
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}

	patch := services.BillPatch{
		CustomerID:    in.CustomerID,
		TaxPercentage: in.TaxPercentage,
		PaymentStatus: in.PaymentStatus,
		AmountPaid:    in.AmountPaid,
		Notes:         in.Notes,
	}
	if in.Items != nil {
		items := toLineItems(*in.Items)
		patch.Items = &items
	}
	if err := h.Bills.Update(c.UserContext(), id, patch, userID(c)); err != nil {
		return err
	}
	return h.GetBill(c)
}

// DELETE /api/bills/:id
func (h *Handlers) DeleteBill(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.Bills.Delete(c.UserContext(), id, userID(c)); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GET /api/bills/:id/pdf?action=download|print
func (h *Handlers) GetBillPDF(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	disposition := "attachment"
	switch c.Query("action", "download") {
	case "download":
	case "print":
		disposition = "inline"
	default:
		return fiber.NewError(fiber.StatusBadRequest, "action must be download or print")
	}

	bill, err := h.Bills.Get(c.UserContext(), id, userID(c))
	if err != nil {
		return err
	}
	shop, err := h.shopInfo(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := invoice.RenderPDF(&buf, bill, shop); err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, disposition+`; filename="`+invoice.FileName(bill)+`"`)
	return c.Send(buf.Bytes())
}

// GET /api/bills/:id/share
func (h *Handlers) ShareBill(c *fiber.Ctx) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	bill, err := h.Bills.Get(c.UserContext(), id, userID(c))
	if err != nil {
		return err
	}
	shop, err := h.shopInfo(c)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message": invoice.ShareMessage(bill, shop.Name),
		"url":     invoice.ShareURL(bill, shop.Name),
	})
}

// shopInfo is the letterhead of the calling account.
func (h *Handlers) shopInfo(c *fiber.Ctx) (invoice.ShopInfo, error) {
	account, err := h.Accounts.Get(c.UserContext(), userID(c))
	if err != nil {
		return invoice.ShopInfo{}, err
	}
	name := account.ShopName
	if name == "" {
		name = h.ShopName
	}
	return invoice.ShopInfo{Name: name, Email: account.Email, Location: h.Location}, nil
}
