package routes

import (
	"billweave-backend/controllers"
	"billweave-backend/identity"
	"billweave-backend/middlewares"
	"billweave-backend/policy"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Deps is what the route table needs besides the handlers.
type Deps struct {
	DB       *gorm.DB
	Provider identity.Provider
	Roles    policy.RoleResolver
}

// Register wires all HTTP routes.
func Register(app *fiber.App, h *controllers.Handlers, deps Deps) {
	api := app.Group("/api")

	// Public auth endpoints
	api.Post("/registration", h.Register)
	api.Post("/login", h.Login)
	api.Post("/login/federated", h.LoginFederated)

	// Protected endpoints (bearer session)
	protected := api.Group("")
	protected.Use(middlewares.IsAuthenticatedHeader(deps.Provider))

	// Idempotency guard FIRST (not tied to request TX)
	protected.Use(middlewares.Idempotency(deps.DB))

	// Then the per-request transaction (commits or rolls back)
	protected.Use(middlewares.RequestTx(deps.DB))

	protected.Post("/logout", h.Logout)
	protected.Get("/me", h.Me)
	protected.Put("/me", h.UpdateMe)
	protected.Get("/dashboard", h.GetDashboard)

	// Customers
	protected.Post("/customers", h.CreateCustomer)
	protected.Get("/customers", h.GetCustomers)
	protected.Get("/customers/:id", h.GetCustomer)
	protected.Put("/customers/:id", h.UpdateCustomer)
	protected.Delete("/customers/:id", h.DeleteCustomer)
	protected.Get("/customers/:id/bills", h.GetCustomerBills)

	// Bills
	protected.Post("/bills", h.CreateBill)
	protected.Get("/bills", h.GetBills)
	protected.Get("/bills/next-number", h.GetNextBillNumber)
	protected.Get("/bills/:id", h.GetBill)
	protected.Put("/bills/:id", h.UpdateBill)
	protected.Delete("/bills/:id", h.DeleteBill)
	protected.Get("/bills/:id/pdf", h.GetBillPDF)
	protected.Get("/bills/:id/share", h.ShareBill)

	// Orders
	protected.Post("/orders", h.CreateOrder)
	protected.Get("/orders", h.GetOrders)
	protected.Get("/orders/:id", h.GetOrder)
	protected.Put("/orders/:id", h.UpdateOrder)
	protected.Put("/orders/:id/status", h.UpdateOrderStatus)
	protected.Delete("/orders/:id", h.DeleteOrder)

	// Inventory
	protected.Post("/inventory", h.CreateInventoryItem)
	protected.Get("/inventory", h.GetInventory)
	protected.Get("/inventory/:id", h.GetInventoryItem)
	protected.Put("/inventory/:id", h.UpdateInventoryItem)
	protected.Delete("/inventory/:id", h.DeleteInventoryItem)

	// Admin
	admin := protected.Group("/admin", middlewares.RequireAdmin(deps.Roles))
	admin.Get("/stats", h.GetAdminStats)
	admin.Get("/users", h.GetUsers)
	admin.Put("/users/:id/block", h.SetUserBlocked)
	admin.Put("/users/:id/role", h.SetUserRole)
	admin.Delete("/users/:id", h.DeleteUser)
}
