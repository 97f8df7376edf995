package middlewares

import (
	"log/slog"

	"billweave-backend/database"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequestTx opens one DB transaction per request and carries it on the user
// context, where database.Conn finds it.
// Order: run AFTER IsAuthenticatedHeader() and AFTER Idempotency() (so
// idempotency records aren't tied to the handler TX).
func RequestTx(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		tx := db.WithContext(c.UserContext()).Begin()
		if tx.Error != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to begin transaction")
		}

		ctx := c.UserContext()
		txCtx := database.WithTx(ctx, tx)

		// Ensure we always cleanup.
		defer func() {
			if r := recover(); r != nil {
				_ = tx.Rollback()
				panic(r) // re-panic after rollback so Fiber's handler can catch
			}
			if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
				_ = tx.Rollback()
				return
			}
			if e := tx.Commit().Error; e != nil {
				slog.Error("tx commit failed", "path", c.Path(), "error", e)
				err = fiber.NewError(fiber.StatusInternalServerError, "transaction commit failed")
				return
			}
			database.Committed(txCtx)
		}()

		c.SetUserContext(txCtx)
		defer c.SetUserContext(ctx)

		// Run the handler chain inside this TX.
		err = c.Next()
		return err
	}
}
