package middlewares

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"billweave-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Idempotency processes Idempotency-Key for mutating HTTP methods. Keys are
// scoped to the calling account. It uses its own short transactions so the
// record is not tied to the handler's request transaction.
func Idempotency(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		method := strings.ToUpper(c.Method())
		if method != fiber.MethodPost && method != fiber.MethodPut && method != fiber.MethodPatch && method != fiber.MethodDelete {
			return c.Next()
		}

		key := strings.TrimSpace(c.Get("Idempotency-Key"))
		if key == "" {
			return c.Next()
		}
		if len(key) > 128 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Idempotency-Key too long"})
		}

		userID := UserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "auth context missing"})
		}

		path := c.OriginalURL() // includes query string
		body := c.Body()

		// Build deterministic request hash: method|path|body|user
		h := sha256.New()
		h.Write([]byte(method))
		h.Write([]byte{'\n'})
		h.Write([]byte(path))
		h.Write([]byte{'\n'})
		h.Write(body)
		h.Write([]byte{'\n'})
		h.Write([]byte(userID))
		reqHash := hex.EncodeToString(h.Sum(nil))

		// ---- Phase 1: read/create "pending" under a short TX
		var (
			existing models.IdempotencyKey
			replayed bool
		)
		err := db.WithContext(c.Context()).Transaction(func(tx *gorm.DB) error {
			err := tx.Where("user_id = ? AND key = ?", userID, key).First(&existing).Error
			if err != nil {
				if !errors.Is(err, gorm.ErrRecordNotFound) {
					return fiber.NewError(fiber.StatusInternalServerError, "idempotency lookup failed")
				}
				// Not found -> create "pending"
				rec := models.IdempotencyKey{
					Key:         key,
					UserID:      userID,
					RequestHash: reqHash,
					Method:      method,
					Path:        path,
				}
				if e2 := tx.Create(&rec).Error; e2 != nil {
					return fiber.NewError(fiber.StatusConflict, "Idempotency-Key is being processed")
				}
				existing = rec
				return nil
			}

			if existing.RequestHash != reqHash {
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key reuse with different request")
			}
			if existing.ResponseStatus == 0 {
				// Another request with this key has not finished yet.
				return fiber.NewError(fiber.StatusConflict, "Idempotency-Key is being processed")
			}
			replayed = true
			return nil
		})
		if err != nil {
			return err
		}
		if replayed {
			// A completed response is stored: replay it without running the handler.
			c.Set("Idempotent-Replayed", "true")
			c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
			return c.Status(existing.ResponseStatus).Send(existing.ResponseBody)
		}

		if err := c.Next(); err != nil {
			// Failed requests may be retried with the same key.
			db.WithContext(c.Context()).Where("user_id = ? AND key = ? AND response_status = 0", userID, key).
				Delete(&models.IdempotencyKey{})
			return err
		}

		// ---- Phase 2: store the response (best-effort)
		status := c.Response().StatusCode()
		if status >= 500 {
			db.WithContext(c.Context()).Where("user_id = ? AND key = ? AND response_status = 0", userID, key).
				Delete(&models.IdempotencyKey{})
			return nil
		}
		now := time.Now().UTC()
		resp := c.Response().Body()
		blob := make([]byte, len(resp))
		copy(blob, resp)
		db.WithContext(c.Context()).Model(&models.IdempotencyKey{}).
			Where("user_id = ? AND key = ?", userID, key).
			Updates(map[string]any{
				"response_status": status,
				"response_body":   blob,
				"completed_at":    &now,
			})
		return nil
	}
}
