package middleware

import (
	"github.com/erp/ledger/internal/domain/accounting"
	"github.com/erp/ledger/internal/infrastructure/logger"
	"github.com/erp/ledger/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Headers that scope a ledger request
const (
	HeaderTenantID       = "X-Tenant-ID"
	HeaderActorID        = "X-User-ID"
	HeaderIdempotencyKey = "Idempotency-Key"
)

// Gin context keys set by LedgerContext
const (
	TenantIDKey       = "ledger_tenant_id"
	ActorIDKey        = "ledger_actor_id"
	IdempotencyKeyKey = "ledger_idempotency_key"
)

// LedgerContext resolves the tenant, actor and idempotency key of a request.
// The tenant is mandatory; the actor and key are optional here and enforced by
// the handlers that mutate state. Resolved values also go into the request
// context so service logs carry them.
func LedgerContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID, err := uuid.Parse(c.GetHeader(HeaderTenantID))
		if err != nil || tenantID == uuid.Nil {
			abortWith(c, dto.ErrCodeTenantRequired, "X-Tenant-ID header must be a tenant UUID")
			return
		}
		ctx := logger.WithTenantID(c.Request.Context(), tenantID)
		c.Set(TenantIDKey, tenantID)

		if raw := c.GetHeader(HeaderActorID); raw != "" {
			actorID, err := uuid.Parse(raw)
			if err != nil {
				abortWith(c, dto.ErrCodeValidation, "X-User-ID header must be a UUID")
				return
			}
			ctx = logger.WithActorID(ctx, actorID)
			c.Set(ActorIDKey, actorID)
		}

		if raw := c.GetHeader(HeaderIdempotencyKey); raw != "" {
			key, err := accounting.NormalizeIdempotencyKey(raw)
			if err != nil {
				abortWith(c, dto.ErrCodeInvalidIdempotencyKey, err.Error())
				return
			}
			ctx = logger.WithIdempotencyKey(ctx, key)
			c.Set(IdempotencyKeyKey, key)
		}

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetTenantID returns the tenant resolved by LedgerContext
func GetTenantID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFromContext(c, TenantIDKey)
}

// GetActorID returns the actor resolved by LedgerContext
func GetActorID(c *gin.Context) (uuid.UUID, bool) {
	return uuidFromContext(c, ActorIDKey)
}

// GetIdempotencyKey returns the normalized Idempotency-Key header, or ""
func GetIdempotencyKey(c *gin.Context) string {
	return c.GetString(IdempotencyKeyKey)
}

func uuidFromContext(c *gin.Context, key string) (uuid.UUID, bool) {
	v, ok := c.Get(key)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func abortWith(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(dto.GetHTTPStatus(code),
		dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}
