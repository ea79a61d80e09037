package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go-salary/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyCacheKey = "idempotency_cache_key"
	IdempotencyLockKey  = "idempotency_lock_key"

	idempotencyLockTTL     = 30 * time.Second
	idempotencyResponseTTL = 24 * time.Hour
)

type cachedResponse struct {
	Status int             `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// Idempotency replays the cached response of a POST that carried the same
// Idempotency-Key, and rejects concurrent duplicates while the first one runs.
func Idempotency(rdb *redis.Client, logger ...*zap.Logger) gin.HandlerFunc {
	l := zap.L().Named("middleware.idempotency")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("middleware.idempotency")
	}

	return func(c *gin.Context) {
		idempKey := c.GetHeader("Idempotency-Key")
		if rdb == nil || idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		userID := c.GetString("user_id_validated")
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), userID, idempKey)
		lockKey := cacheKey + ":lock"
		ctx := c.Request.Context()

		// 1. Response sudah pernah disimpan
		val, err := rdb.Get(ctx, cacheKey).Result()
		if err == nil {
			var cached cachedResponse
			if err := json.Unmarshal([]byte(val), &cached); err == nil {
				status := cached.Status
				if status == 0 {
					status = http.StatusOK
				}
				l.Debug("idempotent replay", zap.String("key", cacheKey), zap.Int("status", status))
				c.Header("Idempotent-Replayed", "true")
				response.Success(c, status, cached.Data, nil)
				c.Abort()
				return
			}
		}

		// 2. Atomic lock, expiry pendek agar lock hilang jika server crash
		isNew, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			l.Warn("idempotency lock unavailable, continuing without it", zap.Error(err))
			c.Next()
			return
		}
		if !isNew {
			response.Error(c, http.StatusConflict, "PROCESSING", "Transaksi Anda sedang diproses, mohon tunggu sebentar.", nil)
			c.Abort()
			return
		}

		c.Set(IdempotencyCacheKey, cacheKey)
		c.Set(IdempotencyLockKey, lockKey)

		c.Next()
	}
}

// StoreIdempotentResponse caches status and data under the request's
// idempotency key. Handlers call it only for successful writes.
func StoreIdempotentResponse(c *gin.Context, rdb *redis.Client, status int, data any) {
	cacheKey := c.GetString(IdempotencyCacheKey)
	if rdb == nil || cacheKey == "" {
		return
	}
	raw, err := json.Marshal(data)
	if err != nil {
		return
	}
	payload, err := json.Marshal(cachedResponse{Status: status, Data: raw})
	if err != nil {
		return
	}
	if err := rdb.Set(c.Request.Context(), cacheKey, payload, idempotencyResponseTTL).Err(); err != nil {
		zap.L().Warn("store idempotent response failed", zap.String("key", cacheKey), zap.Error(err))
	}
}

// ReleaseIdempotencyLock drops the in-flight lock taken by Idempotency.
func ReleaseIdempotencyLock(c *gin.Context, rdb *redis.Client) {
	lockKey := c.GetString(IdempotencyLockKey)
	if rdb == nil || lockKey == "" {
		return
	}
	rdb.Del(c.Request.Context(), lockKey)
}
