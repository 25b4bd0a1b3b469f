package http

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront-backend/internal/domain"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type ctxKey string

const identityCtxKey ctxKey = "identity"

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storefront_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path", "status"},
	)
)

// IdentityFromCtx достаёт идентичность вызывающего, положенную JWT middleware.
func IdentityFromCtx(ctx context.Context) (domain.Identity, error) {
	identity, ok := ctx.Value(identityCtxKey).(domain.Identity)
	if !ok {
		return domain.Identity{}, e.ErrUnauthorized
	}

	return identity, nil
}

// JWTAuth проверяет bearer-токен и кладёт domain.Identity в контекст запроса.
func JWTAuth(secret string, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := parseBearerToken(r.Header.Get("Authorization"), secret)
			if err != nil {
				log.Debugf("auth failed: %v", err)
				WriteError(w, e.ErrUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), identityCtxKey, identity)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminOnly пропускает дальше только администраторов. Ставится после JWTAuth.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := IdentityFromCtx(r.Context())
		if err != nil {
			WriteError(w, e.ErrUnauthorized)
			return
		}

		if !identity.IsAdmin() {
			WriteError(w, e.ErrForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func parseBearerToken(header, secret string) (domain.Identity, error) {
	if header == "" {
		return domain.Identity{}, e.ErrUnauthorized
	}

	tokenString, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return domain.Identity{}, e.ErrUnauthorized
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil || !token.Valid {
		return domain.Identity{}, e.Wrap("invalid token", e.ErrUnauthorized)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return domain.Identity{}, e.ErrUnauthorized
	}

	userIDRaw, ok := claims["user_id"].(float64)
	if !ok {
		return domain.Identity{}, e.Wrap("missing user_id claim", e.ErrUnauthorized)
	}

	role := domain.RoleUser
	if roleRaw, ok := claims["role"].(string); ok && roleRaw == string(domain.RoleAdmin) {
		role = domain.RoleAdmin
	}

	return domain.NewIdentity(int64(userIDRaw), role), nil
}

// Metrics считает количество и длительность запросов по маршруту chi.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		path := chi.RouteContext(r.Context()).RoutePattern()
		if path == "" {
			path = r.URL.Path
		}
		status := strconv.Itoa(ww.Status())

		httpRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		httpRequestDuration.WithLabelValues(r.Method, path, status).Observe(time.Since(start).Seconds())
	})
}
