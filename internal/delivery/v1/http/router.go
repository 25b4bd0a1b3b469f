package http

import (
	_ "github.com/DRSN-tech/storefront-backend/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/storefront-backend/internal/cfg"
	"github.com/DRSN-tech/storefront-backend/internal/usecase"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
	auth   *cfg.AuthCfg
}

func NewRouter(router *chi.Mux, logger logger.Logger, auth *cfg.AuthCfg) *Router {
	return &Router{router: router, logger: logger, auth: auth}
}

func (r *Router) Init(orderUC usecase.OrderUC, cartUC usecase.CartUC, prUC usecase.ProductUC) {
	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("http://localhost:8080/swagger/doc.json"), // ссылка на JSON
	))

	r.router.Handle("/metrics", promhttp.Handler())

	r.router.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(Metrics)

		prHandler := NewProductHandler(prUC, r.logger)
		registerCatalogRoutes(v1, prHandler)

		v1.Group(func(authed chi.Router) {
			authed.Use(JWTAuth(r.auth.JWTSecret, r.logger))

			orderHandler := NewOrderHandler(orderUC, r.logger)
			registerOrderRoutes(authed, orderHandler)

			cartHandler := NewCartHandler(cartUC, r.logger)
			registerCartRoutes(authed, cartHandler)

			registerAdminRoutes(authed, prHandler)
		})
	})
}

// Каталог открыт без аутентификации.
func registerCatalogRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.getProducts)
		pr.Get("/{id}", prHandler.getProduct)
	})
}

func registerOrderRoutes(router chi.Router, orderHandler *OrderHandler) {
	router.Route("/orders", func(or chi.Router) {
		or.Post("/", orderHandler.checkout)
		or.Get("/", orderHandler.listOrders)
		or.Get("/{id}", orderHandler.getOrder)
		or.Delete("/{id}", orderHandler.cancelOrder)
		or.With(AdminOnly).Put("/{id}", orderHandler.updateStatus)
	})
}

func registerCartRoutes(router chi.Router, cartHandler *CartHandler) {
	router.Route("/cart", func(cr chi.Router) {
		cr.Get("/", cartHandler.getCart)
		cr.Post("/items", cartHandler.addItem)
		cr.Put("/items/{productID}", cartHandler.updateItem)
		cr.Delete("/items/{productID}", cartHandler.removeItem)
	})
}

func registerAdminRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/admin", func(ad chi.Router) {
		ad.Use(AdminOnly)
		ad.Route("/products", func(pr chi.Router) {
			pr.Post("/", prHandler.registerNewProduct)
			pr.Put("/{id}/stock", prHandler.setStock)
		})
	})
}
