package httpx

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/swiftcart/backend/internal/auth"
)

// API holds every handler and builds the route tree.
type API struct {
	Auth      *AuthHandler
	Catalog   *CatalogHandler
	Cart      *CartHandler
	Addresses *AddressHandler
	Reviews   *ReviewsHandler
	Orders    *OrdersHandler
	Tokens    *auth.TokenIssuer
	Log       *zap.Logger
}

func (a *API) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, RequestLogger(a.Log))
	r.Use(middleware.Timeout(15 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// public
	r.Post("/auth/register", a.Auth.register)
	r.Post("/auth/login", a.Auth.login)
	r.Get("/products", a.Catalog.listProducts)
	r.Get("/products/{id}", a.Catalog.getProduct)
	r.Get("/products/{id}/reviews", a.Reviews.listByProduct)
	r.Get("/categories", a.Catalog.listCategories)

	// authenticated
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(a.Tokens))

		r.Get("/users/me", a.Auth.me)

		r.Post("/cart", a.Cart.add)
		r.Get("/cart", a.Cart.get)
		r.Put("/cart/{id}", a.Cart.update)
		r.Delete("/cart/{id}", a.Cart.remove)
		r.Delete("/cart", a.Cart.clear)

		r.Post("/address", a.Addresses.create)
		r.Get("/address", a.Addresses.list)
		r.Get("/address/{id}", a.Addresses.get)
		r.Put("/address/{id}", a.Addresses.update)
		r.Delete("/address/{id}", a.Addresses.remove)

		r.Post("/products/{id}/reviews", a.Reviews.create)
		r.Put("/reviews/{id}", a.Reviews.update)
		r.Delete("/reviews/{id}", a.Reviews.remove)

		r.Post("/payment-intent", a.Orders.createPaymentIntent)
		r.Post("/order", a.Orders.placeOrder)
		r.Get("/order", a.Orders.myOrders)
		r.Get("/order/{id}", a.Orders.getOrder)
		r.Get("/order/{id}/status", a.Orders.getOrderStatus)

		// admin
		r.Group(func(r chi.Router) {
			r.Use(RequireRole(auth.RoleAdmin))

			r.Put("/order/{id}/status", a.Orders.advanceStatus)
			r.Get("/order/admin/all", a.Orders.allOrders)

			r.Post("/products", a.Catalog.createProduct)
			r.Put("/products/{id}", a.Catalog.updateProduct)
			r.Delete("/products/{id}", a.Catalog.deleteProduct)
			r.Put("/products/{id}/stock", a.Catalog.adjustStock)

			r.Post("/categories", a.Catalog.createCategory)
			r.Put("/categories/{id}", a.Catalog.updateCategory)
			r.Delete("/categories/{id}", a.Catalog.deleteCategory)
		})
	})

	return r
}
