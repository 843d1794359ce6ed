package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/dmarchetti/scanventory/internal/http/handlers"
)

// NewRouter wires every route. Reads are open; anything that mutates state
// goes through the auth middleware. uploadDir is served under /uploads for
// product images.
func NewRouter(uploadDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(RequestLogger)
	r.Use(MetricsMiddleware)
	r.Use(RateLimitMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/swagger/*", httpSwagger.Handler())
	r.Handle("/uploads/*", http.StripPrefix("/uploads/",
		http.FileServer(http.Dir(uploadDir))))

	r.Post("/register", handlers.RegisterHandler)
	r.Post("/login", handlers.LoginHandler)
	r.Post("/refresh", handlers.RefreshTokenHandler)

	r.Get("/products", handlers.GetProductsHandler)
	r.Get("/products/search", handlers.FilterProductsHandler)
	r.Get("/products/barcode/{code}", handlers.GetProductByBarcodeHandler)
	r.Get("/products/{id}", handlers.GetProductByIDHandler)
	r.Get("/products/{id}/movements", handlers.GetMovementsHandler)

	r.Get("/categories", handlers.GetCategoriesHandler)
	r.Get("/categories/{id}", handlers.GetCategoryByIDHandler)

	r.Get("/carts/{id}", handlers.GetCartHandler)
	r.Get("/scan/sessions/{id}", handlers.GetScanSessionHandler)
	r.Get("/scan/history", handlers.ScanHistoryHandler)
	r.Get("/dashboard/metrics", handlers.DashboardMetricsHandler)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware)

		r.Post("/products", handlers.CreateProductHandler)
		r.Put("/products/{id}", handlers.UpdateProductHandler)
		r.Delete("/products/{id}", handlers.DeleteProductHandler)
		r.Post("/products/{id}/adjust-quantity", handlers.AdjustQuantityHandler)
		r.Get("/products/{id}/movements/export", handlers.ExportMovementsHandler)
		r.Post("/products/{id}/image", handlers.UploadProductImageHandler)
		r.Post("/products/import", handlers.ImportProductsHandler)

		r.Post("/categories", handlers.CreateCategoryHandler)
		r.Put("/categories/{id}", handlers.UpdateCategoryHandler)
		r.Delete("/categories/{id}", handlers.DeleteCategoryHandler)

		r.Post("/carts", handlers.CreateCartHandler)
		r.Delete("/carts/{id}", handlers.DeleteCartHandler)
		r.Post("/carts/{id}/items", handlers.AddCartItemHandler)
		r.Delete("/carts/{id}/items/{productId}", handlers.RemoveCartItemHandler)
		r.Post("/carts/{id}/checkout", handlers.CheckoutHandler)

		r.Post("/scan/sessions", handlers.CreateScanSessionHandler)
		r.Delete("/scan/sessions/{id}", handlers.CloseScanSessionHandler)
		r.Post("/scan/sessions/{id}/decode", handlers.DecodeHandler)
		r.Post("/scan/sessions/{id}/retry", handlers.RetryScanHandler)
		r.Post("/scan/sessions/{id}/resume", handlers.ResumeScanHandler)

		r.Post("/admin/users", handlers.RegisterAsAdminHandler)
	})

	return r
}
