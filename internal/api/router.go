package api

import (
	"net/http"

	"github.com/aaravmahajanofficial/textile-storefront/internal/api/handlers"
	"github.com/aaravmahajanofficial/textile-storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/textile-storefront/internal/metrics"
	service "github.com/aaravmahajanofficial/textile-storefront/internal/services"
)

type Dependencies struct {
	Sessions handlers.SessionProvider
	Catalog  handlers.ProductCatalog
	Accounts *service.AccountService
	Checkout *service.CheckoutService
	Auth     *middleware.AuthMiddleware
	// Health serves /health when set.
	Health http.Handler
}

// NewRouter registers every route. Device-scoped routes require X-Device-ID;
// profile edits and checkout additionally require a bearer token issued to
// that device.
func NewRouter(deps Dependencies) http.Handler {

	catalogHandler := handlers.NewCatalogHandler(deps.Catalog)
	cartHandler := handlers.NewCartHandler(deps.Sessions, deps.Catalog)
	favoritesHandler := handlers.NewFavoritesHandler(deps.Sessions, deps.Catalog)
	accountHandler := handlers.NewAccountHandler(deps.Sessions, deps.Accounts)
	checkoutHandler := handlers.NewCheckoutHandler(deps.Sessions, deps.Checkout)
	paymentMethodsHandler := handlers.NewPaymentMethodsHandler(deps.Sessions)

	device := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireDevice(h)
	}
	signedIn := func(h http.HandlerFunc) http.Handler {
		return middleware.RequireDevice(deps.Auth.Authenticate(h))
	}

	routerMux := http.NewServeMux()

	routerMux.HandleFunc("GET /api/v1/products", catalogHandler.ListProducts())
	routerMux.HandleFunc("GET /api/v1/products/featured", catalogHandler.Featured())
	routerMux.HandleFunc("GET /api/v1/products/{id}", catalogHandler.GetProduct())
	routerMux.HandleFunc("GET /api/v1/categories", catalogHandler.Categories())

	routerMux.Handle("GET /api/v1/cart", device(cartHandler.GetCart()))
	routerMux.Handle("DELETE /api/v1/cart", device(cartHandler.ClearCart()))
	routerMux.Handle("POST /api/v1/cart/items", device(cartHandler.AddItem()))
	routerMux.Handle("PUT /api/v1/cart/items/{productId}", device(cartHandler.UpdateQuantity()))
	routerMux.Handle("DELETE /api/v1/cart/items/{productId}", device(cartHandler.RemoveItem()))

	routerMux.Handle("GET /api/v1/favorites", device(favoritesHandler.ListFavorites()))
	routerMux.Handle("POST /api/v1/favorites", device(favoritesHandler.AddFavorite()))
	routerMux.Handle("GET /api/v1/favorites/{productId}", device(favoritesHandler.FavoriteStatus()))
	routerMux.Handle("DELETE /api/v1/favorites/{productId}", device(favoritesHandler.RemoveFavorite()))

	routerMux.Handle("GET /api/v1/payment-methods", device(paymentMethodsHandler.ListCards()))
	routerMux.Handle("POST /api/v1/payment-methods", device(paymentMethodsHandler.AddCard()))
	routerMux.Handle("DELETE /api/v1/payment-methods/{id}", device(paymentMethodsHandler.RemoveCard()))

	routerMux.Handle("GET /api/v1/account", device(accountHandler.GetAccount()))
	routerMux.Handle("POST /api/v1/account/login", device(accountHandler.Login()))
	routerMux.Handle("POST /api/v1/account/register", device(accountHandler.Register()))
	routerMux.Handle("POST /api/v1/account/logout", device(accountHandler.Logout()))
	routerMux.Handle("PATCH /api/v1/account/profile", signedIn(accountHandler.UpdateProfile()))

	routerMux.Handle("GET /api/v1/shipping/options", device(checkoutHandler.ShippingOptions()))
	routerMux.Handle("POST /api/v1/orders", signedIn(checkoutHandler.PlaceOrder()))
	routerMux.Handle("GET /api/v1/orders", signedIn(checkoutHandler.ListOrders()))

	routerMux.Handle("GET /metrics", metrics.Handler())
	if deps.Health != nil {
		routerMux.Handle("GET /health", deps.Health)
	}

	// Middleware chaining; metrics sits inside so r.Pattern is populated
	var handler http.Handler = metrics.Middleware(routerMux)
	handler = middleware.Logging(handler)

	return handler
}
