package rest

import "net/http"

// NewMux собирает маршрутизатор API заказов с опциональной аутентификацией.
func NewMux(handler *Handler, middleware *AuthMiddleware) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/orders", handler.CreateOrder)
	mux.HandleFunc("POST /api/orders/guest", handler.CreateGuestOrder)
	mux.HandleFunc("POST /api/orders/custom", handler.CreateCustomOrder)
	mux.HandleFunc("GET /api/orders/mine", handler.ListMyOrders)
	mux.HandleFunc("GET /api/orders", handler.ListOrders)
	mux.HandleFunc("GET /api/orders/{id}", handler.GetOrder)
	mux.HandleFunc("PUT /api/orders/{id}/status", handler.SetOrderStatus)
	mux.HandleFunc("PATCH /api/orders/{id}/custom", handler.UpdateCustomFields)
	mux.HandleFunc("POST /api/orders/{id}/cancel", handler.CancelOrder)
	mux.HandleFunc("DELETE /api/orders/{id}", handler.DeleteOrder)

	return middleware.Handle(mux)
}
