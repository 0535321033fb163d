package rest

import (
	"encoding/json"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/origamishop/orders/internal/domain"
	"github.com/origamishop/orders/internal/service/orders"
)

const invalidRequestBodyMessage = "invalid request body"

// Handler обслуживает REST-операции над заказами.
type Handler struct {
	service orders.Service
	logger  *log.Entry
}

// NewHandler создаёт REST-обработчик поверх сервиса заказов.
func NewHandler(service orders.Service, logger *log.Entry) *Handler {
	if logger == nil {
		logger = log.New().WithField("component", "rest")
	}
	return &Handler{service: service, logger: logger}
}

type contactPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type itemRequestPayload struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type createOrderRequest struct {
	Contact         contactPayload       `json:"contact"`
	ShippingAddress string               `json:"shipping_address"`
	PaymentMethod   string               `json:"payment_method"`
	Items           []itemRequestPayload `json:"items"`
}

type createCustomOrderRequest struct {
	Contact        contactPayload `json:"contact"`
	Description    string         `json:"description"`
	ReferenceImage string         `json:"reference_image"`
	PaymentMethod  string         `json:"payment_method"`
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

type patchCustomRequest struct {
	CustomName       *string `json:"custom_name"`
	CustomPriceMinor *int64  `json:"custom_price_minor"`
	SellerComment    *string `json:"seller_comment"`
}

type itemPayload struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	ProductName string    `json:"product_name"`
	Qty         int32     `json:"qty"`
	PriceMinor  int64     `json:"price_minor"`
	CreatedAt   time.Time `json:"created_at"`
}

type orderPayload struct {
	ID               string         `json:"id"`
	Type             string         `json:"type"`
	Status           string         `json:"status"`
	Contact          contactPayload `json:"contact"`
	TotalMinor       int64          `json:"total_minor"`
	ShippingAddress  string         `json:"shipping_address,omitempty"`
	PaymentMethod    string         `json:"payment_method,omitempty"`
	Description      string         `json:"description,omitempty"`
	ReferenceImage   string         `json:"reference_image,omitempty"`
	CustomName       string         `json:"custom_name,omitempty"`
	CustomPriceMinor *int64         `json:"custom_price_minor,omitempty"`
	SellerComment    string         `json:"seller_comment,omitempty"`
	CancelComment    string         `json:"cancel_comment,omitempty"`
	Items            []itemPayload  `json:"items"`
	Version          int64          `json:"version"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

func toOrderPayload(order domain.Order) orderPayload {
	items := make([]itemPayload, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, itemPayload{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Qty:         item.Qty,
			PriceMinor:  item.PriceMinor,
			CreatedAt:   item.CreatedAt,
		})
	}

	return orderPayload{
		ID:     order.ID,
		Type:   string(order.Type),
		Status: string(order.Status),
		Contact: contactPayload{
			Name:  order.Contact.Name,
			Email: order.Contact.Email,
			Phone: order.Contact.Phone,
		},
		TotalMinor:       order.TotalMinor,
		ShippingAddress:  order.ShippingAddress,
		PaymentMethod:    string(order.PaymentMethod),
		Description:      order.Description,
		ReferenceImage:   order.ReferenceImage,
		CustomName:       order.CustomName,
		CustomPriceMinor: order.CustomPriceMinor,
		SellerComment:    order.SellerComment,
		CancelComment:    order.CancelComment,
		Items:            items,
		Version:          order.Version,
		CreatedAt:        order.CreatedAt,
		UpdatedAt:        order.UpdatedAt,
	}
}

func toOrderList(ordersList []domain.Order) []orderPayload {
	payloads := make([]orderPayload, 0, len(ordersList))
	for _, order := range ordersList {
		payloads = append(payloads, toOrderPayload(order))
	}
	return payloads
}

func toPlaceRequest(req createOrderRequest) orders.PlaceOrderRequest {
	items := make([]orders.ItemRequest, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, orders.ItemRequest{ProductID: item.ProductID, Qty: item.Qty})
	}
	return orders.PlaceOrderRequest{
		Contact: domain.Contact{
			Name:  req.Contact.Name,
			Email: req.Contact.Email,
			Phone: req.Contact.Phone,
		},
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   domain.PaymentMethod(req.PaymentMethod),
		Items:           items,
	}
}

// CreateOrder оформляет заказ зарегистрированного клиента.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, invalidRequestBodyMessage)
		return
	}

	order, err := h.service.PlaceOrder(principal, toPlaceRequest(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderPayload(order))
}

// CreateGuestOrder оформляет заказ без авторизации.
func (h *Handler) CreateGuestOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, invalidRequestBodyMessage)
		return
	}

	order, err := h.service.PlaceGuestOrder(toPlaceRequest(req))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderPayload(order))
}

// CreateCustomOrder оформляет индивидуальный заказ по описанию.
func (h *Handler) CreateCustomOrder(w http.ResponseWriter, r *http.Request) {
	var req createCustomOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, invalidRequestBodyMessage)
		return
	}

	order, err := h.service.PlaceCustomOrder(orders.PlaceCustomOrderRequest{
		Contact: domain.Contact{
			Name:  req.Contact.Name,
			Email: req.Contact.Email,
			Phone: req.Contact.Phone,
		},
		Description:    req.Description,
		ReferenceImage: req.ReferenceImage,
		PaymentMethod:  domain.PaymentMethod(req.PaymentMethod),
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderPayload(order))
}

// GetOrder возвращает заказ владельцу или администратору.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(principal, r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderPayload(order))
}

// ListMyOrders возвращает заказы принципала.
func (h *Handler) ListMyOrders(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	result, err := h.service.ListMyOrders(principal)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderList(result))
}

// ListOrders возвращает административную выборку заказов.
// Параметры: type=normal|guest|custom, exclude_completed=true.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	filter := domain.OrderFilter{
		Type:             domain.OrderType(r.URL.Query().Get("type")),
		ExcludeCompleted: r.URL.Query().Get("exclude_completed") == "true",
	}

	result, err := h.service.ListOrders(principal, filter)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderList(result))
}

// SetOrderStatus переводит заказ в новый статус (администратор).
func (h *Handler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, invalidRequestBodyMessage)
		return
	}

	order, err := h.service.SetStatus(principal, r.PathValue("id"), domain.OrderStatus(req.Status))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderPayload(order))
}

// UpdateCustomFields применяет правки индивидуального заказа (администратор).
func (h *Handler) UpdateCustomFields(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req patchCustomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, invalidRequestBodyMessage)
		return
	}

	order, err := h.service.UpdateCustomFields(principal, r.PathValue("id"), orders.UpdateCustomFieldsRequest{
		CustomName:       req.CustomName,
		CustomPriceMinor: req.CustomPriceMinor,
		SellerComment:    req.SellerComment,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderPayload(order))
}

// CancelOrder отменяет заказ по запросу владельца или администратора.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	var req cancelRequest
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, invalidRequestBodyMessage)
			return
		}
	}

	order, err := h.service.Cancel(principal, r.PathValue("id"), req.Reason)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toOrderPayload(order))
}

// DeleteOrder удаляет собственный заказ, пока он не подтверждён.
func (h *Handler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(principal, r.PathValue("id")); err != nil {
		writeDomainError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
