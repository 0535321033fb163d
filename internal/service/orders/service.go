package orders

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/origamishop/orders/internal/domain"
	"github.com/origamishop/orders/internal/messaging/kafka"
	"github.com/origamishop/orders/internal/metrics"
	"github.com/origamishop/orders/internal/orderid"
)

// ErrValidation помечает ошибки валидации запроса на оформление заказа.
// Конкретные причины присоединяются через errors.Join.
var ErrValidation = errors.New("order validation failed")

// ItemRequest — запрошенная позиция заказа. Цена не принимается от клиента:
// она фиксируется из каталога на момент оформления.
type ItemRequest struct {
	ProductID string
	Qty       int32
}

// PlaceOrderRequest — запрос на оформление обычного или гостевого заказа.
type PlaceOrderRequest struct {
	Contact         domain.Contact
	ShippingAddress string
	PaymentMethod   domain.PaymentMethod
	Items           []ItemRequest
}

// PlaceCustomOrderRequest — запрос на индивидуальный заказ по описанию.
type PlaceCustomOrderRequest struct {
	Contact        domain.Contact
	Description    string
	ReferenceImage string
	PaymentMethod  domain.PaymentMethod
}

// UpdateCustomFieldsRequest — административная правка индивидуального заказа.
// nil-поля остаются без изменений.
type UpdateCustomFieldsRequest struct {
	CustomName       *string
	CustomPriceMinor *int64
	SellerComment    *string
}

// Service описывает операции над заказами для транспортного слоя.
type Service interface {
	PlaceOrder(principal domain.Principal, req PlaceOrderRequest) (domain.Order, error)
	PlaceGuestOrder(req PlaceOrderRequest) (domain.Order, error)
	PlaceCustomOrder(req PlaceCustomOrderRequest) (domain.Order, error)
	GetOrder(principal domain.Principal, id string) (domain.Order, error)
	ListMyOrders(principal domain.Principal) ([]domain.Order, error)
	ListOrders(principal domain.Principal, filter domain.OrderFilter) ([]domain.Order, error)
	SetStatus(principal domain.Principal, id string, next domain.OrderStatus) (domain.Order, error)
	UpdateCustomFields(principal domain.Principal, id string, req UpdateCustomFieldsRequest) (domain.Order, error)
	Cancel(principal domain.Principal, id, reason string) (domain.Order, error)
	Delete(principal domain.Principal, id string) error
}

type service struct {
	orders   domain.OrderRepository
	products domain.ProductRepository
	outbox   domain.OutboxRepository
	timeline domain.TimelineRepository
	ids      *orderid.Allocator
	logger   *log.Entry
	metrics  *metrics.OrderMetrics
}

// NewService создаёт рабочий экземпляр сервиса заказов.
func NewService(
	ordersRepo domain.OrderRepository,
	products domain.ProductRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	return &service{
		orders:   ordersRepo,
		products: products,
		outbox:   outbox,
		timeline: timeline,
		ids:      orderid.New(),
		logger:   logger,
		metrics:  metrics.NewOrderMetrics(),
	}
}

// NewServiceWithoutMetrics создаёт сервис без метрик (для тестов).
func NewServiceWithoutMetrics(
	ordersRepo domain.OrderRepository,
	products domain.ProductRepository,
	outbox domain.OutboxRepository,
	timeline domain.TimelineRepository,
	logger *log.Entry,
) Service {
	if logger == nil {
		logger = log.New().WithField("component", "orders")
	}
	return &service{
		orders:   ordersRepo,
		products: products,
		outbox:   outbox,
		timeline: timeline,
		ids:      orderid.New(),
		logger:   logger,
	}
}

// PlaceOrder оформляет заказ зарегистрированного клиента.
// Контактный email берётся из принципала, а не из запроса.
func (s *service) PlaceOrder(principal domain.Principal, req PlaceOrderRequest) (domain.Order, error) {
	if principal.Email == "" {
		return domain.Order{}, domain.ErrUnauthenticated
	}
	req.Contact.Email = principal.Email
	return s.place(domain.OrderTypeNormal, req)
}

// PlaceGuestOrder оформляет заказ без авторизации.
func (s *service) PlaceGuestOrder(req PlaceOrderRequest) (domain.Order, error) {
	return s.place(domain.OrderTypeGuest, req)
}

// PlaceCustomOrder оформляет индивидуальный заказ по описанию клиента.
// Позиции и сумма появятся позже, когда администратор назначит цену.
func (s *service) PlaceCustomOrder(req PlaceCustomOrderRequest) (domain.Order, error) {
	start := time.Now()
	now := time.Now().UTC()

	order := domain.Order{
		ID:             s.ids.Allocate(domain.OrderTypeCustom),
		Type:           domain.OrderTypeCustom,
		Status:         domain.OrderStatusEnRevision,
		Contact:        req.Contact,
		Description:    req.Description,
		ReferenceImage: req.ReferenceImage,
		PaymentMethod:  req.PaymentMethod,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		if s.metrics != nil {
			s.metrics.RecordPlacementRejected()
		}
		return domain.Order{}, errors.Join(append([]error{ErrValidation}, errs...)...)
	}

	if err := s.createWithRetry(&order); err != nil {
		return domain.Order{}, err
	}

	s.recordPlacement(order, start)
	return order, nil
}

func (s *service) place(orderType domain.OrderType, req PlaceOrderRequest) (domain.Order, error) {
	start := time.Now()
	now := time.Now().UTC()

	items, total, err := s.buildItems(req.Items, now)
	if err != nil {
		if s.metrics != nil && errors.Is(err, ErrValidation) {
			s.metrics.RecordPlacementRejected()
		}
		return domain.Order{}, err
	}

	order := domain.Order{
		ID:              s.ids.Allocate(orderType),
		Type:            orderType,
		Status:          domain.OrderStatusEnRevision,
		Contact:         req.Contact,
		TotalMinor:      total,
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		Items:           items,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		if s.metrics != nil {
			s.metrics.RecordPlacementRejected()
		}
		return domain.Order{}, errors.Join(append([]error{ErrValidation}, errs...)...)
	}

	if err := s.createWithRetry(&order); err != nil {
		if domain.IsInsufficientStock(err) && s.metrics != nil {
			s.metrics.RecordInsufficientStock()
		}
		return domain.Order{}, err
	}

	s.recordPlacement(order, start)
	return order, nil
}

// buildItems собирает позиции заказа, фиксируя цену и название товара
// из каталога на момент оформления.
func (s *service) buildItems(requested []ItemRequest, now time.Time) ([]domain.OrderItem, int64, error) {
	if len(requested) == 0 {
		return nil, 0, errors.Join(ErrValidation, domain.ErrItemsRequired)
	}

	items := make([]domain.OrderItem, 0, len(requested))
	var total int64
	for _, req := range requested {
		if req.ProductID == "" {
			return nil, 0, errors.Join(ErrValidation, domain.ErrItemProductRequired)
		}
		if req.Qty <= 0 {
			return nil, 0, errors.Join(ErrValidation, domain.ErrItemQtyInvalid)
		}

		product, err := s.products.Get(req.ProductID)
		if err != nil {
			return nil, 0, err
		}

		items = append(items, domain.OrderItem{
			ID:          uuid.NewString(),
			ProductID:   product.ID,
			ProductName: product.Name,
			Qty:         req.Qty,
			PriceMinor:  product.PriceMinor,
			CreatedAt:   now,
		})
		total += int64(req.Qty) * product.PriceMinor
	}

	return items, total, nil
}

// createWithRetry сохраняет заказ; на коллизию идентификатора отвечает
// одним повтором со свежим ID, после чего возвращает ошибку как есть.
func (s *service) createWithRetry(order *domain.Order) error {
	err := s.orders.Create(*order)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrDuplicateOrderID) {
		return err
	}

	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"channel":  string(order.Type),
	}).Warn("order id collision, retrying with a fresh id")

	order.ID = s.ids.Allocate(order.Type)
	return s.orders.Create(*order)
}

func (s *service) recordPlacement(order domain.Order, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordOrderCreated(string(order.Type))
		s.metrics.RecordPlacementDuration(time.Since(start))
	}

	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"channel":     string(order.Type),
		"total_minor": order.TotalMinor,
		"items":       len(order.Items),
	}).Info("order placed")

	s.emitEvent(order, kafka.EventTypeOrderCreated, map[string]interface{}{
		"channel":     string(order.Type),
		"total_minor": order.TotalMinor,
	})
	s.appendTimeline(order.ID, string(kafka.EventTypeOrderCreated), "")
}

// GetOrder возвращает заказ владельцу или администратору.
func (s *service) GetOrder(principal domain.Principal, id string) (domain.Order, error) {
	order, err := s.orders.Get(id)
	if err != nil {
		return domain.Order{}, err
	}
	if !principal.IsAdmin && !order.OwnedBy(principal.Email) {
		return domain.Order{}, domain.ErrForbidden
	}
	return order, nil
}

// ListMyOrders возвращает заказы, оформленные на email принципала.
func (s *service) ListMyOrders(principal domain.Principal) ([]domain.Order, error) {
	if principal.Email == "" {
		return nil, domain.ErrUnauthenticated
	}
	return s.orders.ListByOwner(principal.Email)
}

// ListOrders возвращает административную выборку заказов.
func (s *service) ListOrders(principal domain.Principal, filter domain.OrderFilter) ([]domain.Order, error) {
	if !principal.IsAdmin {
		return nil, domain.ErrForbidden
	}
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.ErrOrderTypeInvalid
	}
	return s.orders.List(filter)
}

// SetStatus переводит заказ в новый статус. Только для администраторов;
// переходы подчиняются жизненному циклу заказа.
func (s *service) SetStatus(principal domain.Principal, id string, next domain.OrderStatus) (domain.Order, error) {
	if !principal.IsAdmin {
		return domain.Order{}, domain.ErrForbidden
	}

	order, err := s.mutateOrder(id, func(order *domain.Order) error {
		return order.TransitionTo(next)
	})
	if err != nil {
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordStatusTransition(string(order.Status))
	}
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"status":   string(order.Status),
	}).Info("order status updated")

	eventType := kafka.EventTypeOrderStatusChanged
	if order.Status == domain.OrderStatusCancelado {
		eventType = kafka.EventTypeOrderCanceled
	}
	s.emitEvent(order, eventType, map[string]interface{}{
		"status": string(order.Status),
	})
	s.appendTimeline(order.ID, string(eventType), "")

	return order, nil
}

// UpdateCustomFields применяет административные правки индивидуального заказа.
// Назначенная цена становится суммой заказа.
func (s *service) UpdateCustomFields(principal domain.Principal, id string, req UpdateCustomFieldsRequest) (domain.Order, error) {
	if !principal.IsAdmin {
		return domain.Order{}, domain.ErrForbidden
	}

	order, err := s.mutateOrder(id, func(order *domain.Order) error {
		if order.Type != domain.OrderTypeCustom {
			return domain.ErrOrderTypeInvalid
		}
		if req.CustomName != nil {
			order.CustomName = *req.CustomName
		}
		if req.CustomPriceMinor != nil {
			if *req.CustomPriceMinor < 0 {
				return errors.Join(ErrValidation, domain.ErrItemPriceInvalid)
			}
			price := *req.CustomPriceMinor
			order.CustomPriceMinor = &price
			order.TotalMinor = price
		}
		if req.SellerComment != nil {
			order.SellerComment = *req.SellerComment
		}
		order.UpdatedAt = time.Now().UTC()
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.WithField("order_id", order.ID).Info("custom order updated")

	s.emitEvent(order, kafka.EventTypeOrderCustomUpdated, map[string]interface{}{
		"custom_name":   order.CustomName,
		"total_minor":   order.TotalMinor,
		"has_price_set": order.CustomPriceMinor != nil,
	})
	s.appendTimeline(order.ID, string(kafka.EventTypeOrderCustomUpdated), "")

	return order, nil
}

// Cancel отменяет заказ по запросу владельца или администратора.
// Отмена возможна только до передачи заказа в доставку.
func (s *service) Cancel(principal domain.Principal, id, reason string) (domain.Order, error) {
	current, err := s.orders.Get(id)
	if err != nil {
		return domain.Order{}, err
	}
	if !principal.IsAdmin && !current.OwnedBy(principal.Email) {
		return domain.Order{}, domain.ErrForbidden
	}

	order, err := s.mutateOrder(id, func(order *domain.Order) error {
		return order.CancelWithReason(reason)
	})
	if err != nil {
		return domain.Order{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderCanceled()
	}
	s.logger.WithFields(log.Fields{
		"order_id": order.ID,
		"reason":   reason,
	}).Info("order canceled")

	payload := map[string]interface{}{
		"status": string(order.Status),
	}
	if reason != "" {
		payload["reason"] = reason
	}
	s.emitEvent(order, kafka.EventTypeOrderCanceled, payload)
	s.appendTimeline(order.ID, string(kafka.EventTypeOrderCanceled), reason)

	return order, nil
}

// Delete удаляет заказ по запросу владельца, пока тот ещё не подтверждён.
func (s *service) Delete(principal domain.Principal, id string) error {
	order, err := s.orders.Get(id)
	if err != nil {
		return err
	}
	if !order.OwnedBy(principal.Email) {
		return domain.ErrForbidden
	}
	if order.Status != domain.OrderStatusEnRevision {
		return domain.ErrOrderNotDeletable
	}

	if err := s.orders.Delete(id); err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.RecordOrderDeleted()
	}
	s.logger.WithField("order_id", id).Info("order deleted by owner")

	s.emitEvent(order, kafka.EventTypeOrderDeleted, nil)
	return nil
}

// mutateOrder применяет изменение к свежей копии заказа и сохраняет её,
// повторяя попытку при конфликте версий с exponential backoff.
func (s *service) mutateOrder(id string, apply func(*domain.Order) error) (domain.Order, error) {
	const maxRetries = 3
	const baseDelay = 10 * time.Millisecond

	for attempt := 0; attempt < maxRetries; attempt++ {
		order, err := s.orders.Get(id)
		if err != nil {
			return domain.Order{}, err
		}

		if err := apply(&order); err != nil {
			return domain.Order{}, err
		}
		order.UpdatedAt = time.Now().UTC()

		if err := s.orders.Save(order); err != nil {
			if domain.IsVersionConflict(err) && attempt < maxRetries-1 {
				s.logger.WithFields(log.Fields{
					"order_id": id,
					"attempt":  attempt + 1,
				}).Warn("version conflict detected, retrying")
				time.Sleep(baseDelay * time.Duration(1<<uint(attempt)))
				continue
			}
			return domain.Order{}, err
		}

		order.Version++
		return order, nil
	}

	return domain.Order{}, domain.ErrOrderVersionConflict
}

// emitEvent кладёт событие заказа в transactional outbox.
// Ошибка публикации логируется, но не ломает основную операцию.
func (s *service) emitEvent(order domain.Order, eventType kafka.EventType, metadata map[string]interface{}) {
	if s.outbox == nil {
		return
	}

	event := kafka.NewOrderEvent(eventType, order.ID, string(order.Type), string(order.Status), metadata)
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to marshal order event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "order",
		AggregateID:   order.ID,
		EventType:     string(eventType),
		Payload:       payload,
	}); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to enqueue outbox event")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}

func (s *service) appendTimeline(orderID, eventType, reason string) {
	if s.timeline == nil {
		return
	}

	if err := s.timeline.Append(domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: time.Now().UTC(),
	}); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Warn("failed to append timeline event")
		return
	}

	if s.metrics != nil {
		s.metrics.RecordTimelineEvent()
	}
}
