package domain

import "time"

// OrderStatus описывает жизненный цикл заказа в магазине.
type OrderStatus string

const (
	// OrderStatusEnRevision — заказ принят и ждёт подтверждения администратором.
	OrderStatusEnRevision OrderStatus = "en_revision"
	// OrderStatusAceptado — администратор подтвердил заказ, начинается изготовление.
	OrderStatusAceptado OrderStatus = "aceptado"
	// OrderStatusTerminado — заказ изготовлен и готов к отправке.
	OrderStatusTerminado OrderStatus = "terminado"
	// OrderStatusEnviado — заказ передан в доставку.
	OrderStatusEnviado OrderStatus = "enviado"
	// OrderStatusCompletado — заказ доставлен клиенту (терминальный статус).
	OrderStatusCompletado OrderStatus = "completado"
	// OrderStatusCancelado — заказ отменён до отправки (терминальный статус).
	OrderStatusCancelado OrderStatus = "cancelado"
)

// OrderType описывает канал оформления заказа.
type OrderType string

const (
	// OrderTypeNormal — заказ зарегистрированного клиента.
	OrderTypeNormal OrderType = "normal"
	// OrderTypeGuest — заказ без авторизации.
	OrderTypeGuest OrderType = "guest"
	// OrderTypeCustom — индивидуальный заказ по описанию клиента.
	OrderTypeCustom OrderType = "custom"
)

// PaymentMethod — способ оплаты из закрытого набора значений.
type PaymentMethod string

const (
	PaymentTransferencia PaymentMethod = "transferencia"
	PaymentEfectivo      PaymentMethod = "efectivo"
	PaymentTarjeta       PaymentMethod = "tarjeta"
)

// statusRank задаёт порядок прямых переходов жизненного цикла.
var statusRank = map[OrderStatus]int{
	OrderStatusEnRevision: 0,
	OrderStatusAceptado:   1,
	OrderStatusTerminado:  2,
	OrderStatusEnviado:    3,
	OrderStatusCompletado: 4,
}

// Valid сообщает, входит ли статус в перечисленный набор.
func (s OrderStatus) Valid() bool {
	if s == OrderStatusCancelado {
		return true
	}
	_, ok := statusRank[s]
	return ok
}

// Terminal сообщает, является ли статус терминальным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompletado || s == OrderStatusCancelado
}

// Valid сообщает, входит ли тип заказа в перечисленный набор.
func (t OrderType) Valid() bool {
	switch t {
	case OrderTypeNormal, OrderTypeGuest, OrderTypeCustom:
		return true
	}
	return false
}

// Valid сообщает, входит ли способ оплаты в закрытый набор.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentTransferencia, PaymentEfectivo, PaymentTarjeta:
		return true
	}
	return false
}

// Contact — снимок контактных данных на момент оформления заказа,
// не живая ссылка на запись клиента.
type Contact struct {
	Name  string
	Email string
	Phone string
}

// OrderItem представляет одну позицию заказа.
type OrderItem struct {
	ID string
	// ProductID — идентификатор товара из каталога.
	ProductID string
	// ProductName — снимок названия товара на момент оформления.
	ProductName string
	// Qty — количество единиц товара.
	Qty int32
	// PriceMinor — цена за единицу на момент оформления, в минимальных
	// денежных единицах. Фиксируется при создании и не пересчитывается.
	PriceMinor int64
	CreatedAt  time.Time
}

// Order агрегирует шапку заказа и его позиции.
type Order struct {
	ID      string
	Type    OrderType
	Status  OrderStatus
	Contact Contact
	// TotalMinor — сумма заказа, замороженная при создании.
	TotalMinor      int64
	ShippingAddress string
	PaymentMethod   PaymentMethod
	// Description и ReferenceImage заполняются для индивидуальных заказов.
	Description    string
	ReferenceImage string
	// Поля, редактируемые администратором.
	CustomName       string
	CustomPriceMinor *int64
	SellerComment    string
	CancelComment    string
	Items            []OrderItem
	Version          int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ValidateInvariants проверяет базовые инварианты заказа и возвращает список замечаний.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if !o.Type.Valid() {
		errs = append(errs, ErrOrderTypeInvalid)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrStatusInvalid)
	}
	if o.Contact.Name == "" || o.Contact.Email == "" {
		errs = append(errs, ErrContactRequired)
	}
	if o.PaymentMethod != "" && !o.PaymentMethod.Valid() {
		errs = append(errs, ErrPaymentMethodInvalid)
	}
	if o.TotalMinor < 0 {
		errs = append(errs, ErrTotalNegative)
	}

	switch o.Type {
	case OrderTypeCustom:
		if o.Description == "" {
			errs = append(errs, ErrDescriptionRequired)
		}
	default:
		if len(o.Items) == 0 {
			errs = append(errs, ErrItemsRequired)
		}
	}

	// Сверяем сумму заказа с суммой позиций: qty * цена-снимок.
	var calc int64
	for _, item := range o.Items {
		if item.ProductID == "" {
			errs = append(errs, ErrItemProductRequired)
		}
		if item.Qty <= 0 {
			errs = append(errs, ErrItemQtyInvalid)
		}
		if item.PriceMinor < 0 {
			errs = append(errs, ErrItemPriceInvalid)
		}
		calc += int64(item.Qty) * item.PriceMinor
	}
	if len(o.Items) > 0 && calc != o.TotalMinor {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}

// TransitionTo переводит заказ в новый статус по правилам жизненного цикла:
// только вперёд по цепочке, из терминальных статусов выхода нет.
func (o *Order) TransitionTo(next OrderStatus) error {
	if !next.Valid() {
		return ErrStatusInvalid
	}
	if o.Status.Terminal() {
		return ErrStatusConflict
	}
	if next == OrderStatusCancelado {
		return o.CancelWithReason("")
	}

	current, ok := statusRank[o.Status]
	if !ok {
		return ErrStatusConflict
	}
	if statusRank[next] <= current {
		return ErrStatusConflict
	}

	o.Status = next
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancellable сообщает, можно ли ещё отменить заказ.
// После передачи в доставку и после завершения отмена запрещена.
func (o *Order) Cancellable() bool {
	return o.Status == OrderStatusEnRevision || o.Status == OrderStatusAceptado
}

// CancelWithReason отменяет заказ и фиксирует причину для аудита.
// Отмена терминальна, обратного перехода нет.
func (o *Order) CancelWithReason(reason string) error {
	if !o.Cancellable() {
		return ErrStatusConflict
	}
	o.Status = OrderStatusCancelado
	o.CancelComment = reason
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// OwnedBy сообщает, принадлежит ли заказ клиенту с данным email.
func (o *Order) OwnedBy(email string) bool {
	return email != "" && o.Contact.Email == email
}
