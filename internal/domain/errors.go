package domain

import (
	"errors"
	"fmt"
)

var (
	// Ошибка отсутствующих контактных данных (имя и email обязательны).
	ErrContactRequired = errors.New("contact name and email are required")
	// Ошибка неизвестного типа заказа.
	ErrOrderTypeInvalid = errors.New("order type is not recognized")
	// Ошибка отсутствия хотя бы одного товара в обычном или гостевом заказе.
	ErrItemsRequired = errors.New("order must contain at least one item")
	// Ошибка отсутствующего описания у индивидуального заказа.
	ErrDescriptionRequired = errors.New("custom order requires a description")
	// Ошибка способа оплаты вне закрытого набора значений.
	ErrPaymentMethodInvalid = errors.New("payment method is not allowed")
	// Ошибка отрицательной суммы заказа.
	ErrTotalNegative = errors.New("order total must be non-negative")
	// Ошибка несоответствия суммы заказа и сумм позиций.
	ErrTotalMismatch = errors.New("order total does not match items sum")
	// Ошибка позиции без идентификатора товара.
	ErrItemProductRequired = errors.New("item product_id is required")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrItemQtyInvalid = errors.New("item qty must be greater than zero")
	// Ошибка, если цена позиции отрицательная.
	ErrItemPriceInvalid = errors.New("item price must be non-negative")

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrProductNotFound возвращается, если товар отсутствует в каталоге или неактивен.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("order version conflict")
	// ErrDuplicateOrderID — коллизия идентификатора заказа; допускает один
	// повтор с новым идентификатором перед отказом.
	ErrDuplicateOrderID = errors.New("order id already exists")
	// ErrStatusInvalid — статус вне перечисленного набора.
	ErrStatusInvalid = errors.New("order status is not recognized")
	// ErrStatusConflict — недопустимый переход статуса (например, отмена
	// уже отправленного или завершённого заказа).
	ErrStatusConflict = errors.New("order status transition is not allowed")
	// ErrOrderNotDeletable — удалить можно только свой заказ в статусе en_revision.
	ErrOrderNotDeletable = errors.New("order can no longer be deleted")

	// ErrUnauthenticated — запрос без валидных учётных данных.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden — у принципала недостаточно прав на операцию.
	ErrForbidden = errors.New("operation is not permitted")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// InsufficientStockError возвращается, когда остатка товара не хватает
// на запрошенное количество. Заказ при этом отклоняется целиком.
type InsufficientStockError struct {
	ProductID string
	Requested int32
	Available int32
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой остатка.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
