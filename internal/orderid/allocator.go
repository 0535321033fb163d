package orderid

import (
	"strings"

	"github.com/google/uuid"

	"github.com/origamishop/orders/internal/domain"
)

const (
	// GuestPrefix помечает заказы, оформленные без авторизации.
	GuestPrefix = "GUEST-"
	// CustomPrefix помечает индивидуальные заказы.
	CustomPrefix = "CUSTOM-"

	shortSuffixLen = 8
)

// Allocator выдаёт идентификаторы заказов с пометкой канала.
// Уникальность гарантирует unique constraint хранилища: при коллизии
// репозиторий вернёт ErrDuplicateOrderID, и сервис запросит новый ID.
type Allocator struct{}

// New создаёт аллокатор идентификаторов.
func New() *Allocator {
	return &Allocator{}
}

// Allocate возвращает новый идентификатор для заданного канала.
func (a *Allocator) Allocate(orderType domain.OrderType) string {
	switch orderType {
	case domain.OrderTypeGuest:
		return GuestPrefix + shortSuffix()
	case domain.OrderTypeCustom:
		return CustomPrefix + shortSuffix()
	default:
		// Заказы зарегистрированных клиентов получают непрозрачный UUID.
		return uuid.NewString()
	}
}

// shortSuffix возвращает короткий суффикс из hex-представления UUID.
func shortSuffix() string {
	hex := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(hex[:shortSuffixLen])
}
