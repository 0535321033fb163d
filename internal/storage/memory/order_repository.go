package memory

import (
	"sort"
	"sync"

	"github.com/origamishop/orders/internal/domain"
)

// orderRepositoryInMemory — in-memory реализация OrderRepository.
// Списание остатков при создании идёт через склад каталога, поэтому
// семантика create совпадает с транзакционной реализацией на PostgreSQL.
type orderRepositoryInMemory struct {
	mu     sync.RWMutex
	items  map[string]domain.Order
	ledger domain.InventoryLedger
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository(ledger domain.InventoryLedger) domain.OrderRepository {
	return &orderRepositoryInMemory{
		items:  make(map[string]domain.Order),
		ledger: ledger,
	}
}

// Create сохраняет новый заказ, списывая остатки по всем позициям.
// При любой ошибке уже выполненные списания возвращаются и заказ не сохраняется.
func (r *orderRepositoryInMemory) Create(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[order.ID]; exists {
		return domain.ErrDuplicateOrderID
	}

	reserved := make([]domain.Reservation, 0, len(order.Items))
	for _, item := range order.Items {
		if err := r.ledger.Reserve(item.ProductID, item.Qty); err != nil {
			// Откатываем резервы, взятые в этой попытке.
			for _, res := range reserved {
				_ = r.ledger.Release(res.ProductID, res.Qty)
			}
			return err
		}
		reserved = append(reserved, domain.Reservation{ProductID: item.ProductID, Qty: item.Qty})
	}

	// Сохраняем копию, чтобы избежать непредсказуемых мутаций извне.
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Get возвращает заказ или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id string) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// ListByOwner возвращает заказы, оформленные на данный контактный email.
func (r *orderRepositoryInMemory) ListByOwner(email string) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0)
	for _, order := range r.items {
		if order.Contact.Email != email {
			continue
		}
		result = append(result, cloneOrder(order))
	}
	sortOrders(result)
	return result, nil
}

// List возвращает заказы по административному фильтру.
func (r *orderRepositoryInMemory) List(filter domain.OrderFilter) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if filter.Type != "" && order.Type != filter.Type {
			continue
		}
		if filter.ExcludeCompleted && order.Status == domain.OrderStatusCompletado {
			continue
		}
		result = append(result, cloneOrder(order))
	}
	sortOrders(result)
	return result, nil
}

// Save перезаписывает шапку заказа, проверяя версию (optimistic locking).
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}
	// Позиции заказа неизменяемы после создания.
	order.Items = current.Items
	order.Version++
	r.items[order.ID] = cloneOrder(order)
	return nil
}

// Delete удаляет заказ вместе с позициями.
func (r *orderRepositoryInMemory) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrOrderNotFound
	}
	delete(r.items, id)
	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	clone := order
	clone.Items = make([]domain.OrderItem, len(order.Items))
	copy(clone.Items, order.Items)
	if order.CustomPriceMinor != nil {
		price := *order.CustomPriceMinor
		clone.CustomPriceMinor = &price
	}
	return clone
}

func sortOrders(orders []domain.Order) {
	sort.Slice(orders, func(i, j int) bool {
		if !orders[i].CreatedAt.Equal(orders[j].CreatedAt) {
			return orders[i].CreatedAt.After(orders[j].CreatedAt)
		}
		return orders[i].ID > orders[j].ID
	})
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
