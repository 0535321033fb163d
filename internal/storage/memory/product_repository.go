package memory

import (
	"sync"
	"time"

	"github.com/origamishop/orders/internal/domain"
)

// productRepositoryInMemory — in-memory каталог товаров со встроенным складом.
// Проверка и списание остатка выполняются под одним мьютексом, поэтому
// конкурентные резервы одного товара сериализуются так же, как их
// сериализует условный UPDATE в PostgreSQL.
type productRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Product
}

// NewProductRepository возвращает in-memory каталог для локальной разработки и тестов.
func NewProductRepository() *productRepositoryInMemory {
	return &productRepositoryInMemory{
		items: make(map[string]domain.Product),
	}
}

// Put добавляет или заменяет товар в каталоге.
func (r *productRepositoryInMemory) Put(product domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if product.CreatedAt.IsZero() {
		product.CreatedAt = time.Now().UTC()
	}
	product.UpdatedAt = time.Now().UTC()
	r.items[product.ID] = product
}

// Get возвращает активный товар или ErrProductNotFound.
func (r *productRepositoryInMemory) Get(id string) (domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.items[id]
	if !ok || !product.Active {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return product, nil
}

// Reserve атомарно проверяет и списывает остаток товара.
func (r *productRepositoryInMemory) Reserve(productID string, qty int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.items[productID]
	if !ok || !product.Active {
		return domain.ErrProductNotFound
	}
	if product.Stock < qty {
		return &domain.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: product.Stock,
		}
	}
	product.Stock -= qty
	product.UpdatedAt = time.Now().UTC()
	r.items[productID] = product
	return nil
}

// Release возвращает остаток после отката частично собранного заказа.
func (r *productRepositoryInMemory) Release(productID string, qty int32) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.items[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	product.Stock += qty
	product.UpdatedAt = time.Now().UTC()
	r.items[productID] = product
	return nil
}

var (
	_ domain.ProductRepository = (*productRepositoryInMemory)(nil)
	_ domain.InventoryLedger   = (*productRepositoryInMemory)(nil)
)
