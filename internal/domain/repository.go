package domain

// OrderFilter задаёт условия выборки заказов для административных списков.
type OrderFilter struct {
	// Type ограничивает выборку каналом заказа; пустое значение — все каналы.
	Type OrderType
	// ExcludeCompleted исключает завершённые заказы из выборки.
	ExcludeCompleted bool
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	// Create сохраняет новый заказ вместе с позициями и списанием остатков
	// как единую атомарную операцию. При нехватке остатка возвращает
	// InsufficientStockError, при занятом ID — ErrDuplicateOrderID;
	// в обоих случаях ни одна запись и ни одно списание не сохраняются.
	Create(order Order) error
	// Get возвращает заказ по идентификатору или ErrOrderNotFound, если его нет.
	Get(id string) (Order, error)
	// ListByOwner возвращает заказы, оформленные на данный контактный email.
	ListByOwner(email string) ([]Order, error)
	// List возвращает заказы по фильтру (административная выборка).
	List(filter OrderFilter) ([]Order, error)
	// Save применяет обновления к шапке заказа с учётом optimistic locking.
	// Позиции и списания остатков при этом не трогаются.
	Save(order Order) error
	// Delete удаляет заказ вместе с позициями. Используется только для
	// заказов в статусе en_revision по запросу владельца.
	Delete(id string) error
}

// ProductRepository описывает чтение каталога товаров.
type ProductRepository interface {
	// Get возвращает активный товар или ErrProductNotFound.
	Get(id string) (Product, error)
}

// InventoryLedger — атомарные операции над остатками склада.
type InventoryLedger interface {
	// Reserve проверяет и списывает остаток одним атомарным шагом.
	// Возвращает InsufficientStockError или ErrProductNotFound.
	Reserve(productID string, qty int32) error
	// Release возвращает остаток. Применяется только при откате частично
	// собранного заказа, не как публичная операция.
	Release(productID string, qty int32) error
}
