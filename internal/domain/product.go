package domain

import "time"

// Product — карточка товара каталога. Каталог ведёт отдельная подсистема,
// здесь товар читается для цены и остатка; остаток уменьшается только
// атомарной операцией склада при оформлении заказа.
type Product struct {
	ID   string
	Name string
	// PriceMinor — текущая цена каталога в минимальных денежных единицах.
	PriceMinor int64
	// Stock — остаток на складе, никогда не опускается ниже нуля.
	Stock     int32
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Reservation — одно списание остатка под позицию заказа.
type Reservation struct {
	ProductID string
	Qty       int32
}
