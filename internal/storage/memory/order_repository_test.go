package memory_test

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/origamishop/orders/internal/domain"
	"github.com/origamishop/orders/internal/storage/memory"
)

func newCatalog(t *testing.T, products ...domain.Product) (domain.OrderRepository, domain.ProductRepository, domain.InventoryLedger) {
	t.Helper()
	catalog := memory.NewProductRepository()
	for _, p := range products {
		catalog.Put(p)
	}
	return memory.NewOrderRepository(catalog), catalog, catalog
}

func product(id string, stock int32) domain.Product {
	return domain.Product{ID: id, Name: "papel " + id, PriceMinor: 100, Stock: stock, Active: true}
}

func newOrder(id string, items ...domain.OrderItem) domain.Order {
	now := time.Now().UTC()
	var total int64
	for _, item := range items {
		total += int64(item.Qty) * item.PriceMinor
	}
	return domain.Order{
		ID:     id,
		Type:   domain.OrderTypeNormal,
		Status: domain.OrderStatusEnRevision,
		Contact: domain.Contact{
			Name:  "Ana Torres",
			Email: "ana@example.com",
		},
		TotalMinor: total,
		Items:      items,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func item(productID string, qty int32) domain.OrderItem {
	return domain.OrderItem{ID: "item-" + productID, ProductID: productID, Qty: qty, PriceMinor: 100, CreatedAt: time.Now().UTC()}
}

func TestOrderRepository_CreateReservesStock(t *testing.T) {
	repo, catalog, _ := newCatalog(t, product("p1", 10))

	if err := repo.Create(newOrder("order-1", item("p1", 4))); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	p, err := catalog.Get("p1")
	if err != nil {
		t.Fatalf("get product failed: %v", err)
	}
	if p.Stock != 6 {
		t.Fatalf("expected stock 6 after reservation, got %d", p.Stock)
	}

	stored, err := repo.Get("order-1")
	if err != nil {
		t.Fatalf("get order failed: %v", err)
	}
	if len(stored.Items) != 1 || stored.TotalMinor != 400 {
		t.Fatalf("unexpected stored order: %+v", stored)
	}
}

func TestOrderRepository_CreateInsufficientStockRollsBack(t *testing.T) {
	repo, catalog, _ := newCatalog(t, product("p1", 10), product("p2", 1))

	err := repo.Create(newOrder("order-1", item("p1", 4), item("p2", 3)))
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	// Первая позиция была зарезервирована и должна вернуться на склад.
	p1, _ := catalog.Get("p1")
	if p1.Stock != 10 {
		t.Fatalf("expected stock restored to 10, got %d", p1.Stock)
	}
	if _, err := repo.Get("order-1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("no order row must survive a failed attempt, got %v", err)
	}
}

func TestOrderRepository_CreateUnknownProduct(t *testing.T) {
	repo, _, _ := newCatalog(t, product("p1", 10))

	err := repo.Create(newOrder("order-1", item("desconocido", 1)))
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestOrderRepository_CreateDuplicateID(t *testing.T) {
	repo, _, _ := newCatalog(t, product("p1", 10))

	if err := repo.Create(newOrder("order-1", item("p1", 1))); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	err := repo.Create(newOrder("order-1", item("p1", 1)))
	if !errors.Is(err, domain.ErrDuplicateOrderID) {
		t.Fatalf("expected ErrDuplicateOrderID, got %v", err)
	}
}

func TestOrderRepository_ConcurrentCreatesNeverOversell(t *testing.T) {
	const (
		stock    = int32(10)
		attempts = 50
		qty      = int32(3)
	)
	repo, catalog, _ := newCatalog(t, product("p1", stock))

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			order := newOrder(orderID(n), item("p1", qty))
			if err := repo.Create(order); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	if succeeded*qty > stock {
		t.Fatalf("oversell: %d orders of %d units against stock %d", succeeded, qty, stock)
	}

	p, _ := catalog.Get("p1")
	if p.Stock < 0 {
		t.Fatalf("stock must never go negative, got %d", p.Stock)
	}
	if p.Stock != stock-succeeded*qty {
		t.Fatalf("expected stock %d, got %d", stock-succeeded*qty, p.Stock)
	}
}

func orderID(n int) string {
	return fmt.Sprintf("order-%03d", n)
}

func TestOrderRepository_ListByOwner(t *testing.T) {
	repo, _, _ := newCatalog(t, product("p1", 100))

	mine := newOrder("order-1", item("p1", 1))
	other := newOrder("order-2", item("p1", 1))
	other.Contact.Email = "otro@example.com"

	if err := repo.Create(mine); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(other); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	orders, err := repo.ListByOwner("ana@example.com")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 1 || orders[0].ID != "order-1" {
		t.Fatalf("expected only own order, got %+v", orders)
	}
}

func TestOrderRepository_ListFilters(t *testing.T) {
	repo, _, _ := newCatalog(t, product("p1", 100))

	a := newOrder("order-1", item("p1", 1))
	b := newOrder("order-2", item("p1", 1))
	b.Type = domain.OrderTypeGuest
	c := newOrder("order-3", item("p1", 1))
	c.Status = domain.OrderStatusCompletado

	for _, o := range []domain.Order{a, b, c} {
		if err := repo.Create(o); err != nil {
			t.Fatalf("create failed: %v", err)
		}
	}

	guests, err := repo.List(domain.OrderFilter{Type: domain.OrderTypeGuest})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(guests) != 1 || guests[0].ID != "order-2" {
		t.Fatalf("expected guest order only, got %+v", guests)
	}

	active, err := repo.List(domain.OrderFilter{ExcludeCompleted: true})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active orders, got %d", len(active))
	}
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	repo, _, _ := newCatalog(t, product("p1", 100))
	if err := repo.Create(newOrder("order-1", item("p1", 1))); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get("order-1")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	stored.Status = domain.OrderStatusAceptado
	if err := repo.Save(stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// Повторное сохранение со старой версией должно отклоняться.
	stored.Status = domain.OrderStatusTerminado
	if err := repo.Save(stored); !errors.Is(err, domain.ErrOrderVersionConflict) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestOrderRepository_Delete(t *testing.T) {
	repo, _, _ := newCatalog(t, product("p1", 100))
	if err := repo.Create(newOrder("order-1", item("p1", 1))); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	if err := repo.Delete("order-1"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get("order-1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected order gone, got %v", err)
	}
	if err := repo.Delete("order-1"); !errors.Is(err, domain.ErrOrderNotFound) {
		t.Fatalf("expected ErrOrderNotFound on repeated delete, got %v", err)
	}
}
