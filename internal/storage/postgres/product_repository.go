package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/origamishop/orders/internal/domain"
)

type productRepository struct {
	db *sql.DB
}

// NewProductRepository создаёт PostgreSQL-реализацию каталога товаров.
func NewProductRepository(store *Store) domain.ProductRepository {
	return &productRepository{db: store.DB()}
}

// Get возвращает активный товар; неактивные товары для оформления невидимы.
func (r *productRepository) Get(id string) (domain.Product, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var p domain.Product
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, price_minor, stock, active, created_at, updated_at
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.PriceMinor, &p.Stock, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("select product: %w", err)
	}
	if !p.Active {
		return domain.Product{}, domain.ErrProductNotFound
	}

	return p, nil
}

type inventoryLedger struct {
	db *sql.DB
}

// NewInventoryLedger создаёт PostgreSQL-реализацию операций над остатками.
// Репозиторий заказов делает те же декременты внутри своей транзакции;
// отдельный ledger нужен для операций вне контекста создания заказа.
func NewInventoryLedger(store *Store) domain.InventoryLedger {
	return &inventoryLedger{db: store.DB()}
}

func (l *inventoryLedger) Reserve(productID string, qty int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := reserveStockTx(ctx, tx, productID, qty); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit reserve: %w", err)
	}

	return nil
}

func (l *inventoryLedger) Release(productID string, qty int32) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := l.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock + $2,
		    updated_at = NOW()
		WHERE id = $1
	`, productID, qty)
	if err != nil {
		return fmt.Errorf("release stock for %s: %w", productID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrProductNotFound
	}

	return nil
}

var (
	_ domain.ProductRepository = (*productRepository)(nil)
	_ domain.InventoryLedger   = (*inventoryLedger)(nil)
)
