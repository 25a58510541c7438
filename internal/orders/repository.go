package orders

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/Irine7/securetech-sub001/internal/domain"
	"github.com/Irine7/securetech-sub001/internal/storage"
)

// ListFilter narrows List. A nil Status matches every order.
type ListFilter struct {
	Status *domain.OrderStatus
}

type OrderRepository struct {
	db     *sql.DB
	logger *slog.Logger

	// placeholderImage is set when itemless orders are padded with a
	// synthetic line instead of being flagged.
	placeholderImage string
}

type RepositoryOption func(*OrderRepository)

// WithPlaceholderItems makes GetByID return a single synthetic line for an
// order whose items cannot be found, instead of an empty list with
// ItemsMissing set.
func WithPlaceholderItems(image string) RepositoryOption {
	return func(r *OrderRepository) {
		if image == "" {
			image = DefaultPlaceholderImage
		}
		r.placeholderImage = image
	}
}

func NewOrderRepository(db *sql.DB, logger *slog.Logger, opts ...RepositoryOption) *OrderRepository {
	r := &OrderRepository{db: db, logger: logger}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create inserts the order and all of its items in one transaction. On
// success the order and its items carry their store-assigned ids and the
// order its timestamps; on failure order is left untouched.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if len(order.Items) == 0 {
		return &domain.ValidationError{Field: "items", Err: domain.ErrEmptyCart}
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.Wrap("orders.create", err)
	}
	defer func() { _ = tx.Rollback() }()

	var created domain.Order
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (customer_name, email, phone, address, comment, total_amount, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at
	`, order.CustomerName, order.Email, order.Phone, order.Address, order.Comment, order.TotalAmount, order.Status,
	).Scan(&created.ID, &created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return storage.Wrap("orders.create", err)
	}

	itemIDs := make([]int64, len(order.Items))
	for i, item := range order.Items {
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, product_id, name, price, quantity, image_url)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id
		`, created.ID, item.ProductID, item.Name, item.Price, item.Quantity, item.ImageURL).Scan(&itemIDs[i])
		if err != nil {
			return storage.Wrap(fmt.Sprintf("orders.create: item %d", i), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storage.Wrap("orders.create: commit", err)
	}

	order.ID = created.ID
	order.CreatedAt = created.CreatedAt
	order.UpdatedAt = created.UpdatedAt
	for i := range order.Items {
		order.Items[i].ID = itemIDs[i]
		order.Items[i].OrderID = created.ID
	}

	return nil
}

// GetByID loads the order with its items through a single join. When the
// join yields no items the items are queried again directly before the
// order is treated as itemless.
func (r *OrderRepository) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT o.id, o.customer_name, o.email, o.phone, o.address, o.comment,
		       o.total_amount, o.status, o.created_at, o.updated_at,
		       i.id, i.product_id, i.name, i.price, i.quantity, i.image_url
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		WHERE o.id = $1
		ORDER BY i.id
	`, id)
	if err != nil {
		return nil, storage.Wrap("orders.get", err)
	}
	defer func() { _ = rows.Close() }()

	var order *domain.Order
	for rows.Next() {
		var (
			o         domain.Order
			itemID    sql.NullInt64
			productID sql.NullInt64
			name      sql.NullString
			price     decimal.NullDecimal
			quantity  sql.NullInt64
			imageURL  sql.NullString
		)
		if err := rows.Scan(
			&o.ID, &o.CustomerName, &o.Email, &o.Phone, &o.Address, &o.Comment,
			&o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt,
			&itemID, &productID, &name, &price, &quantity, &imageURL,
		); err != nil {
			return nil, storage.Wrap("orders.get", err)
		}

		if order == nil {
			o.Items = []domain.OrderItem{}
			order = &o
		}

		if itemID.Valid {
			order.Items = append(order.Items, domain.OrderItem{
				ID:        itemID.Int64,
				OrderID:   order.ID,
				ProductID: productID.Int64,
				Name:      name.String,
				Price:     price.Decimal,
				Quantity:  int(quantity.Int64),
				ImageURL:  imageURL.String,
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("orders.get", err)
	}

	if order == nil {
		return nil, &domain.NotFoundError{OrderID: id}
	}

	if len(order.Items) == 0 {
		if err := r.recoverItems(ctx, order); err != nil {
			return nil, err
		}
	}

	return order, nil
}

func (r *OrderRepository) recoverItems(ctx context.Context, order *domain.Order) error {
	items, err := r.itemsByOrderIDs(ctx, []int64{order.ID})
	if err != nil {
		return err
	}

	if found := items[order.ID]; len(found) > 0 {
		r.logger.Warn("order items found only by direct lookup", "order_id", order.ID, "items", len(found))
		order.Items = found
		return nil
	}

	r.logger.Warn("order has no items", "order_id", order.ID)

	if r.placeholderImage == "" {
		order.ItemsMissing = true
		return nil
	}

	order.Items = []domain.OrderItem{{
		OrderID:   order.ID,
		ProductID: ResolveProductID("", 0, 0),
		Name:      DefaultItemName,
		Price:     order.TotalAmount,
		Quantity:  1,
		ImageURL:  r.placeholderImage,
	}}
	return nil
}

// List returns one page of orders, newest first, and the number of orders
// matching filter across all pages.
func (r *OrderRepository) List(ctx context.Context, filter ListFilter, limit, offset int) ([]domain.Order, int, error) {
	where := ""
	var args []any
	if filter.Status != nil {
		where = "WHERE status = $1"
		args = append(args, *filter.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, storage.Wrap("orders.list: count", err)
	}

	query := fmt.Sprintf(`
		SELECT id, customer_name, email, phone, address, comment,
		       total_amount, status, created_at, updated_at
		FROM orders
		%s
		ORDER BY created_at DESC, id DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)

	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, storage.Wrap("orders.list", err)
	}
	defer func() { _ = rows.Close() }()

	orders := []domain.Order{}
	var orderIDs []int64

	for rows.Next() {
		var o domain.Order
		if err := rows.Scan(
			&o.ID, &o.CustomerName, &o.Email, &o.Phone, &o.Address, &o.Comment,
			&o.TotalAmount, &o.Status, &o.CreatedAt, &o.UpdatedAt,
		); err != nil {
			return nil, 0, storage.Wrap("orders.list", err)
		}
		orders = append(orders, o)
		orderIDs = append(orderIDs, o.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, storage.Wrap("orders.list", err)
	}

	if len(orderIDs) == 0 {
		return orders, total, nil
	}

	items, err := r.itemsByOrderIDs(ctx, orderIDs)
	if err != nil {
		return nil, 0, err
	}

	for i := range orders {
		orders[i].Items = items[orders[i].ID]
		if orders[i].Items == nil {
			orders[i].Items = []domain.OrderItem{}
			orders[i].ItemsMissing = true
		}
	}

	return orders, total, nil
}

func (r *OrderRepository) itemsByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]domain.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, order_id, product_id, name, price, quantity, image_url
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, id
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, storage.Wrap("orders.items", err)
	}
	defer func() { _ = rows.Close() }()

	items := make(map[int64][]domain.OrderItem, len(orderIDs))
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &item.Price, &item.Quantity, &item.ImageURL); err != nil {
			return nil, storage.Wrap("orders.items", err)
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("orders.items", err)
	}

	return items, nil
}

// UpdateStatus writes status and moves updated_at forward, always past its
// previous value even when the clock has not advanced.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders
		SET status = $1,
		    updated_at = GREATEST(clock_timestamp(), updated_at + INTERVAL '1 microsecond')
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, storage.Wrap("orders.update_status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, storage.Wrap("orders.update_status", err)
	}

	if rowsAffected == 0 {
		return nil, &domain.NotFoundError{OrderID: id}
	}

	return r.GetByID(ctx, id)
}

func (r *OrderRepository) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return 0, storage.Wrap("orders.count", err)
	}
	return count, nil
}

func (r *OrderRepository) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	var total decimal.Decimal
	if err := r.db.QueryRowContext(ctx, `SELECT COALESCE(SUM(total_amount), 0) FROM orders`).Scan(&total); err != nil {
		return decimal.Zero, storage.Wrap("orders.total_sales", err)
	}
	return total, nil
}

func (r *OrderRepository) CountByStatus(ctx context.Context) (map[domain.OrderStatus]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT status, COUNT(*)
		FROM orders
		GROUP BY status
	`)
	if err != nil {
		return nil, storage.Wrap("orders.count_by_status", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.OrderStatus]int64)
	for rows.Next() {
		var (
			status domain.OrderStatus
			count  int64
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, storage.Wrap("orders.count_by_status", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("orders.count_by_status", err)
	}

	return counts, nil
}

// PopularProducts sums ordered quantities per product id and returns the
// top limit entries. The name is taken from the most recent line for that
// product.
func (r *OrderRepository) PopularProducts(ctx context.Context, limit int) ([]domain.PopularProduct, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id,
		       (ARRAY_AGG(name ORDER BY id DESC))[1] AS name,
		       SUM(quantity) AS total_quantity
		FROM order_items
		GROUP BY product_id
		ORDER BY total_quantity DESC, product_id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, storage.Wrap("orders.popular_products", err)
	}
	defer func() { _ = rows.Close() }()

	products := []domain.PopularProduct{}
	for rows.Next() {
		var p domain.PopularProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.TotalQuantity); err != nil {
			return nil, storage.Wrap("orders.popular_products", err)
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, storage.Wrap("orders.popular_products", err)
	}

	return products, nil
}
