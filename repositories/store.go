package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories over one *gorm.DB, which is either the pool or a
// transaction. Services open transactions through it so every write in a unit of
// work goes through the same handle.
type Store struct {
	db        *gorm.DB
	Orders    *OrderRepository
	Payments  *PaymentRepository
	Customers *CustomerRepository
	Loyalty   *LoyaltyRepository
	Inventory *InventoryRepository
	Activity  *ActivityRepository
	Users     *UserRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Orders:    &OrderRepository{db: db},
		Payments:  &PaymentRepository{db: db},
		Customers: &CustomerRepository{db: db},
		Loyalty:   &LoyaltyRepository{db: db},
		Inventory: &InventoryRepository{db: db},
		Activity:  &ActivityRepository{db: db},
		Users:     &UserRepository{db: db},
	}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn in one atomic unit on a pooled connection.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
	return classify(err)
}

// TransactionOnFreshConn acquires a dedicated connection from the pool and runs
// fn inside an explicit BEGIN/COMMIT on it, rolling back on any error.
func (s *Store) TransactionOnFreshConn(ctx context.Context, fn func(tx *Store) error) error {
	err := s.db.WithContext(ctx).Connection(func(conn *gorm.DB) error {
		tx := conn.Begin()
		if tx.Error != nil {
			return tx.Error
		}
		if err := fn(NewStore(tx)); err != nil {
			tx.Rollback()
			return err
		}
		return tx.Commit().Error
	})
	return classify(err)
}
