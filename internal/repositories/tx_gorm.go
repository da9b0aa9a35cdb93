package repositories

import (
	"context"

	"gorm.io/gorm"
)

// GORMTransactionScope implements TransactionScope with a GORM transaction.
type GORMTransactionScope struct {
	db *gorm.DB
}

// NewGORMTransactionScope creates a new GORMTransactionScope.
func NewGORMTransactionScope(db *gorm.DB) *GORMTransactionScope {
	return &GORMTransactionScope{db: db}
}

// Execute commits when fn returns nil and rolls back otherwise.
func (s *GORMTransactionScope) Execute(ctx context.Context, fn func(repos TxRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(gormTxRepositories{tx: tx})
	})
}

type gormTxRepositories struct {
	tx *gorm.DB
}

func (r gormTxRepositories) Products() ProductRepository {
	return NewGORMProductRepository(r.tx)
}

func (r gormTxRepositories) Orders() OrderRepository {
	return NewGORMOrderRepository(r.tx)
}

var (
	_ TransactionScope   = (*GORMTransactionScope)(nil)
	_ ProductRepository  = (*GORMProductRepository)(nil)
	_ CategoryRepository = (*GORMCategoryRepository)(nil)
	_ OrderRepository    = (*GORMOrderRepository)(nil)
	_ UserRepository     = (*GORMUserRepository)(nil)
	_ TokenRepository    = (*GORMTokenRepository)(nil)
)
