package repositories

import "context"

// TxRepositories gives access to repositories bound to one transaction.
type TxRepositories interface {
	Products() ProductRepository
	Orders() OrderRepository
}

// TransactionScope runs fn atomically: every repository call made through
// repos commits together when fn returns nil and is rolled back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TxRepositories) error) error
}
