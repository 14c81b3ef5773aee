package ogmtest

import (
	"context"

	"github.com/syssam/ogm/graphdriver"
)

// Driver is an in-memory graphdriver.Driver.
type Driver struct {
	store *store
}

// New returns an empty Driver.
func New() *Driver {
	return &Driver{store: newStore()}
}

func (d *Driver) NewReadTx(ctx context.Context) (graphdriver.Tx, error) {
	return &Tx{store: d.store}, nil
}

func (d *Driver) NewWriteTx(ctx context.Context) (graphdriver.Tx, error) {
	return &Tx{store: d.store, snapshot: d.store.clone(), write: true}, nil
}
