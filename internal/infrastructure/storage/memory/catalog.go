package memory

import (
	"context"

	"tillbook/internal/core/apperror"
	"tillbook/internal/core/id"
	"tillbook/internal/domain/catalog"
)

// Directory is the in-memory catalog. Entities are seeded by the caller.
type Directory struct {
	store *Store
}

// NewDirectory creates a directory over the store.
func NewDirectory(store *Store) *Directory {
	return &Directory{store: store}
}

// SeedProduct registers a product.
func (d *Directory) SeedProduct(p catalog.Product) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	d.store.state.products[p.ID.String()] = p
}

// SeedWarehouse registers a warehouse.
func (d *Directory) SeedWarehouse(w catalog.Warehouse) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	d.store.state.warehouses[w.ID.String()] = w
}

// SeedLocation registers a location.
func (d *Directory) SeedLocation(l catalog.Location) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	d.store.state.locations[l.ID.String()] = l
}

// SeedCustomer registers a customer.
func (d *Directory) SeedCustomer(c catalog.Customer) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	d.store.state.customers[c.ID.String()] = c
}

// SeedRegister registers a cash register.
func (d *Directory) SeedRegister(r catalog.Register) {
	d.store.mu.Lock()
	defer d.store.mu.Unlock()
	d.store.state.registers[r.ID.String()] = r
}

// ProductByID implements catalog.Directory.
func (d *Directory) ProductByID(_ context.Context, productID id.ID) (catalog.Product, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	p, ok := d.store.state.products[productID.String()]
	if !ok {
		return catalog.Product{}, apperror.NewNotFound("product", productID)
	}
	return p, nil
}

// WarehouseByID implements catalog.Directory.
func (d *Directory) WarehouseByID(_ context.Context, warehouseID id.ID) (catalog.Warehouse, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	w, ok := d.store.state.warehouses[warehouseID.String()]
	if !ok {
		return catalog.Warehouse{}, apperror.NewNotFound("warehouse", warehouseID)
	}
	return w, nil
}

// LocationByID implements catalog.Directory.
func (d *Directory) LocationByID(_ context.Context, locationID id.ID) (catalog.Location, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	l, ok := d.store.state.locations[locationID.String()]
	if !ok {
		return catalog.Location{}, apperror.NewNotFound("location", locationID)
	}
	return l, nil
}

// CustomerByID implements catalog.Directory.
func (d *Directory) CustomerByID(_ context.Context, customerID id.ID) (catalog.Customer, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	c, ok := d.store.state.customers[customerID.String()]
	if !ok {
		return catalog.Customer{}, apperror.NewNotFound("customer", customerID)
	}
	return c, nil
}

// RegisterByID implements catalog.Directory.
func (d *Directory) RegisterByID(_ context.Context, registerID id.ID) (catalog.Register, error) {
	d.store.mu.RLock()
	defer d.store.mu.RUnlock()
	r, ok := d.store.state.registers[registerID.String()]
	if !ok {
		return catalog.Register{}, apperror.NewNotFound("register", registerID)
	}
	return r, nil
}
