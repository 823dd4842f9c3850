package screens

import (
	"sync"

	"inventory/internal/contract"
	"inventory/internal/models"
)

// Row is one line of the product list.
type Row struct {
	ID       int64
	Address  string
	Name     string
	Price    string
	Quantity int
	Sold     int
}

// ProductList is the catalog screen. Once started it refreshes itself whenever the
// product collection changes.
type ProductList struct {
	gateway  Gateway
	notifier Notifier

	mu   sync.Mutex
	rows []Row
	sel  models.Selection
	sort models.Sort
	stop func()
}

// NewProductList creates a list screen.
func NewProductList(gateway Gateway, notifier Notifier) *ProductList {
	return &ProductList{
		gateway:  gateway,
		notifier: notifier,
	}
}

// Start subscribes to collection changes and loads the rows.
func (l *ProductList) Start() error {
	l.mu.Lock()
	if l.stop == nil {
		l.stop = l.gateway.Observe(contract.ProductsAddress, true, func(string) {
			_ = l.Refresh()
		})
	}
	l.mu.Unlock()
	return l.Refresh()
}

// Stop unsubscribes from changes.
func (l *ProductList) Stop() {
	l.mu.Lock()
	stop := l.stop
	l.stop = nil
	l.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// SetFilter changes the selection and order of the list and reloads it.
func (l *ProductList) SetFilter(sel models.Selection, sort models.Sort) error {
	l.mu.Lock()
	l.sel, l.sort = sel, sort
	l.mu.Unlock()
	return l.Refresh()
}

// Refresh reloads the rows from the store. On failure the old rows stay.
func (l *ProductList) Refresh() error {
	l.mu.Lock()
	sel, sort := l.sel, l.sort
	l.mu.Unlock()

	products, err := l.gateway.List(sel, sort)
	if err != nil {
		l.notifier.Show(MsgListFailed)
		return err
	}

	rows := make([]Row, len(products))
	for i, p := range products {
		rows[i] = Row{
			ID:       p.ID,
			Address:  contract.ProductAddress(p.ID),
			Name:     p.Name,
			Price:    FormatPrice(p.Price),
			Quantity: p.Quantity,
			Sold:     p.Sold,
		}
	}

	l.mu.Lock()
	l.rows = rows
	l.mu.Unlock()
	return nil
}

// Rows returns a copy of the current rows.
func (l *ProductList) Rows() []Row {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Row(nil), l.rows...)
}

// Empty reports whether the list shows the empty view.
func (l *ProductList) Empty() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.rows) == 0
}

// Sale records one unit of the listed product as sold, using the counts the row shows.
func (l *ProductList) Sale(id int64) bool {
	row, ok := l.row(id)
	if !ok {
		l.notifier.Show(MsgLoadFailed)
		return false
	}
	if row.Quantity <= 0 {
		l.notifier.Show(MsgNoInventory)
		return false
	}

	rows, err := l.gateway.Update(row.Address, models.Values{
		contract.ColumnQuantity: row.Quantity - 1,
		contract.ColumnSold:     row.Sold + 1,
	}, models.Selection{})
	if err != nil || rows == 0 {
		l.notifier.Show(MsgUpdateFailed)
		return false
	}
	return true
}

func (l *ProductList) row(id int64) (Row, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.rows {
		if r.ID == id {
			return r, true
		}
	}
	return Row{}, false
}
