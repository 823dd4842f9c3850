package screens

import (
	"errors"
	"strconv"
	"strings"

	"inventory/internal/contract"
	"inventory/internal/models"
)

// DirtyState records whether the user touched the form since it was loaded or saved.
type DirtyState int

const (
	Clean DirtyState = iota
	Dirty
)

func (s DirtyState) String() string {
	if s == Dirty {
		return "dirty"
	}
	return "clean"
}

// Orderer drafts restock orders for a product.
type Orderer interface {
	RequestRestock(productID int64, quantity int) (*models.RestockOrder, error)
}

// Form is the editor's field state as the user sees it.
type Form struct {
	Name     string
	Price    string
	Quantity string
	Sold     string
	Image    []byte
}

// Editor is the add/edit product screen.
type Editor struct {
	gateway  Gateway
	notifier Notifier
	orderer  Orderer

	address string
	form    Form
	state   DirtyState
}

// NewEditor creates an editor for the product at address, or for a new product when
// address is empty. orderer may be nil.
func NewEditor(gateway Gateway, notifier Notifier, orderer Orderer, address string) *Editor {
	return &Editor{
		gateway:  gateway,
		notifier: notifier,
		orderer:  orderer,
		address:  address,
		form:     Form{Quantity: "0", Sold: "0"},
	}
}

// IsNew reports whether the editor is creating a product.
func (e *Editor) IsNew() bool { return e.address == "" }

// Address is the edited product's address; empty until a new product is saved.
func (e *Editor) Address() string { return e.address }

// Title is the screen title.
func (e *Editor) Title() string {
	if e.IsNew() {
		return "Add a Product"
	}
	return "Edit Product"
}

// Form returns the current field values.
func (e *Editor) Form() Form { return e.form }

// State returns the dirty state.
func (e *Editor) State() DirtyState { return e.state }

// Load fills the form from the store. It does nothing for a new product.
func (e *Editor) Load() error {
	if e.IsNew() {
		return nil
	}
	product, err := e.gateway.GetAt(e.address)
	if err != nil {
		e.notifier.Show(MsgLoadFailed)
		return err
	}

	e.form = Form{
		Name:     product.Name,
		Price:    FormatPrice(product.Price),
		Quantity: strconv.Itoa(product.Quantity),
		Sold:     strconv.Itoa(product.Sold),
		Image:    product.Image,
	}
	e.state = Clean
	return nil
}

// SetName updates the name field.
func (e *Editor) SetName(name string) { e.form.Name = name; e.touch() }

// SetPrice updates the price field.
func (e *Editor) SetPrice(price string) { e.form.Price = price; e.touch() }

// SetQuantity updates the quantity field.
func (e *Editor) SetQuantity(quantity string) { e.form.Quantity = quantity; e.touch() }

// SetSold updates the sold field.
func (e *Editor) SetSold(sold string) { e.form.Sold = sold; e.touch() }

// SetImage replaces the picked image.
func (e *Editor) SetImage(image []byte) { e.form.Image = image; e.touch() }

func (e *Editor) touch() { e.state = Dirty }

// Sell moves one unit from quantity to sold. At zero quantity the user is told there is
// no inventory and nothing changes.
func (e *Editor) Sell() bool {
	quantity, sold, ok := e.counts()
	if !ok {
		return false
	}
	if quantity <= 0 {
		e.notifier.Show(MsgNoInventory)
		return false
	}
	e.form.Quantity = strconv.Itoa(quantity - 1)
	e.form.Sold = strconv.Itoa(sold + 1)
	e.touch()
	return true
}

// Receive adds one unit to quantity.
func (e *Editor) Receive() bool {
	quantity, _, ok := e.counts()
	if !ok {
		return false
	}
	e.form.Quantity = strconv.Itoa(quantity + 1)
	e.touch()
	return true
}

// Remove takes one unit off quantity without counting it as sold.
func (e *Editor) Remove() bool {
	quantity, _, ok := e.counts()
	if !ok {
		return false
	}
	if quantity <= 0 {
		e.notifier.Show(MsgNoInventory)
		return false
	}
	e.form.Quantity = strconv.Itoa(quantity - 1)
	e.touch()
	return true
}

func (e *Editor) counts() (quantity, sold int, ok bool) {
	quantity, err := parseCount(e.form.Quantity)
	if err != nil {
		e.notifier.Show(MsgBadQuantity)
		return 0, 0, false
	}
	sold, err = parseCount(e.form.Sold)
	if err != nil {
		e.notifier.Show(MsgBadQuantity)
		return 0, 0, false
	}
	return quantity, sold, true
}

// Save writes the form to the store, inserting or updating as appropriate. On failure
// the form and dirty state are left as they were.
func (e *Editor) Save() bool {
	if len(e.form.Image) == 0 {
		e.notifier.Show(MsgImageNotSelected)
		return false
	}

	name := strings.TrimSpace(e.form.Name)
	price := strings.TrimSpace(e.form.Price)
	if (e.IsNew() && name == "") || price == "" {
		e.notifier.Show(MsgNoInformation)
		return false
	}

	values := models.Values{
		contract.ColumnName:     name,
		contract.ColumnPrice:    strings.ReplaceAll(price, "$", ""),
		contract.ColumnQuantity: blankAsZero(e.form.Quantity),
		contract.ColumnSold:     blankAsZero(e.form.Sold),
		contract.ColumnImage:    e.form.Image,
	}

	if e.IsNew() {
		id, err := e.gateway.Insert(contract.ProductsAddress, values)
		if err != nil {
			e.notifier.Show(MsgInsertFailed)
			return false
		}
		e.address = contract.ProductAddress(id)
		e.notifier.Show(MsgInsertOK)
		e.state = Clean
		return true
	}

	rows, err := e.gateway.Update(e.address, values, models.Selection{})
	if err != nil || rows == 0 {
		e.notifier.Show(MsgUpdateFailed)
		return false
	}
	e.notifier.Show(MsgUpdateOK)
	e.state = Clean
	return true
}

// Delete removes the edited product once confirm agrees. A nil confirm counts as yes.
func (e *Editor) Delete(confirm func() bool) bool {
	if e.IsNew() {
		e.notifier.Show(MsgNothingToDelete)
		return false
	}
	if confirm != nil && !confirm() {
		return false
	}

	rows, err := e.gateway.Delete(e.address, models.Selection{})
	if err != nil || rows == 0 {
		e.notifier.Show(MsgDeleteFailed)
		return false
	}
	e.notifier.Show(MsgDeleteOK)
	e.state = Clean
	return true
}

// OrderMore drafts a restock order for the edited product.
func (e *Editor) OrderMore(quantity int) (*models.RestockOrder, error) {
	if e.IsNew() || e.orderer == nil {
		e.notifier.Show(MsgOrderFailed)
		return nil, errors.New("no saved product to order")
	}
	id, err := contract.ParseID(e.address)
	if err != nil {
		e.notifier.Show(MsgOrderFailed)
		return nil, err
	}

	order, err := e.orderer.RequestRestock(id, quantity)
	if err != nil {
		e.notifier.Show(MsgOrderFailed)
		return nil, err
	}
	e.notifier.Show(MsgOrderPlaced)
	return order, nil
}

// RequestLeave decides whether the user may navigate away. With unsaved changes the
// user is asked through confirmDiscard; a nil confirmDiscard keeps them on the screen.
func (e *Editor) RequestLeave(confirmDiscard func() bool) bool {
	if e.state == Clean {
		return true
	}
	return confirmDiscard != nil && confirmDiscard()
}

func blankAsZero(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "0"
	}
	return s
}
