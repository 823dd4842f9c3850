package screens_test

import (
	"errors"
	"io"
	"log"
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"inventory/internal/contract"
	"inventory/internal/models"
	"inventory/internal/notify"
	"inventory/internal/repositories"
	"inventory/internal/screens"
	"inventory/internal/services"
)

func TestMain(m *testing.M) {
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

// MockGateway is a mock implementation of screens.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetAt(address string) (*models.Product, error) {
	args := m.Called(address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockGateway) List(sel models.Selection, sort models.Sort) ([]models.Product, error) {
	args := m.Called(sel, sort)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockGateway) Insert(address string, values models.Values) (int64, error) {
	args := m.Called(address, values)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGateway) Update(address string, values models.Values, sel models.Selection) (int64, error) {
	args := m.Called(address, values, sel)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGateway) Delete(address string, sel models.Selection) (int64, error) {
	args := m.Called(address, sel)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGateway) Observe(address string, descendants bool, observer notify.Observer) func() {
	args := m.Called(address, descendants, observer)
	return args.Get(0).(func())
}

// messages records everything shown to the user.
type messages struct {
	shown []string
}

func (m *messages) Show(message string) { m.shown = append(m.shown, message) }

func (m *messages) last() string {
	if len(m.shown) == 0 {
		return ""
	}
	return m.shown[len(m.shown)-1]
}

func newGateway(t *testing.T) *services.ProductService {
	t.Helper()
	return services.NewProductService(repositories.NewMemoryProductRepository(), nil)
}

func insertWidget(t *testing.T, gateway *services.ProductService, quantity int) int64 {
	t.Helper()
	id, err := gateway.Insert(contract.ProductsAddress, models.Values{
		contract.ColumnName:     "Widget",
		contract.ColumnPrice:    "2.50",
		contract.ColumnQuantity: quantity,
		contract.ColumnImage:    []byte("png"),
	})
	require.NoError(t, err)
	return id
}

var _ screens.Gateway = (*services.ProductService)(nil)
var _ screens.Orderer = (*services.RestockService)(nil)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "$2.50", screens.FormatPrice(decimal.RequireFromString("2.5")))
	assert.Equal(t, "$10.00", screens.FormatPrice(decimal.NewFromInt(10)))
}

func TestNotifierFunc(t *testing.T) {
	var got string
	screens.NotifierFunc(func(m string) { got = m }).Show("hello")
	assert.Equal(t, "hello", got)
}

func TestMockGatewayErrorsSurface(t *testing.T) {
	gateway := new(MockGateway)
	gateway.On("GetAt", contract.ProductAddress(1)).Return(nil, services.ErrNotFound).Once()
	var msgs messages

	editor := screens.NewEditor(gateway, &msgs, nil, contract.ProductAddress(1))
	err := editor.Load()
	assert.True(t, errors.Is(err, services.ErrNotFound))
	assert.Equal(t, screens.MsgLoadFailed, msgs.last())
	gateway.AssertExpectations(t)
}
