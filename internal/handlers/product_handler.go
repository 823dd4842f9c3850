package handlers

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cast"

	"inventory/internal/contract"
	"inventory/internal/models"
	"inventory/internal/services"
)

// ProductHandler exposes the product gateway over HTTP.
type ProductHandler struct {
	service *services.ProductService
	restock *services.RestockService
}

// NewProductHandler creates a new ProductHandler. restock may be nil, in which case the
// restock route answers 503.
func NewProductHandler(service *services.ProductService, restock *services.RestockService) *ProductHandler {
	return &ProductHandler{
		service: service,
		restock: restock,
	}
}

// RegisterRoutes registers the product routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Post("/", h.HandleCreateProduct)
	productRoutes.Delete("/", h.HandleDeleteProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Get("/:id/image", h.HandleGetProductImage)
	productRoutes.Patch("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
	productRoutes.Post("/:id/restock", h.HandleRequestRestock)

	router.Get("/types", h.HandleGetType)
}

// HandleListProducts lists products. Query parameters: name, max_quantity, sort, order.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	sel, err := selectionFromQuery(c)
	if err != nil {
		return badRequest(c, "Invalid filter", err)
	}
	order := models.Sort{
		Column:     c.Query("sort"),
		Descending: strings.EqualFold(c.Query("order"), "desc"),
	}

	products, err := h.service.List(sel, order)
	if err != nil {
		return respondError(c, err, "Could not retrieve products")
	}
	return c.JSON(products)
}

// HandleGetProduct returns a single product.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.service.GetAt(productAddress(c))
	if err != nil {
		return respondError(c, err, fmt.Sprintf("Product %s not available", c.Params("id")))
	}
	return c.JSON(product)
}

// HandleGetProductImage returns the raw product picture.
func (h *ProductHandler) HandleGetProductImage(c *fiber.Ctx) error {
	product, err := h.service.GetAt(productAddress(c))
	if err != nil {
		return respondError(c, err, fmt.Sprintf("Product %s not available", c.Params("id")))
	}
	if len(product.Image) == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product %d has no image", product.ID),
		})
	}
	c.Set(fiber.HeaderContentType, http.DetectContentType(product.Image))
	return c.Send(product.Image)
}

// HandleCreateProduct inserts a product from a JSON object of column values.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	values, err := valuesFromBody(c.Body())
	if err != nil {
		return respondError(c, err, "Invalid request body")
	}

	id, err := h.service.Insert(contract.ProductsAddress, values)
	if err != nil {
		return respondError(c, err, "Could not create product")
	}

	audit(c, "added product %d", id)

	product, err := h.service.Get(id)
	if err != nil {
		return respondError(c, err, "Could not retrieve created product")
	}
	c.Location(fmt.Sprintf("%s/%d", strings.TrimSuffix(c.OriginalURL(), "/"), id))
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct writes the fields present in the body.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	values, err := valuesFromBody(c.Body())
	if err != nil {
		return respondError(c, err, "Invalid request body")
	}

	address := productAddress(c)
	rows, err := h.service.Update(address, values, models.Selection{})
	if err != nil {
		return respondError(c, err, "Could not update product")
	}
	if rows == 0 && len(values) > 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product %s not found", c.Params("id")),
		})
	}

	if rows > 0 {
		audit(c, "updated %s on product %s", strings.Join(sortedKeys(values), ", "), c.Params("id"))
	}

	product, err := h.service.GetAt(address)
	if err != nil {
		return respondError(c, err, "Could not retrieve updated product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct removes one product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	rows, err := h.service.Delete(productAddress(c), models.Selection{})
	if err != nil {
		return respondError(c, err, "Could not delete product")
	}
	if rows == 0 {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": fmt.Sprintf("Product %s not found", c.Params("id")),
		})
	}
	audit(c, "deleted product %s", c.Params("id"))
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("Product %s deleted successfully", c.Params("id")),
		"deleted": rows,
	})
}

// HandleDeleteProducts removes every product matching the query filter.
func (h *ProductHandler) HandleDeleteProducts(c *fiber.Ctx) error {
	sel, err := selectionFromQuery(c)
	if err != nil {
		return badRequest(c, "Invalid filter", err)
	}

	rows, err := h.service.Delete(contract.ProductsAddress, sel)
	if err != nil {
		return respondError(c, err, "Could not delete products")
	}
	audit(c, "bulk deleted %d products", rows)
	return c.JSON(fiber.Map{
		"message": fmt.Sprintf("%d products deleted", rows),
		"deleted": rows,
	})
}

// HandleGetType returns the resource type of the address query parameter.
func (h *ProductHandler) HandleGetType(c *fiber.Ctx) error {
	address := c.Query("address")
	typ, err := h.service.Type(address)
	if err != nil {
		return respondError(c, err, "Unknown address")
	}
	return c.JSON(fiber.Map{
		"address": address,
		"type":    typ,
	})
}

// HandleRequestRestock drafts a restock order for the product.
func (h *ProductHandler) HandleRequestRestock(c *fiber.Ctx) error {
	if h.restock == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"message": "Restocking is not available",
		})
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body", err)
	}

	id, err := contract.ParseID(productAddress(c))
	if err != nil {
		return respondError(c, err, "Invalid product")
	}
	order, err := h.restock.RequestRestock(id, req.Quantity)
	if err != nil {
		return respondError(c, err, "Could not request restock")
	}
	audit(c, "requested %d more of product %d (order %s)", order.Quantity, id, order.ID)
	return c.Status(fiber.StatusCreated).JSON(order)
}

func productAddress(c *fiber.Ctx) string {
	return contract.ProductsAddress + "/" + c.Params("id")
}

func selectionFromQuery(c *fiber.Ctx) (models.Selection, error) {
	sel := models.Selection{NameContains: c.Query("name")}
	if raw := c.Query("max_quantity"); raw != "" {
		n, err := cast.ToIntE(raw)
		if err != nil {
			return models.Selection{}, fmt.Errorf("max_quantity: %w", err)
		}
		sel.MaxQuantity = &n
	}
	return sel, nil
}

// valuesFromBody decodes a JSON object into a write payload. Numbers are kept exact and
// the image travels base64 encoded.
func valuesFromBody(body []byte) (models.Values, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	values := models.Values{}
	if err := dec.Decode(&values); err != nil {
		return nil, &services.ValidationError{Field: "body", Reason: "must be a JSON object"}
	}

	if raw, ok := values[contract.ColumnImage]; ok && raw != nil {
		encoded, ok := raw.(string)
		if !ok {
			return nil, &services.ValidationError{Field: contract.ColumnImage, Reason: "must be base64 text"}
		}
		image, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return nil, &services.ValidationError{Field: contract.ColumnImage, Reason: "must be base64 text"}
		}
		values[contract.ColumnImage] = image
	}
	return values, nil
}

func sortedKeys(values models.Values) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
