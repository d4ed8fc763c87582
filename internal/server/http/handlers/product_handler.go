package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// ProductHandler manages catalog endpoints.
type ProductHandler struct {
	facade ProductFacade
	resp   Responder
}

// NewProductHandler constructs ProductHandler.
func NewProductHandler(facade ProductFacade, resp Responder) *ProductHandler {
	return &ProductHandler{facade: facade, resp: resp}
}

// List handles GET /api/products.
func (h *ProductHandler) List(c *gin.Context) {
	products, err := h.facade.Products(c.Request.Context())
	if err != nil {
		h.resp.Fail(c, "ListProducts", err)
		return
	}

	response := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		response = append(response, toProductResponse(&products[i]))
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/products/:id.
func (h *ProductHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.resp.Fail(c, "GetProduct", err)
		return
	}
	product, err := h.facade.Product(c.Request.Context(), id)
	if err != nil {
		h.resp.Fail(c, "GetProduct", err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// Create handles POST /api/products.
func (h *ProductHandler) Create(c *gin.Context) {
	var req dto.ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.Fail(c, "CreateProduct", malformedBody(err))
		return
	}

	product, err := h.facade.CreateProduct(c.Request.Context(), model.Product{
		Name:          req.Name,
		Price:         req.Price,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		h.resp.Fail(c, "CreateProduct", err)
		return
	}
	c.JSON(http.StatusCreated, toProductResponse(product))
}

// Update handles PUT /api/products/:id. Only fields present in the body change.
func (h *ProductHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.resp.Fail(c, "UpdateProduct", err)
		return
	}
	var req dto.ProductPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.resp.Fail(c, "UpdateProduct", malformedBody(err))
		return
	}

	product, err := h.facade.UpdateProduct(c.Request.Context(), id, model.ProductPatch{
		Name:          req.Name,
		Price:         req.Price,
		Description:   req.Description,
		ImageURL:      req.ImageURL,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		h.resp.Fail(c, "UpdateProduct", err)
		return
	}
	c.JSON(http.StatusOK, toProductResponse(product))
}

// Delete handles DELETE /api/products/:id.
func (h *ProductHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		h.resp.Fail(c, "DeleteProduct", err)
		return
	}
	if err := h.facade.DeleteProduct(c.Request.Context(), id); err != nil {
		h.resp.Fail(c, "DeleteProduct", err)
		return
	}
	c.JSON(http.StatusOK, dto.MessageResponse{Message: "product deleted"})
}

func toProductResponse(p *model.Product) dto.ProductResponse {
	return dto.ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Price:         p.Price.StringFixed(2),
		Description:   p.Description,
		ImageURL:      p.ImageURL,
		StockQuantity: p.StockQuantity,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}
