package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storefront/internal/models/request_models"
	"storefront/internal/services"
	"storefront/pkg/utils"
)

type ProductController struct {
	productService services.ProductServiceInterface
}

func NewProductController(productService services.ProductServiceInterface) *ProductController {
	return &ProductController{productService: productService}
}

// ListProducts godoc
// @Summary List active products
// @Tags Products
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Router /products [get]
func (p *ProductController) ListProducts(c *gin.Context) {
	products, err := p.productService.List(c.Request.Context(), false)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, products, "Products fetched successfully")
}

// AdminListProducts godoc
// @Summary List all products, inactive included
// @Tags Admin
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/products [get]
func (p *ProductController) AdminListProducts(c *gin.Context) {
	products, err := p.productService.List(c.Request.Context(), true)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, products, "Products fetched successfully")
}

// GetProduct godoc
// @Summary Get a product
// @Tags Products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} utils.APIResponse
// @Failure 404 {object} utils.APIResponse
// @Router /products/{id} [get]
func (p *ProductController) GetProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	product, err := p.productService.Get(c.Request.Context(), id)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, product, "Product fetched successfully")
}

// CreateProduct godoc
// @Summary Create a product
// @Tags Admin
// @Accept json
// @Produce json
// @Param request body request_models.UpsertProductRequest true "Product"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/products [post]
func (p *ProductController) CreateProduct(c *gin.Context) {
	var req request_models.UpsertProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	product, err := p.productService.Create(c.Request.Context(), req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, product, "Product created successfully")
}

// UpdateProduct godoc
// @Summary Update a product
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Product ID"
// @Param request body request_models.UpsertProductRequest true "Product"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/products/{id} [put]
func (p *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	var req request_models.UpsertProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request payload")
		return
	}
	product, err := p.productService.Update(c.Request.Context(), id, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, product, "Product updated successfully")
}

// DeleteProduct godoc
// @Summary Delete a product
// @Tags Admin
// @Param id path string true "Product ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /admin/products/{id} [delete]
func (p *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	if err := p.productService.Delete(c.Request.Context(), id); err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, nil, "Product deleted successfully")
}

// MyAccess godoc
// @Summary Products I can download
// @Tags Access
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /access [get]
func (p *ProductController) MyAccess(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	access, err := p.productService.MyAccess(c.Request.Context(), userID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, access, "Access fetched successfully")
}

// CheckAccess godoc
// @Summary Check access to a product
// @Tags Access
// @Produce json
// @Param productId path string true "Product ID"
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /access/{productId} [get]
func (p *ProductController) CheckAccess(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "productId")
	if !ok {
		return
	}
	has, err := p.productService.HasAccess(c.Request.Context(), userID, productID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, gin.H{"product_id": productID, "has_access": has}, "Access checked")
}

// Download godoc
// @Summary Download link for a purchased product
// @Tags Access
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} utils.APIResponse
// @Failure 403 {object} utils.APIResponse
// @Security BearerAuth
// @Router /products/{id}/download [get]
func (p *ProductController) Download(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	productID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	dl, err := p.productService.Download(c.Request.Context(), userID, productID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}
	utils.RespondSuccess(c, dl, "Download ready")
}
