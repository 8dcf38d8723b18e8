package httpserver

import (
	"context"
	"log"
	"net/http"

	"ecommerce-backend/internal/domain"
	productsvc "ecommerce-backend/internal/service/product"
	"github.com/gin-gonic/gin"
)

type ProductService interface {
	List(ctx context.Context, in productsvc.ListInput) (*productsvc.ListResult, error)
	Search(ctx context.Context, q string, page domain.PageRequest) (*productsvc.ListResult, error)
	ByCategory(ctx context.Context, categoryID string, page domain.PageRequest) (*productsvc.ListResult, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
	Create(ctx context.Context, in productsvc.Input) (*domain.Product, error)
	Update(ctx context.Context, id string, in productsvc.Input) (*domain.Product, error)
	Delete(ctx context.Context, id string) (*productsvc.Deleted, error)
	AdjustStock(ctx context.Context, id string, delta int) (*domain.Product, error)
}

type adjustStockRequest struct {
	Delta int `json:"delta"`
}

func listProductsHandler(logger *log.Logger, svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := pageFromQuery(c)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		minPrice, err := queryCents(c, "minPrice")
		if err != nil {
			respondError(c, logger, err)
			return
		}
		maxPrice, err := queryCents(c, "maxPrice")
		if err != nil {
			respondError(c, logger, err)
			return
		}
		res, err := svc.List(c.Request.Context(), productsvc.ListInput{
			Page:          page,
			Status:        c.Query("status"),
			CategoryID:    c.Query("category"),
			MinPriceCents: minPrice,
			MaxPriceCents: maxPrice,
			SortBy:        c.Query("sortBy"),
			SortOrder:     c.Query("sortOrder"),
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Products fetched successfully", res)
	}
}

func searchProductsHandler(logger *log.Logger, svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := pageFromQuery(c)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		res, err := svc.Search(c.Request.Context(), c.Query("q"), page)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Search completed successfully", res)
	}
}

func productsByCategoryHandler(logger *log.Logger, svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := pageFromQuery(c)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		res, err := svc.ByCategory(c.Request.Context(), c.Param("categoryId"), page)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Products by category fetched successfully", res)
	}
}

func getProductHandler(logger *log.Logger, svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Product fetched successfully", p)
	}
}

func createProductHandler(logger *log.Logger, svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in productsvc.Input
		if !bindJSON(c, logger, &in) {
			return
		}
		p, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusCreated, "Product created successfully", p)
	}
}

func updateProductHandler(logger *log.Logger, svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in productsvc.Input
		if !bindJSON(c, logger, &in) {
			return
		}
		p, err := svc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Product updated successfully", p)
	}
}

func adjustStockHandler(logger *log.Logger, svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req adjustStockRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		p, err := svc.AdjustStock(c.Request.Context(), c.Param("id"), req.Delta)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Product stock updated successfully", p)
	}
}

func deleteProductHandler(logger *log.Logger, svc ProductService) gin.HandlerFunc {
	return func(c *gin.Context) {
		d, err := svc.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Product deleted successfully", d)
	}
}
