package httpserver

import (
	"context"
	"log"
	"net/http"

	"ecommerce-backend/internal/domain"
	categorysvc "ecommerce-backend/internal/service/category"
	"github.com/gin-gonic/gin"
)

type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Get(ctx context.Context, id string) (*domain.Category, error)
	Create(ctx context.Context, in categorysvc.Input) (*domain.Category, error)
	Update(ctx context.Context, id string, in categorysvc.Input) (*domain.Category, error)
	Delete(ctx context.Context, id string) (*domain.Category, error)
}

func listCategoriesHandler(logger *log.Logger, svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cats, err := svc.List(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Categories fetched successfully", cats)
	}
}

func getCategoryHandler(logger *log.Logger, svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Category fetched successfully", cat)
	}
}

func createCategoryHandler(logger *log.Logger, svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in categorysvc.Input
		if !bindJSON(c, logger, &in) {
			return
		}
		cat, err := svc.Create(c.Request.Context(), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusCreated, "Category created successfully", cat)
	}
}

func updateCategoryHandler(logger *log.Logger, svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in categorysvc.Input
		if !bindJSON(c, logger, &in) {
			return
		}
		cat, err := svc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Category updated successfully", cat)
	}
}

func deleteCategoryHandler(logger *log.Logger, svc CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		cat, err := svc.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Category deleted successfully", cat)
	}
}
