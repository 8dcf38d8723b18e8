package httpserver

import (
	"context"
	"log"
	"net/http"

	"ecommerce-backend/internal/domain"
	usersvc "ecommerce-backend/internal/service/user"
	"github.com/gin-gonic/gin"
)

type UserService interface {
	Register(ctx context.Context, in usersvc.RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	List(ctx context.Context, page domain.PageRequest) (*usersvc.ListResult, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, id string, in usersvc.UpdateInput) (*domain.User, error)
	Delete(ctx context.Context, id string) (*domain.User, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func registerHandler(logger *log.Logger, svc UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in usersvc.RegisterInput
		if !bindJSON(c, logger, &in) {
			return
		}
		u, err := svc.Register(c.Request.Context(), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusCreated, "Register successful", u)
	}
}

func loginHandler(logger *log.Logger, svc UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if !bindJSON(c, logger, &req) {
			return
		}
		u, err := svc.Login(c.Request.Context(), req.Email, req.Password)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "Login successful", u)
	}
}

func listUsersHandler(logger *log.Logger, svc UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := pageFromQuery(c)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		res, err := svc.List(c.Request.Context(), page)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "All users fetched successfully", res)
	}
}

func createUserHandler(logger *log.Logger, svc UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in usersvc.RegisterInput
		if !bindJSON(c, logger, &in) {
			return
		}
		u, err := svc.Register(c.Request.Context(), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusCreated, "User created successfully", u)
	}
}

func getUserHandler(logger *log.Logger, svc UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "User details fetched successfully", u)
	}
}

func updateUserHandler(logger *log.Logger, svc UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in usersvc.UpdateInput
		if !bindJSON(c, logger, &in) {
			return
		}
		u, err := svc.Update(c.Request.Context(), c.Param("id"), in)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "User updated successfully", u)
	}
}

func deleteUserHandler(logger *log.Logger, svc UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := svc.Delete(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		respond(c, http.StatusOK, "User deleted successfully", u)
	}
}
