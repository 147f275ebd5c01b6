package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mrops-br/products-crud-api/internal/app/dto"
	"github.com/mrops-br/products-crud-api/internal/app/service"
	"github.com/mrops-br/products-crud-api/internal/domain"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/http/response"
)

// ProductHandler handles HTTP requests for products
type ProductHandler struct {
	service *service.ProductService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(service *service.ProductService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		service: service,
		logger:  logger,
	}
}

// isClientError reports whether the error maps to a 400 at the boundary.
// Validation failures and name conflicts stay distinguishable in the
// payload but collapse to the same status code.
func isClientError(err error) bool {
	var verr *domain.ValidationError
	var conflict *domain.ConflictError
	return errors.As(err, &verr) || errors.As(err, &conflict)
}

// CreateProduct handles POST /api/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.service.Create(r.Context(), &req)
	if err != nil {
		if isClientError(err) {
			response.Error(w, http.StatusBadRequest, err)
		} else {
			response.Error(w, http.StatusInternalServerError, err)
		}
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/products/%s", product.ID))
	response.JSON(w, http.StatusCreated, product)
}

// GetProduct handles GET /api/products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	if product == nil {
		response.Error(w, http.StatusNotFound, errors.New("product not found"))
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// ListProducts handles GET /api/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	query := pageQueryFromRequest(r)

	page, err := h.service.GetPaged(r.Context(), query)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}

	response.JSON(w, http.StatusOK, page)
}

// UpdateProduct handles PUT /api/products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to decode request body",
			slog.String("error", err.Error()),
		)
		response.Error(w, http.StatusBadRequest, err)
		return
	}

	product, err := h.service.Update(r.Context(), id, &req)
	if err != nil {
		if isClientError(err) {
			response.Error(w, http.StatusBadRequest, err)
		} else {
			response.Error(w, http.StatusInternalServerError, err)
		}
		return
	}
	if product == nil {
		response.Error(w, http.StatusNotFound, errors.New("product not found"))
		return
	}

	response.JSON(w, http.StatusOK, product)
}

// DeleteProduct handles DELETE /api/products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ok, err := h.service.Delete(r.Context(), id)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, err)
		return
	}
	if !ok {
		response.Error(w, http.StatusNotFound, errors.New("product not found"))
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// pageQueryFromRequest reads page, pageSize, search, sortBy and desc query
// parameters. Missing or unparseable numbers fall through as zero;
// PageQuery.Normalized owns all the clamping.
func pageQueryFromRequest(r *http.Request) domain.PageQuery {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	desc, _ := strconv.ParseBool(q.Get("desc"))
	return domain.PageQuery{
		Page:     page,
		PageSize: pageSize,
		Search:   q.Get("search"),
		SortBy:   q.Get("sortBy"),
		Desc:     desc,
	}
}
