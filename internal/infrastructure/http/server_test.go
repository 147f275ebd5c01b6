package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mrops-br/products-crud-api/internal/app/dto"
	"github.com/mrops-br/products-crud-api/internal/app/service"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/config"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/http/handler"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/http/response"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/repository/memory"
	"github.com/mrops-br/products-crud-api/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Server: config.ServerConfig{Host: "127.0.0.1", Port: "0"},
		OTLP: config.OTLPConfig{
			ServiceName: "products-crud-api-test",
			Environment: "test",
		},
	}
	telem := telemetry.NewNoOpTelemetry(&cfg.OTLP)
	tracer := telem.TracerProvider.Tracer("test")
	meter := telem.MeterProvider.Meter("test")

	store := memory.NewStore(tracer, telem.Logger)
	svc := service.NewProductService(store, store, tracer, meter, telem.Logger)
	h := handler.NewProductHandler(svc, telem.Logger)
	return NewServer(&cfg.Server, h, telem.Logger, telem)
}

func doJSON(t *testing.T, srv *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	return rr
}

func createProduct(t *testing.T, srv *Server, name string, price float64) dto.ProductResponse {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/products", map[string]any{
		"name": name, "price": price,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create %q: expected 201, got %d: %s", name, rr.Code, rr.Body.String())
	}
	var resp dto.ProductResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return resp
}

func TestCreateProductReturns201WithLocation(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/products", map[string]any{
		"name": "  Widget ", "price": 9.99,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp dto.ProductResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Name != "Widget" {
		t.Fatalf("expected trimmed name, got %q", resp.Name)
	}
	if !resp.Price.Equal(decimal.NewFromFloat(9.99)) {
		t.Fatalf("unexpected price: %s", resp.Price)
	}
	if !resp.Active {
		t.Fatalf("expected active product")
	}
	if loc := rr.Header().Get("Location"); loc != "/api/products/"+resp.ID {
		t.Fatalf("unexpected Location: %q", loc)
	}
}

func TestCreateProductValidationListsAllViolations(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPost, "/api/products", map[string]any{
		"name": "   ", "price": -1,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp response.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error != "validation_failed" {
		t.Fatalf("unexpected error type: %q", resp.Error)
	}
	if len(resp.Violations) != 2 {
		t.Fatalf("expected both violations, got %+v", resp.Violations)
	}
}

func TestCreateProductDuplicateNameReturns400(t *testing.T) {
	srv := newTestServer(t)
	createProduct(t, srv, "Taken", 1)

	rr := doJSON(t, srv, http.MethodPost, "/api/products", map[string]any{
		"name": "Taken", "price": 2,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp response.ErrorResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Error != "conflict" {
		t.Fatalf("expected conflict, got %q", resp.Error)
	}
	if !strings.Contains(resp.Message, "'Taken' already exists") {
		t.Fatalf("message must name the duplicate: %q", resp.Message)
	}
}

func TestGetProductByID(t *testing.T) {
	srv := newTestServer(t)
	created := createProduct(t, srv, "Findable", 3)

	rr := doJSON(t, srv, http.MethodGet, "/api/products/"+created.ID, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp dto.ProductResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.ID != created.ID || resp.Name != "Findable" {
		t.Fatalf("unexpected body: %+v", resp)
	}
}

func TestGetMissingProductReturns404(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/products/no-such-id", nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestUpdateProduct(t *testing.T) {
	srv := newTestServer(t)
	created := createProduct(t, srv, "Before", 5)

	rr := doJSON(t, srv, http.MethodPut, "/api/products/"+created.ID, map[string]any{
		"name": "After", "price": 7,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp dto.ProductResponse
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Name != "After" || !resp.Price.Equal(decimal.NewFromInt(7)) {
		t.Fatalf("unexpected body: %+v", resp)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/products/"+created.ID, nil)
	_ = json.NewDecoder(rr.Body).Decode(&resp)
	if resp.Name != "After" {
		t.Fatalf("update must persist, got %q", resp.Name)
	}
}

func TestUpdateMissingProductReturns404(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodPut, "/api/products/no-such-id", map[string]any{
		"name": "X", "price": 1,
	})
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestUpdateToDuplicateNameReturns400(t *testing.T) {
	srv := newTestServer(t)
	createProduct(t, srv, "First", 1)
	second := createProduct(t, srv, "Second", 2)

	rr := doJSON(t, srv, http.MethodPut, "/api/products/"+second.ID, map[string]any{
		"name": "First", "price": 2,
	})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestDeleteProduct(t *testing.T) {
	srv := newTestServer(t)
	created := createProduct(t, srv, "Doomed", 1)

	rr := doJSON(t, srv, http.MethodDelete, "/api/products/"+created.ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/products/"+created.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/products/"+created.ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 on second delete, got %d", rr.Code)
	}
}

func TestListProductsPagedAndFiltered(t *testing.T) {
	srv := newTestServer(t)
	createProduct(t, srv, "apple", 3)
	createProduct(t, srv, "banana", 1)
	createProduct(t, srv, "apricot", 2)

	rr := doJSON(t, srv, http.MethodGet, "/api/products?search=ap&sortBy=price&desc=true", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var page dto.PagedResponse
	if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.TotalItems != 2 || len(page.Items) != 2 {
		t.Fatalf("expected 2 matches, got %d/%d", page.TotalItems, len(page.Items))
	}
	if page.Items[0].Name != "apple" {
		t.Fatalf("expected price-descending order, got %q first", page.Items[0].Name)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/products?page=2&pageSize=2", nil)
	_ = json.NewDecoder(rr.Body).Decode(&page)
	if page.Page != 2 || page.PageSize != 2 {
		t.Fatalf("expected echoed paging, got %d/%d", page.Page, page.PageSize)
	}
	if page.TotalItems != 3 || page.TotalPages != 2 || len(page.Items) != 1 {
		t.Fatalf("unexpected window: total=%d pages=%d items=%d", page.TotalItems, page.TotalPages, len(page.Items))
	}
}

// Without paging parameters the handler passes zero values through; the
// repository clamps them to the first window of ten, and the response
// echoes the raw values.
func TestListProductsWithoutPagingParams(t *testing.T) {
	srv := newTestServer(t)
	createProduct(t, srv, "one", 1)
	createProduct(t, srv, "two", 2)
	createProduct(t, srv, "three", 3)

	rr := doJSON(t, srv, http.MethodGet, "/api/products", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var page dto.PagedResponse
	if err := json.NewDecoder(rr.Body).Decode(&page); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if page.TotalItems != 3 || len(page.Items) != 3 {
		t.Fatalf("expected all 3 products, got %d/%d", page.TotalItems, len(page.Items))
	}
	if page.Page != 0 || page.PageSize != 0 {
		t.Fatalf("expected raw zero echo, got %d/%d", page.Page, page.PageSize)
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rr := doJSON(t, srv, http.MethodGet, "/api/health", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("expected status ok, got %v", body["status"])
	}
	if _, ok := body["utc"]; !ok {
		t.Fatalf("expected utc timestamp")
	}
}

func TestInvalidJSONBodyReturns400(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/products", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
