package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zsimmons25/see-more/internal/catalog/domain"
	"github.com/zsimmons25/see-more/internal/catalog/repository"
)

type CatalogMock struct {
	products []*domain.Product
	err      error
}

func (m CatalogMock) GetAllProducts(context.Context) ([]*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.products, nil
}

func (m CatalogMock) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, p := range m.products {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func TestListProducts_Success(t *testing.T) {
	mock := CatalogMock{products: []*domain.Product{
		{ID: 1, Name: "Aviator Classic", Brand: "Ray-Ban", Price: 161.00},
		{ID: 2, Name: "Holbrook XL", Brand: "Oakley", Price: 173.00},
	}}
	handler := NewProductHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/products", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	var response []domain.Product
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.Len(t, response, 2)
	assert.Equal(t, "Aviator Classic", response[0].Name)
}

func TestListProducts_EmptyIsJSONArray(t *testing.T) {
	handler := NewProductHandler(CatalogMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	handler.List(recorder, httptest.NewRequest("GET", "/products", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, "[]", recorder.Body.String())
}

func TestGetProduct_Success(t *testing.T) {
	mock := CatalogMock{products: []*domain.Product{
		{ID: 1, Name: "Aviator Classic", Brand: "Ray-Ban", Price: 161.00},
	}}
	handler := NewProductHandler(mock, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withURLParam(httptest.NewRequest("GET", "/products/1", nil), "id", "1")

	handler.Get(recorder, request)

	assert.Equal(t, http.StatusOK, recorder.Code)
	var response domain.Product
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, int64(1), response.ID)
}

func TestGetProduct_NotFound(t *testing.T) {
	handler := NewProductHandler(CatalogMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withURLParam(httptest.NewRequest("GET", "/products/99", nil), "id", "99")

	handler.Get(recorder, request)

	assert.Equal(t, http.StatusNotFound, recorder.Code)
	var response ErrorResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, "not_found", response.Code)
}

func TestGetProduct_BadID(t *testing.T) {
	handler := NewProductHandler(CatalogMock{}, 5*time.Second)

	recorder := httptest.NewRecorder()
	request := withURLParam(httptest.NewRequest("GET", "/products/abc", nil), "id", "abc")

	handler.Get(recorder, request)

	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}
