package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"inventory-api/internal/model"
)

// InventoryClient calls the inventory HTTP API.
type InventoryClient struct {
	http *HTTPClient
}

func NewInventoryClient(baseURL string, timeout time.Duration) *InventoryClient {
	return &InventoryClient{http: NewHTTPClient(baseURL, timeout)}
}

// ProductInput is the JSON body for create and update. Nil fields are omitted.
type ProductInput struct {
	Name       *string           `json:"name,omitempty"`
	Price      *float64          `json:"price,omitempty"`
	Available  *bool             `json:"available,omitempty"`
	Categories *[]model.Category `json:"categories,omitempty"`
}

func (c *InventoryClient) List(ctx context.Context) (*Response[[]model.Product], error) {
	return DoJSON[[]model.Product](ctx, c.http, RequestOptions{Method: http.MethodGet, Path: "/products"})
}

func (c *InventoryClient) Featured(ctx context.Context) (*Response[[]model.Product], error) {
	return DoJSON[[]model.Product](ctx, c.http, RequestOptions{Method: http.MethodGet, Path: "/products/featured"})
}

func (c *InventoryClient) ByCategory(ctx context.Context, name string) (*Response[[]model.Product], error) {
	return DoJSON[[]model.Product](ctx, c.http, RequestOptions{
		Method: http.MethodGet,
		Path:   "/products/category/" + url.PathEscape(name),
	})
}

func (c *InventoryClient) Get(ctx context.Context, id int) (*Response[model.Product], error) {
	return DoJSON[model.Product](ctx, c.http, RequestOptions{Method: http.MethodGet, Path: productPath(id)})
}

func (c *InventoryClient) Create(ctx context.Context, in ProductInput) (*Response[model.Product], error) {
	return DoJSON[model.Product](ctx, c.http, RequestOptions{Method: http.MethodPost, Path: "/products", Body: in})
}

func (c *InventoryClient) Update(ctx context.Context, id int, in ProductInput) (*Response[model.Product], error) {
	return DoJSON[model.Product](ctx, c.http, RequestOptions{Method: http.MethodPut, Path: productPath(id), Body: in})
}

func (c *InventoryClient) Delete(ctx context.Context, id int) (*Response[model.Product], error) {
	return DoJSON[model.Product](ctx, c.http, RequestOptions{Method: http.MethodDelete, Path: productPath(id)})
}

func productPath(id int) string {
	return fmt.Sprintf("/products/%d", id)
}
