package books

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *BooksAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewBooksAdapter(srv.Client(), Config{
		BaseURL:           srv.URL,
		OrganizationID:    "org-1",
		AuthScheme:        "Zoho-oauthtoken",
		AccessToken:       "tok",
		ItemAccountID:     "acc-sales",
		PurchaseAccountID: "acc-purchase",
	})
}

func TestListItems_FollowsPages(t *testing.T) {
	var calls atomic.Int32
	b := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/items", r.URL.Path)
		assert.Equal(t, "org-1", r.URL.Query().Get("organization_id"))
		assert.Equal(t, "Zoho-oauthtoken tok", r.Header.Get("Authorization"))

		switch r.URL.Query().Get("page") {
		case "1":
			w.Write([]byte(`{"code":0,"items":[{"item_id":"1","name":"Sand"}],"page_context":{"page":1,"has_more_page":true}}`))
		default:
			w.Write([]byte(`{"code":0,"items":[{"item_id":"2","name":"Cement"}],"page_context":{"page":2,"has_more_page":false}}`))
		}
	})

	items, err := b.ListItems(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []domain.CatalogItem{{ID: "1", Name: "Sand"}, {ID: "2", Name: "Cement"}}, items)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListItems_Unpaginated(t *testing.T) {
	b := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[{"item_id":"1","name":"Sand"}]}`))
	})

	items, err := b.ListItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestListItems_Failure(t *testing.T) {
	b := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"code":57,"message":"You are not authorized to perform this operation"}`))
	})

	_, err := b.ListItems(context.Background())
	require.ErrorIs(t, err, domain.ErrCatalogLookupFailed)
	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusUnauthorized, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "not authorized")
}

func TestCreateItem(t *testing.T) {
	b := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/items", r.URL.Path)
		assert.Equal(t, "org-1", r.URL.Query().Get("organization_id"))
		assert.Equal(t, "application/json;charset=UTF-8", r.Header.Get("Content-Type"))

		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		assert.NoError(t, json.Unmarshal(raw, &body))
		assert.Equal(t, "Cement", body["name"])
		assert.Equal(t, "Grade A", body["description"])
		assert.Equal(t, 5.0, body["rate"])
		assert.Equal(t, 5.0, body["purchase_rate"])
		assert.Equal(t, "sales_and_purchases", body["item_type"])
		assert.Equal(t, "goods", body["product_type"])
		assert.Equal(t, "acc-sales", body["account_id"])
		assert.Equal(t, "acc-purchase", body["purchase_account_id"])
		assert.Equal(t, "", body["tax_id"])
		assert.Equal(t, []any{}, body["tags"])
		assert.Equal(t, []any{}, body["custom_fields"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"code":0,"message":"The item has been added.","item":{"item_id":"9001","name":"Cement"}}`))
	})

	item, err := b.CreateItem(context.Background(), domain.NewCatalogItem{
		Name:        "Cement",
		Description: "Grade A",
		Rate:        decimal.RequireFromString("5.00"),
	})
	require.NoError(t, err)
	assert.Equal(t, "9001", item.ID)
}

func TestCreateItem_Non201IsFailure(t *testing.T) {
	b := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		// 200 is not good enough for a create
		w.Write([]byte(`{"code":1001,"message":"Item already exists"}`))
	})

	_, err := b.CreateItem(context.Background(), domain.NewCatalogItem{Name: "Cement"})
	require.ErrorIs(t, err, domain.ErrCatalogCreateFailed)
	var upstream *domain.UpstreamError
	require.True(t, errors.As(err, &upstream))
	assert.Equal(t, http.StatusOK, upstream.StatusCode)
	assert.Contains(t, upstream.Body, "already exists")
}

func TestCreatePurchaseOrder(t *testing.T) {
	b := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/purchaseorders", r.URL.Path)
		assert.Equal(t, "org-1", r.URL.Query().Get("organization_id"))

		var body struct {
			VendorID  string `json:"vendor_id"`
			LineItems []struct {
				ItemID   string  `json:"item_id"`
				Quantity int     `json:"quantity"`
				Rate     float64 `json:"rate"`
			} `json:"line_items"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "vendor-1", body.VendorID)
		if assert.Len(t, body.LineItems, 1) {
			assert.Equal(t, "9001", body.LineItems[0].ItemID)
			assert.Equal(t, 500, body.LineItems[0].Quantity)
			assert.Equal(t, 5.0, body.LineItems[0].Rate)
		}

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"code":0,"purchaseorder":{"purchaseorder_id":"po-77","purchaseorder_number":"PO-00077","total":2500}}`))
	})

	order, err := b.CreatePurchaseOrder(context.Background(), domain.PurchaseOrder{
		VendorID: "vendor-1",
		LineItems: []domain.ResolvedLineItem{
			{CatalogItemID: "9001", Quantity: 500, Rate: decimal.RequireFromString("5.00")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "po-77", order.ID)
	assert.Equal(t, "PO-00077", order.Number)
	assert.Contains(t, string(order.Raw), `"total":2500`)
}

func TestCreatePurchaseOrder_Failure(t *testing.T) {
	b := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":3000,"message":"Vendor does not exist"}`))
	})

	_, err := b.CreatePurchaseOrder(context.Background(), domain.PurchaseOrder{VendorID: "nope"})
	require.ErrorIs(t, err, domain.ErrOrderCreateFailed)
	assert.Contains(t, err.Error(), "Vendor does not exist")
}

func TestTransportErrorIsTagged(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()
	b := NewBooksAdapter(srv.Client(), Config{BaseURL: srv.URL, OrganizationID: "org-1"})

	_, err := b.ListItems(context.Background())
	assert.ErrorIs(t, err, domain.ErrCatalogLookupFailed)
}
