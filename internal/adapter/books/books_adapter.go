// Package books talks to the catalog and purchase-order REST API.
package books

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

const (
	pageSize     = 200
	maxErrorBody = 4 << 10
)

type Config struct {
	BaseURL           string
	OrganizationID    string
	AuthScheme        string
	AccessToken       string
	ItemAccountID     string
	PurchaseAccountID string
}

// BooksAdapter implements both port.CatalogRepository and
// port.OrderRepository against one organization.
type BooksAdapter struct {
	client *http.Client
	cfg    Config
}

func NewBooksAdapter(client *http.Client, cfg Config) *BooksAdapter {
	return &BooksAdapter{client: client, cfg: cfg}
}

type itemJSON struct {
	ItemID string `json:"item_id"`
	Name   string `json:"name"`
}

type listItemsResponse struct {
	Items       []itemJSON `json:"items"`
	PageContext *struct {
		HasMorePage bool `json:"has_more_page"`
	} `json:"page_context"`
}

type createItemRequest struct {
	Name              string        `json:"name"`
	Description       string        `json:"description"`
	Rate              json.Number   `json:"rate"`
	PurchaseRate      json.Number   `json:"purchase_rate"`
	ItemType          string        `json:"item_type"`
	ProductType       string        `json:"product_type"`
	AccountID         string        `json:"account_id"`
	PurchaseAccountID string        `json:"purchase_account_id"`
	TaxID             string        `json:"tax_id"`
	Tags              []string      `json:"tags"`
	CustomFields      []interface{} `json:"custom_fields"`
}

type createItemResponse struct {
	Item itemJSON `json:"item"`
}

type lineItemJSON struct {
	ItemID   string      `json:"item_id"`
	Quantity int         `json:"quantity"`
	Rate     json.Number `json:"rate"`
}

type purchaseOrderRequest struct {
	VendorID  string         `json:"vendor_id"`
	LineItems []lineItemJSON `json:"line_items"`
}

type purchaseOrderResponse struct {
	PurchaseOrder struct {
		ID     string `json:"purchaseorder_id"`
		Number string `json:"purchaseorder_number"`
	} `json:"purchaseorder"`
}

// ListItems walks every page of the item listing.
func (b *BooksAdapter) ListItems(ctx context.Context) ([]domain.CatalogItem, error) {
	var items []domain.CatalogItem
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("page", strconv.Itoa(page))
		q.Set("per_page", strconv.Itoa(pageSize))

		var resp listItemsResponse
		if err := b.do(ctx, http.MethodGet, "/items", q, nil, http.StatusOK, domain.ErrCatalogLookupFailed, &resp); err != nil {
			return nil, err
		}
		for _, it := range resp.Items {
			items = append(items, domain.CatalogItem{ID: it.ItemID, Name: it.Name})
		}
		if resp.PageContext == nil || !resp.PageContext.HasMorePage {
			return items, nil
		}
	}
}

func (b *BooksAdapter) CreateItem(ctx context.Context, item domain.NewCatalogItem) (*domain.CatalogItem, error) {
	rate := json.Number(item.Rate.String())
	body := createItemRequest{
		Name:              item.Name,
		Description:       item.Description,
		Rate:              rate,
		PurchaseRate:      rate,
		ItemType:          "sales_and_purchases",
		ProductType:       "goods",
		AccountID:         b.cfg.ItemAccountID,
		PurchaseAccountID: b.cfg.PurchaseAccountID,
		TaxID:             "",
		Tags:              []string{},
		CustomFields:      []interface{}{},
	}

	var resp createItemResponse
	if err := b.do(ctx, http.MethodPost, "/items", nil, body, http.StatusCreated, domain.ErrCatalogCreateFailed, &resp); err != nil {
		return nil, err
	}
	if resp.Item.ItemID == "" {
		return nil, fmt.Errorf("%w: response has no item id", domain.ErrCatalogCreateFailed)
	}
	return &domain.CatalogItem{ID: resp.Item.ItemID, Name: resp.Item.Name}, nil
}

func (b *BooksAdapter) CreatePurchaseOrder(ctx context.Context, order domain.PurchaseOrder) (*domain.CreatedOrder, error) {
	body := purchaseOrderRequest{
		VendorID:  order.VendorID,
		LineItems: make([]lineItemJSON, 0, len(order.LineItems)),
	}
	for _, li := range order.LineItems {
		body.LineItems = append(body.LineItems, lineItemJSON{
			ItemID:   li.CatalogItemID,
			Quantity: li.Quantity,
			Rate:     json.Number(li.Rate.String()),
		})
	}

	var raw json.RawMessage
	if err := b.do(ctx, http.MethodPost, "/purchaseorders", nil, body, http.StatusCreated, domain.ErrOrderCreateFailed, &raw); err != nil {
		return nil, err
	}

	var resp purchaseOrderResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("decode purchase order: %w", err)
	}
	return &domain.CreatedOrder{
		ID:     resp.PurchaseOrder.ID,
		Number: resp.PurchaseOrder.Number,
		Raw:    raw,
	}, nil
}

// do sends one request scoped to the organization. Any status other than
// want becomes an UpstreamError of the given kind carrying the body.
func (b *BooksAdapter) do(ctx context.Context, method, path string, query url.Values, in any, want int, kind error, out any) error {
	if query == nil {
		query = url.Values{}
	}
	query.Set("organization_id", b.cfg.OrganizationID)
	endpoint := b.cfg.BaseURL + path + "?" + query.Encode()

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", b.cfg.AuthScheme+" "+b.cfg.AccessToken)
	if in != nil {
		req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", kind, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &domain.UpstreamError{Kind: kind, StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %w", kind, err)
	}
	return nil
}
