package paypal

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	domainErrors "github.com/cassiomorais/unifiedpay/internal/domain/errors"
	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
	"github.com/cassiomorais/unifiedpay/internal/infrastructure/config"
	"github.com/shopspring/decimal"
)

const (
	maxTextLength = 127

	defaultReturnURL = "https://example.com/return"
	defaultCancelURL = "https://example.com/cancel"
	defaultCurrency  = "USD"
)

type paymentPayload struct {
	Intent       string        `json:"intent"`
	RedirectURLs redirectURLs  `json:"redirect_urls"`
	Payer        payer         `json:"payer"`
	Transactions []transaction `json:"transactions"`
}

type redirectURLs struct {
	ReturnURL string `json:"return_url"`
	CancelURL string `json:"cancel_url"`
}

type payer struct {
	PaymentMethod string `json:"payment_method"`
}

type transaction struct {
	Amount        amount   `json:"amount"`
	Description   string   `json:"description"`
	ItemList      itemList `json:"item_list"`
	InvoiceNumber any      `json:"invoice_number,omitempty"`
}

type amount struct {
	Total    string `json:"total"`
	Currency string `json:"currency"`
}

type itemList struct {
	Items           []lineItem `json:"items"`
	ShippingAddress any        `json:"shipping_address,omitempty"`
}

type lineItem struct {
	Name     string `json:"name"`
	Quantity any    `json:"quantity"`
	Price    string `json:"price"`
	Currency string `json:"currency"`
	SKU      any    `json:"sku"`
}

// PaymentProvider covers the v1 payments API (sale intent).
type PaymentProvider struct {
	req       requester
	returnURL string
	cancelURL string
}

func NewPaymentProvider(cfg config.PayPalConfig, req requester) *PaymentProvider {
	p := &PaymentProvider{req: req, returnURL: cfg.ReturnURL, cancelURL: cfg.CancelURL}
	if p.returnURL == "" {
		p.returnURL = defaultReturnURL
	}
	if p.cancelURL == "" {
		p.cancelURL = defaultCancelURL
	}
	return p
}

// Create validates data and creates a sale payment. Amounts are in minor units.
func (p *PaymentProvider) Create(ctx context.Context, data payment.Fields) (*payment.Response, error) {
	payload, err := p.buildPayment(data)
	if err != nil {
		return nil, err
	}
	return p.req.call(ctx, http.MethodPost, "/v1/payments/payment", payload)
}

func (p *PaymentProvider) Capture(ctx context.Context, paymentID string) (*payment.Response, error) {
	if err := requireID("payment_id", paymentID); err != nil {
		return nil, err
	}
	return p.req.call(ctx, http.MethodPost, "/v1/payments/payment/"+url.PathEscape(paymentID)+"/capture", nil)
}

func (p *PaymentProvider) Execute(ctx context.Context, paymentID, payerID string) (*payment.Response, error) {
	if err := requireID("payment_id", paymentID); err != nil {
		return nil, err
	}
	if err := requireID("payer_id", payerID); err != nil {
		return nil, err
	}
	return p.req.call(ctx, http.MethodPost, "/v1/payments/payment/"+url.PathEscape(paymentID)+"/execute",
		map[string]string{"payer_id": payerID})
}

// Refund refunds a sale. The refund body is sent as given.
func (p *PaymentProvider) Refund(ctx context.Context, saleID string, data payment.Fields) (*payment.Response, error) {
	if err := requireID("payment_id", saleID); err != nil {
		return nil, err
	}
	if data == nil {
		data = payment.Fields{}
	}
	return p.req.call(ctx, http.MethodPost, "/v1/payments/sale/"+url.PathEscape(saleID)+"/refund", data)
}

func (p *PaymentProvider) buildPayment(data payment.Fields) (*paymentPayload, error) {
	for _, field := range []string{"amount", "currency", "description"} {
		if !data.Has(field) {
			return nil, domainErrors.NewValidationError(field, "missing required field")
		}
	}

	total, ok := data.Number("amount")
	if !ok || !total.IsPositive() {
		return nil, domainErrors.NewValidationError("amount", "amount must be a positive number")
	}

	items, err := formatLineItems(data.Slice("items"))
	if err != nil {
		return nil, err
	}

	tx := transaction{
		Amount: amount{
			Total:    payment.MinorToMajor(total),
			Currency: strings.ToUpper(data.String("currency")),
		},
		Description: payment.Truncate(data.String("description"), maxTextLength),
		ItemList:    itemList{Items: items},
	}
	if v, ok := data.Lookup("shipping_address"); ok {
		tx.ItemList.ShippingAddress = v
	}
	if v, ok := data.Lookup("invoice_number"); ok {
		tx.InvoiceNumber = v
	}

	return &paymentPayload{
		Intent: "sale",
		RedirectURLs: redirectURLs{
			ReturnURL: p.returnURL,
			CancelURL: p.cancelURL,
		},
		Payer:        payer{PaymentMethod: "paypal"},
		Transactions: []transaction{tx},
	}, nil
}

func formatLineItems(raw []any) ([]lineItem, error) {
	items := make([]lineItem, 0, len(raw))
	for i, v := range raw {
		item := payment.AsFields(v)
		if item == nil {
			return nil, domainErrors.NewValidationError(fmt.Sprintf("items[%d]", i), "item must be an object")
		}

		price := decimal.Zero
		if item.Has("price") {
			n, ok := item.Number("price")
			if !ok {
				return nil, domainErrors.NewValidationError(fmt.Sprintf("items[%d].price", i), "price must be numeric")
			}
			price = n
		}

		quantity, ok := item.Lookup("quantity")
		if !ok {
			quantity = 1
		}
		sku, _ := item.Lookup("sku")

		items = append(items, lineItem{
			Name:     payment.Truncate(item.String("name"), maxTextLength),
			Quantity: quantity,
			Price:    payment.MinorToMajor(price),
			Currency: strings.ToUpper(item.StringOr("currency", defaultCurrency)),
			SKU:      sku,
		})
	}
	return items, nil
}

func requireID(field, id string) error {
	if strings.TrimSpace(id) == "" {
		return domainErrors.NewValidationError(field, "must not be empty")
	}
	return nil
}
