package paypal

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cassiomorais/unifiedpay/internal/domain/payment"
)

// DisputeProvider covers the customer disputes API.
type DisputeProvider struct {
	req requester
}

func NewDisputeProvider(req requester) *DisputeProvider {
	return &DisputeProvider{req: req}
}

func (p *DisputeProvider) List(ctx context.Context) (*payment.Response, error) {
	return p.req.call(ctx, http.MethodGet, "/v1/customer/disputes", nil)
}

func (p *DisputeProvider) Get(ctx context.Context, disputeID string) (*payment.Response, error) {
	if err := requireID("dispute_id", disputeID); err != nil {
		return nil, err
	}
	return p.req.call(ctx, http.MethodGet, "/v1/customer/disputes/"+url.PathEscape(disputeID), nil)
}

func (p *DisputeProvider) AcceptClaim(ctx context.Context, disputeID string) (*payment.Response, error) {
	if err := requireID("dispute_id", disputeID); err != nil {
		return nil, err
	}
	return p.req.call(ctx, http.MethodPost, "/v1/customer/disputes/"+url.PathEscape(disputeID)+"/accept-claim", nil)
}

func (p *DisputeProvider) ProvideSupportingInfo(ctx context.Context, disputeID string, evidence payment.Fields) (*payment.Response, error) {
	if err := requireID("dispute_id", disputeID); err != nil {
		return nil, err
	}
	if evidence == nil {
		evidence = payment.Fields{}
	}
	return p.req.call(ctx, http.MethodPost, "/v1/customer/disputes/"+url.PathEscape(disputeID)+"/provide-supporting-info", evidence)
}
