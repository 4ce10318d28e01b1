package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/titipin/backend/domain"
	"github.com/titipin/backend/internal/config"
	"github.com/titipin/backend/usecase"
)

// Client talks JSON to the external payment/payout gateway. It implements
// both usecase.PaymentGateway and usecase.PayoutClient, since the vendor
// exposes charges and disbursements on one API surface.
type Client struct {
	http      *fasthttp.Client
	baseURL   string
	serverKey string
	timeout   time.Duration
	logger    *zap.Logger
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.GatewayConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		http: &fasthttp.Client{
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		},
		baseURL:   cfg.BaseURL,
		serverKey: cfg.ServerKey,
		timeout:   timeout,
		logger:    logger,
	}
}

type chargeRequest struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
	Amount  int64  `json:"gross_amount"`
}

type chargeResponse struct {
	Token       string `json:"token"`
	Reference   string `json:"transaction_id"`
	StatusCode  string `json:"status_code"`
	StatusError string `json:"status_message"`
}

// RequestPaymentToken opens a charge for one payer's grand total and returns
// the widget token the mobile client hands to the gateway SDK.
func (c *Client) RequestPaymentToken(ctx context.Context, req usecase.PaymentTokenRequest) (*usecase.PaymentTokenResult, error) {
	payload := chargeRequest{
		OrderID: fmt.Sprintf("%s:%s", req.SessionID, req.UserID),
		UserID:  req.UserID,
		Amount:  req.Amount,
	}

	var resp chargeResponse
	if err := c.post(ctx, "/v2/charge", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" || resp.Reference == "" {
		return nil, domain.NewError(domain.ErrCodeUnavailable, "gateway returned an incomplete charge")
	}
	return &usecase.PaymentTokenResult{
		Token:     resp.Token,
		Reference: resp.Reference,
	}, nil
}

type payoutRequest struct {
	ReferenceNo string `json:"reference_no"`
	Destination string `json:"beneficiary_account"`
	Amount      int64  `json:"amount"`
	Notes       string `json:"notes"`
}

type payoutResponse struct {
	Reference string `json:"payout_id"`
	Status    string `json:"status"`
}

// RequestDisbursement asks the gateway to transfer the net amount to the
// creator's bank account.
func (c *Client) RequestDisbursement(ctx context.Context, req usecase.PayoutRequest) (*usecase.PayoutResult, error) {
	payload := payoutRequest{
		ReferenceNo: req.DisbursementID,
		Destination: req.Destination,
		Amount:      req.Amount,
		Notes:       fmt.Sprintf("titipin session %s", req.SessionID),
	}

	var resp payoutResponse
	if err := c.post(ctx, "/v1/payouts", payload, &resp); err != nil {
		return nil, err
	}

	status := domain.DisbursementStatusProcessing
	switch resp.Status {
	case "queued", "processing", "":
	case "completed":
		status = domain.DisbursementStatusSuccess
	case "failed":
		status = domain.DisbursementStatusFailed
	}
	return &usecase.PayoutResult{
		Reference: resp.Reference,
		Status:    status,
	}, nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(c.baseURL + path)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	req.Header.Set("Authorization", "Basic "+c.serverKey)
	req.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.http.DoDeadline(req, resp, deadline); err != nil {
		c.logger.Warn("gateway request failed", zap.String("path", path), zap.Error(err))
		return domain.WrapError(domain.ErrCodeUnavailable, "gateway request failed", err)
	}
	if resp.StatusCode() >= http.StatusInternalServerError {
		return domain.NewError(domain.ErrCodeUnavailable, fmt.Sprintf("gateway returned %d", resp.StatusCode()))
	}
	if resp.StatusCode() >= http.StatusBadRequest {
		return domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("gateway rejected request with %d", resp.StatusCode()))
	}

	if out != nil {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return domain.WrapError(domain.ErrCodeUnavailable, "gateway response unreadable", err)
		}
	}
	return nil
}
