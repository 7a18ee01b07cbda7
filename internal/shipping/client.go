package shipping

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	defaultTimeout  = 5 * time.Second
	maxResponseBody = 1 << 20
)

// QuoteRequest 运费询价参数，重量单位为克
type QuoteRequest struct {
	PickProvince string
	PickDistrict string
	Province     string
	District     string
	Ward         string
	Address      string
	WeightGrams  int
}

// Options 运费服务客户端配置
type Options struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
}

// Client 第三方运费服务客户端
type Client struct {
	endpoint string
	token    string
	http     *http.Client
}

type feeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Fee     *struct {
		Fee decimal.Decimal `json:"fee"`
	} `json:"fee"`
}

// NewClient 创建运费服务客户端
func NewClient(opts Options) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		return nil, errors.New("shipping endpoint is empty")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, errors.Wrap(err, "parse shipping endpoint")
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		token:    strings.TrimSpace(opts.Token),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

// Quote 查询运费
func (c *Client) Quote(ctx context.Context, req QuoteRequest) (decimal.Decimal, error) {
	if err := req.validate(); err != nil {
		return decimal.Zero, err
	}
	endpoint, err := url.Parse(c.endpoint)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "parse shipping endpoint")
	}
	endpoint.RawQuery = req.query().Encode()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "build shipping request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Token", c.token)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "call shipping provider")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "read shipping response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decimal.Zero, errors.Errorf("shipping provider returned status %d", resp.StatusCode)
	}

	var parsed feeResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return decimal.Zero, errors.Wrap(err, "decode shipping response")
	}
	if !parsed.Success || parsed.Fee == nil {
		msg := strings.TrimSpace(parsed.Message)
		if msg == "" {
			msg = "no fee returned"
		}
		return decimal.Zero, errors.Errorf("shipping provider rejected request: %s", msg)
	}
	if parsed.Fee.Fee.IsNegative() {
		return decimal.Zero, errors.Errorf("shipping provider returned negative fee %s", parsed.Fee.Fee.String())
	}
	return parsed.Fee.Fee.Round(2), nil
}

// Close 释放空闲连接，服务停止时调用
func (c *Client) Close() error {
	if c == nil || c.http == nil {
		return nil
	}
	c.http.CloseIdleConnections()
	return nil
}

func (r QuoteRequest) validate() error {
	switch {
	case strings.TrimSpace(r.PickProvince) == "" || strings.TrimSpace(r.PickDistrict) == "":
		return errors.New("pick location is required")
	case strings.TrimSpace(r.Province) == "" || strings.TrimSpace(r.District) == "":
		return errors.New("delivery location is required")
	case r.WeightGrams <= 0:
		return errors.New("weight must be positive")
	}
	return nil
}

func (r QuoteRequest) query() url.Values {
	values := url.Values{}
	values.Set("pick_province", r.PickProvince)
	values.Set("pick_district", r.PickDistrict)
	values.Set("province", r.Province)
	values.Set("district", r.District)
	if ward := strings.TrimSpace(r.Ward); ward != "" {
		values.Set("ward", ward)
	}
	if address := strings.TrimSpace(r.Address); address != "" {
		values.Set("address", address)
	}
	values.Set("weight", strconv.Itoa(r.WeightGrams))
	values.Set("deliver_option", "none")
	return values
}
