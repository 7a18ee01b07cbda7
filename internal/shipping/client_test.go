package shipping

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRequest() QuoteRequest {
	return QuoteRequest{
		PickProvince: "Hà Nội",
		PickDistrict: "Cầu Giấy",
		Province:     "Hồ Chí Minh",
		District:     "Quận 1",
		Ward:         "Bến Nghé",
		Address:      "12 Lê Lợi",
		WeightGrams:  900,
	}
}

func TestQuoteSendsQueryAndToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret-token", r.Header.Get("Token"))
		q := r.URL.Query()
		assert.Equal(t, "Hà Nội", q.Get("pick_province"))
		assert.Equal(t, "Quận 1", q.Get("district"))
		assert.Equal(t, "900", q.Get("weight"))
		assert.Equal(t, "none", q.Get("deliver_option"))
		_, _ = w.Write([]byte(`{"success":true,"fee":{"fee":30000}}`))
	}))
	defer server.Close()

	client, err := NewClient(Options{Endpoint: server.URL, Token: "secret-token", Timeout: time.Second})
	require.NoError(t, err)

	fee, err := client.Quote(context.Background(), newTestRequest())
	require.NoError(t, err)
	assert.Equal(t, "30000", fee.String())
}

func TestQuoteProviderRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":false,"message":"district not supported"}`))
	}))
	defer server.Close()

	client, err := NewClient(Options{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Quote(context.Background(), newTestRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "district not supported")
}

func TestQuoteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := NewClient(Options{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Quote(context.Background(), newTestRequest())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestQuoteRespectsContextDeadline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	client, err := NewClient(Options{Endpoint: server.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Quote(ctx, newTestRequest())
	require.Error(t, err)
}

func TestQuoteValidatesRequest(t *testing.T) {
	client, err := NewClient(Options{Endpoint: "http://127.0.0.1:1"})
	require.NoError(t, err)

	req := newTestRequest()
	req.WeightGrams = 0
	_, err = client.Quote(context.Background(), req)
	require.Error(t, err)

	req = newTestRequest()
	req.District = ""
	_, err = client.Quote(context.Background(), req)
	require.Error(t, err)
}

func TestNewClientRequiresEndpoint(t *testing.T) {
	_, err := NewClient(Options{Endpoint: "  "})
	require.Error(t, err)
}
