package razorpay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateOrder(t *testing.T) {
	var got OrderRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "secret", pass)

		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(Order{
			ID:       "order_ABC123",
			Entity:   "order",
			Amount:   got.Amount,
			Currency: got.Currency,
			Receipt:  got.Receipt,
			Status:   "created",
		})
	}))
	defer server.Close()

	client := NewClient(Config{KeyID: "rzp_test_key", KeySecret: "secret", BaseURL: server.URL})
	order, err := client.CreateOrder(context.Background(), OrderRequest{
		Amount:   80000,
		Currency: "INR",
		Receipt:  "order_42",
		Notes:    map[string]string{"order_id": "42"},
	})

	require.NoError(t, err)
	assert.Equal(t, "order_ABC123", order.ID)
	assert.Equal(t, int64(80000), order.Amount)
	assert.Equal(t, "42", got.Notes["order_id"])
	assert.Equal(t, "rzp_test_key", client.KeyID())
}

func TestCreateOrderAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{KeyID: "k", KeySecret: "s", BaseURL: server.URL})
	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 100, Currency: "INR"})

	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "BAD_REQUEST_ERROR", apiErr.Code)
}

func TestCreateOrderRejectsNonPositiveAmount(t *testing.T) {
	client := NewClient(Config{KeyID: "k", KeySecret: "s", BaseURL: "http://127.0.0.1:0"})
	_, err := client.CreateOrder(context.Background(), OrderRequest{Amount: 0, Currency: "INR"})
	assert.Error(t, err)
}

func TestVerifySignature(t *testing.T) {
	secret := "secret"
	valid := Sign(secret, "order_1", "pay_1")
	tampered := []byte(valid)
	if tampered[0] == 'a' {
		tampered[0] = 'b'
	} else {
		tampered[0] = 'a'
	}

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{"valid", "order_1", "pay_1", valid, true},
		{"tampered signature", "order_1", "pay_1", string(tampered), false},
		{"other payment", "order_1", "pay_2", valid, false},
		{"other order", "order_2", "pay_1", valid, false},
		{"empty signature", "order_1", "pay_1", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, VerifySignature(secret, tt.orderID, tt.paymentID, tt.signature))
		})
	}

	assert.False(t, VerifySignature("", "order_1", "pay_1", valid))
	assert.Len(t, valid, 64)
}
