package wallet

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/sudo-init-do/tradebit/internal/testutil"
)

func doConvert(t *testing.T, userID string, req ConvertRequest) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	httpReq := httptest.NewRequest(http.MethodPost, "/wallet/convert", bytes.NewReader(payload))
	httpReq.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httpReq, rec)
	c.Set("user_id", userID)
	if err := Convert(c); err != nil {
		t.Fatalf("convert handler: %v", err)
	}
	return rec
}

func TestConvertMovesBothLegs(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "convert")
	defer testutil.CleanupUser(ctx, userID)

	testutil.SetBalance(t, ctx, userID, "USDT", "100")

	rec := doConvert(t, userID.String(), ConvertRequest{
		From: "usdt", To: "BTC", Amount: decimal.NewFromInt(10),
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Spent    decimal.Decimal `json:"spent"`
		Received decimal.Decimal `json:"received"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Spent.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("spent %s, want 10", resp.Spent)
	}
	if !resp.Received.IsPositive() {
		t.Fatalf("received %s, want positive", resp.Received)
	}

	// The rate floats with the market, so assert the legs moved together
	// rather than an exact received amount.
	if got := mainBalance(t, ctx, userID, "USDT"); !got.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("USDT balance %s, want 90", got)
	}
	if got := mainBalance(t, ctx, userID, "BTC"); !got.Equal(resp.Received) {
		t.Fatalf("BTC balance %s does not match received %s", got, resp.Received)
	}
}

func TestConvertRejections(t *testing.T) {
	testutil.SetupDB(t)
	ctx := context.Background()
	userID := testutil.CreateUser(t, ctx, "convert_reject")
	defer testutil.CleanupUser(ctx, userID)

	testutil.SetBalance(t, ctx, userID, "USDT", "5")

	cases := []struct {
		name string
		req  ConvertRequest
	}{
		{"same coin", ConvertRequest{From: "BTC", To: "BTC", Amount: decimal.NewFromInt(1)}},
		{"unsupported coin", ConvertRequest{From: "DOGE", To: "USDT", Amount: decimal.NewFromInt(1)}},
		{"zero amount", ConvertRequest{From: "USDT", To: "BTC", Amount: decimal.Zero}},
		{"insufficient funds", ConvertRequest{From: "USDT", To: "BTC", Amount: decimal.NewFromInt(1000)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doConvert(t, userID.String(), tc.req)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
		})
	}

	if got := mainBalance(t, ctx, userID, "USDT"); !got.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("rejected conversions moved funds: %s", got)
	}
}
