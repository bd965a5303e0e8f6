package web

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/Chqrety/reservation/internal/config"
	"github.com/Chqrety/reservation/internal/events"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hallDetail(h *harness) {
	h.api.reply(http.MethodGet, "/location/2", http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"id": 2, "name": "Gedung Serbaguna", "address": "Jl. Merdeka 1"},
	})
}

func TestLandingSmartSearch(t *testing.T) {
	h := newHarness(t)
	h.api.reply(http.MethodGet, "/location/filter/check", http.StatusOK, map[string]any{"success": true, "data": []any{
		map[string]any{"id": 1, "name": "Gedung Serbaguna", "address": "Jl. Merdeka"},
		map[string]any{"id": 2, "name": "Lapangan Futsal", "address": "Jl. Sudirman"},
	}})
	h.api.reply(http.MethodGet, "/locations-categories", http.StatusOK, categoriesBody("Aula", "Olahraga"))

	resp := h.get("/?category_id=2&q=merdeka")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Body, "Gedung Serbaguna")
	assert.NotContains(t, resp.Body, "Lapangan Futsal")

	calls := h.api.callsTo(http.MethodGet, "/location/filter/check")
	require.Len(t, calls, 1)
	assert.Equal(t, "2", calls[0].Query.Get("category_id"))
}

func TestOrderFormSeedsAddress(t *testing.T) {
	h := newHarness(t)
	hallDetail(h)

	resp := h.get("/locations/2/book")
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Body, "Gedung Serbaguna")
	assert.Contains(t, resp.Body, `name="address" value="Jl. Merdeka 1"`)
}

func TestOrderFormLocationNotFound(t *testing.T) {
	h := newHarness(t)
	h.api.reply(http.MethodGet, "/location/9", http.StatusOK, map[string]any{"success": false})

	resp := h.get("/locations/9/book")
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Contains(t, resp.Body, "Gedung tidak ditemukan.")
}

func TestOrderFormLocationFailure(t *testing.T) {
	h := newHarness(t)
	h.api.reply(http.MethodGet, "/location/3", http.StatusInternalServerError, map[string]any{})

	resp := h.get("/locations/3/book")
	assert.Equal(t, http.StatusBadGateway, resp.Status)
	assert.Contains(t, resp.Body, "Gagal memuat data gedung.")
}

func TestOrderFormMissingDate(t *testing.T) {
	h := newHarness(t)
	hallDetail(h)
	h.api.reply(http.MethodPost, "/reservations/store", http.StatusUnprocessableEntity, map[string]any{
		"errors": map[string][]string{"date": {"The date field is required."}},
	})

	resp := h.post("/locations/2/book", url.Values{
		"customer_name": {"Budi"},
		"phone_number":  {"0812"},
		"address":       {"Jl. Merdeka 1"},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.Status)
	assert.Contains(t, resp.Body, "The date field is required.")
	assert.NotContains(t, resp.Body, "Order ID")
	assert.Contains(t, resp.Body, `value="Budi"`, "typed values are kept")
}

func TestOrderFormSuccess(t *testing.T) {
	h := newHarness(t)
	hallDetail(h)
	h.api.reply(http.MethodPost, "/reservations/store", http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"id": 77, "order_number": "ORD-77"},
	})

	var published []events.ReservationPayload
	h.bus.Subscribe(events.EventReservationCreated, func(e *events.Event) error {
		var p events.ReservationPayload
		if err := e.Decode(&p); err != nil {
			return err
		}
		published = append(published, p)
		return nil
	})

	resp := h.post("/locations/2/book", url.Values{
		"customer_name": {"Budi"},
		"phone_number":  {"0812"},
		"address":       {"Jl. Merdeka 1"},
		"date":          {"2026-06-01"},
	})
	require.Equal(t, http.StatusSeeOther, resp.Status)
	assert.Equal(t, "/locations/2/book", resp.Location)

	store := h.api.callsTo(http.MethodPost, "/reservations/store")
	require.Len(t, store, 1)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(store[0].Body, &sent))
	assert.Equal(t, float64(2), sent["location_id"])
	assert.Equal(t, "2026-06-01", sent["date"])

	require.Len(t, published, 1)
	assert.Equal(t, "ORD-77", published[0].OrderNumber)
	assert.Equal(t, "Gedung Serbaguna", published[0].LocationName)

	page := h.get("/locations/2/book")
	assert.Contains(t, page.Body, "Berhasil! Order ID Anda: ORD-77")
	assert.NotContains(t, page.Body, `value="Budi"`, "name is reset after success")
}

func TestCheckOrderTrimsInput(t *testing.T) {
	h := newHarness(t)
	h.api.reply(http.MethodPost, "/reservations/check", http.StatusOK, map[string]any{
		"success": true,
		"data":    map[string]any{"order_number": "ORD-1", "customer_name": "Budi", "reservation_date": "2026-06-01"},
	})

	resp := h.post("/check", url.Values{"order_number": {"ORD-1"}, "phone_number": {" 0812 "}})
	require.Equal(t, http.StatusOK, resp.Status)
	assert.Contains(t, resp.Body, "Detail Pesanan ORD-1")

	calls := h.api.callsTo(http.MethodPost, "/reservations/check")
	require.Len(t, calls, 1)
	var sent map[string]any
	require.NoError(t, json.Unmarshal(calls[0].Body, &sent))
	assert.Equal(t, map[string]any{"order_number": "ORD-1", "phone_number": "0812"}, sent)
}

func TestCheckOrderNotFoundAndFailure(t *testing.T) {
	h := newHarness(t)

	h.api.reply(http.MethodPost, "/reservations/check", http.StatusNotFound, map[string]any{"message": "not found"})
	resp := h.post("/check", url.Values{"order_number": {"X"}, "phone_number": {"1"}})
	assert.Equal(t, http.StatusNotFound, resp.Status)
	assert.Contains(t, resp.Body, "Data pemesanan tidak ditemukan.")

	h.api.reply(http.MethodPost, "/reservations/check", http.StatusInternalServerError, map[string]any{})
	resp = h.post("/check", url.Values{"order_number": {"X"}, "phone_number": {"1"}})
	assert.Equal(t, http.StatusBadGateway, resp.Status)
	assert.Contains(t, resp.Body, "Terjadi kesalahan saat mencari data.")
}

func TestCheckOrderRateLimited(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.RateLimit.CheckOrderRPS = 0.001
		c.RateLimit.CheckOrderBurst = 1
	})
	h.api.reply(http.MethodPost, "/reservations/check", http.StatusNotFound, map[string]any{})

	first := h.post("/check", url.Values{"order_number": {"X"}, "phone_number": {"1"}})
	assert.Equal(t, http.StatusNotFound, first.Status)

	second := h.post("/check", url.Values{"order_number": {"X"}, "phone_number": {"1"}})
	assert.Equal(t, http.StatusTooManyRequests, second.Status)
	assert.Len(t, h.api.callsTo(http.MethodPost, "/reservations/check"), 1)
}

func TestCheckOrderLimitIgnoresForwardedForFromUntrustedPeer(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.RateLimit.CheckOrderRPS = 0.001
		c.RateLimit.CheckOrderBurst = 1
	})
	h.api.reply(http.MethodPost, "/reservations/check", http.StatusNotFound, map[string]any{})

	limited := 0
	for i := 0; i < 20; i++ {
		form := url.Values{"order_number": {"X"}, "phone_number": {"1"}}
		req, err := http.NewRequest(http.MethodPost, h.web.URL+"/check", strings.NewReader(form.Encode()))
		require.NoError(t, err)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("X-Forwarded-For", fmt.Sprintf("10.0.0.%d", i+1))
		if h.do(req).Status == http.StatusTooManyRequests {
			limited++
		}
	}
	assert.Equal(t, 19, limited)
	assert.Len(t, h.api.callsTo(http.MethodPost, "/reservations/check"), 1)
}

func TestAnonymousLandingKeepsNoPageState(t *testing.T) {
	h := newHarness(t)
	h.api.reply(http.MethodGet, "/location/filter/check", http.StatusOK, map[string]any{"success": true, "data": []any{}})
	h.api.reply(http.MethodGet, "/locations-categories", http.StatusOK, categoriesBody("Aula"))

	for i := 0; i < 30; i++ {
		req, err := http.NewRequest(http.MethodGet, h.web.URL+"/", nil)
		require.NoError(t, err)
		if i%2 == 1 {
			req.AddCookie(&http.Cookie{Name: "sid", Value: uuid.NewString()})
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}
	assert.Equal(t, 0, h.registry.Len())
}

func TestHealthAndHeaders(t *testing.T) {
	h := newHarness(t)

	resp := h.get("/healthz")
	assert.Equal(t, http.StatusOK, resp.Status)
	assert.JSONEq(t, `{"status":"ok"}`, resp.Body)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
}
