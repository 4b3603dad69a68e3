package api

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/labstack/echo/v5"

	"github.com/quarklabs/radixengine/internal/device/sim"
	"github.com/quarklabs/radixengine/internal/logger"
)

func newTestEcho(opts ...sim.Option) *echo.Echo {
	server := NewServer(sim.NewRuntime(opts...), logger.JSON(io.Discard, slog.LevelError))
	e := echo.New()
	server.Register(e)
	return e
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestDivRemRoundTrip(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/divrem", `{"numerator":200,"divisor":7,"variant":"amortized"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp DivRemResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Quotient != 28 || resp.Remainder != 4 {
		t.Fatalf("200/7: got q=%d r=%d", resp.Quotient, resp.Remainder)
	}
	if resp.Params.UnrollFactor != 8 || resp.Params.Log2Degree != 11 {
		t.Fatalf("derived params: got %+v", resp.Params)
	}
	if !strings.HasPrefix(resp.ID, "div_") {
		t.Fatalf("job id: got %q", resp.ID)
	}
	if resp.Backend != "sim" {
		t.Fatalf("backend: got %q", resp.Backend)
	}
}

func TestDivRemRejectsUnsupportedSize(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/divrem", `{"numerator":1,"divisor":1,"ring_dimension":3000}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	body := rec.Body.String()
	if !strings.Contains(body, "3000") || !strings.Contains(body, "16384") {
		t.Fatalf("diagnostic should name the value and the supported set: %s", body)
	}
}

func TestDivRemRejectsZeroDivisor(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/divrem", `{"numerator":5,"divisor":0}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDivRemRejectsUnknownFields(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodPost, "/v1/divrem", `{"numerator":5,"divisor":2,"modulus":9}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestParamsEndpoint(t *testing.T) {
	t.Parallel()

	e := newTestEcho()
	rec := doJSON(t, e, http.MethodGet, "/v1/params?size=16384&mode=standard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp ParamsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.UnrollFactor != 16 || resp.Log2Degree != 14 || resp.Degree != 16384 {
		t.Fatalf("derived params: got %+v", resp)
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/params?size=3000", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("unsupported size status: got %d", rec.Code)
	}
}

func TestDevicesEndpoint(t *testing.T) {
	t.Parallel()

	e := newTestEcho(sim.WithDeviceCount(2))
	rec := doJSON(t, e, http.MethodGet, "/v1/devices", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	var resp DevicesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Backend != "sim" || len(resp.Devices) != 2 {
		t.Fatalf("devices: got %+v", resp)
	}
	if resp.Devices[1].Index != 1 || resp.Devices[1].MemoryTotal <= 0 {
		t.Fatalf("device info: got %+v", resp.Devices[1])
	}
}
