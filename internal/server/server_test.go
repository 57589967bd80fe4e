package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orderview/internal/loader"
	"orderview/internal/locale"
	"orderview/internal/logger"
	"orderview/internal/metrics"
	"orderview/internal/store"
)

const exportDoc = `[
	{"page":1,"orderInfo":{"orderId":"E1","status":{"name":"Paid","key":"WAIT_SELLER_SEND_GOODS"},"createdAt":"1694500000","paidPrice":10}},
	{"page":1,"orderInfo":{"orderId":"E2","status":{"name":"Shipped","key":"WAIT_BUYER_CONFIRM_GOODS"},"paidPrice":20.5}},
	{"page":2,"orderInfo":{"orderId":"E3","status":{"name":"Paid","key":"WAIT_SELLER_SEND_GOODS"},"paidPrice":30}}
]`

const uploadDoc = `{"code":0,"data":{"rowList":[
	{"orderInfo":{"orderId":"U1","status":{"name":"Closed","key":"TRADE_CLOSED"},"paidPrice":5}},
	{"orderInfo":{"orderId":"U2","status":{"name":"Odd","key":"SOMETHING_NEW"},"paidPrice":6}}
]}}`

type viewBody struct {
	Generation string `json:"generation"`
	Mode       string `json:"mode"`
	Page       int    `json:"page"`
	TotalPages int    `json:"totalPages"`
	Records    []struct {
		OrderID       string `json:"orderId"`
		StatusClass   string `json:"statusClass"`
		CreatedAtText string `json:"createdAtText"`
	} `json:"records"`
	Stats struct {
		Count     int     `json:"count"`
		TotalPaid float64 `json:"totalPaid"`
	} `json:"stats"`
	TotalPaidText string `json:"totalPaidText"`
	StatusRanking []struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	} `json:"statusRanking"`
}

func newTestServer(t *testing.T, exportPath string) (*Server, http.Handler) {
	t.Helper()
	s := New(logger.Nop(), store.New(2), metrics.NewRegistry(), locale.New("zh-CN", time.UTC), exportPath)
	return s, s.Router()
}

func writeExport(t *testing.T) string {
	t.Helper()
	file := filepath.Join(t.TempDir(), "optimized_orders.json")
	require.NoError(t, os.WriteFile(file, []byte(exportDoc), 0o644))
	return file
}

func do(t *testing.T, h http.Handler, req *http.Request, out any) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func TestServer_ReloadAndView(t *testing.T) {
	s, h := newTestServer(t, writeExport(t))
	require.NoError(t, s.Reload())

	var v viewBody
	rec := do(t, h, httptest.NewRequest(http.MethodGet, "/api/view", nil), &v)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, v.Generation)
	assert.Equal(t, "fixed", v.Mode)
	assert.Equal(t, 2, v.TotalPages)
	require.Len(t, v.Records, 2)
	assert.Equal(t, "status-wait", v.Records[0].StatusClass)
	assert.Equal(t, "2023/9/12 06:26:40", v.Records[0].CreatedAtText)
	assert.Equal(t, "status-shipped", v.Records[1].StatusClass)
	assert.Equal(t, 60.5, v.Stats.TotalPaid)
	assert.Equal(t, "¥60.5", v.TotalPaidText)
	require.Len(t, v.StatusRanking, 2)
	assert.Equal(t, "Paid", v.StatusRanking[0].Name)
	assert.Equal(t, 2, v.StatusRanking[0].Count)

	var opts store.Options
	do(t, h, httptest.NewRequest(http.MethodGet, "/api/options", nil), &opts)
	assert.Equal(t, []string{"Paid", "Shipped"}, opts.Statuses)
	assert.Equal(t, []string{"1", "2"}, opts.PageGroups)
}

func TestServer_FilterAndPaging(t *testing.T) {
	s, h := newTestServer(t, writeExport(t))
	require.NoError(t, s.Reload())

	var v viewBody
	do(t, h, httptest.NewRequest(http.MethodPost, "/api/filter", strings.NewReader(`{"status":"Paid"}`)), &v)
	assert.Equal(t, 2, v.Stats.Count)
	assert.Equal(t, 1, v.TotalPages)

	var p struct {
		Changed bool     `json:"changed"`
		View    viewBody `json:"view"`
	}
	do(t, h, httptest.NewRequest(http.MethodPost, "/api/pages/2", nil), &p)
	assert.False(t, p.Changed)
	assert.Equal(t, 1, p.View.Page)

	do(t, h, httptest.NewRequest(http.MethodPost, "/api/filter", strings.NewReader(`{}`)), &v)
	do(t, h, httptest.NewRequest(http.MethodPost, "/api/pages/next", nil), &p)
	assert.True(t, p.Changed)
	assert.Equal(t, 2, p.View.Page)
	require.Len(t, p.View.Records, 1)
	assert.Equal(t, "E3", p.View.Records[0].OrderID)

	do(t, h, httptest.NewRequest(http.MethodPost, "/api/pages/prev", nil), &p)
	assert.True(t, p.Changed)
	assert.Equal(t, 1, p.View.Page)

	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/pages/abc", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, httptest.NewRequest(http.MethodPost, "/api/filter", strings.NewReader(`{`)), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func multipartUpload(t *testing.T, name, content string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestServer_UploadReplacesDataset(t *testing.T) {
	s, h := newTestServer(t, writeExport(t))
	require.NoError(t, s.Reload())

	var res struct {
		Generation string   `json:"generation"`
		Records    int      `json:"records"`
		View       viewBody `json:"view"`
	}
	rec := do(t, h, multipartUpload(t, "orders.json", uploadDoc), &res)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, res.Records)
	assert.Equal(t, "single", res.View.Mode)
	assert.Equal(t, 2, res.View.TotalPages)
	require.Len(t, res.View.Records, 1)
	assert.Equal(t, "status-cancelled", res.View.Records[0].StatusClass)

	var p struct {
		View viewBody `json:"view"`
	}
	do(t, h, httptest.NewRequest(http.MethodPost, "/api/pages/next", nil), &p)
	assert.Equal(t, "status-wait", p.View.Records[0].StatusClass)
}

func TestServer_RawBodyUpload(t *testing.T) {
	_, h := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodPost, "/api/upload?name=orders.txt", strings.NewReader(uploadDoc))
	rec := do(t, h, req, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
}

func TestServer_UploadErrorsKeepCurrentData(t *testing.T) {
	s, h := newTestServer(t, writeExport(t))
	require.NoError(t, s.Reload())
	var before viewBody
	do(t, h, httptest.NewRequest(http.MethodGet, "/api/view", nil), &before)

	cases := []struct {
		name, file, body string
		status           int
		kind             string
	}{
		{"parse", "orders.json", `{"code":0,`, http.StatusBadRequest, "parse"},
		{"schema", "orders.json", `{"code":1,"data":{"rowList":[]}}`, http.StatusUnprocessableEntity, "schema"},
		{"type", "orders.png", uploadDoc, http.StatusBadRequest, "validation"},
	}
	for _, c := range cases {
		var e struct {
			Error string `json:"error"`
			Kind  string `json:"kind"`
		}
		rec := do(t, h, multipartUpload(t, c.file, c.body), &e)
		assert.Equal(t, c.status, rec.Code, c.name)
		assert.Equal(t, c.kind, e.Kind, c.name)
		assert.NotEmpty(t, e.Error, c.name)
	}

	var after viewBody
	do(t, h, httptest.NewRequest(http.MethodGet, "/api/view", nil), &after)
	assert.Equal(t, before.Generation, after.Generation)
}

func TestServer_OversizedUploadRejectedUpFront(t *testing.T) {
	_, h := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodPost, "/api/upload?name=orders.json", strings.NewReader("{}"))
	req.ContentLength = 17 << 20

	var e struct {
		Kind string `json:"kind"`
	}
	rec := do(t, h, req, &e)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, loader.KindValidation.String(), e.Kind)
}

func TestServer_ReloadFailureKeepsData(t *testing.T) {
	file := writeExport(t)
	s, h := newTestServer(t, file)
	require.NoError(t, s.Reload())
	gen := s.store.View().Generation

	require.NoError(t, os.WriteFile(file, []byte(`not json`), 0o644))
	rec := do(t, h, httptest.NewRequest(http.MethodPost, "/api/reload", nil), nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, gen, s.store.View().Generation)

	require.NoError(t, os.Remove(file))
	rec = do(t, h, httptest.NewRequest(http.MethodPost, "/api/reload", nil), nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 3, s.store.Len())
}

func TestServer_ClearHealthAndMetrics(t *testing.T) {
	s, h := newTestServer(t, writeExport(t))
	require.NoError(t, s.Reload())

	var v viewBody
	rec := do(t, h, httptest.NewRequest(http.MethodDelete, "/api/orders", nil), &v)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, v.Records)
	assert.Equal(t, 0, s.store.Len())

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/healthz", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, httptest.NewRequest(http.MethodGet, "/metrics", nil), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "orderview_loads_total")
}

func TestStatusClass(t *testing.T) {
	assert.Equal(t, "status-delivered", StatusClass("TRADE_SUCCESS"))
	assert.Equal(t, "status-refund", StatusClass("REFUND"))
	assert.Equal(t, "status-wait", StatusClass(""))
}
