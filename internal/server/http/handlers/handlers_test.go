package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
	testhelpers "github.com/polkiloo/storefront/internal/test"
)

var _ StoreFacade = testhelpers.StoreFacadeStub{}

func init() {
	gin.SetMode(gin.TestMode)
}

func testResponder() Responder {
	return NewResponder(slog.New(slog.NewJSONHandler(io.Discard, nil)), false)
}

func performRequest(t *testing.T, method, path string, handler gin.HandlerFunc, setup func(*gin.Context), body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, path, func(c *gin.Context) {
		if setup != nil {
			setup(c)
		}
		handler(c)
	})

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	target := path
	if p, ok := headers[":path"]; ok {
		target = p
	}
	req := httptest.NewRequest(method, target, reader)
	for k, v := range headers {
		if k != ":path" {
			req.Header.Set(k, v)
		}
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func asUser(id int64) func(*gin.Context) {
	return func(c *gin.Context) { c.Set(middleware.UserIDContextKey, id) }
}

func decodeError(t *testing.T, resp *httptest.ResponseRecorder) dto.ErrorResponse {
	t.Helper()
	var body dto.ErrorResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body), resp.Body.String())
	return body
}

func TestCurrentUserID(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Zero(t, CurrentUserID(c))
	c.Set(middleware.UserIDContextKey, int64(7))
	assert.Equal(t, int64(7), CurrentUserID(c))
}

func TestErrorBody(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		kind   string
	}{
		{"validation field", domainErrors.Invalid("email", "is required"), http.StatusBadRequest, "validation"},
		{"validation wrapped", errors.Join(domainErrors.ErrValidation), http.StatusBadRequest, "validation"},
		{"out of stock", &domainErrors.OutOfStockError{ProductID: 3, Available: 1, Requested: 2}, http.StatusConflict, "out_of_stock"},
		{"product not found", &domainErrors.ProductNotFoundError{ProductID: 9}, http.StatusNotFound, "product_not_found"},
		{"not found", domainErrors.ErrNotFound, http.StatusNotFound, "not_found"},
		{"total mismatch", domainErrors.ErrTotalMismatch, http.StatusConflict, "total_mismatch"},
		{"conflict", domainErrors.ErrAlreadyExists, http.StatusConflict, "conflict"},
		{"credentials", domainErrors.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized"},
		{"forbidden", domainErrors.ErrForbidden, http.StatusForbidden, "forbidden"},
		{"transaction", domainErrors.TransactionFailure(errors.New("deadlock")), http.StatusServiceUnavailable, "transaction_failure"},
		{"unavailable", domainErrors.ErrUnavailable, http.StatusServiceUnavailable, "unavailable"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "internal"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, body := ErrorBody(tc.err)
			assert.Equal(t, tc.status, status)
			assert.Equal(t, tc.kind, body.Error)
			assert.NotEmpty(t, body.Message)
		})
	}

	_, body := ErrorBody(&domainErrors.OutOfStockError{ProductID: 3, Available: 1, Requested: 2})
	require.NotNil(t, body.ProductID)
	assert.Equal(t, int64(3), *body.ProductID)
	assert.Equal(t, 1, *body.Available)
	assert.Equal(t, 2, *body.Requested)

	_, body = ErrorBody(domainErrors.TransactionFailure(errors.New("deadlock")))
	assert.True(t, body.Retryable)
	assert.NotContains(t, body.Message, "deadlock")

	_, body = ErrorBody(domainErrors.Invalid("email", "is required"))
	assert.Equal(t, "email", body.Field)
}

func TestResponderDebugDetail(t *testing.T) {
	handler := func(c *gin.Context) {
		NewResponder(nil, true).Fail(c, "Op", errors.New("pool exhausted"))
	}
	resp := performRequest(t, http.MethodGet, "/", handler, nil, nil, nil)
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	assert.Equal(t, "pool exhausted", decodeError(t, resp).Detail)

	handler = func(c *gin.Context) {
		testResponder().Fail(c, "Op", errors.New("pool exhausted"))
	}
	resp = performRequest(t, http.MethodGet, "/", handler, nil, nil, nil)
	assert.Empty(t, decodeError(t, resp).Detail)
}

func TestAuthHandlerRegister(t *testing.T) {
	var got model.Registration
	h := NewAuthHandler(testhelpers.AuthFacadeStub{
		RegisterFn: func(_ context.Context, in model.Registration) (*model.User, string, error) {
			got = in
			return &model.User{ID: 5, Email: in.Email, FirstName: in.FirstName}, "jwt", nil
		},
	}, testResponder())

	body := []byte(`{"email":"a@b.io","password":"secret1","first_name":"Ann","last_name":"Lee"}`)
	resp := performRequest(t, http.MethodPost, "/api/users/register", h.Register, nil, body, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, model.Registration{Email: "a@b.io", Password: "secret1", FirstName: "Ann", LastName: "Lee"}, got)

	var out dto.AuthResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, "jwt", out.Token)
	assert.Equal(t, int64(5), out.User.ID)
	assert.NotContains(t, resp.Body.String(), "password")
}

func TestAuthHandlerRegisterFailures(t *testing.T) {
	h := NewAuthHandler(testhelpers.AuthFacadeStub{}, testResponder())
	resp := performRequest(t, http.MethodPost, "/", h.Register, nil, []byte("{"), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	h = NewAuthHandler(testhelpers.AuthFacadeStub{
		RegisterFn: func(context.Context, model.Registration) (*model.User, string, error) {
			return nil, "", domainErrors.ErrAlreadyExists
		},
	}, testResponder())
	resp = performRequest(t, http.MethodPost, "/", h.Register, nil, []byte(`{"email":"a@b.io","password":"secret1"}`), nil)
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestAuthHandlerLogin(t *testing.T) {
	h := NewAuthHandler(testhelpers.AuthFacadeStub{}, testResponder())
	resp := performRequest(t, http.MethodPost, "/", h.Login, nil, []byte(`{"email":"a@b.io","password":"secret1"}`), nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"token":"token"`)

	h = NewAuthHandler(testhelpers.AuthFacadeStub{
		AuthenticateFn: func(context.Context, string, string) (*model.User, string, error) {
			return nil, "", domainErrors.ErrInvalidCredentials
		},
	}, testResponder())
	resp = performRequest(t, http.MethodPost, "/", h.Login, nil, []byte(`{"email":"a@b.io","password":"bad"}`), nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestAuthHandlerProfile(t *testing.T) {
	var asked int64
	h := NewAuthHandler(testhelpers.AuthFacadeStub{
		ProfileFn: func(_ context.Context, id int64) (*model.User, error) {
			asked = id
			return &model.User{ID: id, Email: "p@q.io"}, nil
		},
	}, testResponder())
	resp := performRequest(t, http.MethodGet, "/", h.Profile, asUser(11), nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, int64(11), asked)
	assert.Contains(t, resp.Body.String(), `"email":"p@q.io"`)
}

func TestProductHandlerList(t *testing.T) {
	h := NewProductHandler(testhelpers.ProductFacadeStub{}, testResponder())
	resp := performRequest(t, http.MethodGet, "/api/products", h.List, nil, nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var out []dto.ProductResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "4.50", out[0].Price)

	h = NewProductHandler(testhelpers.ProductFacadeStub{
		ListFn: func(context.Context) ([]model.Product, error) { return nil, nil },
	}, testResponder())
	resp = performRequest(t, http.MethodGet, "/api/products", h.List, nil, nil, nil)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestProductHandlerGet(t *testing.T) {
	h := NewProductHandler(testhelpers.ProductFacadeStub{
		GetFn: func(_ context.Context, id int64) (*model.Product, error) {
			if id == 404 {
				return nil, domainErrors.ErrNotFound
			}
			return &model.Product{ID: id, Name: "Mug", Price: decimal.RequireFromString("12")}, nil
		},
	}, testResponder())

	resp := performRequest(t, http.MethodGet, "/api/products/:id", h.Get, nil, nil, map[string]string{":path": "/api/products/2"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"price":"12.00"`)

	resp = performRequest(t, http.MethodGet, "/api/products/:id", h.Get, nil, nil, map[string]string{":path": "/api/products/404"})
	assert.Equal(t, http.StatusNotFound, resp.Code)

	resp = performRequest(t, http.MethodGet, "/api/products/:id", h.Get, nil, nil, map[string]string{":path": "/api/products/abc"})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "id", decodeError(t, resp).Field)
}

func TestProductHandlerCreate(t *testing.T) {
	var got model.Product
	h := NewProductHandler(testhelpers.ProductFacadeStub{
		CreateFn: func(_ context.Context, p model.Product) (*model.Product, error) {
			got = p
			p.ID = 3
			return &p, nil
		},
	}, testResponder())

	body := []byte(`{"name":"Mug","price":12.5,"description":"big","stock_quantity":4}`)
	resp := performRequest(t, http.MethodPost, "/", h.Create, nil, body, nil)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.Equal(t, "Mug", got.Name)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 4, got.StockQuantity)
	assert.Contains(t, resp.Body.String(), `"id":3`)

	h = NewProductHandler(testhelpers.ProductFacadeStub{
		CreateFn: func(context.Context, model.Product) (*model.Product, error) {
			return nil, domainErrors.Invalid("price", "must be greater than 0")
		},
	}, testResponder())
	resp = performRequest(t, http.MethodPost, "/", h.Create, nil, []byte(`{"name":"Mug","price":0}`), nil)
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "price", decodeError(t, resp).Field)
}

func TestProductHandlerUpdate(t *testing.T) {
	var patch model.ProductPatch
	h := NewProductHandler(testhelpers.ProductFacadeStub{
		UpdateFn: func(_ context.Context, id int64, p model.ProductPatch) (*model.Product, error) {
			patch = p
			return &model.Product{ID: id, Name: "Cup", Price: decimal.RequireFromString("2")}, nil
		},
	}, testResponder())

	resp := performRequest(t, http.MethodPut, "/api/products/:id", h.Update, nil, []byte(`{"name":"Cup"}`), map[string]string{":path": "/api/products/8"})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NotNil(t, patch.Name)
	assert.Equal(t, "Cup", *patch.Name)
	assert.Nil(t, patch.Price)
	assert.Nil(t, patch.StockQuantity)
}

func TestProductHandlerDelete(t *testing.T) {
	h := NewProductHandler(testhelpers.ProductFacadeStub{}, testResponder())
	resp := performRequest(t, http.MethodDelete, "/api/products/:id", h.Delete, nil, nil, map[string]string{":path": "/api/products/1"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"message":"product deleted"}`, resp.Body.String())

	h = NewProductHandler(testhelpers.ProductFacadeStub{
		DeleteFn: func(context.Context, int64) error { return domainErrors.ErrNotFound },
	}, testResponder())
	resp = performRequest(t, http.MethodDelete, "/api/products/:id", h.Delete, nil, nil, map[string]string{":path": "/api/products/1"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestOrderHandlerPlace(t *testing.T) {
	var got model.PlaceOrderInput
	h := NewOrderHandler(testhelpers.OrderFacadeStub{
		PlaceFn: func(_ context.Context, in model.PlaceOrderInput) (*model.Order, bool, error) {
			got = in
			return &model.Order{ID: 77, Total: in.Total, Status: model.OrderStatusPending}, false, nil
		},
	}, testResponder())

	body := []byte(`{"total":21.48,"shipping_address":"1 Main St","items":[{"product_id":1,"quantity":2,"price":10.74}]}`)
	resp := performRequest(t, http.MethodPost, "/", h.Place, asUser(4), body, map[string]string{IdempotencyKeyHeader: " abc "})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	assert.JSONEq(t, `{"order_id":77,"total":"21.48","status":"pending"}`, resp.Body.String())

	assert.Equal(t, int64(4), got.BuyerID)
	assert.Equal(t, "abc", got.IdempotencyKey)
	assert.Equal(t, "1 Main St", got.ShippingAddress)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(1), got.Items[0].ProductID)
	assert.Equal(t, 2, got.Items[0].Quantity)
	assert.True(t, got.Items[0].Price.Equal(decimal.RequireFromString("10.74")))
}

func TestOrderHandlerPlaceReplay(t *testing.T) {
	h := NewOrderHandler(testhelpers.OrderFacadeStub{
		PlaceFn: func(_ context.Context, in model.PlaceOrderInput) (*model.Order, bool, error) {
			return &model.Order{ID: 77, Total: in.Total, Status: model.OrderStatusShipped}, true, nil
		},
	}, testResponder())
	body := []byte(`{"total":5,"items":[{"product_id":1,"quantity":1,"price":5}]}`)
	resp := performRequest(t, http.MethodPost, "/", h.Place, asUser(4), body, map[string]string{IdempotencyKeyHeader: "k"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"status":"shipped"`)
}

func TestOrderHandlerPlaceFailures(t *testing.T) {
	called := false
	h := NewOrderHandler(testhelpers.OrderFacadeStub{
		PlaceFn: func(context.Context, model.PlaceOrderInput) (*model.Order, bool, error) {
			called = true
			return nil, false, nil
		},
	}, testResponder())

	resp := performRequest(t, http.MethodPost, "/", h.Place, asUser(4), []byte(`{"user_id":5,"total":5,"items":[]}`), nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp = performRequest(t, http.MethodPost, "/", h.Place, asUser(4), []byte(`not json`), nil)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.False(t, called)

	cases := []struct {
		err    error
		status int
		kind   string
	}{
		{&domainErrors.OutOfStockError{ProductID: 1, Available: 0, Requested: 2}, http.StatusConflict, "out_of_stock"},
		{&domainErrors.ProductNotFoundError{ProductID: 1}, http.StatusNotFound, "product_not_found"},
		{domainErrors.Invalid("items", "must contain at least one item"), http.StatusBadRequest, "validation"},
		{domainErrors.TransactionFailure(errors.New("serialization failure")), http.StatusServiceUnavailable, "transaction_failure"},
	}
	for _, tc := range cases {
		h := NewOrderHandler(testhelpers.OrderFacadeStub{
			PlaceFn: func(context.Context, model.PlaceOrderInput) (*model.Order, bool, error) { return nil, false, tc.err },
		}, testResponder())
		resp := performRequest(t, http.MethodPost, "/", h.Place, asUser(4), []byte(`{"user_id":4,"total":5,"items":[{"product_id":1,"quantity":2,"price":2.5}]}`), nil)
		assert.Equal(t, tc.status, resp.Code)
		assert.Equal(t, tc.kind, decodeError(t, resp).Error)
	}
}

func TestOrderHandlerList(t *testing.T) {
	h := NewOrderHandler(testhelpers.OrderFacadeStub{}, testResponder())
	resp := performRequest(t, http.MethodGet, "/", h.List, asUser(1), nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var out []dto.OrderSummaryResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	require.Len(t, out, 1)
	assert.Equal(t, "9.00", out[0].Total)
	assert.Equal(t, 1, out[0].ItemCount)
}

func TestOrderHandlerGet(t *testing.T) {
	h := NewOrderHandler(testhelpers.OrderFacadeStub{}, testResponder())
	resp := performRequest(t, http.MethodGet, "/api/orders/:id", h.Get, asUser(1), nil, map[string]string{":path": "/api/orders/3"})
	require.Equal(t, http.StatusOK, resp.Code)

	var out dto.OrderResponse
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &out))
	assert.Equal(t, int64(3), out.ID)
	require.Len(t, out.Items, 1)
	assert.Equal(t, "4.50", out.Items[0].Price)
	assert.Equal(t, "Tea", out.Items[0].ProductName)

	h = NewOrderHandler(testhelpers.OrderFacadeStub{
		GetFn: func(context.Context, int64) (*model.Order, error) { return nil, domainErrors.ErrNotFound },
	}, testResponder())
	resp = performRequest(t, http.MethodGet, "/api/orders/:id", h.Get, asUser(1), nil, map[string]string{":path": "/api/orders/3"})
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestOrderHandlerUpdateStatus(t *testing.T) {
	var gotStatus model.OrderStatus
	h := NewOrderHandler(testhelpers.OrderFacadeStub{
		StatusFn: func(_ context.Context, _ int64, status model.OrderStatus) error {
			gotStatus = status
			if !status.Valid() {
				return domainErrors.Invalid("status", "must be one of pending, shipped, delivered")
			}
			return nil
		},
	}, testResponder())

	resp := performRequest(t, http.MethodPut, "/api/orders/:id/status", h.UpdateStatus, asUser(1), []byte(`{"status":"shipped"}`), map[string]string{":path": "/api/orders/3/status"})
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, model.OrderStatusShipped, gotStatus)
	assert.JSONEq(t, `{"order_id":3,"status":"shipped"}`, resp.Body.String())

	for _, body := range []string{`{"status":"lost"}`, `{"status":"SHIPPED"}`, `{"status":"Shipped"}`, `{"status":" shipped "}`} {
		resp = performRequest(t, http.MethodPut, "/api/orders/:id/status", h.UpdateStatus, asUser(1), []byte(body), map[string]string{":path": "/api/orders/3/status"})
		require.Equal(t, http.StatusBadRequest, resp.Code, body)
		assert.Equal(t, "status", decodeError(t, resp).Field, body)
	}
}

func multipartBody(t *testing.T, field, name, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if field != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+name+`"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestImageHandlerUpload(t *testing.T) {
	var got model.ImageUpload
	h := NewImageHandler(testhelpers.ImageFacadeStub{
		UploadFn: func(_ context.Context, in model.ImageUpload) (*model.Image, error) {
			got = in
			return &model.Image{Name: "x_" + in.FileName, URL: "https://blob/x_" + in.FileName, Size: int64(len(in.Data))}, nil
		},
	}, testResponder())

	body, ct := multipartBody(t, "file", "tea.png", "image/png", []byte("pngdata"))
	resp := performRequest(t, http.MethodPost, "/", h.Upload, asUser(1), body.Bytes(), map[string]string{"Content-Type": ct})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	assert.Equal(t, "tea.png", got.FileName)
	assert.Equal(t, "image/png", got.ContentType)
	assert.Equal(t, []byte("pngdata"), got.Data)
	assert.JSONEq(t, `{"file_name":"x_tea.png","blob_url":"https://blob/x_tea.png","size":7}`, resp.Body.String())
}

func TestImageHandlerUploadFailures(t *testing.T) {
	h := NewImageHandler(testhelpers.ImageFacadeStub{}, testResponder())
	body, ct := multipartBody(t, "", "", "", nil)
	resp := performRequest(t, http.MethodPost, "/", h.Upload, asUser(1), body.Bytes(), map[string]string{"Content-Type": ct})
	require.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "file", decodeError(t, resp).Field)

	h = NewImageHandler(testhelpers.ImageFacadeStub{Max: 16}, testResponder())
	body, ct = multipartBody(t, "file", "big.png", "image/png", bytes.Repeat([]byte("a"), 128<<10))
	resp = performRequest(t, http.MethodPost, "/", h.Upload, asUser(1), body.Bytes(), map[string]string{"Content-Type": ct})
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	h = NewImageHandler(testhelpers.ImageFacadeStub{
		UploadFn: func(context.Context, model.ImageUpload) (*model.Image, error) {
			return nil, domainErrors.ErrUnavailable
		},
	}, testResponder())
	body, ct = multipartBody(t, "file", "tea.png", "image/png", []byte("pngdata"))
	resp = performRequest(t, http.MethodPost, "/", h.Upload, asUser(1), body.Bytes(), map[string]string{"Content-Type": ct})
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestHealthHandler(t *testing.T) {
	h := NewHealthHandler(testhelpers.HealthFacadeStub{}, testResponder())
	resp := performRequest(t, http.MethodGet, "/health", h.Check, nil, nil, nil)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok","database":"connected"}`, resp.Body.String())

	h = NewHealthHandler(testhelpers.HealthFacadeStub{Err: errors.New("refused")}, testResponder())
	resp = performRequest(t, http.MethodGet, "/health", h.Check, nil, nil, nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.Code)
	assert.JSONEq(t, `{"status":"unavailable","database":"disconnected"}`, resp.Body.String())
}
