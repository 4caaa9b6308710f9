package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/bid-sniper/internal/model"
	"github.com/sells-group/bid-sniper/internal/pipeline"
	"github.com/sells-group/bid-sniper/internal/pricing"
	"github.com/sells-group/bid-sniper/internal/store"
	"github.com/sells-group/bid-sniper/internal/voice"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) CreateBid(ctx context.Context, req model.BidRequest) (*model.BidRecord, error) {
	args := m.Called(ctx, req)
	bid, _ := args.Get(0).(*model.BidRecord)
	return bid, args.Error(1)
}

func (m *mockService) GetBid(ctx context.Context, id string) (*model.BidRecord, error) {
	args := m.Called(ctx, id)
	bid, _ := args.Get(0).(*model.BidRecord)
	return bid, args.Error(1)
}

func (m *mockService) Coach(ctx context.Context, id, message string) (string, error) {
	args := m.Called(ctx, id, message)
	return args.String(0), args.Error(1)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)
	return rr
}

func decodeMap(t *testing.T, rr *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var out map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	return out
}

func TestRouter_Health(t *testing.T) {
	rr := do(t, newRouter(&mockService{}, nil, nil), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")
	assert.Equal(t, "ok", decodeMap(t, rr)["status"])
}

func TestRouter_CreateBid(t *testing.T) {
	svc := &mockService{}
	svc.On("CreateBid", mock.Anything, mock.MatchedBy(func(req model.BidRequest) bool {
		return req.Address == "1 High St" && req.JobType == model.JobRoofRepair && req.DesiredMargin == 0.2
	})).Return(&model.BidRecord{
		ID:      "bid-1",
		Pricing: &model.PricingOutput{PriceBands: model.PriceBands{Balanced: 1625}},
	}, nil)

	body := `{"address":"1 High St","region":"Leeds","job_type":"roof_repair","job_description":"slipped tiles","desired_margin_percent":0.2}`
	rr := do(t, newRouter(svc, nil, nil), http.MethodPost, "/bids", body)

	require.Equal(t, http.StatusOK, rr.Code)
	var bid model.BidRecord
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &bid))
	assert.Equal(t, "bid-1", bid.ID)
	assert.Equal(t, 1625.0, bid.Pricing.PriceBands.Balanced)
	svc.AssertExpectations(t)
}

func TestRouter_CreateBid_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid margin", eris.Wrap(pricing.ErrInvalidMargin, "desired margin 1.2"), http.StatusBadRequest},
		{"invalid request", eris.Wrap(pipeline.ErrInvalidRequest, "job_type"), http.StatusBadRequest},
		{"no pricing inputs", eris.Wrap(pricing.ErrNoPricingInputs, "pipeline: price bid"), http.StatusUnprocessableEntity},
		{"store failure", errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			svc.On("CreateBid", mock.Anything, mock.Anything).Return(nil, tt.err)

			rr := do(t, newRouter(svc, nil, nil), http.MethodPost, "/bids", `{"address":"x","job_type":"other"}`)
			assert.Equal(t, tt.status, rr.Code)
			assert.NotEmpty(t, decodeMap(t, rr)["error"])
		})
	}
}

func TestRouter_CreateBid_InternalErrorHidesDetail(t *testing.T) {
	svc := &mockService{}
	svc.On("CreateBid", mock.Anything, mock.Anything).Return(nil, errors.New("secret dsn"))

	rr := do(t, newRouter(svc, nil, nil), http.MethodPost, "/bids", `{"address":"x"}`)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "secret dsn")
}

func TestRouter_CreateBid_BadBody(t *testing.T) {
	svc := &mockService{}
	rr := do(t, newRouter(svc, nil, nil), http.MethodPost, "/bids", `{not json`)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid request body", decodeMap(t, rr)["error"])
	svc.AssertNotCalled(t, "CreateBid", mock.Anything, mock.Anything)
}

func TestRouter_GetBid(t *testing.T) {
	svc := &mockService{}
	svc.On("GetBid", mock.Anything, "bid-1").Return(&model.BidRecord{ID: "bid-1"}, nil)
	svc.On("GetBid", mock.Anything, "missing").Return(nil, eris.Wrap(store.ErrBidNotFound, "store: get missing"))
	h := newRouter(svc, nil, nil)

	rr := do(t, h, http.MethodGet, "/bids/bid-1", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"bid_id":"bid-1"`)

	rr = do(t, h, http.MethodGet, "/bids/missing", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Bid not found", decodeMap(t, rr)["error"])
}

func TestRouter_VoiceToken(t *testing.T) {
	issuer, err := voice.NewIssuer("key", "secret", "wss://voice.example.com", 0)
	require.NoError(t, err)
	h := newRouter(&mockService{}, issuer, nil)

	rr := do(t, h, http.MethodPost, "/voice/token", `{"room_name":"bid-1","identity":"sam"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	out := decodeMap(t, rr)
	assert.Equal(t, "wss://voice.example.com", out["url"])

	claims, err := issuer.Parse(out["token"])
	require.NoError(t, err)
	assert.Equal(t, "bid-1", claims.Video.Room)
	assert.Equal(t, "sam", claims.Subject)

	rr = do(t, h, http.MethodPost, "/voice/token", `{"room_name":"bid-1"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRouter_VoiceToken_NotConfigured(t *testing.T) {
	rr := do(t, newRouter(&mockService{}, nil, nil), http.MethodPost, "/voice/token", `{"room_name":"r","identity":"i"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestRouter_VoiceCoach(t *testing.T) {
	svc := &mockService{}
	svc.On("Coach", mock.Anything, "bid-1", "Too expensive").Return("Hold at the balanced price.", nil)
	svc.On("Coach", mock.Anything, "missing", "hi").Return("", store.ErrBidNotFound)
	h := newRouter(svc, nil, nil)

	rr := do(t, h, http.MethodPost, "/voice/coach", `{"bid_id":"bid-1","message":"Too expensive"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Hold at the balanced price.", decodeMap(t, rr)["reply"])

	rr = do(t, h, http.MethodPost, "/voice/coach", `{"bid_id":"missing","message":"hi"}`)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "Bid context not found", decodeMap(t, rr)["error"])
}

func TestRouter_CORS(t *testing.T) {
	h := newRouter(&mockService{}, nil, []string{"https://app.example.com"})

	r := httptest.NewRequest(http.MethodOptions, "/bids", nil)
	r.Header.Set("Origin", "https://app.example.com")
	r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, r)

	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_BodyTooLarge(t *testing.T) {
	svc := &mockService{}
	big := `{"address":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	r := httptest.NewRequest(http.MethodPost, "/bids", bytes.NewReader([]byte(big)))
	rr := httptest.NewRecorder()
	newRouter(svc, nil, nil).ServeHTTP(rr, r)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	svc.AssertNotCalled(t, "CreateBid", mock.Anything, mock.Anything)
}
