package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tastebuddiez/internal/discovery"
	"github.com/hitoshi/tastebuddiez/internal/listing"
	"github.com/hitoshi/tastebuddiez/internal/middleware"
	"github.com/hitoshi/tastebuddiez/internal/model"
)

// --- モック定義 ---

// mockDiscoveryService はDiscoveryServiceInterfaceのモック実装。
type mockDiscoveryService struct {
	listAvailableFn func(ctx context.Context, f discovery.Filters) ([]mealResponse, error)
	getByIDFn       func(ctx context.Context, id string) (*mealResponse, error)
	recommendFn     func(ctx context.Context, callerID string, f discovery.Filters) ([]mealResponse, error)
}

func (m *mockDiscoveryService) ListAvailable(ctx context.Context, f discovery.Filters) ([]mealResponse, error) {
	if m.listAvailableFn != nil {
		return m.listAvailableFn(ctx, f)
	}
	return []mealResponse{}, nil
}

func (m *mockDiscoveryService) GetByID(ctx context.Context, id string) (*mealResponse, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return &mealResponse{ID: id}, nil
}

func (m *mockDiscoveryService) Recommend(ctx context.Context, callerID string, f discovery.Filters) ([]mealResponse, error) {
	if m.recommendFn != nil {
		return m.recommendFn(ctx, callerID, f)
	}
	return []mealResponse{}, nil
}

// mockListingService はListingServiceInterfaceのモック実装。
type mockListingService struct {
	createFn   func(ctx context.Context, sellerID string, req listing.CreateRequest) (*mealResponse, error)
	listMineFn func(ctx context.Context, userID string) ([]mealResponse, error)
}

func (m *mockListingService) Create(ctx context.Context, sellerID string, req listing.CreateRequest) (*mealResponse, error) {
	if m.createFn != nil {
		return m.createFn(ctx, sellerID, req)
	}
	return &mealResponse{ID: "new-meal", SellerID: sellerID, Title: req.Title}, nil
}

func (m *mockListingService) ListMine(ctx context.Context, userID string) ([]mealResponse, error) {
	if m.listMineFn != nil {
		return m.listMineFn(ctx, userID)
	}
	return []mealResponse{}, nil
}

// --- テストヘルパー ---

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMealHandler(d DiscoveryServiceInterface, l ListingServiceInterface) *MealHandler {
	return NewMealHandler(d, l, MealHandlerConfig{DefaultLimit: 20}, discardLogger())
}

// withUserID はテスト用にリクエストコンテキストにユーザーIDを注入するヘルパー。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// withChiURLParam はテスト用にchiのURLパラメータを注入するヘルパー。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// parseAPIErrorResponse はレスポンスボディからAPIErrorレスポンスをパースするヘルパー。
func parseAPIErrorResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]string {
	t.Helper()
	var result map[string]string
	if err := json.NewDecoder(w.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return result
}

// --- GET /api/meals ---

func TestMealHandler_ListMeals_PassesParsedFilters(t *testing.T) {
	var got discovery.Filters
	svc := &mockDiscoveryService{
		listAvailableFn: func(ctx context.Context, f discovery.Filters) ([]mealResponse, error) {
			got = f
			return []mealResponse{{ID: "m-1", SellerName: "Alice"}}, nil
		},
	}
	h := newTestMealHandler(svc, &mockListingService{})

	req := httptest.NewRequest(http.MethodGet,
		"/api/meals?cuisine_type=Thai&max_price=15.5&available_for_sale=true&min_rating=4"+
			"&dietary_restriction=vegan&dietary_restriction=nut-free,gluten-free&exclude_allergens=Peanut&skip=10&limit=5", nil)
	w := httptest.NewRecorder()

	h.ListMeals(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.CuisineType != "Thai" {
		t.Errorf("CuisineType = %q, want Thai", got.CuisineType)
	}
	if got.MaxPrice == nil || *got.MaxPrice != 15.5 {
		t.Errorf("MaxPrice = %v, want 15.5", got.MaxPrice)
	}
	if got.AvailableForSale == nil || !*got.AvailableForSale {
		t.Errorf("AvailableForSale = %v, want true", got.AvailableForSale)
	}
	if got.AvailableForSwap != nil {
		t.Errorf("AvailableForSwap = %v, want nil", *got.AvailableForSwap)
	}
	if got.MinRating == nil || *got.MinRating != 4 {
		t.Errorf("MinRating = %v, want 4", got.MinRating)
	}
	if len(got.DietaryRestrictions) != 3 || got.DietaryRestrictions[2] != "gluten-free" {
		t.Errorf("DietaryRestrictions = %v", got.DietaryRestrictions)
	}
	if len(got.ExcludeAllergens) != 1 || got.ExcludeAllergens[0] != "Peanut" {
		t.Errorf("ExcludeAllergens = %v", got.ExcludeAllergens)
	}
	if got.Skip != 10 || got.Limit != 5 {
		t.Errorf("Skip/Limit = %d/%d, want 10/5", got.Skip, got.Limit)
	}

	var body mealListResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(body.Meals) != 1 || body.Meals[0].SellerName != "Alice" {
		t.Errorf("meals = %+v", body.Meals)
	}
	if body.Skip != 10 || body.Limit != 5 {
		t.Errorf("skip/limit = %d/%d, want 10/5", body.Skip, body.Limit)
	}
}

func TestMealHandler_ListMeals_DefaultLimit(t *testing.T) {
	var got discovery.Filters
	svc := &mockDiscoveryService{
		listAvailableFn: func(ctx context.Context, f discovery.Filters) ([]mealResponse, error) {
			got = f
			return []mealResponse{}, nil
		},
	}
	h := newTestMealHandler(svc, &mockListingService{})

	w := httptest.NewRecorder()
	h.ListMeals(w, httptest.NewRequest(http.MethodGet, "/api/meals", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if got.Limit != 20 || got.Skip != 0 {
		t.Errorf("Skip/Limit = %d/%d, want 0/20", got.Skip, got.Limit)
	}

	// 結果が空でもmealsはnullではなく空配列
	var raw map[string]json.RawMessage
	if err := json.NewDecoder(w.Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if string(raw["meals"]) != "[]" {
		t.Errorf("meals = %s, want []", raw["meals"])
	}
}

func TestMealHandler_ListMeals_UnparsableParams(t *testing.T) {
	svc := &mockDiscoveryService{
		listAvailableFn: func(ctx context.Context, f discovery.Filters) ([]mealResponse, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	h := newTestMealHandler(svc, &mockListingService{})

	for _, query := range []string{
		"max_price=cheap",
		"max_price=NaN",
		"min_rating=five",
		"available_for_sale=maybe",
		"available_for_swap=2",
		"skip=1.5",
		"limit=ten",
	} {
		t.Run(query, func(t *testing.T) {
			w := httptest.NewRecorder()
			h.ListMeals(w, httptest.NewRequest(http.MethodGet, "/api/meals?"+query, nil))

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if body := parseAPIErrorResponse(t, w); body["code"] != model.ErrCodeValidation {
				t.Errorf("code = %q, want %q", body["code"], model.ErrCodeValidation)
			}
		})
	}
}

func TestMealHandler_ListMeals_ServiceErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"入力エラー", model.NewValidationError("limit must be greater than 0"), http.StatusBadRequest, model.ErrCodeValidation},
		{"ストア障害", errors.New("dial tcp: connection refused"), http.StatusServiceUnavailable, model.ErrCodeUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockDiscoveryService{
				listAvailableFn: func(ctx context.Context, f discovery.Filters) ([]mealResponse, error) {
					return nil, tt.err
				},
			}
			h := newTestMealHandler(svc, &mockListingService{})

			w := httptest.NewRecorder()
			h.ListMeals(w, httptest.NewRequest(http.MethodGet, "/api/meals?limit=0", nil))

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			body := parseAPIErrorResponse(t, w)
			if body["code"] != tt.wantCode {
				t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
			}
			// 内部エラーの詳細はレスポンスに含めない
			if tt.wantStatus == http.StatusServiceUnavailable && bytes.Contains([]byte(body["message"]), []byte("dial tcp")) {
				t.Errorf("message leaks internal error: %q", body["message"])
			}
		})
	}
}

// --- GET /api/meals/{id} ---

func TestMealHandler_GetMeal(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"成功", nil, http.StatusOK, ""},
		{"不正なID", model.NewInvalidMealIDError("abc"), http.StatusBadRequest, model.ErrCodeInvalidMealID},
		{"出品なし", model.NewMealNotFoundError("abc"), http.StatusNotFound, model.ErrCodeMealNotFound},
		{"出品者なし", model.NewSellerNotFoundError("s-1"), http.StatusNotFound, model.ErrCodeSellerNotFound},
		{"ストア障害", errors.New("timeout"), http.StatusServiceUnavailable, model.ErrCodeUpstreamUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			svc := &mockDiscoveryService{
				getByIDFn: func(ctx context.Context, id string) (*mealResponse, error) {
					gotID = id
					if tt.err != nil {
						return nil, tt.err
					}
					return &mealResponse{ID: id, Views: 3}, nil
				},
			}
			h := newTestMealHandler(svc, &mockListingService{})

			req := withChiURLParam(httptest.NewRequest(http.MethodGet, "/api/meals/abc", nil), "id", "abc")
			w := httptest.NewRecorder()

			h.GetMeal(w, req)

			if gotID != "abc" {
				t.Errorf("service got id %q, want abc", gotID)
			}
			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if body := parseAPIErrorResponse(t, w); body["code"] != tt.wantCode {
					t.Errorf("code = %q, want %q", body["code"], tt.wantCode)
				}
				return
			}
			var body mealResponse
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode: %v", err)
			}
			if body.Views != 3 {
				t.Errorf("views = %d, want 3", body.Views)
			}
		})
	}
}

// --- GET /api/meals/my/recommendations ---

func TestMealHandler_Recommend_UsesCallerID(t *testing.T) {
	var gotCaller string
	var gotFilters discovery.Filters
	svc := &mockDiscoveryService{
		recommendFn: func(ctx context.Context, callerID string, f discovery.Filters) ([]mealResponse, error) {
			gotCaller, gotFilters = callerID, f
			return []mealResponse{{ID: "m-1"}}, nil
		},
	}
	h := newTestMealHandler(svc, &mockListingService{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/meals/my/recommendations?meal_type=lunch", nil), "user-123")
	w := httptest.NewRecorder()

	h.Recommend(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotCaller != "user-123" {
		t.Errorf("callerID = %q, want user-123", gotCaller)
	}
	if gotFilters.MealType != "lunch" || gotFilters.Limit != 20 {
		t.Errorf("filters = %+v", gotFilters)
	}
}

func TestMealHandler_Recommend_Unauthenticated(t *testing.T) {
	h := newTestMealHandler(&mockDiscoveryService{}, &mockListingService{})

	w := httptest.NewRecorder()
	h.Recommend(w, httptest.NewRequest(http.MethodGet, "/api/meals/my/recommendations", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestMealHandler_Recommend_UserNotFound(t *testing.T) {
	svc := &mockDiscoveryService{
		recommendFn: func(ctx context.Context, callerID string, f discovery.Filters) ([]mealResponse, error) {
			return nil, model.NewUserNotFoundError()
		},
	}
	h := newTestMealHandler(svc, &mockListingService{})

	w := httptest.NewRecorder()
	h.Recommend(w, withUserID(httptest.NewRequest(http.MethodGet, "/api/meals/my/recommendations", nil), "ghost"))

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

// --- GET /api/meals/my/listings ---

func TestMealHandler_ListMyMeals(t *testing.T) {
	var gotUser string
	svc := &mockListingService{
		listMineFn: func(ctx context.Context, userID string) ([]mealResponse, error) {
			gotUser = userID
			return []mealResponse{{ID: "m-1", Status: "sold"}}, nil
		},
	}
	h := newTestMealHandler(&mockDiscoveryService{}, svc)

	w := httptest.NewRecorder()
	h.ListMyMeals(w, withUserID(httptest.NewRequest(http.MethodGet, "/api/meals/my/listings", nil), "seller-1"))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUser != "seller-1" {
		t.Errorf("userID = %q, want seller-1", gotUser)
	}
	var body mealListResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if len(body.Meals) != 1 || body.Meals[0].Status != "sold" {
		t.Errorf("meals = %+v", body.Meals)
	}
	if body.Limit != listing.MyListingsLimit {
		t.Errorf("limit = %d, want %d", body.Limit, listing.MyListingsLimit)
	}
}

// --- POST /api/meals ---

func TestMealHandler_CreateMeal_Success(t *testing.T) {
	var gotSeller string
	var gotReq listing.CreateRequest
	svc := &mockListingService{
		createFn: func(ctx context.Context, sellerID string, req listing.CreateRequest) (*mealResponse, error) {
			gotSeller, gotReq = sellerID, req
			return &mealResponse{ID: "new-meal", SellerID: sellerID, Title: req.Title, Status: "available"}, nil
		},
	}
	h := newTestMealHandler(&mockDiscoveryService{}, svc)

	body := `{"title":"Pad Thai","description":"noodles","cuisine_type":"Thai","meal_type":"dinner",
		"available_for_sale":true,"sale_price":12.5,"allergen_contains":["peanut"],
		"preparation_date":"2024-05-01T12:00:00Z","expires_date":"2024-05-03T12:00:00Z"}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/meals", bytes.NewBufferString(body)), "seller-1")
	w := httptest.NewRecorder()

	h.CreateMeal(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d; body=%s", w.Code, http.StatusCreated, w.Body.String())
	}
	if gotSeller != "seller-1" {
		t.Errorf("sellerID = %q, want seller-1", gotSeller)
	}
	if gotReq.SalePrice == nil || *gotReq.SalePrice != 12.5 || !gotReq.AvailableForSale {
		t.Errorf("sale fields = %v/%v", gotReq.AvailableForSale, gotReq.SalePrice)
	}
	if len(gotReq.AllergenContains) != 1 || gotReq.AllergenContains[0] != "peanut" {
		t.Errorf("AllergenContains = %v", gotReq.AllergenContains)
	}
	if gotReq.PreparationDate.IsZero() || gotReq.ExpiresDate.IsZero() {
		t.Error("dates should be parsed")
	}
}

func TestMealHandler_CreateMeal_InvalidBody(t *testing.T) {
	svc := &mockListingService{
		createFn: func(ctx context.Context, sellerID string, req listing.CreateRequest) (*mealResponse, error) {
			t.Fatal("service should not be called")
			return nil, nil
		},
	}
	h := newTestMealHandler(&mockDiscoveryService{}, svc)

	for _, body := range []string{
		`not json`,
		`{"title": 123}`,
		`{"title":"x","unknown_field":true}`,
	} {
		t.Run(body, func(t *testing.T) {
			req := withUserID(httptest.NewRequest(http.MethodPost, "/api/meals", bytes.NewBufferString(body)), "seller-1")
			w := httptest.NewRecorder()

			h.CreateMeal(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
			}
			if resp := parseAPIErrorResponse(t, w); resp["code"] != model.ErrCodeValidation {
				t.Errorf("code = %q, want %q", resp["code"], model.ErrCodeValidation)
			}
		})
	}
}

func TestMealHandler_CreateMeal_ServiceValidationError(t *testing.T) {
	svc := &mockListingService{
		createFn: func(ctx context.Context, sellerID string, req listing.CreateRequest) (*mealResponse, error) {
			return nil, model.NewValidationError("sale_price is required")
		},
	}
	h := newTestMealHandler(&mockDiscoveryService{}, svc)

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/meals", bytes.NewBufferString(`{"title":"x"}`)), "seller-1")
	w := httptest.NewRecorder()

	h.CreateMeal(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestMealHandler_CreateMeal_Unauthenticated(t *testing.T) {
	h := newTestMealHandler(&mockDiscoveryService{}, &mockListingService{})

	w := httptest.NewRecorder()
	h.CreateMeal(w, httptest.NewRequest(http.MethodPost, "/api/meals", bytes.NewBufferString(`{}`)))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// --- エラーマッピング ---

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *model.APIError
		want int
	}{
		{model.NewInvalidMealIDError("x"), http.StatusBadRequest},
		{model.NewValidationError("x"), http.StatusBadRequest},
		{model.NewMealNotFoundError("x"), http.StatusNotFound},
		{model.NewSellerNotFoundError("x"), http.StatusNotFound},
		{model.NewUserNotFoundError(), http.StatusNotFound},
		{model.NewUnauthorizedError(), http.StatusUnauthorized},
		{model.NewCSRFInvalidError(), http.StatusForbidden},
		{model.NewRateLimitedError(), http.StatusTooManyRequests},
		{model.NewUpstreamUnavailableError(), http.StatusServiceUnavailable},
		{model.NewInternalError(), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(tt.err); got != tt.want {
				t.Errorf("mapAPIErrorToHTTPStatus(%s) = %d, want %d", tt.err.Code, got, tt.want)
			}
		})
	}
}

// TestWriteJSON_EscapesMarkupInPlainText は保存時にエスケープしないプレーンテキストが
// レスポンスではHTMLとして解釈されない形で出力されることを検証する。
func TestWriteJSON_EscapesMarkupInPlainText(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]string{"title": "<b>Mac & Cheese</b>"})

	body := rec.Body.String()
	if bytes.Contains(rec.Body.Bytes(), []byte("<b>")) {
		t.Errorf("body should not contain raw markup: %s", body)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte(`\u003cb\u003eMac \u0026 Cheese`)) {
		t.Errorf("body = %s, want HTML-escaped JSON string", body)
	}
}
