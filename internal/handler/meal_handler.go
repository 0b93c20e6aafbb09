package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/tastebuddiez/internal/discovery"
	"github.com/hitoshi/tastebuddiez/internal/listing"
	"github.com/hitoshi/tastebuddiez/internal/middleware"
	"github.com/hitoshi/tastebuddiez/internal/model"
)

// maxCreateBodyBytes は出品作成リクエストボディの上限。
const maxCreateBodyBytes = 1 << 20

// DiscoveryServiceInterface は出品検索ハンドラーが必要とするサービスインターフェース。
type DiscoveryServiceInterface interface {
	// ListAvailable は条件に一致する受付中の出品を新しい順に返す。
	ListAvailable(ctx context.Context, f discovery.Filters) ([]mealResponse, error)
	// GetByID は出品を1件返し、閲覧数を加算する。
	GetByID(ctx context.Context, id string) (*mealResponse, error)
	// Recommend は呼び出しユーザー向けの推薦一覧を返す。
	Recommend(ctx context.Context, callerID string, f discovery.Filters) ([]mealResponse, error)
}

// ListingServiceInterface は出品者自身の操作に必要なサービスインターフェース。
type ListingServiceInterface interface {
	Create(ctx context.Context, sellerID string, req listing.CreateRequest) (*mealResponse, error)
	ListMine(ctx context.Context, userID string) ([]mealResponse, error)
}

// MealHandlerConfig はMealHandlerの設定。
type MealHandlerConfig struct {
	DefaultLimit int // limit省略時の取得件数
}

// MealHandler は出品関連のHTTPハンドラー。
type MealHandler struct {
	discovery DiscoveryServiceInterface
	listings  ListingServiceInterface
	config    MealHandlerConfig
	logger    *slog.Logger
}

// NewMealHandler はMealHandlerを生成する。
func NewMealHandler(discovery DiscoveryServiceInterface, listings ListingServiceInterface, config MealHandlerConfig, logger *slog.Logger) *MealHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if config.DefaultLimit <= 0 {
		config.DefaultLimit = 20
	}
	return &MealHandler{
		discovery: discovery,
		listings:  listings,
		config:    config,
		logger:    logger,
	}
}

// --- レスポンス型 ---

type allergenInfoResponse struct {
	Contains   []string `json:"contains"`
	MayContain []string `json:"may_contain"`
}

// mealResponse は出品と出品者情報を結合したレスポンス。
type mealResponse struct {
	ID                 string               `json:"id"`
	SellerID           string               `json:"seller_id"`
	SellerName         string               `json:"seller_name"`
	SellerRating       float64              `json:"seller_rating"`
	Title              string               `json:"title"`
	Description        string               `json:"description"`
	CuisineType        string               `json:"cuisine_type"`
	MealType           string               `json:"meal_type"`
	Ingredients        string               `json:"ingredients"`
	Photos             []string             `json:"photos"`
	AllergenInfo       allergenInfoResponse `json:"allergen_info"`
	NutritionInfo      string               `json:"nutrition_info"`
	PortionSize        string               `json:"portion_size"`
	AvailableForSale   bool                 `json:"available_for_sale"`
	SalePrice          *float64             `json:"sale_price"`
	AvailableForSwap   bool                 `json:"available_for_swap"`
	SwapPreferences    []string             `json:"swap_preferences"`
	Status             string               `json:"status"`
	PreparationDate    time.Time            `json:"preparation_date"`
	ExpiresDate        time.Time            `json:"expires_date"`
	PickupInstructions string               `json:"pickup_instructions"`
	AverageRating      float64              `json:"average_rating"`
	TotalReviews       int                  `json:"total_reviews"`
	Views              int                  `json:"views"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// mealListResponse は出品一覧のレスポンス。
// 食事制限による除外分は補充しないため、mealsはlimit件より少ないことがある。
type mealListResponse struct {
	Meals []mealResponse `json:"meals"`
	Skip  int            `json:"skip"`
	Limit int            `json:"limit"`
}

// ListMeals は受付中の出品を検索する。
// GET /api/meals
func (h *MealHandler) ListMeals(w http.ResponseWriter, r *http.Request) {
	filters, apiErr := parseFilters(r.URL.Query(), h.config.DefaultLimit)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	meals, err := h.discovery.ListAvailable(r.Context(), filters)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, mealListResponse{Meals: meals, Skip: filters.Skip, Limit: filters.Limit})
}

// GetMeal は出品を1件取得する。
// GET /api/meals/{id}
func (h *MealHandler) GetMeal(w http.ResponseWriter, r *http.Request) {
	meal, err := h.discovery.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, meal)
}

// Recommend はログインユーザー向けの推薦一覧を返す。
// GET /api/meals/my/recommendations
func (h *MealHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	filters, apiErr := parseFilters(r.URL.Query(), h.config.DefaultLimit)
	if apiErr != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	meals, err := h.discovery.Recommend(r.Context(), userID, filters)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, mealListResponse{Meals: meals, Skip: filters.Skip, Limit: filters.Limit})
}

// ListMyMeals はログインユーザー自身の出品を状態を問わず返す。
// GET /api/meals/my/listings
func (h *MealHandler) ListMyMeals(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	meals, err := h.listings.ListMine(r.Context(), userID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, mealListResponse{Meals: meals, Limit: listing.MyListingsLimit})
}

// CreateMeal は出品を作成する。
// POST /api/meals
func (h *MealHandler) CreateMeal(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req listing.CreateRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCreateBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("request body must be a valid JSON object"))
		return
	}

	meal, err := h.listings.Create(r.Context(), userID, req)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, meal)
}
