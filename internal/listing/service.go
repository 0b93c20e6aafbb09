// Package listing は出品者自身による出品の作成と、自分の出品一覧の取得を提供する。
package listing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/tastebuddiez/internal/metrics"
	"github.com/hitoshi/tastebuddiez/internal/model"
	"github.com/hitoshi/tastebuddiez/internal/repository"
	"github.com/hitoshi/tastebuddiez/internal/security"
	"github.com/hitoshi/tastebuddiez/internal/validation"
)

// MyListingsLimit は自分の出品一覧で返す最大件数。
const MyListingsLimit = 100

// CreateRequest は出品作成リクエスト。
type CreateRequest struct {
	Title              string    `json:"title" validate:"required,notblank,max=200"`
	Description        string    `json:"description" validate:"required,notblank,max=5000"`
	CuisineType        string    `json:"cuisine_type" validate:"required,notblank,max=100"`
	MealType           string    `json:"meal_type" validate:"required,notblank,max=100"`
	Ingredients        string    `json:"ingredients" validate:"max=5000"`
	Photos             []string  `json:"photos" validate:"max=10,dive,max=2048"`
	AllergenContains   []string  `json:"allergen_contains" validate:"max=30,dive,max=100"`
	AllergenMayContain []string  `json:"allergen_may_contain" validate:"max=30,dive,max=100"`
	NutritionInfo      string    `json:"nutrition_info" validate:"max=2000"`
	PortionSize        string    `json:"portion_size" validate:"max=100"`
	AvailableForSale   bool      `json:"available_for_sale"`
	SalePrice          *float64  `json:"sale_price" validate:"required_if=AvailableForSale true,omitempty,gt=0"`
	AvailableForSwap   bool      `json:"available_for_swap"`
	SwapPreferences    []string  `json:"swap_preferences" validate:"max=20,dive,max=100"`
	PreparationDate    time.Time `json:"preparation_date" validate:"required"`
	ExpiresDate        time.Time `json:"expires_date" validate:"required"`
	PickupInstructions string    `json:"pickup_instructions" validate:"max=1000"`
}

// Service は出品の書き込み側のユースケースを提供する。
type Service struct {
	store     repository.CatalogStore
	users     repository.UserDirectory
	sanitizer security.ListingSanitizer
	metrics   metrics.MetricsCollector
	logger    *slog.Logger

	now   func() time.Time
	newID func() string
}

// NewService はServiceを生成する。
func NewService(
	store repository.CatalogStore,
	users repository.UserDirectory,
	sanitizer security.ListingSanitizer,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		store:     store,
		users:     users,
		sanitizer: sanitizer,
		metrics:   collector,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Create は出品を作成し、出品者情報を結合して返す。
//
// 販売する出品には0より大きい販売価格が必須。自由記述のテキストは保存前にサニタイズし、
// サニタイズ後にタイトルが空になる場合は入力エラーとする。
// 作成直後の状態はavailableで、評価・レビュー数・閲覧数は0から始まる。
func (s *Service) Create(ctx context.Context, sellerID string, req CreateRequest) (*model.PresentedMeal, error) {
	if verr := validation.ValidateStruct(&req); verr != nil {
		return nil, verr.ToAPIError()
	}
	if !req.ExpiresDate.After(req.PreparationDate) {
		return nil, model.NewValidationError("expires_date must be after preparation_date")
	}

	seller, err := s.users.GetSeller(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, model.NewUserNotFoundError()
	}

	meal := s.buildMeal(sellerID, req)
	if meal.Title == "" {
		return nil, model.NewValidationError("title must not be blank")
	}

	if err := s.store.Create(ctx, meal); err != nil {
		return nil, err
	}
	s.metrics.RecordListingCreated()
	s.logger.Info("listing created",
		slog.String("meal_id", meal.ID),
		slog.String("seller_id", sellerID),
	)

	pm := model.NewPresentedMeal(meal, seller)
	return &pm, nil
}

// ListMine は呼び出しユーザー自身の出品を状態を問わず作成日時の新しい順に返す。
func (s *Service) ListMine(ctx context.Context, userID string) ([]model.PresentedMeal, error) {
	seller, err := s.users.GetSeller(ctx, userID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, model.NewUserNotFoundError()
	}

	meals, err := s.store.FindBySeller(ctx, userID, MyListingsLimit)
	if err != nil {
		return nil, err
	}

	presented := make([]model.PresentedMeal, 0, len(meals))
	for _, m := range meals {
		presented = append(presented, model.NewPresentedMeal(m, seller))
	}
	return presented, nil
}

func (s *Service) buildMeal(sellerID string, req CreateRequest) *model.Meal {
	now := s.now().UTC()
	return &model.Meal{
		ID:          s.newID(),
		SellerID:    sellerID,
		Title:       s.sanitizer.SanitizeText(req.Title),
		Description: s.sanitizer.SanitizeRichText(req.Description),
		CuisineType: s.sanitizer.SanitizeText(req.CuisineType),
		MealType:    s.sanitizer.SanitizeText(req.MealType),
		Ingredients: s.sanitizer.SanitizeText(req.Ingredients),
		Photos:      s.sanitizer.SanitizePhotoURLs(req.Photos),
		AllergenInfo: model.NewAllergenInfo(
			s.sanitizeAll(req.AllergenContains),
			s.sanitizeAll(req.AllergenMayContain),
		),
		NutritionInfo:      s.sanitizer.SanitizeText(req.NutritionInfo),
		PortionSize:        s.sanitizer.SanitizeText(req.PortionSize),
		AvailableForSale:   req.AvailableForSale,
		SalePrice:          req.SalePrice,
		AvailableForSwap:   req.AvailableForSwap,
		SwapPreferences:    s.sanitizeAll(req.SwapPreferences),
		Status:             model.MealStatusAvailable,
		PreparationDate:    req.PreparationDate,
		ExpiresDate:        req.ExpiresDate,
		PickupInstructions: s.sanitizer.SanitizeText(req.PickupInstructions),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// sanitizeAll は各要素をサニタイズし、空になった要素を取り除く。
func (s *Service) sanitizeAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = s.sanitizer.SanitizeText(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
