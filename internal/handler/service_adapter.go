package handler

import (
	"context"

	"github.com/hitoshi/tastebuddiez/internal/discovery"
	"github.com/hitoshi/tastebuddiez/internal/listing"
	"github.com/hitoshi/tastebuddiez/internal/model"
)

// DiscoveryServiceAdapter は discovery.Service を DiscoveryServiceInterface に適合させるアダプタ。
type DiscoveryServiceAdapter struct {
	svc *discovery.Service
}

// NewDiscoveryServiceAdapter はDiscoveryServiceAdapterを生成する。
func NewDiscoveryServiceAdapter(svc *discovery.Service) *DiscoveryServiceAdapter {
	return &DiscoveryServiceAdapter{svc: svc}
}

// ListAvailable は検索結果をhandlerレスポンス型で返す。
func (a *DiscoveryServiceAdapter) ListAvailable(ctx context.Context, f discovery.Filters) ([]mealResponse, error) {
	meals, err := a.svc.ListAvailable(ctx, f)
	if err != nil {
		return nil, err
	}
	return toMealResponses(meals), nil
}

// GetByID は出品をhandlerレスポンス型で返す。
func (a *DiscoveryServiceAdapter) GetByID(ctx context.Context, id string) (*mealResponse, error) {
	pm, err := a.svc.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toMealResponse(*pm)
	return &resp, nil
}

// Recommend は推薦結果をhandlerレスポンス型で返す。
func (a *DiscoveryServiceAdapter) Recommend(ctx context.Context, callerID string, f discovery.Filters) ([]mealResponse, error) {
	meals, err := a.svc.Recommend(ctx, callerID, f)
	if err != nil {
		return nil, err
	}
	return toMealResponses(meals), nil
}

// ListingServiceAdapter は listing.Service を ListingServiceInterface に適合させるアダプタ。
type ListingServiceAdapter struct {
	svc *listing.Service
}

// NewListingServiceAdapter はListingServiceAdapterを生成する。
func NewListingServiceAdapter(svc *listing.Service) *ListingServiceAdapter {
	return &ListingServiceAdapter{svc: svc}
}

// Create は作成した出品をhandlerレスポンス型で返す。
func (a *ListingServiceAdapter) Create(ctx context.Context, sellerID string, req listing.CreateRequest) (*mealResponse, error) {
	pm, err := a.svc.Create(ctx, sellerID, req)
	if err != nil {
		return nil, err
	}
	resp := toMealResponse(*pm)
	return &resp, nil
}

// ListMine は自分の出品一覧をhandlerレスポンス型で返す。
func (a *ListingServiceAdapter) ListMine(ctx context.Context, userID string) ([]mealResponse, error) {
	meals, err := a.svc.ListMine(ctx, userID)
	if err != nil {
		return nil, err
	}
	return toMealResponses(meals), nil
}

func toMealResponses(meals []model.PresentedMeal) []mealResponse {
	results := make([]mealResponse, len(meals))
	for i, pm := range meals {
		results[i] = toMealResponse(pm)
	}
	return results
}

// toMealResponse はドメインのPresentedMealをhandlerのレスポンス型に変換する。
// JSONでnullにならないよう、スライスは空でも非nilにする。
func toMealResponse(pm model.PresentedMeal) mealResponse {
	return mealResponse{
		ID:           pm.ID,
		SellerID:     pm.SellerID,
		SellerName:   pm.SellerName,
		SellerRating: pm.SellerRating,
		Title:        pm.Title,
		Description:  pm.Description,
		CuisineType:  pm.CuisineType,
		MealType:     pm.MealType,
		Ingredients:  pm.Ingredients,
		Photos:       nonNilStrings(pm.Photos),
		AllergenInfo: allergenInfoResponse{
			Contains:   nonNilStrings(pm.AllergenInfo.Contains),
			MayContain: nonNilStrings(pm.AllergenInfo.MayContain),
		},
		NutritionInfo:      pm.NutritionInfo,
		PortionSize:        pm.PortionSize,
		AvailableForSale:   pm.AvailableForSale,
		SalePrice:          pm.SalePrice,
		AvailableForSwap:   pm.AvailableForSwap,
		SwapPreferences:    nonNilStrings(pm.SwapPreferences),
		Status:             string(pm.Status),
		PreparationDate:    pm.PreparationDate,
		ExpiresDate:        pm.ExpiresDate,
		PickupInstructions: pm.PickupInstructions,
		AverageRating:      pm.AverageRating,
		TotalReviews:       pm.TotalReviews,
		Views:              pm.Views,
		CreatedAt:          pm.CreatedAt,
		UpdatedAt:          pm.UpdatedAt,
	}
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var (
	_ DiscoveryServiceInterface = (*DiscoveryServiceAdapter)(nil)
	_ ListingServiceInterface   = (*ListingServiceAdapter)(nil)
)
