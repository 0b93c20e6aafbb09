// Package model はドメインモデルを定義する。
package model

import "time"

// MealStatus は出品の状態を表す。
// 状態遷移は出品者の更新処理のみが行い、検索エンジンは参照するだけである。
type MealStatus string

const (
	// MealStatusAvailable は受付中の出品。検索対象になるのはこの状態のみ。
	MealStatusAvailable MealStatus = "available"
	// MealStatusPending は取引調整中の出品。
	MealStatusPending MealStatus = "pending"
	// MealStatusSold は販売済みの出品。
	MealStatusSold MealStatus = "sold"
	// MealStatusSwapped は交換済みの出品。
	MealStatusSwapped MealStatus = "swapped"
	// MealStatusUnavailable は受付停止中の出品。
	MealStatusUnavailable MealStatus = "unavailable"
)

// Valid は定義済みの状態かどうかを返す。
func (s MealStatus) Valid() bool {
	switch s {
	case MealStatusAvailable, MealStatusPending, MealStatusSold, MealStatusSwapped, MealStatusUnavailable:
		return true
	}
	return false
}

// AllergenInfo は出品に含まれるアレルゲン情報を表す。
// 書き込み側と読み込み側でキー名がずれないよう、マップではなく構造体で保持する。
type AllergenInfo struct {
	Contains   []string // 確実に含まれるアレルゲン
	MayContain []string // 混入の可能性があるアレルゲン
}

// NewAllergenInfo はAllergenInfoを生成する。
// 空文字列を除去し、同一値の重複を取り除く（大文字小文字は区別する）。
func NewAllergenInfo(contains, mayContain []string) AllergenInfo {
	return AllergenInfo{
		Contains:   dedupe(contains),
		MayContain: dedupe(mayContain),
	}
}

// dedupe は出現順を保ったまま空文字列と重複を除去する。
func dedupe(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Meal はユーザーが出品した食事（出品）を表す。
type Meal struct {
	ID                 string
	SellerID           string
	Title              string
	Description        string
	CuisineType        string
	MealType           string
	Ingredients        string // 自由記述の材料テキスト
	Photos             []string
	AllergenInfo       AllergenInfo
	NutritionInfo      string
	PortionSize        string
	AvailableForSale   bool
	SalePrice          *float64 // 販売しない出品ではnil
	AvailableForSwap   bool
	SwapPreferences    []string
	Status             MealStatus
	PreparationDate    time.Time
	ExpiresDate        time.Time
	PickupInstructions string
	AverageRating      float64
	TotalReviews       int
	Views              int
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// SellerSummary は出品者の表示用サマリー。
// ユーザーディレクトリが所有する読み取り専用の射影。
type SellerSummary struct {
	ID            string
	Name          string
	AverageRating float64
}

// CallerPreferences は呼び出しユーザー自身の食の好み・制限を表す。
// 1リクエストの間は不変の入力として扱う。
type CallerPreferences struct {
	DietaryRestrictions []string
	Allergens           []string
	AvoidedIngredients  []string
	CuisinePreferences  []string
}

// PresentedMeal は出品と出品者情報を結合した表示用モデル。
type PresentedMeal struct {
	Meal
	SellerName   string
	SellerRating float64
}

// NewPresentedMeal は出品と出品者サマリーを結合する。
func NewPresentedMeal(m *Meal, seller *SellerSummary) PresentedMeal {
	return PresentedMeal{
		Meal:         *m,
		SellerName:   seller.Name,
		SellerRating: seller.AverageRating,
	}
}
