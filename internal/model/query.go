package model

import "strings"

// MealQuery はカタログストアに渡す構造化された検索条件（ストア側で評価される述語）。
// ここで表現できない条件（食事制限の部分一致判定など）はメモリ上の後段フィルタで扱う。
// nilのポインタフィールドは「条件なし」を表す。
type MealQuery struct {
	Status           MealStatus
	CuisineType      string
	MealType         string
	MaxPrice         *float64
	AvailableForSale *bool
	AvailableForSwap *bool
	MinRating        *float64

	// ExcludeAllergens はallergen_info.containsと完全一致（大文字小文字を区別）で比較する。
	ExcludeAllergens []string
	// ExcludeIngredients は1トークンごとに独立した「材料に含まない」条件としてANDで結合する。
	// 比較は大文字小文字を区別しない部分一致。
	ExcludeIngredients []string
	// ExcludeSellerID が空でない場合、その出品者の出品を除外する。
	ExcludeSellerID string
}

// Matches は出品が条件をすべて満たすかどうかを返す。
// ストア実装がSQLに変換する条件と同じ意味をメモリ上で評価する。
func (q MealQuery) Matches(m *Meal) bool {
	if q.Status != "" && m.Status != q.Status {
		return false
	}
	if q.CuisineType != "" && m.CuisineType != q.CuisineType {
		return false
	}
	if q.MealType != "" && m.MealType != q.MealType {
		return false
	}
	if q.MaxPrice != nil && m.SalePrice != nil && *m.SalePrice > *q.MaxPrice {
		return false
	}
	// 販売価格を持たない出品は価格上限だけでは除外しない（販売指定がある場合は下で除外される）
	if q.AvailableForSale != nil && m.AvailableForSale != *q.AvailableForSale {
		return false
	}
	if q.AvailableForSale != nil && *q.AvailableForSale && q.MaxPrice != nil && m.SalePrice == nil {
		return false
	}
	if q.AvailableForSwap != nil && m.AvailableForSwap != *q.AvailableForSwap {
		return false
	}
	if q.MinRating != nil && m.AverageRating < *q.MinRating {
		return false
	}
	for _, a := range q.ExcludeAllergens {
		for _, c := range m.AllergenInfo.Contains {
			if a == c {
				return false
			}
		}
	}
	ingredients := strings.ToLower(m.Ingredients)
	for _, tok := range q.ExcludeIngredients {
		if tok == "" {
			continue
		}
		if strings.Contains(ingredients, strings.ToLower(tok)) {
			return false
		}
	}
	if q.ExcludeSellerID != "" && m.SellerID == q.ExcludeSellerID {
		return false
	}
	return true
}
