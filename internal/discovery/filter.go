// Package discovery は出品の検索・推薦エンジンを提供する。
//
// 検索は2段階で処理する。リクエストの条件をカタログストアが評価する述語に変換し、
// ストアの結果に対して述語で表現できない食事制限の判定をメモリ上で適用する。
// 推薦ではさらに呼び出しユーザーの好みで条件を補い、好みの料理ジャンルを先頭に並べる。
package discovery

import (
	"fmt"

	"github.com/hitoshi/tastebuddiez/internal/model"
	"github.com/hitoshi/tastebuddiez/internal/validation"
)

// Filters はリクエストで指定される検索条件。
// nilのポインタフィールドと空のスライスは「条件なし」を表す。
type Filters struct {
	CuisineType         string   `json:"cuisine_type" validate:"max=100"`
	MealType            string   `json:"meal_type" validate:"max=100"`
	MaxPrice            *float64 `json:"max_price" validate:"omitempty,gte=0"`
	AvailableForSale    *bool    `json:"available_for_sale"`
	AvailableForSwap    *bool    `json:"available_for_swap"`
	MinRating           *float64 `json:"min_rating" validate:"omitempty,gte=0,lte=5"`
	DietaryRestrictions []string `json:"dietary_restriction" validate:"omitempty,dive,max=50"`
	ExcludeAllergens    []string `json:"exclude_allergens" validate:"omitempty,dive,max=100"`
	ExcludeIngredients  []string `json:"exclude_ingredients" validate:"omitempty,dive,max=100"`
	Skip                int      `json:"skip" validate:"gte=0"`
	Limit               int      `json:"limit" validate:"gt=0"`
}

// Validate は検索条件の値域を検証する。maxLimitが正の場合はlimitの上限としても検証する。
func (f Filters) Validate(maxLimit int) error {
	if verr := validation.ValidateStruct(&f); verr != nil {
		return verr.ToAPIError()
	}
	if maxLimit > 0 && f.Limit > maxLimit {
		return model.NewValidationError(fmt.Sprintf("limit must be less than or equal to %d", maxLimit))
	}
	return nil
}
