package discovery

import (
	"strings"

	"github.com/hitoshi/tastebuddiez/internal/model"
)

// StoreQuery はカタログストアに渡す述語とページ指定の組。
type StoreQuery struct {
	Predicate model.MealQuery
	Skip      int
	Limit     int
}

// BuildQuery は検索条件をカタログストアの述語に変換する。副作用を持たない。
//
// 状態は常にavailableに限定する。除外アレルゲンは値をそのまま渡し、ストアで
// 大文字小文字を区別して完全一致で比較される。除外材料は空白を除いた空でない
// トークンごとに独立した除外条件となる。食事制限はここでは扱わず、
// ExclusionFilterが後段で評価する。
func BuildQuery(f Filters) StoreQuery {
	q := model.MealQuery{
		Status:           model.MealStatusAvailable,
		CuisineType:      f.CuisineType,
		MealType:         f.MealType,
		MaxPrice:         copyFloat(f.MaxPrice),
		AvailableForSale: copyBool(f.AvailableForSale),
		AvailableForSwap: copyBool(f.AvailableForSwap),
		MinRating:        copyFloat(f.MinRating),
	}
	for _, a := range f.ExcludeAllergens {
		if a != "" {
			q.ExcludeAllergens = append(q.ExcludeAllergens, a)
		}
	}
	for _, tok := range f.ExcludeIngredients {
		if tok = strings.TrimSpace(tok); tok != "" {
			q.ExcludeIngredients = append(q.ExcludeIngredients, tok)
		}
	}
	return StoreQuery{Predicate: q, Skip: f.Skip, Limit: f.Limit}
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
