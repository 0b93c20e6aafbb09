package discovery

import "github.com/hitoshi/tastebuddiez/internal/model"

// Personalize は検索条件に呼び出しユーザーの好みを合成した推薦用の検索条件と述語を返す。
//
// ユーザーのアレルゲンと避けたい材料は除外条件に、食事制限は後段フィルタの条件に
// 追加する（重複は除く）。述語はさらにユーザー自身の出品を除外する。
func Personalize(f Filters, callerID string, prefs model.CallerPreferences) (Filters, StoreQuery) {
	merged := f
	merged.ExcludeAllergens = union(f.ExcludeAllergens, prefs.Allergens)
	merged.ExcludeIngredients = union(f.ExcludeIngredients, prefs.AvoidedIngredients)
	merged.DietaryRestrictions = union(f.DietaryRestrictions, prefs.DietaryRestrictions)

	q := BuildQuery(merged)
	q.Predicate.ExcludeSellerID = callerID
	return merged, q
}

// PartitionByCuisine は好みの料理ジャンルに一致する出品を先頭に移す。
// 並べ替えではなく2グループへの安定な分割であり、各グループ内の順序は維持する。
// 好みが空の場合は入力をそのまま返す。
func PartitionByCuisine(meals []*model.Meal, preferred []string) []*model.Meal {
	if len(preferred) == 0 {
		return meals
	}
	set := make(map[string]struct{}, len(preferred))
	for _, c := range preferred {
		set[c] = struct{}{}
	}

	out := make([]*model.Meal, 0, len(meals))
	var rest []*model.Meal
	for _, m := range meals {
		if _, ok := set[m.CuisineType]; ok {
			out = append(out, m)
		} else {
			rest = append(rest, m)
		}
	}
	return append(out, rest...)
}

// union はaの順序を保ったまま、aに含まれないbの要素を後ろに加える。空文字列は除く。
func union(a, b []string) []string {
	if len(b) == 0 {
		return a
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	return out
}
