package handler

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/tastebuddiez/internal/discovery"
	"github.com/hitoshi/tastebuddiez/internal/model"
)

// parseFilters はクエリパラメータを検索条件に変換する。
// 値の範囲はサービス層で検証し、ここでは型変換できない値のみを入力エラーとする。
// limitが省略された場合はdefaultLimitを使う。
//
// リスト型のパラメータは繰り返し指定（?exclude_allergens=a&exclude_allergens=b）と
// カンマ区切り（?exclude_allergens=a,b）のどちらも受け付ける。
func parseFilters(q url.Values, defaultLimit int) (discovery.Filters, *model.APIError) {
	f := discovery.Filters{
		CuisineType:         strings.TrimSpace(q.Get("cuisine_type")),
		MealType:            strings.TrimSpace(q.Get("meal_type")),
		DietaryRestrictions: splitList(q["dietary_restriction"]),
		ExcludeAllergens:    splitList(q["exclude_allergens"]),
		ExcludeIngredients:  splitList(q["exclude_ingredients"]),
		Limit:               defaultLimit,
	}

	var err *model.APIError
	if f.MaxPrice, err = parseFloatParam(q, "max_price"); err != nil {
		return f, err
	}
	if f.MinRating, err = parseFloatParam(q, "min_rating"); err != nil {
		return f, err
	}
	if f.AvailableForSale, err = parseBoolParam(q, "available_for_sale"); err != nil {
		return f, err
	}
	if f.AvailableForSwap, err = parseBoolParam(q, "available_for_swap"); err != nil {
		return f, err
	}
	if v, ok, err := parseIntParam(q, "skip"); err != nil {
		return f, err
	} else if ok {
		f.Skip = v
	}
	if v, ok, err := parseIntParam(q, "limit"); err != nil {
		return f, err
	} else if ok {
		f.Limit = v
	}
	return f, nil
}

func parseFloatParam(q url.Values, name string) (*float64, *model.APIError) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, model.NewValidationError(fmt.Sprintf("%s must be a number", name))
	}
	return &v, nil
}

func parseBoolParam(q url.Values, name string) (*bool, *model.APIError) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, model.NewValidationError(fmt.Sprintf("%s must be true or false", name))
	}
	return &v, nil
}

func parseIntParam(q url.Values, name string) (int, bool, *model.APIError) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, model.NewValidationError(fmt.Sprintf("%s must be an integer", name))
	}
	return v, true, nil
}

// splitList は繰り返し指定とカンマ区切りを1つのリストに平坦化する。空の要素は取り除く。
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
