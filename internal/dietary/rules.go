// Package dietary は食事制限名から除外ルールを引く静的テーブルと、その評価を提供する。
package dietary

import (
	"log/slog"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/hitoshi/tastebuddiez/internal/model"
)

// 認識される食事制限名。
const (
	Vegetarian  = "vegetarian"
	Vegan       = "vegan"
	Pescatarian = "pescatarian"
	GlutenFree  = "gluten-free"
	DairyFree   = "dairy-free"
	NutFree     = "nut-free"
	Keto        = "keto"
	Paleo       = "paleo"
)

// ExclusionRule は1つの食事制限に対応する除外キーワードの集合。
type ExclusionRule struct {
	IngredientKeywords []string
	AllergenNames      []string
}

// IsEmpty は除外条件を1つも持たないルールかどうかを返す。
func (r ExclusionRule) IsEmpty() bool {
	return len(r.IngredientKeywords) == 0 && len(r.AllergenNames) == 0
}

// RuleSet は食事制限名をキーとする除外ルールの不変テーブル。
// 生成後は変更できないため、複数のリクエストから同時に参照してよい。
type RuleSet struct {
	rules map[string]ExclusionRule
}

// NewRuleSet は与えられたルールを複製・正規化してRuleSetを生成する。
// キーワードは小文字化し、空文字列は取り除く。呼び出し側のマップを後から変更しても影響しない。
func NewRuleSet(rules map[string]ExclusionRule) RuleSet {
	copied := make(map[string]ExclusionRule, len(rules))
	for name, r := range rules {
		copied[strings.ToLower(strings.TrimSpace(name))] = ExclusionRule{
			IngredientKeywords: normalize(r.IngredientKeywords),
			AllergenNames:      normalize(r.AllergenNames),
		}
	}
	return RuleSet{rules: copied}
}

func normalize(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Lookup は食事制限名に対応するルールを返す。
// 認識できない名前には空のルール（除外なし）を返し、エラーにはしない。
func (s RuleSet) Lookup(name string) (ExclusionRule, bool) {
	r, ok := s.rules[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return ExclusionRule{}, false
	}
	return ExclusionRule{
		IngredientKeywords: append([]string(nil), r.IngredientKeywords...),
		AllergenNames:      append([]string(nil), r.AllergenNames...),
	}, true
}

// Names は登録されている食事制限名を昇順で返す。
func (s RuleSet) Names() []string {
	names := make([]string, 0, len(s.rules))
	for name := range s.rules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len は登録されているルール数を返す。
func (s RuleSet) Len() int {
	return len(s.rules)
}

var (
	meatKeywords  = []string{"meat", "chicken", "beef", "pork", "lamb", "bacon", "ham", "turkey", "sausage", "gelatin"}
	fishKeywords  = []string{"fish", "salmon", "tuna", "shrimp", "anchovy", "crab", "lobster"}
	dairyKeywords = []string{"milk", "cheese", "butter", "cream", "yogurt", "whey"}
	glutenWords   = []string{"wheat", "bread", "pasta", "flour", "barley", "rye", "couscous", "noodle"}
	nutKeywords   = []string{"peanut", "almond", "cashew", "walnut", "pecan", "hazelnut", "pistachio"}
)

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

// DefaultRules は8種類の食事制限に対応する標準ルールテーブルを返す。
func DefaultRules() RuleSet {
	return NewRuleSet(map[string]ExclusionRule{
		Vegetarian: {
			IngredientKeywords: concat(meatKeywords, fishKeywords),
			AllergenNames:      []string{"fish", "shellfish"},
		},
		Vegan: {
			IngredientKeywords: concat(meatKeywords, fishKeywords, dairyKeywords, []string{"egg", "honey"}),
			AllergenNames:      []string{"fish", "shellfish", "milk", "dairy", "egg"},
		},
		Pescatarian: {
			IngredientKeywords: meatKeywords,
		},
		GlutenFree: {
			IngredientKeywords: glutenWords,
			AllergenNames:      []string{"wheat", "gluten"},
		},
		DairyFree: {
			IngredientKeywords: dairyKeywords,
			AllergenNames:      []string{"milk", "dairy"},
		},
		NutFree: {
			IngredientKeywords: nutKeywords,
			AllergenNames:      []string{"peanut", "nut"},
		},
		Keto: {
			IngredientKeywords: []string{"sugar", "bread", "pasta", "rice", "potato", "flour", "noodle"},
		},
		Paleo: {
			IngredientKeywords: concat(dairyKeywords, []string{"bread", "pasta", "rice", "sugar", "bean", "lentil", "peanut"}),
			AllergenNames:      []string{"milk", "dairy", "peanut"},
		},
	})
}

// Engine は食事制限ルールを出品に適用する。
// ルールテーブルは生成時に注入され、テストでは別のルールセットに差し替えられる。
type Engine struct {
	rules  RuleSet
	logger *slog.Logger
}

// NewEngine はEngineを生成する。loggerがnilの場合はslog.Default()を使用する。
func NewEngine(rules RuleSet, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{rules: rules, logger: logger}
}

// Rules はエンジンが保持するルールテーブルを返す。
func (e *Engine) Rules() RuleSet {
	return e.rules
}

// Lookup は食事制限名に対応するルールを返す。未知の名前には空のルールを返す。
func (e *Engine) Lookup(name string) ExclusionRule {
	r, _ := e.rules.Lookup(name)
	return r
}

// Known は食事制限名がルールテーブルに登録されているかを返す。
func (e *Engine) Known(name string) bool {
	_, ok := e.rules.Lookup(name)
	return ok
}

// Matches は出品が指定の食事制限を満たすかを返す。
//
// ルールのアレルゲン名がallergen_info.containsのいずれかの要素に（大文字小文字を無視して）
// 部分一致する場合、または材料キーワードが材料テキスト中の語の先頭に部分一致する場合は満たさない。
// 材料キーワードは語の途中には一致しない（"egg"は"eggs"に一致し、"veggies"には一致しない）。
// 未知の食事制限名は常にtrue（除外なし）となる。
func (e *Engine) Matches(m *model.Meal, restriction string) bool {
	rule, ok := e.rules.Lookup(restriction)
	if !ok {
		// 寛容なフォールバック: 未知の制限名は除外しない
		return true
	}
	return matchRule(m, rule)
}

// Unknown はルールテーブルに存在しない食事制限名を入力順に返す。
// 未知の名前は除外なしとして扱われるため、呼び出し側で警告を残すために使う。
func (e *Engine) Unknown(restrictions []string) []string {
	var unknown []string
	for _, r := range restrictions {
		if !e.Known(r) {
			unknown = append(unknown, r)
		}
	}
	return unknown
}

// WarnUnknown は未知の食事制限名を1件ずつ警告ログに記録し、その件数を返す。
// 入力ミスの可能性があるが、除外なしとして処理を続ける。
func (e *Engine) WarnUnknown(restrictions []string) int {
	unknown := e.Unknown(restrictions)
	for _, name := range unknown {
		e.logger.Warn("unknown dietary restriction, no exclusion applied",
			slog.String("restriction", name),
		)
	}
	return len(unknown)
}

// MatchesAll は出品が指定された全ての食事制限を同時に満たすかを返す（論理積）。
func (e *Engine) MatchesAll(m *model.Meal, restrictions []string) bool {
	for _, r := range restrictions {
		if !e.Matches(m, r) {
			return false
		}
	}
	return true
}

func matchRule(m *model.Meal, rule ExclusionRule) bool {
	for _, allergen := range rule.AllergenNames {
		for _, c := range m.AllergenInfo.Contains {
			if strings.Contains(strings.ToLower(c), allergen) {
				return false
			}
		}
	}
	ingredients := strings.ToLower(m.Ingredients)
	for _, kw := range rule.IngredientKeywords {
		if containsAtWordStart(ingredients, kw) {
			return false
		}
	}
	return true
}

// containsAtWordStart はkwがtext中の語の先頭から始まる位置に現れるかを返す。
// 直前が文字・数字でない位置（先頭、空白、カンマなど）を語の先頭とみなす。
func containsAtWordStart(text, kw string) bool {
	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], kw)
		if i < 0 {
			return false
		}
		pos := offset + i
		if pos == 0 {
			return true
		}
		prev, _ := utf8.DecodeLastRuneInString(text[:pos])
		if !unicode.IsLetter(prev) && !unicode.IsDigit(prev) {
			return true
		}
		offset = pos + 1
	}
	return false
}
