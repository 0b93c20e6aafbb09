package dietary

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ruleFileEntry はルールファイル中の1つの食事制限の定義。
type ruleFileEntry struct {
	IngredientKeywords []string `koanf:"ingredient_keywords"`
	AllergenNames      []string `koanf:"allergen_names"`
}

// LoadRuleSet はYAMLファイルからルールテーブルを読み込み、標準ルールに上書きしたRuleSetを返す。
// pathが空の場合は標準ルールをそのまま返す。
//
// ファイル形式:
//
//	rules:
//	  vegan:
//	    ingredient_keywords: [milk, cheese]
//	    allergen_names: [dairy]
//
// ファイルに記載された制限名は標準ルールを置き換え、記載のない制限名は標準ルールを維持する。
// キーワードを1つも持たない制限名はエラーとする。
func LoadRuleSet(path string) (RuleSet, error) {
	defaults := DefaultRules()
	if path == "" {
		return defaults, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return RuleSet{}, fmt.Errorf("failed to load dietary rules file %s: %w", path, err)
	}

	var entries map[string]ruleFileEntry
	if err := k.Unmarshal("rules", &entries); err != nil {
		return RuleSet{}, fmt.Errorf("failed to parse dietary rules file %s: %w", path, err)
	}
	if len(entries) == 0 {
		return RuleSet{}, fmt.Errorf("dietary rules file %s defines no rules", path)
	}

	merged := make(map[string]ExclusionRule, defaults.Len()+len(entries))
	for name, r := range defaults.rules {
		merged[name] = r
	}
	for name, e := range entries {
		rule := ExclusionRule{
			IngredientKeywords: e.IngredientKeywords,
			AllergenNames:      e.AllergenNames,
		}
		// キー名の誤記で空のルールになると、その制限が黙って無効化される
		if rule.IsEmpty() {
			return RuleSet{}, fmt.Errorf("dietary rule %q in %s has no ingredient_keywords or allergen_names", name, path)
		}
		merged[name] = rule
	}
	return NewRuleSet(merged), nil
}
