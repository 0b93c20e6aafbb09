package discovery

import (
	"github.com/hitoshi/tastebuddiez/internal/dietary"
	"github.com/hitoshi/tastebuddiez/internal/model"
)

// PostFilter はストアの述語で表現できない条件を、ストアの結果に対してメモリ上で適用する。
// 結果はlimitより少なくなりうるが、後続ページからの補充は行わない。
type PostFilter interface {
	Apply(meals []*model.Meal) []*model.Meal
}

// ExclusionFilter は指定された全ての食事制限を満たす出品だけを残す後段フィルタ。
type ExclusionFilter struct {
	engine       *dietary.Engine
	restrictions []string
}

var _ PostFilter = (*ExclusionFilter)(nil)

// NewExclusionFilter はExclusionFilterを生成する。
func NewExclusionFilter(engine *dietary.Engine, restrictions []string) *ExclusionFilter {
	return &ExclusionFilter{
		engine:       engine,
		restrictions: append([]string(nil), restrictions...),
	}
}

// Apply は全ての食事制限を満たす出品を入力順のまま返す。入力スライスは変更しない。
func (f *ExclusionFilter) Apply(meals []*model.Meal) []*model.Meal {
	if len(f.restrictions) == 0 {
		return meals
	}
	kept := make([]*model.Meal, 0, len(meals))
	for _, m := range meals {
		if f.engine.MatchesAll(m, f.restrictions) {
			kept = append(kept, m)
		}
	}
	return kept
}
