package discovery

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/hitoshi/tastebuddiez/internal/dietary"
	"github.com/hitoshi/tastebuddiez/internal/model"
)

// fakeCatalogStore はメモリ上のCatalogStore実装。
// 述語の評価はmodel.MealQuery.Matchesに委ね、閲覧数の加算はロック下で行う。
type fakeCatalogStore struct {
	mu       sync.Mutex
	meals    []*model.Meal
	findErr  error
	incErr   error
	findArgs []findCall
}

type findCall struct {
	query       model.MealQuery
	skip, limit int
}

func (s *fakeCatalogStore) Find(ctx context.Context, q model.MealQuery, skip, limit int) ([]*model.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.findArgs = append(s.findArgs, findCall{query: q, skip: skip, limit: limit})
	if s.findErr != nil {
		return nil, s.findErr
	}

	var matched []*model.Meal
	for _, m := range s.meals {
		if q.Matches(m) {
			c := *m
			matched = append(matched, &c)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	if skip >= len(matched) {
		return []*model.Meal{}, nil
	}
	matched = matched[skip:]
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *fakeCatalogStore) IncrementView(ctx context.Context, id string) (*model.Meal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.incErr != nil {
		return nil, s.incErr
	}
	for _, m := range s.meals {
		if m.ID == id {
			m.Views++
			c := *m
			return &c, nil
		}
	}
	return nil, nil
}

func (s *fakeCatalogStore) FindBySeller(ctx context.Context, sellerID string, limit int) ([]*model.Meal, error) {
	return nil, nil
}

func (s *fakeCatalogStore) Create(ctx context.Context, meal *model.Meal) error {
	return nil
}

func (s *fakeCatalogStore) views(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.meals {
		if m.ID == id {
			return m.Views
		}
	}
	return -1
}

// fakeUserDirectory はメモリ上のUserDirectory実装。
type fakeUserDirectory struct {
	sellers     map[string]*model.SellerSummary
	preferences map[string]*model.CallerPreferences
	err         error
	calls       int
	mu          sync.Mutex
}

func (d *fakeUserDirectory) GetSeller(ctx context.Context, userID string) (*model.SellerSummary, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls++
	if d.err != nil {
		return nil, d.err
	}
	return d.sellers[userID], nil
}

func (d *fakeUserDirectory) GetPreferences(ctx context.Context, userID string) (*model.CallerPreferences, error) {
	if d.err != nil {
		return nil, d.err
	}
	return d.preferences[userID], nil
}

var baseTime = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// newMeal は受付中の出品を生成する。orderが大きいほど新しい。
func newMeal(id string, order int, mutate ...func(*model.Meal)) *model.Meal {
	m := &model.Meal{
		ID:               id,
		SellerID:         "seller-1",
		Title:            "meal " + id,
		CuisineType:      "Italian",
		MealType:         "dinner",
		Ingredients:      "rice, vegetables",
		AllergenInfo:     model.NewAllergenInfo(nil, nil),
		AvailableForSale: true,
		SalePrice:        floatPtr(10),
		Status:           model.MealStatusAvailable,
		AverageRating:    4.5,
		CreatedAt:        baseTime.Add(time.Duration(order) * time.Minute),
	}
	for _, fn := range mutate {
		fn(m)
	}
	return m
}

func floatPtr(v float64) *float64 { return &v }
func boolPtr(v bool) *bool        { return &v }

func defaultDirectory() *fakeUserDirectory {
	return &fakeUserDirectory{
		sellers: map[string]*model.SellerSummary{
			"seller-1": {ID: "seller-1", Name: "Alice", AverageRating: 4.8},
			"seller-2": {ID: "seller-2", Name: "Bob", AverageRating: 4.1},
			"caller":   {ID: "caller", Name: "Carol", AverageRating: 3.0},
		},
		preferences: map[string]*model.CallerPreferences{
			"caller": {},
		},
	}
}

func ids(meals []model.PresentedMeal) []string {
	out := make([]string, len(meals))
	for i, m := range meals {
		out[i] = m.ID
	}
	return out
}

func newEngineForTest() *dietary.Engine {
	return dietary.NewEngine(dietary.DefaultRules(), nil)
}
