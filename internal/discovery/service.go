package discovery

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/tastebuddiez/internal/dietary"
	"github.com/hitoshi/tastebuddiez/internal/metrics"
	"github.com/hitoshi/tastebuddiez/internal/model"
	"github.com/hitoshi/tastebuddiez/internal/repository"
)

// Service は出品の一覧・単一取得・推薦のユースケースを提供する。
// リクエスト間で共有する可変状態を持たないため、並行に呼び出してよい。
// ストアとユーザーディレクトリのエラーはリトライせずにそのまま返す。
type Service struct {
	store     repository.CatalogStore
	users     repository.UserDirectory
	engine    *dietary.Engine
	presenter *ListingPresenter
	metrics   metrics.MetricsCollector
	logger    *slog.Logger
	maxLimit  int
}

// NewService はServiceを生成する。maxLimitはlimitに許容する最大値（0以下なら上限なし）。
func NewService(
	store repository.CatalogStore,
	users repository.UserDirectory,
	engine *dietary.Engine,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	maxLimit int,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if collector == nil {
		collector = metrics.NopCollector{}
	}
	return &Service{
		store:     store,
		users:     users,
		engine:    engine,
		presenter: NewListingPresenter(store, users, logger),
		metrics:   collector,
		logger:    logger,
		maxLimit:  maxLimit,
	}
}

// ListAvailable は条件に一致する受付中の出品を作成日時の新しい順に返す。
// 食事制限で除外された分は補充しないため、limit件より少なくなることがある。
func (s *Service) ListAvailable(ctx context.Context, f Filters) ([]model.PresentedMeal, error) {
	start := time.Now()
	if err := f.Validate(s.maxLimit); err != nil {
		return nil, err
	}

	meals, err := s.search(ctx, BuildQuery(f), f.DietaryRestrictions)
	if err != nil {
		return nil, err
	}

	presented, err := s.present(ctx, meals)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordQuery(metrics.EndpointList, len(presented), time.Since(start))
	return presented, nil
}

// GetByID は出品を1件取得する。取得のたびに閲覧数を1加算し、加算後の値を返す。
func (s *Service) GetByID(ctx context.Context, id string) (*model.PresentedMeal, error) {
	start := time.Now()
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, model.NewInvalidMealIDError(id)
	}

	// urn:uuid:や波括弧付きの表記も受け付けるため、ストアには正規形で渡す
	pm, err := s.presenter.PresentOne(ctx, parsed.String())
	if err != nil {
		// 出品者が見つからない場合も閲覧数は加算済み
		var apiErr *model.APIError
		if errors.As(err, &apiErr) && apiErr.Code == model.ErrCodeSellerNotFound {
			s.metrics.RecordViewIncrement()
		}
		return nil, err
	}
	s.metrics.RecordViewIncrement()
	s.metrics.RecordQuery(metrics.EndpointGet, 1, time.Since(start))
	return pm, nil
}

// Recommend は呼び出しユーザー向けの推薦一覧を返す。
//
// ユーザー自身の出品、アレルゲンを含む出品、避けたい材料を含む出品、食事制限を
// 満たさない出品を除いたうえで、好みの料理ジャンルの出品を先頭に並べる。
func (s *Service) Recommend(ctx context.Context, callerID string, f Filters) ([]model.PresentedMeal, error) {
	start := time.Now()
	if err := f.Validate(s.maxLimit); err != nil {
		return nil, err
	}

	prefs, err := s.users.GetPreferences(ctx, callerID)
	if err != nil {
		return nil, err
	}
	if prefs == nil {
		return nil, model.NewUserNotFoundError()
	}

	merged, query := Personalize(f, callerID, *prefs)
	meals, err := s.search(ctx, query, merged.DietaryRestrictions)
	if err != nil {
		return nil, err
	}
	meals = PartitionByCuisine(meals, prefs.CuisinePreferences)

	presented, err := s.present(ctx, meals)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordQuery(metrics.EndpointRecommend, len(presented), time.Since(start))
	return presented, nil
}

// search はストアの述語で1ページ分を取得し、食事制限の後段フィルタを適用する。
func (s *Service) search(ctx context.Context, q StoreQuery, restrictions []string) ([]*model.Meal, error) {
	if n := s.engine.WarnUnknown(restrictions); n > 0 {
		s.metrics.RecordUnknownRestrictions(n)
	}

	meals, err := s.store.Find(ctx, q.Predicate, q.Skip, q.Limit)
	if err != nil {
		return nil, err
	}

	var filter PostFilter = NewExclusionFilter(s.engine, restrictions)
	kept := filter.Apply(meals)
	if excluded := len(meals) - len(kept); excluded > 0 {
		s.metrics.RecordPostFilterExcluded(excluded)
	}
	return kept, nil
}

func (s *Service) present(ctx context.Context, meals []*model.Meal) ([]model.PresentedMeal, error) {
	presented, dropped, err := s.presenter.PresentList(ctx, meals)
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		s.metrics.RecordSellerDropped(dropped)
	}
	return presented, nil
}
