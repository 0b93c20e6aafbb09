package discovery

import (
	"context"
	"log/slog"

	"github.com/hitoshi/tastebuddiez/internal/model"
	"github.com/hitoshi/tastebuddiez/internal/repository"
)

// ListingPresenter は出品と出品者サマリーを結合して返却用の形に整える。
// 単一取得では閲覧数の加算も担う。
type ListingPresenter struct {
	store  repository.CatalogStore
	users  repository.UserDirectory
	logger *slog.Logger
}

// NewListingPresenter はListingPresenterを生成する。
func NewListingPresenter(store repository.CatalogStore, users repository.UserDirectory, logger *slog.Logger) *ListingPresenter {
	if logger == nil {
		logger = slog.Default()
	}
	return &ListingPresenter{store: store, users: users, logger: logger}
}

// PresentList は出品ごとに出品者を順に解決して結合する。
// 出品者を解決できない出品はエラーにせず結果から除き、その件数を返す。
// ユーザーディレクトリ自体の障害はそのまま返す。
func (p *ListingPresenter) PresentList(ctx context.Context, meals []*model.Meal) ([]model.PresentedMeal, int, error) {
	presented := make([]model.PresentedMeal, 0, len(meals))
	dropped := 0
	for _, m := range meals {
		seller, err := p.users.GetSeller(ctx, m.SellerID)
		if err != nil {
			return nil, 0, err
		}
		if seller == nil {
			dropped++
			p.logger.Info("seller not found, listing dropped",
				slog.String("meal_id", m.ID),
				slog.String("seller_id", m.SellerID),
			)
			continue
		}
		presented = append(presented, model.NewPresentedMeal(m, seller))
	}
	return presented, dropped, nil
}

// PresentOne は閲覧数をアトミックに加算してから出品者を解決し、加算後の値で返す。
//
// キャンセル済みのリクエストは加算前に中断する。加算は単一のストア操作なので、
// 途中まで加算された状態は生じない。出品者が存在しない場合は出品があってもNotFoundとする。
func (p *ListingPresenter) PresentOne(ctx context.Context, id string) (*model.PresentedMeal, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	meal, err := p.store.IncrementView(ctx, id)
	if err != nil {
		return nil, err
	}
	if meal == nil {
		return nil, model.NewMealNotFoundError(id)
	}

	seller, err := p.users.GetSeller(ctx, meal.SellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, model.NewSellerNotFoundError(meal.SellerID)
	}

	pm := model.NewPresentedMeal(meal, seller)
	return &pm, nil
}
