// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/hitoshi/tastebuddiez/internal/model"
)

// CatalogStore は出品カタログの永続化インターフェース。
// 検索エンジンから見た外部のカタログストアに相当する。
type CatalogStore interface {
	// Find は条件に一致する出品をcreated_at降順でskip件読み飛ばし、最大limit件返す。
	// 範囲外のskipはエラーではなく空のスライスを返す。
	Find(ctx context.Context, query model.MealQuery, skip, limit int) ([]*model.Meal, error)

	// IncrementView は閲覧数をアトミックに1増やし、増加後の出品を返す。
	// 見つからない場合はnilを返す。
	IncrementView(ctx context.Context, id string) (*model.Meal, error)

	// FindBySeller は指定出品者の出品を状態を問わずcreated_at降順で最大limit件返す。
	FindBySeller(ctx context.Context, sellerID string, limit int) ([]*model.Meal, error)

	// Create は出品を作成する。
	Create(ctx context.Context, meal *model.Meal) error
}

// UserDirectory はユーザー情報の参照インターフェース。
type UserDirectory interface {
	// GetSeller は出品者のサマリーを取得する。見つからない場合はnilを返す。
	GetSeller(ctx context.Context, userID string) (*model.SellerSummary, error)

	// GetPreferences はユーザー自身の食の好みを取得する。見つからない場合はnilを返す。
	GetPreferences(ctx context.Context, userID string) (*model.CallerPreferences, error)
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	UserDirectory

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Upsert はメールアドレスをキーにユーザーを作成または更新する。
	// 初期データ投入で使用する。
	Upsert(ctx context.Context, user *model.User) error
}

// SessionRepository はセッションデータの参照インターフェース。
// セッションの発行は外部の認証サービスが行う。
type SessionRepository interface {
	// FindByID は指定IDのセッションを取得する。期限切れの場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	// DeleteExpired は期限切れのセッションを削除し、削除件数を返す。
	DeleteExpired(ctx context.Context) (int64, error)
}
