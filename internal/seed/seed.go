// Package seed は開発・デモ用の初期データ（ユーザーと出品）を投入する。
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/tastebuddiez/internal/model"
)

// UserUpserter はユーザーの作成または更新を行うインターフェース。
// repository.UserRepositoryが満たす。
type UserUpserter interface {
	Upsert(ctx context.Context, user *model.User) error
}

// ListingWriter は出品の参照と作成を行うインターフェース。
// repository.CatalogStoreが満たす。
type ListingWriter interface {
	FindBySeller(ctx context.Context, sellerID string, limit int) ([]*model.Meal, error)
	Create(ctx context.Context, meal *model.Meal) error
}

// Result は投入結果の件数。
type Result struct {
	UsersUpserted  int
	MealsCreated   int
	SellersSkipped int
}

// Seeder は初期データを投入する。
// ユーザーはメールアドレスをキーに更新し、既に出品を持つ出品者には出品を追加しないため、
// 繰り返し実行しても重複しない。
type Seeder struct {
	users  UserUpserter
	meals  ListingWriter
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// NewSeeder はSeederを生成する。
func NewSeeder(users UserUpserter, meals ListingWriter, logger *slog.Logger) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Seeder{
		users:  users,
		meals:  meals,
		logger: logger,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

// Run は初期データを投入する。
func (s *Seeder) Run(ctx context.Context) (Result, error) {
	var res Result
	now := s.now().UTC()

	sellerIDs := make(map[string]string, len(demoUsers))
	for _, du := range demoUsers {
		u := &model.User{
			ID:            s.newID(),
			Email:         du.email,
			FullName:      du.fullName,
			AverageRating: du.rating,
			Preferences:   du.preferences,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.users.Upsert(ctx, u); err != nil {
			return res, fmt.Errorf("failed to seed user %s: %w", du.email, err)
		}
		sellerIDs[du.email] = u.ID
		res.UsersUpserted++
	}

	hasListings := make(map[string]bool, len(sellerIDs))
	for email, id := range sellerIDs {
		existing, err := s.meals.FindBySeller(ctx, id, 1)
		if err != nil {
			return res, fmt.Errorf("failed to check listings of %s: %w", email, err)
		}
		if len(existing) > 0 {
			hasListings[email] = true
			res.SellersSkipped++
		}
	}

	for i, dm := range demoMeals {
		if hasListings[dm.sellerEmail] {
			continue
		}
		sellerID, ok := sellerIDs[dm.sellerEmail]
		if !ok {
			return res, fmt.Errorf("demo meal %q references unknown seller %s", dm.title, dm.sellerEmail)
		}
		m := dm.toMeal(s.newID(), sellerID, now)
		// 作成日時をずらして一覧の並び順を安定させる
		m.CreatedAt = now.Add(-time.Duration(len(demoMeals)-i) * time.Minute)
		m.UpdatedAt = m.CreatedAt
		if err := s.meals.Create(ctx, m); err != nil {
			return res, fmt.Errorf("failed to seed meal %q: %w", dm.title, err)
		}
		res.MealsCreated++
	}

	s.logger.Info("seed data applied",
		slog.Int("users_upserted", res.UsersUpserted),
		slog.Int("meals_created", res.MealsCreated),
		slog.Int("sellers_skipped", res.SellersSkipped),
	)
	return res, nil
}
