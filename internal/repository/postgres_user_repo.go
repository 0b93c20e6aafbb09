package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/tastebuddiez/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
// 検索エンジンに対してはユーザーディレクトリとして振る舞う。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	var restrictions, allergens, avoided, cuisines pq.StringArray
	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, full_name, average_rating,
		        dietary_restrictions, allergens, avoided_ingredients, cuisine_preferences,
		        created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(
		&user.ID, &user.Email, &user.FullName, &user.AverageRating,
		&restrictions, &allergens, &avoided, &cuisines,
		&user.CreatedAt, &user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	user.Preferences = model.CallerPreferences{
		DietaryRestrictions: restrictions,
		Allergens:           allergens,
		AvoidedIngredients:  avoided,
		CuisinePreferences:  cuisines,
	}
	return user, nil
}

// GetSeller は出品者のサマリーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) GetSeller(ctx context.Context, userID string) (*model.SellerSummary, error) {
	seller := &model.SellerSummary{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, full_name, average_rating FROM users WHERE id = $1`,
		userID,
	).Scan(&seller.ID, &seller.Name, &seller.AverageRating)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find seller: %w", err)
	}
	return seller, nil
}

// GetPreferences はユーザーの食の好みを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) GetPreferences(ctx context.Context, userID string) (*model.CallerPreferences, error) {
	var restrictions, allergens, avoided, cuisines pq.StringArray
	err := r.db.QueryRowContext(ctx,
		`SELECT dietary_restrictions, allergens, avoided_ingredients, cuisine_preferences
		 FROM users WHERE id = $1`,
		userID,
	).Scan(&restrictions, &allergens, &avoided, &cuisines)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user preferences: %w", err)
	}

	return &model.CallerPreferences{
		DietaryRestrictions: restrictions,
		Allergens:           allergens,
		AvoidedIngredients:  avoided,
		CuisinePreferences:  cuisines,
	}, nil
}

// Upsert はメールアドレスをキーにユーザーを作成または更新する。
// 既存ユーザーの場合はuser.IDを既存のIDで上書きする。
func (r *PostgresUserRepo) Upsert(ctx context.Context, user *model.User) error {
	p := user.Preferences
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO users (id, email, full_name, average_rating,
		                    dietary_restrictions, allergens, avoided_ingredients, cuisine_preferences,
		                    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (email) DO UPDATE SET
		     full_name = EXCLUDED.full_name,
		     average_rating = EXCLUDED.average_rating,
		     dietary_restrictions = EXCLUDED.dietary_restrictions,
		     allergens = EXCLUDED.allergens,
		     avoided_ingredients = EXCLUDED.avoided_ingredients,
		     cuisine_preferences = EXCLUDED.cuisine_preferences,
		     updated_at = EXCLUDED.updated_at
		 RETURNING id`,
		user.ID, user.Email, user.FullName, user.AverageRating,
		pq.Array(nonNil(p.DietaryRestrictions)), pq.Array(nonNil(p.Allergens)),
		pq.Array(nonNil(p.AvoidedIngredients)), pq.Array(nonNil(p.CuisinePreferences)),
		user.CreatedAt, user.UpdatedAt,
	).Scan(&user.ID)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
