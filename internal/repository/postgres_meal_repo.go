package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"github.com/hitoshi/tastebuddiez/internal/model"
)

// mealColumns はmealsテーブルから取得するカラム。scanMealの引数順と一致させること。
const mealColumns = `id, seller_id, title, description, cuisine_type, meal_type, ingredients,
	photos, allergens_contains, allergens_may_contain, nutrition_info, portion_size,
	available_for_sale, sale_price, available_for_swap, swap_preferences, status,
	preparation_date, expires_date, pickup_instructions,
	average_rating, total_reviews, views, created_at, updated_at`

// PostgresMealRepo はPostgreSQLを使用した出品カタログ。
type PostgresMealRepo struct {
	db *sql.DB
}

// NewPostgresMealRepo はPostgresMealRepoを生成する。
func NewPostgresMealRepo(db *sql.DB) *PostgresMealRepo {
	return &PostgresMealRepo{db: db}
}

// Find は条件に一致する出品をcreated_at降順で取得する。
// 同時刻の出品はidで順序を固定し、ページ間で重複や欠落が起きないようにする。
func (r *PostgresMealRepo) Find(ctx context.Context, query model.MealQuery, skip, limit int) ([]*model.Meal, error) {
	where, args := buildMealWhere(query)
	args = append(args, skip, limit)

	sqlText := fmt.Sprintf(
		`SELECT %s FROM meals %s ORDER BY created_at DESC, id OFFSET $%d LIMIT $%d`,
		mealColumns, where, len(args)-1, len(args),
	)
	rows, err := r.db.QueryContext(ctx, sqlText, args...)
	if err != nil {
		return nil, fmt.Errorf("出品の検索に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanMeals(rows)
}

// IncrementView は閲覧数を1増やし、増加後の出品を返す。
// 単一のUPDATE ... RETURNINGで行うため、並行した呼び出しでも加算は失われない。
func (r *PostgresMealRepo) IncrementView(ctx context.Context, id string) (*model.Meal, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE meals SET views = views + 1 WHERE id = $1 RETURNING `+mealColumns,
		id,
	)
	meal, err := scanMeal(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("閲覧数の更新に失敗しました: %w", err)
	}
	return meal, nil
}

// FindBySeller は出品者の出品を状態を問わずcreated_at降順で取得する。
func (r *PostgresMealRepo) FindBySeller(ctx context.Context, sellerID string, limit int) ([]*model.Meal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+mealColumns+` FROM meals WHERE seller_id = $1 ORDER BY created_at DESC, id LIMIT $2`,
		sellerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("出品者の出品取得に失敗しました: %w", err)
	}
	defer rows.Close()

	return scanMeals(rows)
}

// Create は出品を作成する。
func (r *PostgresMealRepo) Create(ctx context.Context, meal *model.Meal) error {
	if !meal.Status.Valid() {
		return fmt.Errorf("出品の状態が不正です: %q", meal.Status)
	}

	var salePrice sql.NullFloat64
	if meal.SalePrice != nil {
		salePrice = sql.NullFloat64{Float64: *meal.SalePrice, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO meals (`+mealColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		         $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)`,
		meal.ID, meal.SellerID, meal.Title, meal.Description, meal.CuisineType, meal.MealType, meal.Ingredients,
		pq.Array(nonNil(meal.Photos)), pq.Array(nonNil(meal.AllergenInfo.Contains)), pq.Array(nonNil(meal.AllergenInfo.MayContain)),
		meal.NutritionInfo, meal.PortionSize,
		meal.AvailableForSale, salePrice, meal.AvailableForSwap, pq.Array(nonNil(meal.SwapPreferences)), string(meal.Status),
		meal.PreparationDate, meal.ExpiresDate, meal.PickupInstructions,
		meal.AverageRating, meal.TotalReviews, meal.Views, meal.CreatedAt, meal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("出品の作成に失敗しました: %w", err)
	}
	return nil
}

// buildMealWhere はMealQueryをWHERE句とプレースホルダ引数に変換する。
// 条件は全てANDで結合する。model.MealQuery.Matchesと同じ意味になるよう保つこと。
func buildMealWhere(q model.MealQuery) (string, []any) {
	var conds []string
	var args []any
	add := func(format string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(format, len(args)))
	}

	if q.Status != "" {
		add("status = $%d", string(q.Status))
	}
	if q.CuisineType != "" {
		add("cuisine_type = $%d", q.CuisineType)
	}
	if q.MealType != "" {
		add("meal_type = $%d", q.MealType)
	}
	if q.MaxPrice != nil {
		if q.AvailableForSale != nil && *q.AvailableForSale {
			add("(sale_price IS NOT NULL AND sale_price <= $%d)", *q.MaxPrice)
		} else {
			// 価格を持たない交換専用の出品は価格上限だけでは除外しない
			add("(sale_price IS NULL OR sale_price <= $%d)", *q.MaxPrice)
		}
	}
	if q.AvailableForSale != nil {
		add("available_for_sale = $%d", *q.AvailableForSale)
	}
	if q.AvailableForSwap != nil {
		add("available_for_swap = $%d", *q.AvailableForSwap)
	}
	if q.MinRating != nil {
		add("average_rating >= $%d", *q.MinRating)
	}
	if len(q.ExcludeAllergens) > 0 {
		add("NOT (allergens_contains && $%d)", pq.Array(q.ExcludeAllergens))
	}
	for _, tok := range q.ExcludeIngredients {
		if tok == "" {
			continue
		}
		add("ingredients NOT ILIKE $%d", "%"+escapeLike(tok)+"%")
	}
	if q.ExcludeSellerID != "" {
		add("seller_id <> $%d", q.ExcludeSellerID)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

// escapeLike はLIKEパターンの特殊文字をエスケープする。
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeal(row rowScanner) (*model.Meal, error) {
	m := &model.Meal{}
	var photos, contains, mayContain, swapPrefs pq.StringArray
	var salePrice sql.NullFloat64
	var status string

	err := row.Scan(
		&m.ID, &m.SellerID, &m.Title, &m.Description, &m.CuisineType, &m.MealType, &m.Ingredients,
		&photos, &contains, &mayContain, &m.NutritionInfo, &m.PortionSize,
		&m.AvailableForSale, &salePrice, &m.AvailableForSwap, &swapPrefs, &status,
		&m.PreparationDate, &m.ExpiresDate, &m.PickupInstructions,
		&m.AverageRating, &m.TotalReviews, &m.Views, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	m.Photos = photos
	m.AllergenInfo = model.NewAllergenInfo(contains, mayContain)
	m.SwapPreferences = swapPrefs
	m.Status = model.MealStatus(status)
	if salePrice.Valid {
		m.SalePrice = &salePrice.Float64
	}
	return m, nil
}

func scanMeals(rows *sql.Rows) ([]*model.Meal, error) {
	meals := []*model.Meal{}
	for rows.Next() {
		m, err := scanMeal(rows)
		if err != nil {
			return nil, fmt.Errorf("出品の読み取りに失敗しました: %w", err)
		}
		meals = append(meals, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("出品の読み取りに失敗しました: %w", err)
	}
	return meals, nil
}

// nonNil はNOT NULLの配列カラムに渡すため、nilを空のスライスに置き換える。
func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// compile-time interface check
var _ CatalogStore = (*PostgresMealRepo)(nil)
