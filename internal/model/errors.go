package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, meal, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidMealID       = "INVALID_MEAL_ID"
	ErrCodeMealNotFound        = "MEAL_NOT_FOUND"
	ErrCodeSellerNotFound      = "SELLER_NOT_FOUND"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeRateLimited         = "RATE_LIMIT_EXCEEDED"
	ErrCodeCSRFInvalid         = "CSRF_TOKEN_INVALID"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// NewInvalidMealIDError は不正な形式の出品IDに対するエラーを生成する。
// ストアのエラーではなく、入力値の問題として扱う。
func NewInvalidMealIDError(mealID string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidMealID,
		Message:  fmt.Sprintf("出品IDの形式が正しくありません: %s", mealID),
		Category: "validation",
		Action:   "出品IDを確認してください。",
	}
}

// NewMealNotFoundError は出品未検出エラーを生成する。
func NewMealNotFoundError(mealID string) *APIError {
	return &APIError{
		Code:     ErrCodeMealNotFound,
		Message:  fmt.Sprintf("指定された出品が見つかりません: %s", mealID),
		Category: "meal",
		Action:   "出品IDを確認してください。",
	}
}

// NewSellerNotFoundError は出品者が解決できない場合のエラーを生成する。
// 単一取得の経路でのみ使用する（一覧では該当出品を黙って除外する）。
func NewSellerNotFoundError(sellerID string) *APIError {
	return &APIError{
		Code:     ErrCodeSellerNotFound,
		Message:  fmt.Sprintf("出品者が見つかりません: %s", sellerID),
		Category: "meal",
		Action:   "出品者が退会している可能性があります。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewValidationError は入力値の範囲外・形式不正に対するエラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "検索条件または入力内容を確認してください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewUpstreamUnavailableError はカタログストアまたはユーザーディレクトリの障害を表すエラーを生成する。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func NewUpstreamUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeUpstreamUnavailable,
		Message:  "データストアに接続できません。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限超過エラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "Retry-Afterヘッダーの秒数だけ待ってから再度お試しください。",
	}
}

// NewCSRFInvalidError はCSRFトークン検証失敗エラーを生成する。
func NewCSRFInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
