package model

import "time"

// User はサービス利用ユーザーを表す。
// 検索エンジンからは出品者サマリーと食の好みの供給元としてのみ参照される。
type User struct {
	ID            string
	Email         string
	FullName      string
	AverageRating float64
	Preferences   CallerPreferences
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Session はユーザーのログインセッションを表す。
// 認証自体は外部サービスが行い、本サービスはセッションを参照するだけである。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
