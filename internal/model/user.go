package model

import "time"

// UserStatus はユーザーの状態を表す。
type UserStatus string

const (
	// UserStatusActive は利用中のユーザー。
	UserStatusActive UserStatus = "ACTIVE"
	// UserStatusDeleted は論理削除されたユーザー。次回ログインで再有効化される。
	UserStatusDeleted UserStatus = "DELETED"
)

// User はサービス利用ユーザーを表す。
// OAuthTokenPayloadにはKakaoのユーザーIDを保持する。
type User struct {
	ID                string
	OAuthTokenPayload string
	FCMTokenPayload   string
	Nickname          Nickname
	NicknameModified  bool
	Status            UserStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsActive はユーザーが利用中かを返す。
func (u *User) IsActive() bool {
	return u.Status == UserStatusActive
}

// Reactivate は論理削除状態のユーザーを利用中に戻す。
// 既に利用中の場合はfalseを返す。
func (u *User) Reactivate(now time.Time) bool {
	if u.Status == UserStatusActive {
		return false
	}
	u.Status = UserStatusActive
	u.UpdatedAt = now
	return true
}

// Deactivate はユーザーを論理削除状態にする。
func (u *User) Deactivate(now time.Time) bool {
	if u.Status == UserStatusDeleted {
		return false
	}
	u.Status = UserStatusDeleted
	u.UpdatedAt = now
	return true
}

// RefreshToken はユーザーごとに1件だけ保持するリフレッシュトークン。
type RefreshToken struct {
	UserID    string
	Payload   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TokenPair はアクセストークンとリフレッシュトークンの組。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
