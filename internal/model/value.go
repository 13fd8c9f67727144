package model

import "strings"

// Nickname は空白を許さないニックネーム。
type Nickname string

// NewNickname は前後の空白を除去したうえでNicknameを生成する。
func NewNickname(v string) (Nickname, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", NewBlankNicknameError()
	}
	return Nickname(v), nil
}

// String はstringとしての値を返す。
func (n Nickname) String() string { return string(n) }

// URL は空白を許さないURL文字列。
type URL string

// NewURL はURLを生成する。
func NewURL(v string) (URL, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return "", NewBlankURLError()
	}
	return URL(v), nil
}

// String はstringとしての値を返す。
func (u URL) String() string { return string(u) }

// Comment は空白を許さない認証コメント。
type Comment string

// NewComment はCommentを生成する。
func NewComment(v string) (Comment, error) {
	if strings.TrimSpace(v) == "" {
		return "", NewBlankCommentError()
	}
	return Comment(v), nil
}

// String はstringとしての値を返す。
func (c Comment) String() string { return string(c) }
