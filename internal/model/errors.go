// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は業務ルール違反を表す唯一のエラー型。
// Codeは機械判読用、MessageはそのままdetailMessageとしてクライアントへ返す。
type APIError struct {
	Code    string // エラーコード
	Message string // 詳細メッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeBadRequest          = "E400_BAD_REQUEST"
	ErrCodeUnauthorized        = "E401_UNAUTHORIZED"
	ErrCodeNotFound            = "E404_NOT_FOUND"
	ErrCodeMethodNotAllowed    = "E405_METHOD_NOT_ALLOWED"
	ErrCodeTooManyRequests     = "E429_TOO_MANY_REQUESTS"
	ErrCodeInternalServerError = "E500_INTERNAL_SERVER_ERROR"
)

// コードごとのデフォルトメッセージ
const (
	MsgBadRequest          = "필수 파라미터 값이 없거나 잘못된 값으로 요청을 보낸 경우 발생"
	MsgUnauthorized        = "유효하지 않은 토큰으로 요청을 보낸 경우 발생"
	MsgNotFound            = "요청한 리소스가 존재하지 않는 경우 발생"
	MsgMethodNotAllowed    = "지원하지 않는 HTTP Method로 요청을 보낸 경우 발생"
	MsgTooManyRequests     = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요."
	MsgInternalServerError = "서버 내부에서 처리하지 못한 에러가 발생한 경우"

	// MsgInvalidParameter はリクエストパラメータの型・欠落エラー時のメッセージ。
	MsgInvalidParameter = "Please Check Your Request Parameter"
)

// NewBadRequestError はE400エラーを生成する。messageが空の場合はデフォルトメッセージを使う。
func NewBadRequestError(message string) *APIError {
	if message == "" {
		message = MsgBadRequest
	}
	return &APIError{Code: ErrCodeBadRequest, Message: message}
}

// NewUnauthorizedError はE401エラーを生成する。
func NewUnauthorizedError(message string) *APIError {
	if message == "" {
		message = MsgUnauthorized
	}
	return &APIError{Code: ErrCodeUnauthorized, Message: message}
}

// NewNotFoundError はE404エラーを生成する。
func NewNotFoundError(message string) *APIError {
	if message == "" {
		message = MsgNotFound
	}
	return &APIError{Code: ErrCodeNotFound, Message: message}
}

// NewMethodNotAllowedError はE405エラーを生成する。
func NewMethodNotAllowedError() *APIError {
	return &APIError{Code: ErrCodeMethodNotAllowed, Message: MsgInvalidParameter}
}

// NewTooManyRequestsError はレート制限超過エラーを生成する。
func NewTooManyRequestsError() *APIError {
	return &APIError{Code: ErrCodeTooManyRequests, Message: MsgTooManyRequests}
}

// NewInternalServerError はE500エラーを生成する。
// detailが空でなければデフォルトメッセージの代わりに使う（dev環境向け）。
func NewInternalServerError(detail string) *APIError {
	if detail == "" {
		detail = MsgInternalServerError
	}
	return &APIError{Code: ErrCodeInternalServerError, Message: detail}
}

// --- 認証・ユーザー ---

// NewInvalidTokenError は保存されていないリフレッシュトークンでの再発行要求を表す。
func NewInvalidTokenError() *APIError {
	return NewBadRequestError("잘못된 토큰으로 요청하셨습니다.")
}

// NewUserNotFoundError はユーザーが存在しない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return NewNotFoundError("요청한 유저를 찾을 수 없습니다.")
}

// NewDuplicateNicknameError はニックネーム重複エラーを生成する。
func NewDuplicateNicknameError() *APIError {
	return NewBadRequestError("이미 사용중인 닉네임입니다.")
}

// NewProceedingGoalOnDeleteError は進行中の目標がある状態での退会エラーを生成する。
func NewProceedingGoalOnDeleteError() *APIError {
	return NewBadRequestError("아직 진행중인 다짐이 있어 회원탈퇴에 실패했습니다.")
}

// --- 目標 ---

// NewGoalNotFoundError は目標未検出エラーを生成する。
func NewGoalNotFoundError() *APIError {
	return NewNotFoundError("요청한 다짐을 찾을 수 없습니다.")
}

// NewGoalInaccessibleError は他人の目標へのアクセスを表す。
func NewGoalInaccessibleError() *APIError {
	return NewBadRequestError("접근할 수 없는 다짐입니다.")
}

// NewProceedingGoalExistsError は進行中の目標が既にある場合のエラーを生成する。
func NewProceedingGoalExistsError() *APIError {
	return NewBadRequestError("이미 진행중인 다짐이 있습니다.")
}

// NewInvalidStartDateError は開始日が過去の場合のエラーを生成する。
func NewInvalidStartDateError() *APIError {
	return NewBadRequestError("다짐 시작일은 오늘 이후여야 합니다.")
}

// NewGoalAlreadyStartedError は開始後に変更できない操作のエラーを生成する。
func NewGoalAlreadyStartedError() *APIError {
	return NewBadRequestError("이미 시작된 다짐입니다.")
}

// NewGoalEndedError は終了済み目標への変更エラーを生成する。
func NewGoalEndedError() *APIError {
	return NewBadRequestError("이미 끝난 내기입니다")
}

// --- 目標認証 ---

// NewGoalProofNotFoundError は目標認証未検出エラーを生成する。
func NewGoalProofNotFoundError() *APIError {
	return NewNotFoundError("요청한 다짐 인증을 찾을 수 없습니다.")
}

// NewDuplicateGoalProofError は同日の認証が既に存在する場合のエラーを生成する。
func NewDuplicateGoalProofError() *APIError {
	return NewBadRequestError("해당 날짜에 대한 인증은 이미 생성되어있습니다.")
}

// NewInvalidProofDateError は認証日が7日間の期間外の場合のエラーを生成する。
func NewInvalidProofDateError() *APIError {
	return NewBadRequestError("인증 날짜가 올바르지 않습니다.")
}

// NewGoalProofInaccessibleError は他人の認証を更新しようとした場合のエラーを生成する。
func NewGoalProofInaccessibleError() *APIError {
	return NewBadRequestError("접근할 수 없는 다짐 인증입니다")
}

// --- ギフティコン ---

// NewGifticonAfterStartError は開始後の添付エラーを生成する。
func NewGifticonAfterStartError() *APIError {
	return NewBadRequestError("기프티콘을 업로드하는 중, 이미 다짐 수행이 시작되어 업로드할 수 없습니다.")
}

// NewGifticonOnFreeGoalError は無料目標への添付エラーを生成する。
func NewGifticonOnFreeGoalError() *APIError {
	return NewBadRequestError("기프티콘을 업로드하는 중, 무료 다짐에는 기프티콘을 업로드할 수 없습니다.")
}

// NewGifticonNotCreatorError は作成者以外による添付エラーを生成する。
func NewGifticonNotCreatorError() *APIError {
	return NewBadRequestError("기프티콘을 업로드하는 중, 요청한 유저가 생성한 다짐에 대한 요청이 아닙니다.")
}

// NewGifticonAlreadyAttachedError は二重添付エラーを生成する。
func NewGifticonAlreadyAttachedError() *APIError {
	return NewBadRequestError("이미 기프티콘이 등록된 다짐입니다.")
}

// NewGifticonInaccessibleError は閲覧権限がない場合のエラーを生成する。
func NewGifticonInaccessibleError() *APIError {
	return NewBadRequestError("접근할 수 없는 기프티콘입니다.")
}

// NewGoalGifticonNotFoundError は目標にギフティコンが紐付いていない場合のエラーを生成する。
func NewGoalGifticonNotFoundError() *APIError {
	return NewBadRequestError("다짐에 등록된 기프티콘을 찾을 수 없습니다.")
}

// --- ベッティング ---

// NewBetOnOwnGoalError は自分の目標へのベットエラーを生成する。
func NewBetOnOwnGoalError() *APIError {
	return NewBadRequestError("자신의 다짐에는 내기에 참여할 수 없습니다.")
}

// NewBetAfterStartError は開始後のベットエラーを生成する。
func NewBetAfterStartError() *APIError {
	return NewBadRequestError("이미 시작된 다짐에는 내기에 참여할 수 없습니다.")
}

// NewDuplicateBettingError は二重ベットエラーを生成する。
func NewDuplicateBettingError() *APIError {
	return NewBadRequestError("이미 참여한 내기입니다.")
}

// NewWinnerNotFoundError は当選者未決定エラーを生成する。
func NewWinnerNotFoundError() *APIError {
	return NewNotFoundError("당첨자가 존재하지 않습니다.")
}

// --- 値オブジェクト ---

// NewFileTooLargeError はアップロードサイズ超過エラーを生成する。
func NewFileTooLargeError() *APIError {
	return NewBadRequestError("업로드할 수 있는 파일 크기를 초과했습니다.")
}

// NewBlankNicknameError は空のニックネームを表す。
func NewBlankNicknameError() *APIError {
	return NewBadRequestError("닉네임은 공백이어서는 안됩니다.")
}

// NewBlankURLError は空のURLを表す。
func NewBlankURLError() *APIError {
	return NewBadRequestError("URL은 공백이어서는 안됩니다.")
}

// NewBlankCommentError は空のコメントを表す。
func NewBlankCommentError() *APIError {
	return NewBadRequestError("Comment는 공백이어서는 안됩니다.")
}

// NewBlankContentError は空の目標内容を表す。
func NewBlankContentError() *APIError {
	return NewBadRequestError("다짐 내용은 공백이어서는 안됩니다.")
}

// NewInvalidGoalTypeError は未知の目標種別を表す。
func NewInvalidGoalTypeError(v string) *APIError {
	return NewBadRequestError(fmt.Sprintf("올바르지 않은 다짐 유형입니다: %s", v))
}

// NewInvalidPredictionError は未知の予想値を表す。
func NewInvalidPredictionError(v string) *APIError {
	return NewBadRequestError(fmt.Sprintf("올바르지 않은 예측 값입니다: %s", v))
}
