package model

import "time"

// GoalDuration は目標の実行期間（7日間）。
const GoalDuration = 7 * 24 * time.Hour

// GoalDays は目標の実行日数。
const GoalDays = 7

// GoalType は目標の種別を表す。
type GoalType string

const (
	// GoalTypeFree はギフティコンを賭けない無料目標。
	GoalTypeFree GoalType = "FREE"
	// GoalTypeBilling はギフティコンを賭ける有料目標。
	GoalTypeBilling GoalType = "BILLING"
)

// ParseGoalType は文字列からGoalTypeを解析する。
func ParseGoalType(v string) (GoalType, error) {
	switch GoalType(v) {
	case GoalTypeFree, GoalTypeBilling:
		return GoalType(v), nil
	default:
		return "", NewInvalidGoalTypeError(v)
	}
}

// GoalResult は目標の判定結果を表す。
type GoalResult string

const (
	GoalResultProceeding GoalResult = "PROCEEDING"
	GoalResultSuccess    GoalResult = "SUCCESS"
	GoalResultFailure    GoalResult = "FAILURE"
)

// Goal はユーザーが宣言した7日間の目標を表す。
type Goal struct {
	ID        string
	UserID    string
	Type      GoalType
	Content   string
	Result    GoalResult
	StartDate time.Time
	EndDate   time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewGoal はEndDateをStartDate+7日に固定してGoalを生成する。
func NewGoal(id, userID string, goalType GoalType, content string, startDate, now time.Time) *Goal {
	return &Goal{
		ID:        id,
		UserID:    userID,
		Type:      goalType,
		Content:   content,
		Result:    GoalResultProceeding,
		StartDate: startDate,
		EndDate:   startDate.Add(GoalDuration),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IsOwnedBy は指定ユーザーが目標の作成者かを返す。
func (g *Goal) IsOwnedBy(userID string) bool {
	return g.UserID == userID
}

// HasStarted はnow時点で目標が開始済みかを返す。
func (g *Goal) HasStarted(now time.Time) bool {
	return !now.Before(g.StartDate)
}

// HasEnded はnow時点で目標が終了済みかを返す。
func (g *Goal) HasEnded(now time.Time) bool {
	return !now.Before(g.EndDate)
}

// IsProceeding は判定前の目標かを返す。
func (g *Goal) IsProceeding() bool {
	return g.Result == GoalResultProceeding
}

// ProofDay はnowが属する暦日が目標の何日目かを返す（1〜7）。
// [開始日, 開始日+7日) の範囲外の場合はfalseを返す。
func (g *Goal) ProofDay(now time.Time, loc *time.Location) (int, bool) {
	diff := DaysBetween(CalendarDate(g.StartDate, loc), CalendarDate(now, loc))
	if diff < 0 || diff >= GoalDays {
		return 0, false
	}
	return diff + 1, true
}

// DayOf は認証日が目標の何日目に当たるかを返す。
func (g *Goal) DayOf(proofDate time.Time, loc *time.Location) int {
	return DaysBetween(CalendarDate(g.StartDate, loc), proofDate) + 1
}

// CalendarDate はloc上の暦日をUTCの0時として返す。
// DATE型カラムとの比較に使用する。
func CalendarDate(t time.Time, loc *time.Location) time.Time {
	if loc != nil {
		t = t.In(loc)
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween は暦日fromからtoまでの日数を返す。
func DaysBetween(from, to time.Time) int {
	return int(to.Sub(from).Hours() / 24)
}

// GoalProof は目標に対する1日分の認証を表す。
type GoalProof struct {
	ID        string
	UserID    string
	GoalID    string
	URL       URL
	Comment   Comment
	ProofDate time.Time // CalendarDateで正規化した認証日
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Gifticon はユーザーがアップロードしたギフト券。
type Gifticon struct {
	ID          string
	UserID      string
	URL         URL
	IsValidated bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GoalGifticon は目標とギフティコンの1対1の紐付け。
type GoalGifticon struct {
	ID         string
	GoalID     string
	GifticonID string
	CreatedAt  time.Time
}

// Winner は判定時に選ばれたギフティコンの当選者。
type Winner struct {
	ID         string
	GoalID     string
	UserID     string
	GifticonID string
	CreatedAt  time.Time
}

// Prediction はベッティングの予想を表す。
type Prediction string

const (
	PredictionSuccess Prediction = "SUCCESS"
	PredictionFail    Prediction = "FAIL"
)

// ParsePrediction は文字列からPredictionを解析する。
func ParsePrediction(v string) (Prediction, error) {
	switch Prediction(v) {
	case PredictionSuccess, PredictionFail:
		return Prediction(v), nil
	default:
		return "", NewInvalidPredictionError(v)
	}
}

// Matches は予想が目標の判定結果と一致するかを返す。
func (p Prediction) Matches(result GoalResult) bool {
	switch result {
	case GoalResultSuccess:
		return p == PredictionSuccess
	case GoalResultFailure:
		return p == PredictionFail
	default:
		return false
	}
}

// Betting は他人の目標の成否に対する予想。
type Betting struct {
	ID         string
	UserID     string
	GoalID     string
	Prediction Prediction
	CreatedAt  time.Time
}
