package model

import "math/rand/v2"

var nicknameAdjectives = []string{
	"용감한", "졸린", "배고픈", "반짝이는", "수줍은", "씩씩한", "느긋한", "부지런한",
	"행복한", "엉뚱한", "날쌘", "조용한", "힘찬", "귀여운", "든든한", "상냥한",
	"멋진", "똑똑한", "신나는", "포근한",
}

var nicknameNouns = []string{
	"용", "고양이", "거북이", "다람쥐", "호랑이", "펭귄", "수달", "부엉이",
	"여우", "판다", "코알라", "햄스터", "돌고래", "토끼", "사자", "곰",
	"알파카", "너구리", "고래", "병아리",
}

// GenerateRandomNickname は「形容詞 名詞」形式のランダムなニックネームを生成する。
func GenerateRandomNickname() Nickname {
	adj := nicknameAdjectives[rand.IntN(len(nicknameAdjectives))]
	noun := nicknameNouns[rand.IntN(len(nicknameNouns))]
	return Nickname(adj + " " + noun)
}
