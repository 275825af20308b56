package prompts

import "time"

// SeasonalContext describes the current season or holiday period in Japan,
// handed to the model so articles reference what readers are dealing with right now.
type SeasonalContext struct {
	Keyword     string `json:"keyword"`
	Label       string `json:"label"`
	Description string `json:"description"`
}

// SeasonalContextFor returns the seasonal context for t, evaluated in loc.
// A nil loc means Asia/Tokyo, falling back to a fixed +9h zone when tzdata is unavailable.
func SeasonalContextFor(t time.Time, loc *time.Location) SeasonalContext {
	if loc == nil {
		loc = tokyo()
	}
	local := t.In(loc)
	month, day := local.Month(), local.Day()

	switch {
	case (month == time.March && day >= 10) || (month == time.April && day <= 10):
		return SeasonalContext{
			Keyword:     "新生活",
			Label:       "新生活シーズン",
			Description: "進学や就職、転勤などで新生活を始める人が多い時期です。引っ越し準備や家具・家電の一時利用、初期費用を抑えたいニーズが高まっています。",
		}
	case month == time.April || (month == time.May && day <= 10):
		return SeasonalContext{
			Keyword:     "GW",
			Label:       "ゴールデンウィーク前後",
			Description: "ゴールデンウィークや週末の小旅行、実家への帰省などで一時的に家電や荷物が増えやすい時期です。短期レンタルやサブ冷蔵庫・カメラの需要が高まりやすくなります。",
		}
	case month == time.June:
		return SeasonalContext{
			Keyword:     "梅雨",
			Label:       "梅雨どき",
			Description: "雨の日が多く、外出が減ったり洗濯物が乾きにくくなる時期です。室内時間が増えることで、家電レンタルや在宅環境を整えたいニーズが高まりやすくなります。",
		}
	case month == time.July || month == time.August:
		return SeasonalContext{
			Keyword:     "夏休み",
			Label:       "夏休み・お盆シーズン",
			Description: "夏休みやお盆の帰省、キャンプやアウトドアなどで一時的に家電を使いたいシーンが増える時期です。カメラ・冷蔵庫・ポータブル電源などのレンタルニーズが高まります。",
		}
	case month == time.September:
		return SeasonalContext{
			Keyword:     "防災",
			Label:       "台風・防災シーズン",
			Description: "台風シーズンで停電や防災への備えを見直す人が増える時期です。非常用の家電や、万が一に備えた一時的なレンタル需要が高まりやすくなります。",
		}
	case month == time.October:
		return SeasonalContext{
			Keyword:     "衣替え",
			Label:       "秋の衣替えシーズン",
			Description: "夏物から冬物へと持ち物や部屋の構成を切り替える時期です。暖房器具や冬向け家電を買うか迷う人が増え、『まずはレンタルで試したい』というニーズが出てきます。",
		}
	case month == time.November || month == time.December:
		return SeasonalContext{
			Keyword:     "年末",
			Label:       "年末年始の準備シーズン",
			Description: "年末の大掃除やおせち・来客の準備などで、一時的に家電や収納が必要になりやすい時期です。サブ冷蔵庫や調理家電などをレンタルで補う需要が増えます。",
		}
	case month == time.January || month == time.February:
		return SeasonalContext{
			Keyword:     "冬の暮らし",
			Label:       "冬の在宅シーズン",
			Description: "寒さが厳しく在宅時間が長くなりやすい時期です。暖房・加湿・在宅ワーク用の家電など、期間限定で使いたいニーズが高まりやすくなります。",
		}
	}

	return SeasonalContext{
		Keyword:     "暮らしの見直し",
		Label:       "暮らしの見直しシーズン",
		Description: "生活リズムや持ち物を整え直したい人が多い時期です。『買う前に試したい』『今だけ家電を増やしたい』といったニーズに、レンタルやサブスクがフィットしやすくなります。",
	}
}

func tokyo() *time.Location {
	loc, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		return time.FixedZone("JST", 9*60*60)
	}
	return loc
}
