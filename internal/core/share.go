package core

import (
	"fmt"
	"strconv"
	"strings"
)

// shareSlogans rotate through the share text to keep repeated shares from
// reading identically.
var shareSlogans = []string{
	"馭電智行，讓每一公里都充滿潔淨能量！🌱",
	"電車生活，不僅省錢，更是對地球的一份愛護。🌍",
	"告別油站，迎接智能充電新時代！⚡️",
	"今天我又省下了一筆油費，還為環保出了一份力！🔋",
	"充電不再是負擔，而是智慧理財的一環。📊",
	"比起油車，我更喜歡這種安靜又划算的感覺。🤫",
}

// SloganPicker selects an index into a slogan list of length n. Injecting
// it keeps ShareText deterministic under test while production callers
// pass a rand-backed picker.
type SloganPicker func(n int) int

// ShareText renders the social share blurb for one record. Distance and
// cost per km come from TripBefore over the owner's full history;
// non-positive values fall back to placeholder wording rather than
// showing a zero.
func ShareText(rec ChargingRecord, distance, costPerKm float64, siteURL string, pick SloganPicker) string {
	distanceLine := "尚未記錄"
	if distance > 0 {
		distanceLine = formatNumber(distance) + " km"
	}
	costLine := "計算中"
	if costPerKm > 0 {
		costLine = fmt.Sprintf("%.2f/km", costPerKm)
	}
	slogan := shareSlogans[pick(len(shareSlogans))%len(shareSlogans)]

	var b strings.Builder
	b.WriteString("【我的電車充電紀錄 ⚡️】\n")
	fmt.Fprintf(&b, "📍 地點：%s\n", rec.Location)
	fmt.Fprintf(&b, "🔋 充電量：%s kWh\n", formatNumber(rec.KWH))
	fmt.Fprintf(&b, "💰 總支出：$%s\n", formatNumber(rec.TotalAmount))
	fmt.Fprintf(&b, "🚗 行駛距離：%s\n", distanceLine)
	fmt.Fprintf(&b, "💎 每公里成本：$%s\n", costLine)
	b.WriteString("\n")
	b.WriteString(slogan)
	b.WriteString("\n\n")
	b.WriteString("想跟我一樣聰明紀錄充電開支嗎？快來試用：\n")
	fmt.Fprintf(&b, "🔗 %s\n", siteURL)
	b.WriteString("\n")
	b.WriteString("#EVTracker #電車生活 #環保節能 #SmartMobility")
	return b.String()
}

// formatNumber prints a float without trailing zeros (80 not 80.0,
// 12.5 stays 12.5), matching how the figures are entered.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
