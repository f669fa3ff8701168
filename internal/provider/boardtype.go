package provider

import "strings"

// classifyBoardType infers the board type from first/last seal times.
//
// 一字板: sealed at auction, never opened  |  T字板: auction seal, reopened intraday
// 秒板: sealed within minutes of the open  |  换手板: sealed after real turnover
// 烂板: repeatedly broken and resealed     |  尾盘板: sealed after 14:00
func classifyBoardType(firstSeal, lastSeal string) string {
	if firstSeal == "" || lastSeal == "" {
		return "未知"
	}
	fs := timeToSeconds(firstSeal)
	ls := timeToSeconds(lastSeal)
	if fs == 0 {
		return "未知"
	}
	gap := ls - fs
	const auctionCutoff = 9*3600 + 25*60 + 2 // 09:25:02

	if fs <= auctionCutoff {
		if gap <= 2 {
			return "一字板"
		}
		return "T字板"
	}
	if fs <= 9*3600+35*60 {
		if gap <= 300 {
			return "秒板"
		}
		return "分歧板"
	}
	if ls >= 14*3600 {
		if fs >= 14*3600 {
			return "尾盘板"
		}
		return "烂板"
	}
	if gap <= 600 {
		return "换手板"
	}
	return "分歧板"
}

// timeToSeconds converts an HHMMSS seal-time string to seconds of day.
func timeToSeconds(t string) int {
	s := strings.TrimSpace(strings.ReplaceAll(t, ":", ""))
	for len(s) < 6 {
		s += "0"
	}
	hh := digits(s[0:2])
	mm := digits(s[2:4])
	ss := digits(s[4:6])
	if hh < 0 || mm < 0 || ss < 0 {
		return 0
	}
	return hh*3600 + mm*60 + ss
}

func digits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return -1
		}
		n = n*10 + int(c-'0')
	}
	return n
}
