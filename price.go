package harvest

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Price is a listing price. Vendor pages quote prices in units of 10,000 won (만원).
type Price struct {
	AmountTenThousandWon int    `json:"amountTenThousandWon"`
	AmountWon            int64  `json:"amountWon"`
	Label                string `json:"label"`
	CompactLabel         string `json:"compactLabel"`
}

// MaxPriceAmount is the largest amount in 만원 whose won value fits in an int64.
const MaxPriceAmount = math.MaxInt64 / 10000

// NewPrice derives every price representation from an amount in 만원.
func NewPrice(amount int) Price {
	return Price{
		AmountTenThousandWon: amount,
		AmountWon:            int64(amount) * 10000,
		Label:                PriceLabel(amount),
		CompactLabel:         CompactLabel(amount),
	}
}

// PriceLabel formats an amount as "1,500만원".
func PriceLabel(amount int) string {
	return FormatThousands(amount) + "만원"
}

// CompactLabel abbreviates an amount in 만원 to 억/천만 form, e.g. 15000 → "1.5억",
// 1500 → "1.5천만". Amounts below 1000 fall back to PriceLabel.
//
// Rounding of the fractional digit is half-up and is not clamped, so a
// remainder close to the next unit carries into a two-digit fraction:
// 9999 → "9.10천만", 19999 → "1.10억".
func CompactLabel(amount int) string {
	switch {
	case amount >= 10000:
		billions := amount / 10000
		remainder := amount % 10000
		if remainder == 0 {
			return strconv.Itoa(billions) + "억"
		}
		thousands := roundHalfUp(float64(remainder) / 1000)
		if thousands == 0 {
			return strconv.Itoa(billions) + "억"
		}
		return strconv.Itoa(billions) + "." + strconv.Itoa(thousands) + "억"
	case amount >= 1000:
		thousands := amount / 1000
		hundreds := roundHalfUp(float64(amount%1000) / 100)
		if hundreds == 0 {
			return strconv.Itoa(thousands) + "천만"
		}
		return strconv.Itoa(thousands) + "." + strconv.Itoa(hundreds) + "천만"
	default:
		return PriceLabel(amount)
	}
}

// FormatThousands renders n with comma thousands separators.
func FormatThousands(n int) string {
	s := strconv.Itoa(n)
	sign := ""
	if n < 0 {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}

	var b strings.Builder
	b.WriteString(sign)
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// ParsePriceText parses the amount shown on a listing page.
// Thousands separators and whitespace are stripped and the leading integer
// is taken, so "1,500 만원" parses as 1500. Text without a leading integer,
// or with a magnitude above MaxPriceAmount, parses as 0.
func ParsePriceText(text string) int {
	cleaned := strings.Map(func(r rune) rune {
		if r == ',' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)

	end := 0
	if end < len(cleaned) && (cleaned[end] == '-' || cleaned[end] == '+') {
		end++
	}
	digits := end
	for end < len(cleaned) && cleaned[end] >= '0' && cleaned[end] <= '9' {
		end++
	}
	if end == digits {
		return 0
	}

	n, err := strconv.ParseInt(cleaned[:end], 10, 64)
	if err != nil || n > MaxPriceAmount || n < -MaxPriceAmount {
		return 0
	}
	return int(n)
}

func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}
