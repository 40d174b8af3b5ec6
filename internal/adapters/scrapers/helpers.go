package scrapers

import (
	"strconv"
	"strings"
)

// cleanPrice извлекает целую цену из строки вида "€ 250.000" или "250.000 k.k.".
// Копейки после запятой отбрасываются.
func cleanPrice(raw string) (int64, bool) {
	raw = strings.TrimSpace(raw)
	if idx := strings.IndexAny(raw, ","); idx >= 0 {
		raw = raw[:idx]
	}
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0, false
	}
	price, err := strconv.ParseInt(digits.String(), 10, 64)
	if err != nil {
		return 0, false
	}
	return price, true
}

// cleanNumber извлекает первое целое число из строки вида "120 m²" или "4 kamers".
func cleanNumber(raw string) (int, bool) {
	start := -1
	end := len(raw)
	for i, r := range raw {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			end = i
			break
		}
	}
	if start < 0 {
		return 0, false
	}
	n, err := strconv.Atoi(raw[start:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

// listingID строит стабильный идентификатор из имени источника
// и последнего сегмента URL объявления.
func listingID(source, url string) string {
	trimmed := strings.TrimSuffix(url, "/")
	if idx := strings.LastIndex(trimmed, "/"); idx >= 0 {
		trimmed = trimmed[idx+1:]
	}
	return source + "_" + trimmed
}
