// README: Keyword normalization for nearby-facility search.
package retrieve

import "strings"

// categorySynonyms folds colloquial facility terms onto the canonical category
// keyword the place-search API matches best.
var categorySynonyms = map[string]string{
	"맛집":   "음식점",
	"밥집":   "음식점",
	"먹을거리": "음식점",
	"먹거리":  "음식점",
	"커피숍":  "카페",
	"커피":   "카페",
	"기름":   "주유소",
	"충전":   "전기차 충전소",
	"충전소":  "전기차 충전소",
	"슈퍼":   "편의점",
	"마트":   "편의점",
}

// normalizeKeywords joins the keyword list into one search phrase, replacing
// known colloquial terms with their canonical category.
func normalizeKeywords(keywords []string) string {
	var parts []string
	for _, kw := range keywords {
		kw = strings.TrimSpace(kw)
		if kw == "" {
			continue
		}
		if canon, ok := categorySynonyms[kw]; ok {
			kw = canon
		}
		parts = append(parts, kw)
	}
	return strings.Join(parts, " ")
}
