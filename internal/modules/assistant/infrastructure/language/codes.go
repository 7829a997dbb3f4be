package language

import "strings"

// LanguageNames 支持语言的展示名
var LanguageNames = map[string]string{
	"en": "English",
	"hi": "Hindi",
	"raj": "Rajasthani",
	"gu": "Gujarati",
	"mr": "Marathi",
	"pa": "Punjabi",
	"ta": "Tamil",
	"bn": "Bengali",
	"te": "Telugu",
	"kn": "Kannada",
	"ml": "Malayalam",
	"or": "Odia",
}

// fallbackCodes 把不在支持集内的语言码映射到最接近的支持语言。
// 例如拉贾斯坦语没有独立翻译通道，按惯例回落到印地语。
var fallbackCodes = map[string]string{
	"raj": "hi",
	"bho": "hi",
	"mai": "hi",
	"doi": "hi",
}

// scriptRange 一段 Unicode 区间对应的语言
type scriptRange struct {
	lo, hi rune
	lang   string
}

// 印度各文字的 Unicode 区间（天城文由 hi/mr 共用，检测时参考声明语言）
var scriptRanges = []scriptRange{
	{0x0900, 0x097F, "hi"}, // Devanagari
	{0x0980, 0x09FF, "bn"}, // Bengali
	{0x0A00, 0x0A7F, "pa"}, // Gurmukhi
	{0x0A80, 0x0AFF, "gu"}, // Gujarati
	{0x0B00, 0x0B7F, "or"}, // Odia
	{0x0B80, 0x0BFF, "ta"}, // Tamil
	{0x0C00, 0x0C7F, "te"}, // Telugu
	{0x0C80, 0x0CFF, "kn"}, // Kannada
	{0x0D00, 0x0D7F, "ml"}, // Malayalam
}

// devanagariLangs 共用天城文的语言（声明为其中之一时信任声明）
var devanagariLangs = map[string]bool{
	"hi":  true,
	"mr":  true,
	"raj": true,
}

// NormalizeCode 规范化语言码：小写、去掉地区后缀（hi-IN → hi）
func NormalizeCode(code string) string {
	code = strings.ToLower(strings.TrimSpace(code))
	if i := strings.IndexAny(code, "-_"); i > 0 {
		code = code[:i]
	}
	return code
}

// ResolveCode 把声明语言解析为可发给翻译通道的支持语言码。
// 不在支持集内时查静态回落表；仍无映射则返回空串（调用方原样透传）。
func ResolveCode(code string, supported map[string]bool) string {
	code = NormalizeCode(code)
	if code == "" {
		return ""
	}
	if supported[code] {
		return code
	}
	if fb, ok := fallbackCodes[code]; ok && supported[fb] {
		return fb
	}
	return ""
}

// DetectScriptLanguage 按字符区间统计文本的主导文字，返回对应语言码。
// 没有任何印度文字（纯拉丁等）时返回空串。
func DetectScriptLanguage(text string) string {
	counts := make(map[string]int)
	total := 0
	for _, r := range text {
		for _, sr := range scriptRanges {
			if r >= sr.lo && r <= sr.hi {
				counts[sr.lang]++
				total++
				break
			}
		}
	}
	if total == 0 {
		return ""
	}
	best, bestN := "", 0
	for lang, n := range counts {
		if n > bestN || (n == bestN && lang < best) {
			best, bestN = lang, n
		}
	}
	return best
}
