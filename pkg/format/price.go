// Package format 负责价格的展示格式。
package format

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// CurrencySuffix 是价格的展示单位（条件单位，不做汇率换算）。
const CurrencySuffix = "у.е."

// Price 把价格四舍五入到整数，按 lang 的千位分组规则格式化，并追加单位。
// lang 无法解析时使用俄语。
func Price(value float64, lang string) string {
	return Grouped(value, lang) + " " + CurrencySuffix
}

// Grouped 返回按千位分组的整数部分。
func Grouped(value float64, lang string) string {
	tag, err := language.Parse(lang)
	if err != nil || lang == "" {
		tag = language.Russian
	}
	p := message.NewPrinter(tag)
	return p.Sprint(number.Decimal(math.Round(value), number.MaxFractionDigits(0)))
}
