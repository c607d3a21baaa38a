package currency

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/currency"
)

// DefaultCode 默认货币
const DefaultCode = "INR"

// Formatter 金额格式化器
type Formatter struct {
	code   string
	symbol string
	indian bool // 印度式分组 (1,23,456)
}

// Default 默认格式化器 (INR)
var Default = MustNew(DefaultCode)

// New 根据 ISO 4217 代码创建格式化器
func New(code string) (*Formatter, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCode
	}

	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("parse currency %q: %w", code, err)
	}

	return &Formatter{
		code:   unit.String(),
		symbol: fmt.Sprint(currency.NarrowSymbol(unit)),
		indian: unit == currency.INR,
	}, nil
}

// MustNew 同 New，失败时 panic
func MustNew(code string) *Formatter {
	f, err := New(code)
	if err != nil {
		panic(err)
	}
	return f
}

// Code 货币代码
func (f *Formatter) Code() string {
	return f.code
}

// Symbol 货币符号
func (f *Formatter) Symbol() string {
	return f.symbol
}

// Format 格式化金额，固定两位小数
func (f *Formatter) Format(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}

	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	s := strconv.FormatFloat(amount, 'f', 2, 64)
	intPart, frac, _ := strings.Cut(s, ".")

	return sign + f.symbol + group(intPart, f.indian) + "." + frac
}

// group 千分位分组；印度式为末三位后每两位一组
func group(digits string, indian bool) string {
	if len(digits) <= 3 {
		return digits
	}

	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	size := 3
	if indian {
		size = 2
	}

	var parts []string
	for len(head) > size {
		parts = append([]string{head[len(head)-size:]}, parts...)
		head = head[:len(head)-size]
	}
	parts = append([]string{head}, parts...)

	return strings.Join(parts, ",") + "," + tail
}
