package service

import (
	"regexp"

	"github.com/shopspring/decimal"
)

// CBM体积以十进制字符串跨边界传递，统一格式 ^\d+(\.\d+)?$，
// 运算用 shopspring/decimal 保证任意精度下的精确加法。

var decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)

// NormalizeDecimal 规范化十进制字符串：去除整数部分前导零与小数部分尾随零。
// 输入不匹配格式时返回 false。
func NormalizeDecimal(raw string) (string, bool) {
	if !decimalPattern.MatchString(raw) {
		return "", false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", false
	}
	return d.String(), true
}

// AddDecimal 精确加法，入参须已通过 NormalizeDecimal 校验
func AddDecimal(a, b string) (string, error) {
	da, err := decimal.NewFromString(a)
	if err != nil {
		return "", validationErrorf("非法的十进制数字: %s", a)
	}
	db, err := decimal.NewFromString(b)
	if err != nil {
		return "", validationErrorf("非法的十进制数字: %s", b)
	}
	return da.Add(db).String(), nil
}

// ParsePositiveDecimal 规范化并要求严格大于0
func ParsePositiveDecimal(raw, field string) (string, error) {
	normalized, ok := NormalizeDecimal(raw)
	if !ok {
		return "", validationErrorf("%s 必须是合法的十进制数字", field)
	}
	if normalized == "0" {
		return "", validationErrorf("%s 必须大于0", field)
	}
	return normalized, nil
}
