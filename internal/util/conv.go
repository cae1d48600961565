package util

import (
	"strconv"
)

// MustParseUint 将字符串转换为无符号整数，解析失败时返回 0
func MustParseUint(s string) uint {
	id, _ := strconv.ParseUint(s, 10, 32)
	return uint(id)
}

// ParsePage 解析页码，非法值返回 1
func ParsePage(s string) int {
	page, err := strconv.Atoi(s)
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// ClampLimit 限制每页数量在 [1, MaxPageSize]
func ClampLimit(s string, def int) int {
	limit, err := strconv.Atoi(s)
	if err != nil || limit < 1 {
		return def
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}
