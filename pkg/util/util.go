package util

import (
	"strings"

	"github.com/google/uuid"
)

// GenerateUUID 生成一个标准的 UUID (v4)
func GenerateUUID() string {
	return uuid.New().String()
}

// GenerateShortUUID 生成一个不带中划线的短 UUID
func GenerateShortUUID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// GenerateID 生成带业务前缀的短 ID（总长不超过 20，适配 char(20) 列）
func GenerateID(prefix string) string {
	short := GenerateShortUUID()
	max := 20 - len(prefix)
	if max <= 0 {
		return short[:20]
	}
	if len(short) > max {
		short = short[:max]
	}
	return prefix + short
}
