package pkg

import (
	"github.com/google/uuid"
)

// NewID 生成按创建时间有序的全局唯一 id（UUIDv7）
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// ValidID 校验路径/请求体中的 id 格式
func ValidID(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
