package user

import (
	"fmt"

	"github.com/google/uuid"
)

// NewParticipantID 生成一个新的参与者标识（UUID v7，时间有序便于排查）。
func NewParticipantID() (string, error) {
	newUUID, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("无法生成UUID v7: %w", err)
	}
	return newUUID.String(), nil
}

// IsValidUUID 校验一个字符串是否是合法的UUID格式。
func IsValidUUID(s string) bool {
	if s == "" {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}
