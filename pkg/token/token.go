package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// secretKey 是服务器在启动时生成的32字节密钥，进程重启后所有旧令牌自动失效。
var secretKey []byte

// SessionPayload 定义了管理员会话令牌中被签名的数据结构。
type SessionPayload struct {
	Role      string `json:"r"`
	ExpiresAt int64  `json:"e"` // Unix秒
}

// AdminRole 是目前唯一的受信角色。
const AdminRole = "admin"

// 校验失败的具体原因，用于向调用方返回可区分的错误码。
var (
	ErrMalformedToken = errors.New("令牌格式不正确")
	ErrBadSignature   = errors.New("令牌签名无效")
	ErrExpiredToken   = errors.New("令牌已过期")
)

// GenerateSecretKey 生成一个密码学安全的32字节随机密钥。
// 必须在签发任何令牌之前调用一次。
func GenerateSecretKey() {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic("无法生成安全的密钥: " + err.Error())
	}
	secretKey = key
	fmt.Println("HMAC密钥已成功生成。")
}

// sign 对一段payload字节计算HMAC-SHA256签名。
func sign(payloadBytes []byte) []byte {
	mac := hmac.New(sha256.New, secretKey)
	mac.Write(payloadBytes)
	return mac.Sum(nil)
}

// GenerateSessionToken 为指定角色签发一个带有效期的会话令牌。
// 令牌格式为 base64(payload) + "." + base64(signature)。
func GenerateSessionToken(role string, validity time.Duration) (string, error) {
	payload := SessionPayload{
		Role:      role,
		ExpiresAt: time.Now().Add(validity).Unix(),
	}
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", errors.New("无法序列化会话payload")
	}

	encodedPayload := base64.RawURLEncoding.EncodeToString(payloadBytes)
	encodedSignature := base64.RawURLEncoding.EncodeToString(sign(payloadBytes))
	return encodedPayload + "." + encodedSignature, nil
}

// ValidateSessionToken 校验令牌的签名和有效期，成功时返回payload。
// 返回的错误可与ErrMalformedToken/ErrBadSignature/ErrExpiredToken比较。
func ValidateSessionToken(tokenStr string) (*SessionPayload, error) {
	parts := strings.Split(tokenStr, ".")
	if len(parts) != 2 {
		return nil, ErrMalformedToken
	}

	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return nil, ErrMalformedToken
	}
	actualSignature, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, ErrMalformedToken
	}

	// 使用 hmac.Equal 进行时间恒定的比较，防止时序攻击
	if !hmac.Equal(sign(payloadBytes), actualSignature) {
		return nil, ErrBadSignature
	}

	var payload SessionPayload
	if err := json.Unmarshal(payloadBytes, &payload); err != nil {
		return nil, ErrMalformedToken
	}
	if time.Now().Unix() > payload.ExpiresAt {
		return nil, ErrExpiredToken
	}

	return &payload, nil
}
