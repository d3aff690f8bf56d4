package rotation

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CheckRotation 是公开的按需触发入口，任何调用方无需认证即可访问。
// 它有严格的时间闸门保护（未过期时是幂等空操作），可以被任意频繁地调用。
// 内部错误只在服务端记录，对匿名调用方一律返回"未轮换"。
func CheckRotation(c *gin.Context) {
	result, err := RotateIfNeeded(time.Now())
	if err != nil {
		fmt.Printf("公开轮换入口错误（对调用方隐藏）: %v\n", err)
		c.JSON(http.StatusOK, Result{Rotated: false, Reason: ReasonNotExpired})
		return
	}
	c.JSON(http.StatusOK, result)
}

// ForceRotation 是管理员的强制轮换入口，由admin中间件保证已认证。
// 与公开入口不同，内部错误会如实返回给管理员。
func ForceRotation(c *gin.Context) {
	result, err := ForceRotate(time.Now())
	if err != nil {
		fmt.Printf("强制轮换失败: %v\n", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "强制轮换失败: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}
