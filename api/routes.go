package api

import (
	"github.com/SlpAus/daily-puzzle-backend/internal/admin"
	"github.com/SlpAus/daily-puzzle-backend/internal/presence"
	"github.com/SlpAus/daily-puzzle-backend/internal/puzzle"
	"github.com/SlpAus/daily-puzzle-backend/internal/rotation"
	"github.com/SlpAus/daily-puzzle-backend/internal/stats"
	"github.com/SlpAus/daily-puzzle-backend/internal/user"
	"github.com/gin-gonic/gin"
)

// SetupRoutes 注册项目的所有API路由
func SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")
	{
		// 谜题相关的路由组 /api/puzzle
		puzzleRoutes := api.Group("/puzzle")
		{
			puzzleRoutes.GET("/current", user.EnsureParticipantCookieMiddleware(), puzzle.GetCurrentPuzzle)
			puzzleRoutes.POST("/submit", puzzle.SubmitPuzzle)
			puzzleRoutes.POST("/solve", user.LoadParticipantMiddleware(), stats.SubmitGuess)
		}

		// 归档浏览
		api.GET("/archive", puzzle.GetArchiveList)

		// 轮换触发：公开入口无需认证，强制入口要求管理员令牌
		rotationRoutes := api.Group("/rotation")
		{
			rotationRoutes.POST("/check", rotation.CheckRotation)
		}

		// 统计读取
		api.GET("/stats/current", stats.GetCurrentStats)

		// 在线心跳
		presenceRoutes := api.Group("/presence")
		{
			presenceRoutes.POST("/ping", user.LoadParticipantMiddleware(), presence.PingHandler)
			presenceRoutes.GET("/online", presence.OnlineCountHandler)
		}

		// 管理接口 /api/admin
		adminRoutes := api.Group("/admin")
		{
			adminRoutes.POST("/login", admin.Login)

			authorized := adminRoutes.Group("")
			authorized.Use(admin.RequireAdminMiddleware())
			{
				authorized.POST("/rotate", rotation.ForceRotation)
				authorized.GET("/submissions", admin.ListSubmissions)
				authorized.POST("/submissions/:id/approve", admin.ApproveSubmission)
				authorized.POST("/submissions/:id/reject", admin.RejectSubmission)
			}
		}
	}
}
