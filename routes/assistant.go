package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"enterprise-docs-qa/services"
	"enterprise-docs-qa/utils"
)

// QueryRequest is the body of POST /api/query.
type QueryRequest struct {
	Question string `json:"question" binding:"required"`
}

// SetupAssistantRoutes wires the service-facing operations: query answering,
// document listing, reindexing and status.
func SetupAssistantRoutes(router *gin.Engine, assistant *services.Assistant) {
	api := router.Group("/api")

	api.POST("/query", func(c *gin.Context) {
		var req QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.RespondWithBadRequest(c, "Invalid request data", gin.H{"error": err.Error()})
			return
		}

		record, err := assistant.AnswerQuery(c.Request.Context(), req.Question)
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, record)
	})

	api.GET("/documents", func(c *gin.Context) {
		docs, err := assistant.ListDocuments(c.Request.Context())
		if err != nil {
			utils.RespondWithServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"documents": docs, "count": len(docs)})
	})

	api.POST("/admin/reindex", func(c *gin.Context) {
		result := assistant.Reindex(c.Request.Context())
		status := http.StatusOK
		if !result.Success {
			status = http.StatusConflict
		}
		c.JSON(status, result)
	})

	api.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, assistant.Status())
	})
}
