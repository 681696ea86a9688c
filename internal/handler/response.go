package handler

import (
	"errors"
	"net/http"
	"strconv"

	"hoodlink/internal/pkg"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// ok 成功响应：{success, message, <key>: data}
func ok(c *gin.Context, status int, msg, key string, data any) {
	body := gin.H{"success": true}
	if msg != "" {
		body["message"] = msg
	}
	if key != "" {
		body[key] = data
	}
	c.JSON(status, body)
}

// fail 按错误分类返回状态码，Internal 只记日志不回传细节
func fail(c *gin.Context, log *zap.Logger, err error) {
	status := pkg.StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("route", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(status, gin.H{"success": false, "message": pkg.PublicMessage(err)})
}

// badRequest 请求体绑定失败
func badRequest(c *gin.Context, err error) {
	msg := "參數錯誤"
	var ve validator.ValidationErrors
	if errors.As(err, &ve) && len(ve) > 0 {
		msg = "參數錯誤：" + ve[0].Field()
	}
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": msg})
}

func queryInt(c *gin.Context, key string) int {
	n, _ := strconv.Atoi(c.Query(key))
	return n
}

// pageQuery 读取 page / limit
func pageQuery(c *gin.Context) (int, int) {
	return queryInt(c, "page"), queryInt(c, "limit")
}
