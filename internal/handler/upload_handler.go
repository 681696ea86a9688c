package handler

import (
	"net/http"

	"hoodlink/internal/pkg"

	"github.com/gin-gonic/gin"
)

// UploadSigner 由 pkg.CloudinaryClient 实现
type UploadSigner interface {
	SignUpload(folder string) pkg.UploadSignature
}

type UploadHandler struct {
	signer UploadSigner
}

// NewUploadHandler signer 为 nil 表示未配置图床
func NewUploadHandler(signer UploadSigner) *UploadHandler {
	return &UploadHandler{signer: signer}
}

// Signature ?folder=可选
func (h *UploadHandler) Signature(c *gin.Context) {
	if h.signer == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "圖片上傳未啟用"})
		return
	}
	sig := h.signer.SignUpload(c.Query("folder"))
	c.JSON(http.StatusOK, gin.H{"success": true, "upload": sig})
}
