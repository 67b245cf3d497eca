package handler

import (
	"fmt"
	"io"
	"net/url"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/liftwise/liftwise/internal/cmms/service"
)

// EvidenceHandler 照片取证处理器
type EvidenceHandler struct {
	svc *service.EvidenceService
}

// NewEvidenceHandler 创建照片取证处理器
func NewEvidenceHandler(svc *service.EvidenceService) *EvidenceHandler {
	return &EvidenceHandler{svc: svc}
}

// UploadedEvidence 上传结果
type UploadedEvidence struct {
	EvidenceRef string `json:"evidence_ref"`
	Filename    string `json:"filename"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
}

// Upload 上传取证照片，返回报告答案要填的 evidence_ref
// POST /api/v1/evidence
func (h *EvidenceHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "没有上传文件: "+err.Error())
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "读取上传文件失败: "+err.Error())
		return
	}
	defer src.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	ref, err := h.svc.Upload(c.Request.Context(), src, fileHeader.Filename, fileHeader.Size, contentType)
	if err != nil {
		InternalError(c, "上传取证照片失败: "+err.Error())
		return
	}

	Created(c, UploadedEvidence{
		EvidenceRef: ref,
		Filename:    fileHeader.Filename,
		Size:        fileHeader.Size,
		ContentType: contentType,
	})
}

// Download 取回取证照片
// GET /api/v1/evidence/*ref
func (h *EvidenceHandler) Download(c *gin.Context) {
	ref := c.Param("ref")
	if len(ref) > 0 && ref[0] == '/' {
		ref = ref[1:]
	}
	if ref == "" {
		BadRequest(c, "缺少对象路径")
		return
	}

	object, err := h.svc.Download(c.Request.Context(), ref)
	if err != nil {
		InternalError(c, "读取取证照片失败: "+err.Error())
		return
	}
	defer object.Close()

	fileName := url.QueryEscape(filepath.Base(ref))
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename*=UTF-8''%s", fileName))
	if _, err := io.Copy(c.Writer, object); err != nil {
		_ = c.Error(err)
	}
}
