package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/meshaid/backend/api/transport"
	"github.com/meshaid/backend/core"
	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/pkg/httpcontext"
	"github.com/meshaid/backend/repository"
	taskUC "github.com/meshaid/backend/usecase/taskflow"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	filter := repository.TaskFilter{
		Creator:  string(ctx.QueryArgs().Peek("creator")),
		Status:   string(ctx.QueryArgs().Peek("status")),
		Category: string(ctx.QueryArgs().Peek("category")),
		Limit:    parseInt(string(ctx.QueryArgs().Peek("limit")), 50),
		Offset:   parseInt(string(ctx.QueryArgs().Peek("offset")), 0),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, err := h.uc.List(stdCtx, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, tasks)
}

// @Summary Publish a help request
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}

	var req transport.TaskCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.ID == "" {
		h.badRequest(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Create(stdCtx, caller, core.CreateTaskInput{
		ID:         req.ID,
		Location:   domain.GeoPoint{LatMicro: req.LatMicro, LonMicro: req.LonMicro},
		Category:   req.Category,
		Priority:   req.Priority,
		ContentRef: req.ContentRef,
		TTL:        time.Duration(req.TTLSeconds) * time.Second,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, task)
}

// @Summary Fetch one task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Get(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Verification summary for a task
// @Tags tasks
// @Router /api/v1/tasks/{id}/trust [get]
func (h *TaskHandler) TrustInfo(ctx *fasthttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}

	info, err := h.uc.TrustInfo(id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, info)
}

// @Summary Attest a task as real
// @Tags tasks
// @Router /api/v1/tasks/{id}/verify [post]
func (h *TaskHandler) Verify(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, h.uc.Verify)
}

// @Summary Attest a task as fake
// @Tags tasks
// @Router /api/v1/tasks/{id}/dispute [post]
func (h *TaskHandler) Dispute(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, h.uc.Dispute)
}

// @Summary Volunteer for a task
// @Tags tasks
// @Router /api/v1/tasks/{id}/accept [post]
func (h *TaskHandler) Accept(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, h.uc.Accept)
}

// @Summary Confirm help arrived
// @Tags tasks
// @Router /api/v1/tasks/{id}/complete [post]
func (h *TaskHandler) Complete(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, h.uc.Complete)
}

// @Summary Cancel a disputed task
// @Tags tasks
// @Router /api/v1/tasks/{id}/cancel [post]
func (h *TaskHandler) Cancel(ctx *fasthttp.RequestCtx) {
	h.transition(ctx, h.uc.CancelFalse)
}

func (h *TaskHandler) transition(ctx *fasthttp.RequestCtx, op func(stdCtx context.Context, caller, taskID string) (*domain.Task, error)) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}
	id := pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := op(stdCtx, caller, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}
