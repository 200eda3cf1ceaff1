package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/meshaid/backend/api/transport"
	"github.com/meshaid/backend/core"
	"github.com/meshaid/backend/pkg/httpcontext"
	incentiveUC "github.com/meshaid/backend/usecase/incentive"
)

type MeshHandler struct {
	baseHandler
	uc *incentiveUC.UseCase
}

func NewMeshHandler(uc *incentiveUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *MeshHandler {
	return &MeshHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Report relayed packets
// @Tags mesh
// @Router /api/v1/mesh/relay [post]
func (h *MeshHandler) RecordRelay(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}

	var req transport.RelayReportRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	account, err := h.uc.RecordRelay(stdCtx, caller, req.Node, req.Packets)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, account)
}

// @Summary Report node uptime
// @Tags mesh
// @Router /api/v1/mesh/uptime [post]
func (h *MeshHandler) RecordUptime(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}

	var req transport.UptimeReportRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	account, err := h.uc.RecordUptime(stdCtx, caller, req.Node, req.Minutes)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, account)
}

// @Summary Report one delivered message
// @Tags mesh
// @Router /api/v1/mesh/delivery [post]
func (h *MeshHandler) RecordDelivery(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}

	var req transport.DeliveryReportRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	account, err := h.uc.RecordDelivery(stdCtx, caller, req.Node, req.MessageID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, account)
}

// @Summary Report a batch of activity tuples
// @Tags mesh
// @Router /api/v1/mesh/batch [post]
func (h *MeshHandler) RecordBatch(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}

	var reports []core.ActivityReport
	if err := json.Unmarshal(ctx.PostBody(), &reports); err != nil || len(reports) == 0 {
		h.badRequest(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RecordBatch(stdCtx, caller, reports); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]int{"accepted": len(reports)})
}

// @Summary Node contribution stats
// @Tags mesh
// @Router /api/v1/mesh/nodes/{address} [get]
func (h *MeshHandler) NodeStats(ctx *fasthttp.RequestCtx) {
	address := pathParam(ctx, "address")
	if address == "" {
		h.badRequest(ctx, "missing node address")
		return
	}

	account, err := h.uc.NodeStats(address)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	window := parseInt(string(ctx.QueryArgs().Peek("active_window_minutes")), 60)
	active, _ := h.uc.ActiveSince(address, time.Duration(window)*time.Minute)

	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"account": account,
		"active":  active,
	})
}

// @Summary Reward supply counters
// @Tags mesh
// @Router /api/v1/mesh/supply [get]
func (h *MeshHandler) Supply(ctx *fasthttp.RequestCtx) {
	h.respondSuccess(ctx, http.StatusOK, map[string]int64{
		"total_minted": h.uc.TotalMinted(),
		"remaining":    h.uc.RemainingMintable(),
	})
}
