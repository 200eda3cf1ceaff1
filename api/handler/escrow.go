package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/meshaid/backend/api/transport"
	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/pkg/httpcontext"
	escrowUC "github.com/meshaid/backend/usecase/escrow"
)

type EscrowHandler struct {
	baseHandler
	uc *escrowUC.UseCase
}

func NewEscrowHandler(uc *escrowUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *EscrowHandler {
	return &EscrowHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Credit a participant balance
// @Tags escrow
// @Router /api/v1/escrow/deposit [post]
func (h *EscrowHandler) Deposit(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}

	var req transport.DepositRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Target == "" || req.Amount <= 0 {
		h.badRequest(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	balance, err := h.uc.Deposit(stdCtx, caller, req.Target, req.Amount)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"target":  req.Target,
		"balance": balance,
	})
}

// @Summary Spendable balance of an address
// @Tags escrow
// @Router /api/v1/escrow/balance/{address} [get]
func (h *EscrowHandler) Balance(ctx *fasthttp.RequestCtx) {
	address := pathParam(ctx, "address")
	if address == "" {
		h.badRequest(ctx, "missing address")
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"address": address,
		"balance": h.uc.Balance(address),
	})
}

// @Summary Donate to a task's pool
// @Tags escrow
// @Router /api/v1/tasks/{id}/donate [post]
func (h *EscrowHandler) Donate(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}
	id := pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}

	var req transport.DonationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Amount <= 0 {
		h.badRequest(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	pool, err := h.uc.Donate(stdCtx, caller, id, req.Amount)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, pool)
}

// @Summary Co-sign a pool release
// @Tags escrow
// @Router /api/v1/tasks/{id}/sign [post]
func (h *EscrowHandler) SignRelease(ctx *fasthttp.RequestCtx) {
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

	pool, err := h.uc.SignRelease(stdCtx, caller, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, pool)
}

// @Summary Submit the volunteer's location proof
// @Tags escrow
// @Router /api/v1/tasks/{id}/location-proof [post]
func (h *EscrowHandler) SubmitLocationProof(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}
	id := pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}

	var req transport.LocationProofRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.badRequest(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	pool, err := h.uc.SubmitLocationProof(stdCtx, caller, id, domain.GeoPoint{
		LatMicro: req.LatMicro,
		LonMicro: req.LonMicro,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, pool)
}

// @Summary Release the pool remainder to the creator
// @Tags escrow
// @Router /api/v1/tasks/{id}/release [post]
func (h *EscrowHandler) Release(ctx *fasthttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	released, err := h.uc.Release(stdCtx, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"task_id":  id,
		"released": released,
	})
}

// @Summary Refund contributions to their donors
// @Tags escrow
// @Router /api/v1/tasks/{id}/refund [post]
func (h *EscrowHandler) Refund(ctx *fasthttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	refunded, err := h.uc.Refund(stdCtx, id)
	if err != nil && refunded == 0 {
		h.respondError(ctx, err)
		return
	}

	payload := map[string]interface{}{
		"task_id":  id,
		"refunded": refunded,
	}
	if err != nil {
		// partial refund: report what failed alongside what went through
		payload["outstanding"] = err.Error()
	}
	h.respondSuccess(ctx, http.StatusOK, payload)
}

// @Summary Pool status projection
// @Tags escrow
// @Router /api/v1/tasks/{id}/pool [get]
func (h *EscrowHandler) PoolStatus(ctx *fasthttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}

	status, err := h.uc.PoolStatus(id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, status)
}

// @Summary Escrow audit trail for a task
// @Tags escrow
// @Router /api/v1/tasks/{id}/transfers [get]
func (h *EscrowHandler) Transfers(ctx *fasthttp.RequestCtx) {
	id := pathParam(ctx, "id")
	if id == "" {
		h.badRequest(ctx, "missing task id")
		return
	}
	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), 100)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	transfers, err := h.uc.Transfers(stdCtx, id, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, transfers)
}
