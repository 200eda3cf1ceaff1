package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/meshaid/backend/api/transport"
	"github.com/meshaid/backend/domain"
	"github.com/meshaid/backend/pkg/httpcontext"
	identityUC "github.com/meshaid/backend/usecase/identity"
)

type IdentityHandler struct {
	baseHandler
	uc *identityUC.UseCase
}

func NewIdentityHandler(uc *identityUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *IdentityHandler {
	return &IdentityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Register the caller's identity
// @Tags identity
// @Router /api/v1/identity/register [post]
func (h *IdentityHandler) Register(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}

	var req transport.RegisterRequest
	if len(ctx.PostBody()) > 0 {
		if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
			h.badRequest(ctx, "invalid payload")
			return
		}
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identity, err := h.uc.Register(stdCtx, caller, req.ProfileRef)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, identity)
}

// @Summary Fetch an identity record
// @Tags identity
// @Router /api/v1/identity/{address} [get]
func (h *IdentityHandler) Get(ctx *fasthttp.RequestCtx) {
	address := pathParam(ctx, "address")
	if address == "" {
		h.badRequest(ctx, "missing address")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identity, err := h.uc.Get(stdCtx, address)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, identity)
}

// @Summary Resolve a trust level
// @Tags identity
// @Router /api/v1/identity/{address}/trust [get]
func (h *IdentityHandler) TrustLevel(ctx *fasthttp.RequestCtx) {
	address := pathParam(ctx, "address")
	if address == "" {
		h.badRequest(ctx, "missing address")
		return
	}

	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"address":     address,
		"trust_level": h.uc.TrustLevel(address),
		"registered":  h.uc.IsRegistered(address),
	})
}

// @Summary Apply a reputation delta
// @Tags identity
// @Router /api/v1/identity/reputation [post]
func (h *IdentityHandler) UpdateReputation(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}

	var req transport.ReputationRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Target == "" {
		h.badRequest(ctx, "invalid payload")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	score, err := h.uc.UpdateReputation(stdCtx, caller, req.Target, req.Delta)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]interface{}{
		"target":     req.Target,
		"reputation": score,
	})
}

// @Summary Set the manual verification flag
// @Tags identity
// @Router /api/v1/identity/{address}/verify [post]
func (h *IdentityHandler) Verify(ctx *fasthttp.RequestCtx) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}
	address := pathParam(ctx, "address")
	if address == "" {
		h.badRequest(ctx, "missing address")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.VerifyIdentity(stdCtx, caller, address); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"address": address, "verified": "true"})
}

// @Summary Grant a capability
// @Tags identity
// @Router /api/v1/identity/roles/grant [post]
func (h *IdentityHandler) GrantRole(ctx *fasthttp.RequestCtx) {
	h.mutateRole(ctx, h.uc.Grant)
}

// @Summary Revoke a capability
// @Tags identity
// @Router /api/v1/identity/roles/revoke [post]
func (h *IdentityHandler) RevokeRole(ctx *fasthttp.RequestCtx) {
	h.mutateRole(ctx, h.uc.Revoke)
}

func (h *IdentityHandler) mutateRole(ctx *fasthttp.RequestCtx, op func(caller, target string, role domain.Role) error) {
	caller := h.caller(ctx)
	if caller == "" {
		return
	}

	var req transport.RoleRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil || req.Target == "" || req.Role == "" {
		h.badRequest(ctx, "invalid payload")
		return
	}

	if err := op(caller, req.Target, domain.Role(req.Role)); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, map[string]string{"target": req.Target, "role": req.Role})
}

// @Summary List identity projections
// @Tags identity
// @Router /api/v1/identity [get]
func (h *IdentityHandler) List(ctx *fasthttp.RequestCtx) {
	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), 50)
	offset := parseInt(string(ctx.QueryArgs().Peek("offset")), 0)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	identities, err := h.uc.ListIdentities(stdCtx, limit, offset)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, identities)
}
