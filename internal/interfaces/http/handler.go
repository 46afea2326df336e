package httpinterface

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"github.com/tdex-network/tdex-yield/internal/core/application/pubsub"
	"github.com/tdex-network/tdex-yield/internal/core/application/yield"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/infrastructure/devnet"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
)

const requestLimit = 1 << 20 // 1 MiB

type handler struct {
	controller *yield.Controller
	pubsub     *pubsub.Service
	devnet     *devnet.Devnet
}

// NewHandler returns the routes of the HTTP interface.
func NewHandler(opts ServiceOpts) http.Handler {
	h := &handler{opts.Controller, opts.PubSub, opts.Devnet}

	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if opts.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/info", h.info)
		r.Get("/position", h.position)
		r.Get("/operations", h.listOperations)
		r.Get("/operations/{id}", h.getOperation)

		r.Group(func(r chi.Router) {
			if opts.AuthSecret != "" {
				r.Use(authenticate([]byte(opts.AuthSecret)))
			}
			r.Post("/deposit", h.deposit)
			r.Post("/withdraw", h.withdraw)
			r.Post("/harvest", h.harvest)

			if h.pubsub != nil {
				r.Get("/webhooks", h.listWebhooks)
				r.Post("/webhooks", h.addWebhook)
				r.Delete("/webhooks/{id}", h.removeWebhook)
			}
		})

		if h.devnet != nil {
			r.Route("/devnet", func(r chi.Router) {
				r.Post("/faucet", h.faucet)
				r.Post("/approve", h.approve)
				r.Post("/advance", h.advance)
				r.Post("/pause", h.pause)
				r.Get("/balances", h.balances)
			})
		}
	})
	return r
}

func (h *handler) info(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newInfoResponse(h.controller.Info()))
}

func (h *handler) position(w http.ResponseWriter, r *http.Request) {
	position, err := h.controller.Position(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	info := h.controller.Info()
	writeJSON(w, http.StatusOK, newPositionResponse(
		position, info.Underlying.Decimals, info.Receipt.Decimals, info.Reward.Decimals,
	))
}

func (h *handler) listOperations(w http.ResponseWriter, r *http.Request) {
	var page *domain.Page
	query := r.URL.Query()
	if query.Get("page") != "" || query.Get("size") != "" {
		number, err := queryInt(query.Get("page"))
		if err != nil {
			writeBadRequest(w, fmt.Errorf("invalid page: %w", err))
			return
		}
		size, err := queryInt(query.Get("size"))
		if err != nil {
			writeBadRequest(w, fmt.Errorf("invalid size: %w", err))
			return
		}
		p := domain.NewPage(number, size)
		page = &p
	}

	ops, err := h.controller.ListOperations(r.Context(), page)
	if err != nil {
		writeError(w, err)
		return
	}
	res := make([]operationResponse, 0, len(ops))
	for _, op := range ops {
		res = append(res, newOperationResponse(op))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"operations": res})
}

func (h *handler) getOperation(w http.ResponseWriter, r *http.Request) {
	op, err := h.controller.GetOperation(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOperationResponse(*op))
}

func (h *handler) deposit(w http.ResponseWriter, r *http.Request) {
	req := depositRequest{}
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := callerFromRequest(r, req.Caller)
	if err != nil {
		writeCallerError(w, err)
		return
	}
	amount, err := mathutil.ParseUnits(req.Amount, h.controller.Info().Underlying.Decimals)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid amount: %w", err))
		return
	}

	op, err := h.controller.Deposit(r.Context(), caller, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOperationResponse(*op))
}

func (h *handler) withdraw(w http.ResponseWriter, r *http.Request) {
	req := withdrawRequest{}
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	caller, err := callerFromRequest(r, req.Caller)
	if err != nil {
		writeCallerError(w, err)
		return
	}

	op, err := h.controller.Withdraw(r.Context(), caller)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOperationResponse(*op))
}

func (h *handler) harvest(w http.ResponseWriter, r *http.Request) {
	req := harvestRequest{}
	if err := decodeOptionalRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}

	// Anyone can harvest, the caller is only recorded.
	var caller common.Address
	if _, ok := authenticatedCaller(r); ok || req.Caller != "" {
		c, err := callerFromRequest(r, req.Caller)
		if err != nil {
			writeCallerError(w, err)
			return
		}
		caller = c
	}

	opts := yield.HarvestOptions{}
	if req.MinAmountOut != "" {
		min, err := mathutil.ParseUnits(
			req.MinAmountOut, h.controller.Info().Underlying.Decimals,
		)
		if err != nil {
			writeBadRequest(w, fmt.Errorf("invalid min amount out: %w", err))
			return
		}
		opts.MinAmountOut = min
	}
	if req.Deadline > 0 {
		opts.Deadline = time.Unix(req.Deadline, 0)
	}

	op, err := h.controller.Harvest(r.Context(), caller, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newOperationResponse(*op))
}

func (h *handler) listWebhooks(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.pubsub.ListWebhooks(r.Context(), r.URL.Query().Get("event"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"webhooks": hooks})
}

func (h *handler) addWebhook(w http.ResponseWriter, r *http.Request) {
	req := webhookRequest{}
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	id, err := h.pubsub.AddWebhook(r.Context(), req.Event, req.Endpoint, req.Secret)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *handler) removeWebhook(w http.ResponseWriter, r *http.Request) {
	if err := h.pubsub.RemoveWebhook(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeJSONError(w, http.StatusNotFound, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) faucet(w http.ResponseWriter, r *http.Request) {
	req := faucetRequest{}
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	account, err := parseAddress(req.Account)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeBadRequest(w, fmt.Errorf("invalid amount: %w", err))
		return
	}

	minted, err := h.devnet.Faucet(account, req.Asset, amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"minted": minted.Dec()})
}

func (h *handler) approve(w http.ResponseWriter, r *http.Request) {
	req := approveRequest{}
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	owner, err := parseAddress(req.Owner)
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	spender := h.controller.Info().Address
	if req.Spender != "" {
		if spender, err = parseAddress(req.Spender); err != nil {
			writeBadRequest(w, err)
			return
		}
	}
	// An empty amount grants unlimited allowance.
	amount := decimal.NewFromInt(-1)
	if req.Amount != "" {
		if amount, err = decimal.NewFromString(req.Amount); err != nil {
			writeBadRequest(w, fmt.Errorf("invalid amount: %w", err))
			return
		}
		if amount.IsNegative() {
			writeBadRequest(w, fmt.Errorf("amount must not be negative"))
			return
		}
	}

	if err := h.devnet.Approve(r.Context(), owner, spender, req.Asset, amount); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) advance(w http.ResponseWriter, r *http.Request) {
	req := advanceRequest{}
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if req.Seconds <= 0 {
		writeBadRequest(w, fmt.Errorf("seconds must be greater than zero"))
		return
	}
	now := h.devnet.Advance(time.Duration(req.Seconds) * time.Second)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"timestamp": now.Unix(),
		"date":      now.UTC().Format(time.RFC3339),
	})
}

func (h *handler) pause(w http.ResponseWriter, r *http.Request) {
	req := pauseRequest{}
	if err := decodeRequest(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := h.devnet.SetPaused(req.Paused); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) balances(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress(r.URL.Query().Get("account"))
	if err != nil {
		writeBadRequest(w, err)
		return
	}
	balances, err := h.devnet.Balances(r.Context(), account)
	if err != nil {
		writeError(w, err)
		return
	}
	res := make(map[string]string, len(balances))
	for symbol, b := range balances {
		res[symbol] = b.String()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"balances": res})
}

func decodeRequest(r *http.Request, req interface{}) error {
	if r.Body == nil {
		return errors.New("missing request body")
	}
	defer r.Body.Close()

	data, err := io.ReadAll(io.LimitReader(r.Body, requestLimit))
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return errors.New("request body is empty")
	}
	if err := json.Unmarshal(data, req); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func decodeOptionalRequest(r *http.Request, req interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return decodeRequest(r, req)
}

func parseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
