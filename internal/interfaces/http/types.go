package httpinterface

import (
	"github.com/tdex-network/tdex-yield/internal/core/application/yield"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/pkg/mathutil"
)

type depositRequest struct {
	Caller string `json:"caller"`
	// Amount is expressed in whole units of the underlying.
	Amount string `json:"amount"`
}

type withdrawRequest struct {
	Caller string `json:"caller"`
}

type harvestRequest struct {
	Caller       string `json:"caller"`
	MinAmountOut string `json:"min_amount_out"`
	Deadline     int64  `json:"deadline"`
}

type webhookRequest struct {
	Event    string `json:"event"`
	Endpoint string `json:"endpoint"`
	Secret   string `json:"secret"`
}

type faucetRequest struct {
	Account string `json:"account"`
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
}

type approveRequest struct {
	Owner   string `json:"owner"`
	Spender string `json:"spender"`
	Asset   string `json:"asset"`
	Amount  string `json:"amount"`
}

type advanceRequest struct {
	Seconds int64 `json:"seconds"`
}

type pauseRequest struct {
	Paused bool `json:"paused"`
}

type assetResponse struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

type infoResponse struct {
	Address      string        `json:"address"`
	Owner        string        `json:"owner"`
	Underlying   assetResponse `json:"underlying"`
	Receipt      assetResponse `json:"receipt"`
	Reward       assetResponse `json:"reward"`
	Market       string        `json:"market"`
	Exchange     string        `json:"exchange"`
	SwapPath     []string      `json:"swap_path"`
	Slippage     string        `json:"slippage"`
	SwapDeadline int64         `json:"swap_deadline"`
}

func newAssetResponse(a yield.AssetInfo) assetResponse {
	return assetResponse{a.Address.Hex(), a.Symbol, a.Decimals}
}

func newInfoResponse(info yield.Info) infoResponse {
	path := make([]string, 0, len(info.SwapPath))
	for _, a := range info.SwapPath {
		path = append(path, a.Hex())
	}
	return infoResponse{
		Address:      info.Address.Hex(),
		Owner:        info.Owner.Hex(),
		Underlying:   newAssetResponse(info.Underlying),
		Receipt:      newAssetResponse(info.Receipt),
		Reward:       newAssetResponse(info.Reward),
		Market:       info.Market.Hex(),
		Exchange:     info.Exchange.Hex(),
		SwapPath:     path,
		Slippage:     info.Slippage.String(),
		SwapDeadline: int64(info.SwapDeadline.Seconds()),
	}
}

// positionResponse amounts are expressed in whole units.
type positionResponse struct {
	Owner              string `json:"owner"`
	Receipt            string `json:"receipt"`
	ExchangeRate       string `json:"exchange_rate"`
	EstimatedValue     string `json:"estimated_value"`
	Principal          string `json:"principal"`
	Yield              string `json:"yield"`
	TotalRewardClaimed string `json:"total_reward_claimed"`
	TotalCompounded    string `json:"total_compounded"`
	Deposits           int    `json:"deposits"`
	Harvests           int    `json:"harvests"`
	OpenedAt           int64  `json:"opened_at"`
	LastHarvestAt      int64  `json:"last_harvest_at"`
}

func newPositionResponse(
	p *yield.PositionInfo, underlyingDecimals, receiptDecimals, rewardDecimals uint8,
) positionResponse {
	return positionResponse{
		Owner:              p.Owner.Hex(),
		Receipt:            mathutil.ToDecimal(p.Receipt, receiptDecimals).String(),
		ExchangeRate:       p.ExchangeRate.Dec(),
		EstimatedValue:     mathutil.ToDecimal(p.EstimatedValue, underlyingDecimals).String(),
		Principal:          mathutil.ToDecimal(p.Principal, underlyingDecimals).String(),
		Yield:              mathutil.ToDecimal(p.Yield, underlyingDecimals).String(),
		TotalRewardClaimed: mathutil.ToDecimal(p.TotalRewardClaimed, rewardDecimals).String(),
		TotalCompounded:    mathutil.ToDecimal(p.TotalCompounded, underlyingDecimals).String(),
		Deposits:           p.Deposits,
		Harvests:           p.Harvests,
		OpenedAt:           p.OpenedAt,
		LastHarvestAt:      p.LastHarvestAt,
	}
}

// operationResponse amounts are mantissas, in the minor units of their
// asset.
type operationResponse struct {
	ID            string `json:"id"`
	Type          string `json:"type"`
	Caller        string `json:"caller"`
	Timestamp     int64  `json:"timestamp"`
	UnderlyingIn  string `json:"underlying_in,omitempty"`
	UnderlyingOut string `json:"underlying_out,omitempty"`
	ReceiptMinted string `json:"receipt_minted,omitempty"`
	ReceiptBurned string `json:"receipt_burned,omitempty"`
	Principal     string `json:"principal,omitempty"`
	RealizedYield string `json:"realized_yield,omitempty"`
	RewardClaimed string `json:"reward_claimed,omitempty"`
	RewardSwapped string `json:"reward_swapped,omitempty"`
	MinAmountOut  string `json:"min_amount_out,omitempty"`
	SwapOutput    string `json:"swap_output,omitempty"`
	Compounded    string `json:"compounded,omitempty"`
	Noop          bool   `json:"noop,omitempty"`
}

func newOperationResponse(op domain.Operation) operationResponse {
	res := operationResponse{
		ID:        op.ID,
		Type:      op.Type.String(),
		Caller:    op.Caller.Hex(),
		Timestamp: op.Timestamp,
		Noop:      op.Noop,
	}
	switch op.Type {
	case domain.OperationDeposit:
		res.UnderlyingIn = op.UnderlyingIn.Dec()
		res.ReceiptMinted = op.ReceiptMinted.Dec()
	case domain.OperationWithdraw:
		res.UnderlyingOut = op.UnderlyingOut.Dec()
		res.ReceiptBurned = op.ReceiptBurned.Dec()
		res.Principal = op.Principal.Dec()
		res.RealizedYield = op.RealizedYield.Dec()
	case domain.OperationHarvest:
		res.RewardClaimed = op.RewardClaimed.Dec()
		res.RewardSwapped = op.RewardSwapped.Dec()
		res.MinAmountOut = op.MinAmountOut.Dec()
		res.SwapOutput = op.SwapOutput.Dec()
		res.Compounded = op.Compounded.Dec()
		res.ReceiptMinted = op.ReceiptMinted.Dec()
	}
	return res
}
