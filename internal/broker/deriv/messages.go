package deriv

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Request is any outbound message. Send stamps it with a correlation id.
type Request interface {
	SetReqID(id uint64)
	MsgType() string
}

// Base carries the correlation id shared by every request.
type Base struct {
	ReqID uint64 `json:"req_id"`
}

func (b *Base) SetReqID(id uint64) { b.ReqID = id }

// Response is the envelope common to every inbound frame. Raw keeps the
// full frame so callers can decode the result field they expect.
type Response struct {
	ReqID   uint64          `json:"req_id"`
	MsgType string          `json:"msg_type"`
	Error   *APIError       `json:"error,omitempty"`
	Raw     json.RawMessage `json:"-"`
}

func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Raw, v)
}

// amount marshals as a bare JSON number.
type amount decimal.Decimal

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(a).String()), nil
}

type AuthorizeRequest struct {
	Base
	Authorize string `json:"authorize"`
}

func (*AuthorizeRequest) MsgType() string { return "authorize" }

type AuthorizeResponse struct {
	Authorize *struct {
		LoginID  string          `json:"loginid"`
		Currency string          `json:"currency"`
		Balance  decimal.Decimal `json:"balance"`
	} `json:"authorize"`
}

type TicksHistoryRequest struct {
	Base
	TicksHistory    string `json:"ticks_history"`
	AdjustStartTime int    `json:"adjust_start_time"`
	Count           int    `json:"count"`
	End             int64  `json:"end"`
	Granularity     int64  `json:"granularity"`
	Style           string `json:"style"`
}

func (*TicksHistoryRequest) MsgType() string { return "ticks_history" }

// wireCandle accepts prices as JSON numbers or strings.
type wireCandle struct {
	Epoch int64           `json:"epoch"`
	Open  decimal.Decimal `json:"open"`
	High  decimal.Decimal `json:"high"`
	Low   decimal.Decimal `json:"low"`
	Close decimal.Decimal `json:"close"`
}

type CandlesResponse struct {
	Candles []wireCandle `json:"candles"`
}

type ProposalRequest struct {
	Base
	Proposal     int    `json:"proposal"`
	Amount       amount `json:"amount"`
	Basis        string `json:"basis"`
	ContractType string `json:"contract_type"`
	Currency     string `json:"currency"`
	Duration     int    `json:"duration"`
	DurationUnit string `json:"duration_unit"`
	Symbol       string `json:"symbol"`
}

func (*ProposalRequest) MsgType() string { return "proposal" }

type Proposal struct {
	ID       string          `json:"id"`
	AskPrice decimal.Decimal `json:"ask_price"`
	Payout   decimal.Decimal `json:"payout"`
	Longcode string          `json:"longcode"`
}

type ProposalResponse struct {
	Proposal *Proposal `json:"proposal"`
}

type BuyRequest struct {
	Base
	Buy   string `json:"buy"`
	Price amount `json:"price"`
}

func (*BuyRequest) MsgType() string { return "buy" }

type BuyReceipt struct {
	ContractID   int64           `json:"contract_id"`
	PurchaseTime int64           `json:"purchase_time"`
	BuyPrice     decimal.Decimal `json:"buy_price"`
	Payout       decimal.Decimal `json:"payout"`
	Longcode     string          `json:"longcode"`
}

type BuyResponse struct {
	Buy *BuyReceipt `json:"buy"`
}

type BalanceRequest struct {
	Base
	Balance int `json:"balance"`
}

func (*BalanceRequest) MsgType() string { return "balance" }

type BalanceResponse struct {
	Balance *struct {
		Balance  decimal.Decimal `json:"balance"`
		Currency string          `json:"currency"`
	} `json:"balance"`
}
