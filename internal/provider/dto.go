package provider

import "encoding/json"

// Response is the raw terminal result of a provider call
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Decode unmarshals the response body into v
func (r *Response) Decode(v any) error {
	return json.Unmarshal(r.Body, v)
}

// PlaceBetResponse is the provider's answer to POST /bet
type PlaceBetResponse struct {
	BetID  int64  `json:"bet_id"`
	Status string `json:"status,omitempty"` // Defaults to pending when omitted
}

// WinResponse is the provider's answer to POST /win.
// Zero means the bet was lost, positive is the win amount.
type WinResponse struct {
	Win int64 `json:"win"`
}

// BalanceResponse is the provider's answer to POST /balance
type BalanceResponse struct {
	Balance     int64  `json:"balance"`
	LastUpdated string `json:"last_updated,omitempty"`
}

// CheckBalanceResponse is the provider's answer to POST /check-balance.
// CorrectBalance and Message are only populated when IsCorrect is false.
type CheckBalanceResponse struct {
	IsCorrect      bool   `json:"is_correct"`
	Balance        int64  `json:"balance,omitempty"`
	Message        string `json:"message,omitempty"`
	CorrectBalance int64  `json:"correct_balance,omitempty"`
}
