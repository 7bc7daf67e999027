package dto

type TransferRequest struct {
	From        string `json:"from"`
	To          string `json:"to"`
	Amount      int64  `json:"amount"`
	ExternalRef string `json:"external_ref"`
}

type TransferResponse struct {
	TransferID string `json:"transfer_id"`
	Duplicate  bool   `json:"duplicate,omitempty"`
}

type MintRequest struct {
	Account string `json:"account"`
	Amount  int64  `json:"amount"`
}

type BalanceResponse struct {
	Account string `json:"account"`
	Balance int64  `json:"balance"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}
