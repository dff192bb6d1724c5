package model

type TopUpInitializeRequest struct {
	UserID string `json:"-" validate:"required,max=100"`
	Email  string `json:"email" validate:"required,email,max=200"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

type TopUpInitializeResponse struct {
	TransactionID    string `json:"transactionId"`
	Reference        string `json:"reference"`
	AuthorizationURL string `json:"authorizationUrl"`
}

type TopUpVerifyRequest struct {
	UserID    string `json:"-"`
	Reference string `json:"reference" validate:"required,max=200"`
}

type TopUpVerifyResponse struct {
	TransactionID string `json:"transactionId"`
	Reference     string `json:"reference"`
	Outcome       string `json:"outcome"`
	Amount        int64  `json:"amount"`
	Balance       *int64 `json:"balance,omitempty"`
}

// CollectionEvent is the payment-collection provider confirmation consumed
// from kafka; it triggers the same verify path as the HTTP callback.
type CollectionEvent struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
}
