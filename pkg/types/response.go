package types

// SuccessEnvelope wraps every 2xx body as {"data": ...}.
type SuccessEnvelope struct {
	Data any `json:"data"`
}

// APIError is the public error shape. Details carries structured context
// only for codes that allow it, such as validation field errors and
// insufficient-stock quantities.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// ErrorEnvelope wraps every error body as {"error": {...}}.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}
