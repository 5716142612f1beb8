package domain

// Status is the terminal state of a processed instruction.
type Status string

const (
	StatusSuccessful Status = "successful"
	StatusPending    Status = "pending"
	StatusFailed     Status = "failed"
)

// StatusCode is the machine-readable outcome of a processed instruction.
type StatusCode string

const (
	StatusCodeMissingKeyword       StatusCode = "SY01"
	StatusCodeInvalidKeywordOrder  StatusCode = "SY02"
	StatusCodeMalformedInstruction StatusCode = "SY03"
	StatusCodeInvalidAmount        StatusCode = "AM01"
	StatusCodeCurrencyMismatch     StatusCode = "CU01"
	StatusCodeUnsupportedCurrency  StatusCode = "CU02"
	StatusCodeInsufficientFunds    StatusCode = "AC01"
	StatusCodeSameAccount          StatusCode = "AC02"
	StatusCodeAccountNotFound      StatusCode = "AC03"
	StatusCodeInvalidAccountID     StatusCode = "AC04"
	StatusCodeInvalidDateFormat    StatusCode = "DT01"
	StatusCodeExecuted             StatusCode = "AP00"
	StatusCodePending              StatusCode = "AP02"
)

var statusReasons = map[StatusCode]string{
	StatusCodeMissingKeyword:       "Missing required keyword(s) in instruction",
	StatusCodeInvalidKeywordOrder:  "Invalid keyword order in instruction",
	StatusCodeMalformedInstruction: "Malformed instruction: unable to parse keywords",
	StatusCodeInvalidAmount:        "Amount must be a positive integer",
	StatusCodeCurrencyMismatch:     "Account currency mismatch",
	StatusCodeUnsupportedCurrency:  "Unsupported currency. Only NGN, USD, GBP, and GHS are supported",
	StatusCodeInsufficientFunds:    "Insufficient funds in debit account",
	StatusCodeSameAccount:          "Debit and credit accounts cannot be the same",
	StatusCodeAccountNotFound:      "Account not found",
	StatusCodeInvalidAccountID:     "Invalid account ID format",
	StatusCodeInvalidDateFormat:    "Invalid date format. Expect YYYY-MM-DD",
	StatusCodeExecuted:             "Transaction executed successfully",
	StatusCodePending:              "Transaction scheduled for future execution",
}

// Reason returns the human-readable reason for the code.
func (c StatusCode) Reason() string {
	if reason, ok := statusReasons[c]; ok {
		return reason
	}
	return statusReasons[StatusCodeMalformedInstruction]
}

// Status returns the status a result carrying this code ends in.
func (c StatusCode) Status() Status {
	switch c {
	case StatusCodeExecuted:
		return StatusSuccessful
	case StatusCodePending:
		return StatusPending
	default:
		return StatusFailed
	}
}
