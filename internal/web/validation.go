package web

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/fssonca/ezy-collect-challenge/internal/core"
)

// createPaymentPayload is the raw request body before normalization
type createPaymentPayload struct {
	FirstName  string   `json:"firstName"`
	LastName   string   `json:"lastName"`
	Expiry     string   `json:"expiry"`
	CVV        string   `json:"cvv"`
	CardNumber string   `json:"cardNumber"`
	InvoiceIDs []string `json:"invoiceIds"`
}

var (
	digitsOnly    = regexp.MustCompile(`^\d+$`)
	expiryPattern = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
)

// validateCreatePayment normalizes (trims) the raw payload and checks every
// field rule, returning either the normalized request or the full list of
// field errors sorted by field name. Pure function: the core never sees an
// unvalidated request.
func validateCreatePayment(p createPaymentPayload) (core.CreatePaymentRequest, []FieldError) {
	req := core.CreatePaymentRequest{
		FirstName:  strings.TrimSpace(p.FirstName),
		LastName:   strings.TrimSpace(p.LastName),
		Expiry:     strings.TrimSpace(p.Expiry),
		CVV:        strings.TrimSpace(p.CVV),
		CardNumber: strings.TrimSpace(p.CardNumber),
	}
	if p.InvoiceIDs != nil {
		req.InvoiceIDs = make([]string, len(p.InvoiceIDs))
		for i, id := range p.InvoiceIDs {
			req.InvoiceIDs[i] = strings.TrimSpace(id)
		}
	}

	var errs []FieldError
	addError := func(field, message string) {
		errs = append(errs, FieldError{Field: field, Message: message})
	}

	switch {
	case req.FirstName == "":
		addError("firstName", "firstName is required")
	case len(req.FirstName) > 100:
		addError("firstName", "firstName must be between 1 and 100 characters")
	}

	switch {
	case req.LastName == "":
		addError("lastName", "lastName is required")
	case len(req.LastName) > 100:
		addError("lastName", "lastName must be between 1 and 100 characters")
	}

	switch {
	case req.Expiry == "":
		addError("expiry", "expiry is required")
	case !validExpiry(req.Expiry):
		addError("expiry", "expiry must be in MM/YY format with month 01-12")
	}

	switch {
	case req.CVV == "":
		addError("cvv", "cvv is required")
	case !digitsOnly.MatchString(req.CVV):
		addError("cvv", "cvv must contain only digits")
	case len(req.CVV) < 3 || len(req.CVV) > 4:
		addError("cvv", "cvv must be 3 or 4 digits")
	}

	switch {
	case req.CardNumber == "":
		addError("cardNumber", "cardNumber is required")
	case !digitsOnly.MatchString(req.CardNumber):
		addError("cardNumber", "cardNumber must contain only digits")
	case len(req.CardNumber) < 12 || len(req.CardNumber) > 19:
		addError("cardNumber", "cardNumber must be between 12 and 19 digits")
	}

	if len(req.InvoiceIDs) == 0 {
		addError("invoiceIds", "invoiceIds is required")
	} else {
		for i, id := range req.InvoiceIDs {
			if id == "" {
				addError("invoiceIds["+strconv.Itoa(i)+"]", "invoiceIds entries must not be blank")
			} else if len(id) > 100 {
				addError("invoiceIds["+strconv.Itoa(i)+"]", "invoiceIds entries must be at most 100 characters")
			}
		}
	}

	if len(errs) > 0 {
		sort.Slice(errs, func(i, j int) bool { return errs[i].Field < errs[j].Field })
		return core.CreatePaymentRequest{}, errs
	}

	return req, nil
}

func validExpiry(value string) bool {
	m := expiryPattern.FindStringSubmatch(value)
	if m == nil {
		return false
	}
	month, err := strconv.Atoi(m[1])
	if err != nil {
		return false
	}
	return month >= 1 && month <= 12
}
