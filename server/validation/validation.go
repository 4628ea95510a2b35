// Package validation checks inbound classification requests before any
// model call is made: structural validation via struct tags and a token
// budget on the guest message.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pkoukk/tiktoken-go"

	"github.com/bellhop-ai/bellhop/server/schema"
)

// fallbackEncoding is used when tiktoken has no encoding registered for
// the configured model. Non-OpenAI models (Mistral, Claude) fall in this
// bucket; cl100k_base gives a close enough token estimate for budgeting.
const fallbackEncoding = "cl100k_base"

// Tokenizer counts model tokens in text.
type Tokenizer interface {
	CountTokens(text string) int
}

type tiktokenWrapper struct {
	*tiktoken.Tiktoken
}

func (t *tiktokenWrapper) CountTokens(text string) int {
	return len(t.Encode(text, nil, nil))
}

// TokenCounter measures guest message size in model tokens.
type TokenCounter struct {
	encoding Tokenizer
}

// NewTokenCounter creates a token counter for the given model, falling
// back to cl100k_base for models tiktoken does not know.
func NewTokenCounter(model string) (*TokenCounter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding(fallbackEncoding)
		if err != nil {
			return nil, fmt.Errorf("get encoding %s: %w", fallbackEncoding, err)
		}
	}
	return &TokenCounter{encoding: &tiktokenWrapper{encoding}}, nil
}

// CountTokens returns the token count of text.
func (tc *TokenCounter) CountTokens(text string) int {
	return tc.encoding.CountTokens(text)
}

// Detail describes one validation failure in the wire format handlers
// attach to 400 responses.
type Detail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

// RequestError is the aggregate validation failure for a request.
type RequestError struct {
	Details []Detail
}

func (e *RequestError) Error() string {
	msgs := make([]string, len(e.Details))
	for i, d := range e.Details {
		msgs[i] = fmt.Sprintf("%s: %s", d.Field, d.Message)
	}
	return strings.Join(msgs, "; ")
}

// Validator validates classification requests.
type Validator struct {
	validate         *validator.Validate
	counter          *TokenCounter
	maxMessageTokens int
}

// NewValidator creates a request validator with a token budget for the
// given model. maxMessageTokens of zero disables the token check, and no
// tokenizer is loaded in that case.
func NewValidator(model string, maxMessageTokens int) (*Validator, error) {
	var counter *TokenCounter
	if maxMessageTokens > 0 {
		var err error
		counter, err = NewTokenCounter(model)
		if err != nil {
			return nil, fmt.Errorf("initialize token counter: %w", err)
		}
	}
	return newValidator(counter, maxMessageTokens), nil
}

// NewValidatorWithTokenizer creates a validator over a caller-supplied
// tokenizer.
func NewValidatorWithTokenizer(tok Tokenizer, maxMessageTokens int) *Validator {
	return newValidator(&TokenCounter{encoding: tok}, maxMessageTokens)
}

func newValidator(counter *TokenCounter, maxMessageTokens int) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{
		validate:         v,
		counter:          counter,
		maxMessageTokens: maxMessageTokens,
	}
}

// CheckRequest validates a single classification request. A blank guest
// message (including whitespace only) or a message over the token budget
// returns a *RequestError.
func (v *Validator) CheckRequest(req *schema.ClassificationRequest) error {
	var details []Detail

	if err := v.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			for _, fe := range verrs {
				details = append(details, Detail{
					Field:   fe.Field(),
					Message: fmt.Sprintf("failed %s validation", fe.Tag()),
					Code:    fmt.Sprintf("%s_validation_failed", fe.Tag()),
				})
			}
		} else {
			details = append(details, Detail{
				Field:   "request",
				Message: err.Error(),
				Code:    "invalid_request",
			})
		}
	}

	if len(details) == 0 && strings.TrimSpace(req.GuestMessage) == "" {
		details = append(details, Detail{
			Field:   "guest_message",
			Message: "guest_message must not be blank",
			Code:    "blank_message",
		})
	}

	if len(details) == 0 && v.maxMessageTokens > 0 && v.counter != nil {
		if n := v.counter.CountTokens(req.GuestMessage); n > v.maxMessageTokens {
			details = append(details, Detail{
				Field:   "guest_message",
				Message: fmt.Sprintf("message is %d tokens, limit is %d", n, v.maxMessageTokens),
				Code:    "token_limit_exceeded",
			})
		}
	}

	if len(details) > 0 {
		return &RequestError{Details: details}
	}
	return nil
}
