package gateways

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/angelmondragon/invoicedesk-backend/pkg/enums"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// FieldIssue describes one rejected config field.
type FieldIssue struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// Issues flattens a Validate error into per-field issues.
func Issues(err error) []FieldIssue {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]FieldIssue, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldIssue{Field: fe.Field(), Rule: fe.Tag()})
	}
	return out
}

// Config is the typed settings record of one gateway kind.
type Config interface {
	Kind() enums.GatewayKind
	Validate() error
	// Masked returns a copy safe to show in the admin portal.
	Masked() Config
	// KeepSecrets returns a copy where every secret still equal to the masked
	// form of the stored record's value is replaced by the stored value.
	KeepSecrets(stored Config) Config
	// Secrets lists the secret fields by JSON name.
	Secrets() map[string]string
}

type StripeConfig struct {
	PublishableKey string `json:"publishable_key" validate:"required,startswith=pk_"`
	SecretKey      string `json:"secret_key" validate:"required,startswith=sk_"`
	WebhookSecret  string `json:"webhook_secret,omitempty" validate:"omitempty,startswith=whsec_"`
}

func (StripeConfig) Kind() enums.GatewayKind { return enums.GatewayKindStripe }
func (c StripeConfig) Validate() error       { return validate.Struct(c) }
func (c StripeConfig) Masked() Config {
	c.SecretKey = maskSecret(c.SecretKey)
	c.WebhookSecret = maskSecret(c.WebhookSecret)
	return c
}
func (c StripeConfig) KeepSecrets(stored Config) Config {
	if prev, ok := stored.(StripeConfig); ok {
		c.SecretKey = keepSecret(c.SecretKey, prev.SecretKey)
		c.WebhookSecret = keepSecret(c.WebhookSecret, prev.WebhookSecret)
	}
	return c
}
func (c StripeConfig) Secrets() map[string]string {
	return map[string]string{"secret_key": c.SecretKey, "webhook_secret": c.WebhookSecret}
}

type RazorpayConfig struct {
	KeyID         string `json:"key_id" validate:"required,startswith=rzp_"`
	KeySecret     string `json:"key_secret" validate:"required,min=8"`
	WebhookSecret string `json:"webhook_secret,omitempty"`
}

func (RazorpayConfig) Kind() enums.GatewayKind { return enums.GatewayKindRazorpay }
func (c RazorpayConfig) Validate() error       { return validate.Struct(c) }
func (c RazorpayConfig) Masked() Config {
	c.KeySecret = maskSecret(c.KeySecret)
	c.WebhookSecret = maskSecret(c.WebhookSecret)
	return c
}
func (c RazorpayConfig) KeepSecrets(stored Config) Config {
	if prev, ok := stored.(RazorpayConfig); ok {
		c.KeySecret = keepSecret(c.KeySecret, prev.KeySecret)
		c.WebhookSecret = keepSecret(c.WebhookSecret, prev.WebhookSecret)
	}
	return c
}
func (c RazorpayConfig) Secrets() map[string]string {
	return map[string]string{"key_secret": c.KeySecret, "webhook_secret": c.WebhookSecret}
}

type PayPalConfig struct {
	ClientID     string `json:"client_id" validate:"required"`
	ClientSecret string `json:"client_secret" validate:"required"`
	Mode         string `json:"mode" validate:"required,oneof=sandbox live"`
}

func (PayPalConfig) Kind() enums.GatewayKind { return enums.GatewayKindPayPal }
func (c PayPalConfig) Validate() error       { return validate.Struct(c) }
func (c PayPalConfig) Masked() Config {
	c.ClientSecret = maskSecret(c.ClientSecret)
	return c
}
func (c PayPalConfig) KeepSecrets(stored Config) Config {
	if prev, ok := stored.(PayPalConfig); ok {
		c.ClientSecret = keepSecret(c.ClientSecret, prev.ClientSecret)
	}
	return c
}
func (c PayPalConfig) Secrets() map[string]string {
	return map[string]string{"client_secret": c.ClientSecret}
}

// BankTransferConfig holds the account customers pay into directly.
type BankTransferConfig struct {
	AccountName   string `json:"account_name" validate:"required"`
	AccountNumber string `json:"account_number" validate:"required,numeric,min=6,max=34"`
	BankName      string `json:"bank_name" validate:"required"`
	IFSC          string `json:"ifsc,omitempty" validate:"omitempty,len=11,alphanum"`
	SwiftCode     string `json:"swift_code,omitempty" validate:"omitempty,min=8,max=11,alphanum"`
}

func (BankTransferConfig) Kind() enums.GatewayKind { return enums.GatewayKindBankTransfer }
func (c BankTransferConfig) Validate() error       { return validate.Struct(c) }
func (c BankTransferConfig) Masked() Config {
	c.AccountNumber = maskSecret(c.AccountNumber)
	return c
}
func (c BankTransferConfig) KeepSecrets(stored Config) Config {
	if prev, ok := stored.(BankTransferConfig); ok {
		c.AccountNumber = keepSecret(c.AccountNumber, prev.AccountNumber)
	}
	return c
}
func (c BankTransferConfig) Secrets() map[string]string {
	return map[string]string{"account_number": c.AccountNumber}
}

// Decode parses raw into the record for kind. Unknown fields are rejected.
func Decode(kind enums.GatewayKind, raw json.RawMessage) (Config, error) {
	switch kind {
	case enums.GatewayKindStripe:
		return decodeInto[StripeConfig](raw)
	case enums.GatewayKindRazorpay:
		return decodeInto[RazorpayConfig](raw)
	case enums.GatewayKindPayPal:
		return decodeInto[PayPalConfig](raw)
	case enums.GatewayKindBankTransfer:
		return decodeInto[BankTransferConfig](raw)
	default:
		return nil, fmt.Errorf("unsupported gateway kind %q", kind)
	}
}

func decodeInto[T Config](raw json.RawMessage) (Config, error) {
	var cfg T
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("config is required")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", cfg.Kind(), err)
	}
	return cfg, nil
}

// maskSecret keeps the last four characters.
func maskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	return strings.Repeat("*", len(value)-4) + value[len(value)-4:]
}

func keepSecret(incoming, stored string) string {
	if stored != "" && incoming == maskSecret(stored) {
		return stored
	}
	return incoming
}

// looksMasked reports whether value has the shape maskSecret produces.
func looksMasked(value string) bool {
	visible := strings.TrimLeft(value, "*")
	return len(visible) < len(value) && len(visible) <= 4
}

// MaskedSecrets reports secret fields that still carry a masked placeholder.
func MaskedSecrets(cfg Config) []FieldIssue {
	var out []FieldIssue
	for field, value := range cfg.Secrets() {
		if looksMasked(value) {
			out = append(out, FieldIssue{Field: field, Rule: "masked"})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}
