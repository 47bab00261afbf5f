// Package form validates the collection and mint forms before anything is
// submitted: local field rules first, then uniqueness checks against the
// chain for the fields that passed them.
package form

import (
	"context"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/reified-portal/nft"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "form").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "form").Logger()
}

// DenomLookup is the part of the chain query facade used for uniqueness
// checks.
type DenomLookup interface {
	Denom(ctx context.Context, id string) (nft.Denom, error)
	DenomByName(ctx context.Context, name string) (nft.Denom, error)
	DenomBySymbol(ctx context.Context, symbol string) (nft.Denom, error)
}

// Validator validates the portal forms.
type Validator struct {
	lookup        DenomLookup
	bech32Prefix  string
	lookupTimeout time.Duration
}

// ValidatorOption configures the validator.
type ValidatorOption func(*Validator)

// WithBech32Prefix sets the prefix recipient addresses must carry.
func WithBech32Prefix(prefix string) ValidatorOption {
	return func(v *Validator) {
		v.bech32Prefix = prefix
	}
}

// WithLookupTimeout bounds each uniqueness check.
func WithLookupTimeout(timeout time.Duration) ValidatorOption {
	return func(v *Validator) {
		v.lookupTimeout = timeout
	}
}

// NewValidator creates a validator checking uniqueness through lookup.
func NewValidator(lookup DenomLookup, opts ...ValidatorOption) *Validator {
	v := &Validator{
		lookup:        lookup,
		lookupTimeout: 10 * time.Second,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type uniqueCheck struct {
	field   string
	value   string
	message string
	lookup  func(context.Context, string) (nft.Denom, error)
}

// ValidateDenom validates a collection form.
func (v *Validator) ValidateDenom(ctx context.Context, f DenomForm) *Result {
	result := newResult()

	checks := make([]uniqueCheck, 0, 3)
	if check(result, FieldDenomID, f.DenomID, denomIDRules...) {
		checks = append(checks, uniqueCheck{FieldDenomID, f.DenomID, msgDenomIDTaken, v.lookup.Denom})
	}
	if check(result, FieldName, f.Name, denomNameRules...) {
		checks = append(checks, uniqueCheck{FieldName, f.Name, msgNameTaken, v.lookup.DenomByName})
	}
	if check(result, FieldSymbol, f.Symbol, symbolRules...) {
		checks = append(checks, uniqueCheck{FieldSymbol, f.Symbol, msgSymbolTaken, v.lookup.DenomBySymbol})
	}

	v.runUnique(ctx, checks, result)
	return result
}

// outcome of one uniqueness check
type uniqueOutcome int

const (
	unique uniqueOutcome = iota
	taken
	degraded
)

// runUnique runs the checks concurrently and records their outcomes in
// check order.
func (v *Validator) runUnique(ctx context.Context, checks []uniqueCheck, result *Result) {
	outcomes := make([]uniqueOutcome, len(checks))

	var wg sync.WaitGroup
	for i, c := range checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = v.isUnique(ctx, c)
		}()
	}
	wg.Wait()

	for i, c := range checks {
		switch outcomes[i] {
		case taken:
			result.add(c.field, c.message)
		case degraded:
			result.Degraded = append(result.Degraded, c.field)
		}
	}
}

func (v *Validator) isUnique(ctx context.Context, c uniqueCheck) uniqueOutcome {
	if v.lookupTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.lookupTimeout)
		defer cancel()
	}

	_, err := c.lookup(ctx, c.value)
	switch {
	case err == nil:
		return taken
	case nft.IsNotFound(err):
		return unique
	default:
		log.Warn().Err(err).Str("field", c.field).Str("value", c.value).
			Msg("Uniqueness check unavailable, field accepted without it")
		return degraded
	}
}

// ValidateNft validates a mint form. It needs no chain access.
func (v *Validator) ValidateNft(ctx context.Context, f NftForm) *Result {
	result := newResult()

	check(result, FieldName, f.Name, nftNameRules...)
	check(result, FieldURI, f.URI, uriRules...)
	if f.MintForAnotherAddress {
		check(result, FieldRecipient, f.Recipient, bech32Address(v.bech32Prefix, msgRecipient))
	}
	return result
}
