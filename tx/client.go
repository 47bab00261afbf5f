// Package tx builds, signs and broadcasts Cosmos SDK transactions carrying
// the NFT module's messages.
package tx

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Cogwheel-Validator/reified-portal/lcd"
	"github.com/Cogwheel-Validator/reified-portal/nft"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "tx").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "tx").Logger()
}

var tracer = otel.Tracer("github.com/Cogwheel-Validator/reified-portal/tx")

var (
	ErrClientClosed = errors.New("signing client is closed")
	// ErrBroadcastTimeout means the transaction was accepted into the mempool
	// but not seen in a block in time. Its outcome is unknown.
	ErrBroadcastTimeout = errors.New("transaction was submitted but was not yet found on the chain")
)

// Transport is the subset of the REST client the signing client needs.
// PostOnce must send the request a single time; it carries broadcasts.
type Transport interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, in, out any) error
	PostOnce(ctx context.Context, path string, in, out any) error
}

// Options configures a SigningClient.
type Options struct {
	ChainID  string
	GasPrice GasPrice
	// GasMultiplier scales simulated gas usage into the gas limit.
	GasMultiplier decimal.Decimal
	// PollInterval is how often inclusion of a broadcast tx is checked.
	PollInterval time.Duration
	// BroadcastTimeout bounds the wait for inclusion.
	BroadcastTimeout time.Duration
}

// DefaultGasMultiplier matches the "auto" fee of most Cosmos wallets.
var DefaultGasMultiplier = decimal.RequireFromString("1.3")

func (o Options) withDefaults() Options {
	if o.GasMultiplier.IsZero() {
		o.GasMultiplier = DefaultGasMultiplier
	}
	if o.PollInterval <= 0 {
		o.PollInterval = 3 * time.Second
	}
	if o.BroadcastTimeout <= 0 {
		o.BroadcastTimeout = 60 * time.Second
	}
	return o
}

// AccountInfo is the on-chain state needed to sign for an account.
type AccountInfo struct {
	Address       string
	AccountNumber uint64
	Sequence      uint64
}

// SigningClient submits transactions signed by a single Signer. Calls are
// serialized so that the account sequence is used in order.
type SigningClient struct {
	transport Transport
	signer    Signer
	opts      Options

	mu     sync.Mutex
	closed bool
}

// NewSigningClient binds a signer to a chain.
func NewSigningClient(transport Transport, signer Signer, opts Options) (*SigningClient, error) {
	if transport == nil {
		return nil, errors.New("transport is required")
	}
	if signer == nil {
		return nil, errors.New("signer is required")
	}
	if opts.ChainID == "" {
		return nil, errors.New("chain id is required")
	}
	if opts.GasPrice.IsZero() {
		return nil, errors.New("gas price is required")
	}
	return &SigningClient{
		transport: transport,
		signer:    signer,
		opts:      opts.withDefaults(),
	}, nil
}

var _ Broadcaster = (*SigningClient)(nil)

func (c *SigningClient) Address() string {
	return c.signer.Address()
}

// Close releases the client. Further submissions fail with ErrClientClosed.
func (c *SigningClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

type accountResponse struct {
	Account struct {
		Address       string `json:"address"`
		AccountNumber uint64 `json:"account_number,string"`
		Sequence      uint64 `json:"sequence,string"`
	} `json:"account"`
}

// Account fetches the account number and sequence of addr.
func (c *SigningClient) Account(ctx context.Context, addr string) (AccountInfo, error) {
	var response accountResponse
	err := c.transport.Get(ctx, "/cosmos/auth/v1beta1/accounts/"+url.PathEscape(addr), &response)
	if err != nil {
		if errors.Is(err, lcd.ErrNotFound) {
			return AccountInfo{}, fmt.Errorf("account %s does not exist on chain, it needs funds first: %w", addr, nft.ErrSubmissionFailed)
		}
		return AccountInfo{}, &nft.TransportError{Op: "query account", Err: err}
	}
	return AccountInfo{
		Address:       addr,
		AccountNumber: response.Account.AccountNumber,
		Sequence:      response.Account.Sequence,
	}, nil
}

/*
SignAndBroadcast simulates msgs to estimate gas, signs them in direct mode
and broadcasts the transaction, then waits until it is included in a block.

Returns:
  - the result, which may carry a non-zero code, when the chain answered
  - *nft.SubmissionError when the chain refused the tx during simulation
  - *nft.TransportError when the chain could not be reached or the outcome
    is unknown
*/
func (c *SigningClient) SignAndBroadcast(ctx context.Context, msgs []Msg, memo string) (TxResult, error) {
	ctx, span := tracer.Start(ctx, "tx.SignAndBroadcast", trace.WithAttributes(
		attribute.String("tx.signer", c.signer.Address()),
		attribute.Int("tx.msgs", len(msgs)),
	))
	defer span.End()

	result, err := c.signAndBroadcast(ctx, msgs, memo)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return TxResult{}, err
	}
	span.SetAttributes(
		attribute.String("tx.hash", result.TxHash),
		attribute.Int64("tx.code", int64(result.Code)),
		attribute.Int64("tx.gas_used", result.GasUsed),
	)
	return result, nil
}

func (c *SigningClient) signAndBroadcast(ctx context.Context, msgs []Msg, memo string) (TxResult, error) {
	if len(msgs) == 0 {
		return TxResult{}, errors.New("no messages to broadcast")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return TxResult{}, ErrClientClosed
	}

	account, err := c.Account(ctx, c.signer.Address())
	if err != nil {
		return TxResult{}, err
	}

	bodyBytes := encodeBody(msgs, memo)
	pubKey := c.signer.PubKey()

	simAuthInfo := encodeAuthInfo(pubKey, account.Sequence, Fee{})
	gasUsed, err := c.simulate(ctx, encodeTxRaw(bodyBytes, simAuthInfo, nil))
	if err != nil {
		return TxResult{}, err
	}
	gasLimit := GasLimit(gasUsed, c.opts.GasMultiplier)
	fee := c.opts.GasPrice.Fee(gasLimit)

	authInfoBytes := encodeAuthInfo(pubKey, account.Sequence, fee)
	signDoc := encodeSignDoc(bodyBytes, authInfoBytes, c.opts.ChainID, account.AccountNumber)
	signature, err := c.signer.Sign(signDoc)
	if err != nil {
		return TxResult{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	log.Debug().
		Str("signer", account.Address).
		Uint64("sequence", account.Sequence).
		Uint64("gas_limit", gasLimit).
		Str("fee", fee.Amount[0].Amount+fee.Amount[0].Denom).
		Msg("Broadcasting transaction")

	checked, err := c.broadcast(ctx, encodeTxRaw(bodyBytes, authInfoBytes, signature))
	if err != nil {
		return TxResult{}, err
	}
	if !checked.IsSuccess() {
		return checked, nil
	}
	return c.waitForTx(ctx, checked.TxHash)
}

type simulateResponse struct {
	GasInfo struct {
		GasUsed uint64 `json:"gas_used,string"`
	} `json:"gas_info"`
}

func (c *SigningClient) simulate(ctx context.Context, txBytes []byte) (uint64, error) {
	var response simulateResponse
	err := c.transport.Post(ctx, "/cosmos/tx/v1beta1/simulate",
		map[string]string{"tx_bytes": base64.StdEncoding.EncodeToString(txBytes)}, &response)
	if err != nil {
		var apiErr *lcd.APIError
		if errors.As(err, &apiErr) {
			return 0, &nft.SubmissionError{Code: uint32(apiErr.Code), Log: apiErr.Message, Err: nft.ErrSubmissionFailed}
		}
		if errors.Is(err, lcd.ErrNotFound) {
			return 0, &nft.SubmissionError{Log: err.Error(), Err: nft.ErrSubmissionFailed}
		}
		return 0, &nft.TransportError{Op: "simulate tx", Err: err}
	}
	return response.GasInfo.GasUsed, nil
}

type txResponse struct {
	TxResponse TxResult `json:"tx_response"`
}

func (c *SigningClient) broadcast(ctx context.Context, txBytes []byte) (TxResult, error) {
	var response txResponse
	err := c.transport.PostOnce(ctx, "/cosmos/tx/v1beta1/txs", map[string]string{
		"tx_bytes": base64.StdEncoding.EncodeToString(txBytes),
		"mode":     "BROADCAST_MODE_SYNC",
	}, &response)
	if err != nil {
		return TxResult{}, &nft.TransportError{Op: "broadcast tx", Err: err}
	}
	return response.TxResponse, nil
}

func (c *SigningClient) waitForTx(ctx context.Context, hash string) (TxResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.BroadcastTimeout)
	defer cancel()

	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		var response txResponse
		err := c.transport.Get(ctx, "/cosmos/tx/v1beta1/txs/"+hash, &response)
		switch {
		case err == nil:
			return response.TxResponse, nil
		case errors.Is(err, lcd.ErrNotFound):
		default:
			log.Debug().Err(err).Str("hash", hash).Msg("Polling transaction failed")
		}

		select {
		case <-ctx.Done():
			return TxResult{}, &nft.TransportError{
				Op:  "wait for tx " + hash,
				Err: fmt.Errorf("%w: %w", ErrBroadcastTimeout, ctx.Err()),
			}
		case <-ticker.C:
		}
	}
}
