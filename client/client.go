// Package client is the transaction facade: it turns issue and mint requests
// into chain messages and submits them through the connected wallet.
package client

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/tx"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "nft-client").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "nft-client").Logger()
}

// Session hands out the signing client of the connected wallet.
type Session interface {
	Signer() (tx.Broadcaster, nft.AccountDetails, error)
}

// NftClient submits NFT module transactions as the connected account.
type NftClient struct {
	session Session
	memo    string
}

// Option configures an NftClient.
type Option func(*NftClient)

// WithMemo sets the memo attached to every transaction.
func WithMemo(memo string) Option {
	return func(c *NftClient) {
		c.memo = memo
	}
}

func New(session Session, opts ...Option) *NftClient {
	c := &NftClient{session: session}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ nft.ChainTransaction = (*NftClient)(nil)

// IssueDenom creates a new collection. Sender and From are always the
// connected account.
func (c *NftClient) IssueDenom(ctx context.Context, msg nft.IssueMessage) error {
	signer, account, err := c.session.Signer()
	if err != nil {
		submissionsTotal.WithLabelValues("issue_denom", resultNotConnected).Inc()
		return err
	}
	msg.Sender = account.Address
	msg.From = account.Address

	result, err := c.submit(ctx, signer, "issue_denom", tx.NewIssueDenom(msg).Msg())
	if err != nil {
		return err
	}
	log.Info().
		Str("denom_id", msg.ID).
		Str("name", msg.Name).
		Str("symbol", msg.Symbol).
		Str("tx_hash", result.TxHash).
		Int64("height", result.Height).
		Msg("Denom issued")
	return nil
}

// MintNFT mints a token. An empty Recipient mints to the connected account.
func (c *NftClient) MintNFT(ctx context.Context, msg nft.MintMessage) error {
	signer, account, err := c.session.Signer()
	if err != nil {
		submissionsTotal.WithLabelValues("mint_nft", resultNotConnected).Inc()
		return err
	}
	msg.From = account.Address
	if msg.Recipient == "" {
		msg.Recipient = account.Address
	}

	result, err := c.submit(ctx, signer, "mint_nft", tx.NewMintNFT(msg).Msg())
	if err != nil {
		return err
	}
	log.Info().
		Str("denom_id", msg.DenomID).
		Str("name", msg.Name).
		Str("recipient", msg.Recipient).
		Str("tx_hash", result.TxHash).
		Msg("NFT minted")
	return nil
}

func (c *NftClient) submit(ctx context.Context, signer tx.Broadcaster, label string, msg tx.Msg) (tx.TxResult, error) {
	start := time.Now()
	result, err := signer.SignAndBroadcast(ctx, []tx.Msg{msg}, c.memo)
	submissionDuration.WithLabelValues(label).Observe(time.Since(start).Seconds())

	if err == nil {
		err = result.AssertSuccess()
	}
	if err != nil {
		err = classify(err)
		if nft.IsTransport(err) {
			submissionsTotal.WithLabelValues(label, resultTransport).Inc()
		} else {
			submissionsTotal.WithLabelValues(label, resultRejected).Inc()
		}
		log.Warn().Err(err).Str("msg", label).Msg("Transaction failed")
		return tx.TxResult{}, err
	}

	submissionsTotal.WithLabelValues(label, resultSuccess).Inc()
	return result, nil
}

// classify marks chain rejections caused by a missing denom.
func classify(err error) error {
	var submissionErr *nft.SubmissionError
	if !errors.As(err, &submissionErr) {
		return err
	}
	lower := strings.ToLower(submissionErr.Log)
	if strings.Contains(lower, "not found denom") || strings.Contains(lower, "denom not found") {
		submissionErr.Err = nft.ErrDenomNotFound
	}
	return submissionErr
}
