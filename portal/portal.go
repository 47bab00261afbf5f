// Package portal is the boundary the presentation layers (HTTP API, CLI) are
// written against. It owns no state of its own beyond its collaborators.
package portal

import (
	"context"
	"errors"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/reified-portal/form"
	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/workflow"
)

var log zerolog.Logger

func init() {
	output := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(output).With().Timestamp().Str("component", "portal").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "portal").Logger()
}

// Config holds the collaborators of a Portal. Every field is required.
type Config struct {
	ChainID   string
	Wallet    nft.WalletSession
	Query     nft.ChainQuery
	Tx        nft.ChainTransaction
	Validator *form.Validator
}

// Portal connects a wallet, reads chain state and submits transactions.
type Portal struct {
	chainID   string
	wallet    nft.WalletSession
	query     nft.ChainQuery
	tx        nft.ChainTransaction
	validator *form.Validator
}

// New creates a portal from cfg.
func New(cfg Config) (*Portal, error) {
	var errs []error
	if cfg.ChainID == "" {
		errs = append(errs, errors.New("chain id is required"))
	}
	if cfg.Wallet == nil {
		errs = append(errs, errors.New("wallet session is required"))
	}
	if cfg.Query == nil {
		errs = append(errs, errors.New("chain query is required"))
	}
	if cfg.Tx == nil {
		errs = append(errs, errors.New("chain transaction is required"))
	}
	if cfg.Validator == nil {
		errs = append(errs, errors.New("validator is required"))
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &Portal{
		chainID:   cfg.ChainID,
		wallet:    cfg.Wallet,
		query:     cfg.Query,
		tx:        cfg.Tx,
		validator: cfg.Validator,
	}, nil
}

func (p *Portal) ChainID() string {
	return p.chainID
}

// ConnectWallet authorizes the portal with the wallet for the configured
// chain.
func (p *Portal) ConnectWallet(ctx context.Context) (nft.AccountDetails, error) {
	account, err := p.wallet.Connect(ctx)
	if err != nil {
		log.Warn().Err(err).Str("chain_id", p.chainID).Msg("Wallet connection failed")
		return nft.AccountDetails{}, err
	}
	return account, nil
}

// DisconnectWallet releases the session. It is a no-op when not connected.
func (p *Portal) DisconnectWallet() {
	p.wallet.Disconnect()
}

// Account returns the connected account.
func (p *Portal) Account() (nft.AccountDetails, bool) {
	return p.wallet.Account()
}

func (p *Portal) IsConnected() bool {
	return p.wallet.IsConnected()
}

// CreateDenom issues msg and returns the id of the new denom. The chain id
// defaults to the portal's.
func (p *Portal) CreateDenom(ctx context.Context, msg nft.IssueMessage) (string, error) {
	if msg.ChainID == "" {
		msg.ChainID = p.chainID
	}
	if err := p.tx.IssueDenom(ctx, msg); err != nil {
		return "", err
	}
	return msg.ID, nil
}

// MintNft mints msg and returns the id of the denom the token went into.
func (p *Portal) MintNft(ctx context.Context, msg nft.MintMessage) (string, error) {
	if msg.ChainID == "" {
		msg.ChainID = p.chainID
	}
	if err := p.tx.MintNFT(ctx, msg); err != nil {
		return "", err
	}
	return msg.DenomID, nil
}

func (p *Portal) AllDenoms(ctx context.Context) ([]nft.Denom, error) {
	return p.query.AllDenoms(ctx)
}

func (p *Portal) Denom(ctx context.Context, id string) (nft.Denom, error) {
	return p.query.Denom(ctx, id)
}

func (p *Portal) DenomByName(ctx context.Context, name string) (nft.Denom, error) {
	return p.query.DenomByName(ctx, name)
}

func (p *Portal) DenomBySymbol(ctx context.Context, symbol string) (nft.Denom, error) {
	return p.query.DenomBySymbol(ctx, symbol)
}

func (p *Portal) Collection(ctx context.Context, denomID string) (nft.Collection, error) {
	return p.query.Collection(ctx, denomID)
}

func (p *Portal) Token(ctx context.Context, denomID, tokenID string) (nft.Nft, error) {
	return p.query.Token(ctx, denomID, tokenID)
}

func (p *Portal) Supply(ctx context.Context, denomID string) (uint64, error) {
	return p.query.Supply(ctx, denomID)
}

func (p *Portal) IsValidAddress(ctx context.Context, addr string) (bool, error) {
	return p.query.IsValidAddress(ctx, addr)
}

// CollectionsOf returns the denoms created by owner.
func (p *Portal) CollectionsOf(ctx context.Context, owner string) ([]nft.Denom, error) {
	denoms, err := p.query.AllDenoms(ctx)
	if err != nil {
		return nil, err
	}
	return nft.FilterByCreator(denoms, owner), nil
}

// AssetsOf returns the tokens of a collection held by owner.
func (p *Portal) AssetsOf(ctx context.Context, denomID, owner string) ([]nft.Nft, error) {
	collection, err := p.query.Collection(ctx, denomID)
	if err != nil {
		return nil, err
	}
	return collection.OwnedBy(owner), nil
}

func (p *Portal) ValidateDenom(ctx context.Context, f form.DenomForm) *form.Result {
	return p.validator.ValidateDenom(ctx, f)
}

func (p *Portal) ValidateNft(ctx context.Context, f form.NftForm) *form.Result {
	return p.validator.ValidateNft(ctx, f)
}

// NewWorkflow starts a mint workflow. A non-empty denomID starts it at the
// mint step for that collection.
func (p *Portal) NewWorkflow(denomID string) *workflow.Controller {
	return workflow.NewAt(denomID, workflow.Deps{
		ChainID:   p.chainID,
		Wallet:    p.wallet,
		Validator: p.validator,
		Tx:        p.tx,
	})
}
