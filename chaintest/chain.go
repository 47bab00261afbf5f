// Package chaintest provides an in-memory chain with the NFT module, plus a
// wallet and signer bound to it, for tests of the layers above the chain
// clients.
package chaintest

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"sync"

	"github.com/Cogwheel-Validator/reified-portal/address"
	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/tx"
	"github.com/Cogwheel-Validator/reified-portal/wallet"
)

// Error codes of the NFT module answered by Chain.
const (
	CodeInvalidDenom  = 3
	CodeDenomExists   = 4
	CodeUnauthorized  = 9
	CodeInvalidMsg    = 11
	nftCodespace      = "nft"
	defaultGasPerTx   = 120000
	defaultTokenStart = 1
)

// Address returns a valid bech32 address derived from seed.
func Address(prefix string, seed byte) string {
	addr, err := address.Encode(prefix, bytes.Repeat([]byte{seed}, 20))
	if err != nil {
		panic(err)
	}
	return addr
}

type rejection struct {
	code uint32
	log  string
}

// Chain is an in-memory NFT chain. The zero value is not usable, use New.
type Chain struct {
	ChainID string
	Prefix  string

	mu          sync.Mutex
	denoms      []nft.Denom
	tokens      map[string][]nft.Nft
	accounts    map[string]bool
	height      int64
	queryErr    error
	submitErr   error
	reject      *rejection
	submissions int
}

// New creates an empty chain.
func New(chainID, prefix string) *Chain {
	return &Chain{
		ChainID:  chainID,
		Prefix:   prefix,
		tokens:   make(map[string][]nft.Nft),
		accounts: make(map[string]bool),
		height:   1,
	}
}

var _ nft.ChainQuery = (*Chain)(nil)

// AddAccount makes addr known to the chain.
func (c *Chain) AddAccount(addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts[addr] = true
}

// AddDenom seeds an existing denom.
func (c *Chain) AddDenom(denom nft.Denom) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.denoms = append(c.denoms, denom)
	c.accounts[denom.Creator] = true
}

// FailQueries makes every query fail with a transport error wrapping err.
// A nil err restores normal behavior.
func (c *Chain) FailQueries(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.queryErr = err
}

// FailSubmissions makes every submission fail with a transport error
// wrapping err. A nil err restores normal behavior.
func (c *Chain) FailSubmissions(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitErr = err
}

// RejectNext makes the next transaction fail with code and log.
func (c *Chain) RejectNext(code uint32, log string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reject = &rejection{code: code, log: log}
}

// Submissions returns how many transactions reached the chain.
func (c *Chain) Submissions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submissions
}

func (c *Chain) queryFailure(op string) error {
	if c.queryErr != nil {
		return &nft.TransportError{Op: op, Err: c.queryErr}
	}
	return nil
}

func (c *Chain) findDenom(match func(nft.Denom) bool) (nft.Denom, bool) {
	for _, denom := range c.denoms {
		if match(denom) {
			return denom, true
		}
	}
	return nft.Denom{}, false
}

func (c *Chain) AllDenoms(ctx context.Context) ([]nft.Denom, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.queryFailure("query denoms"); err != nil {
		return nil, err
	}
	return append([]nft.Denom(nil), c.denoms...), nil
}

func (c *Chain) denomBy(op string, match func(nft.Denom) bool) (nft.Denom, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.queryFailure(op); err != nil {
		return nft.Denom{}, err
	}
	denom, ok := c.findDenom(match)
	if !ok {
		return nft.Denom{}, fmt.Errorf("%s: %w", op, nft.ErrNotFound)
	}
	return denom, nil
}

func (c *Chain) Denom(ctx context.Context, id string) (nft.Denom, error) {
	return c.denomBy("query denom", func(d nft.Denom) bool { return d.ID == id })
}

func (c *Chain) DenomByName(ctx context.Context, name string) (nft.Denom, error) {
	return c.denomBy("query denom by name", func(d nft.Denom) bool { return d.Name == name })
}

func (c *Chain) DenomBySymbol(ctx context.Context, symbol string) (nft.Denom, error) {
	return c.denomBy("query denom by symbol", func(d nft.Denom) bool { return d.Symbol == symbol })
}

func (c *Chain) Collection(ctx context.Context, denomID string) (nft.Collection, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.queryFailure("query collection"); err != nil {
		return nft.Collection{}, err
	}
	denom, ok := c.findDenom(func(d nft.Denom) bool { return d.ID == denomID })
	if !ok {
		return nft.Collection{}, fmt.Errorf("query collection: %w", nft.ErrNotFound)
	}
	return nft.Collection{
		Denom: denom,
		NFTs:  append([]nft.Nft{}, c.tokens[denomID]...),
	}, nil
}

func (c *Chain) Token(ctx context.Context, denomID, tokenID string) (nft.Nft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.queryFailure("query nft"); err != nil {
		return nft.Nft{}, err
	}
	for _, token := range c.tokens[denomID] {
		if token.ID == tokenID {
			return token, nil
		}
	}
	return nft.Nft{}, fmt.Errorf("query nft: %w", nft.ErrNotFound)
}

func (c *Chain) Supply(ctx context.Context, denomID string) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.queryFailure("query supply"); err != nil {
		return 0, err
	}
	return uint64(len(c.tokens[denomID])), nil
}

func (c *Chain) IsValidAddress(ctx context.Context, addr string) (bool, error) {
	if address.Validate(addr, c.Prefix) != nil {
		return false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.queryFailure("query account"); err != nil {
		return false, err
	}
	return c.accounts[addr], nil
}

// Broadcaster returns a signing client for signer on this chain.
func (c *Chain) Broadcaster(signer string) tx.Broadcaster {
	return &broadcaster{chain: c, signer: signer}
}

// Connector binds wallet signers to this chain.
func (c *Chain) Connector() wallet.Connector {
	return wallet.ConnectorFunc(func(ctx context.Context, signer tx.Signer) (tx.Broadcaster, error) {
		return c.Broadcaster(signer.Address()), nil
	})
}

type broadcaster struct {
	chain  *Chain
	signer string

	mu     sync.Mutex
	closed bool
}

func (b *broadcaster) Address() string {
	return b.signer
}

func (b *broadcaster) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *broadcaster) SignAndBroadcast(ctx context.Context, msgs []tx.Msg, memo string) (tx.TxResult, error) {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if closed {
		return tx.TxResult{}, tx.ErrClientClosed
	}
	return b.chain.deliver(b.signer, msgs)
}

func (c *Chain) deliver(signer string, msgs []tx.Msg) (tx.TxResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.submitErr != nil {
		return tx.TxResult{}, &nft.TransportError{Op: "broadcast tx", Err: c.submitErr}
	}
	c.submissions++
	c.height++

	hash := sha256.Sum256([]byte(fmt.Sprintf("%s/%d/%d", signer, c.height, c.submissions)))
	result := tx.TxResult{
		TxHash:    hex.EncodeToString(hash[:]),
		Height:    c.height,
		GasWanted: defaultGasPerTx,
		GasUsed:   defaultGasPerTx * 3 / 4,
	}

	if c.reject != nil {
		result.Code, result.Codespace, result.RawLog = c.reject.code, nftCodespace, c.reject.log
		c.reject = nil
		return result, nil
	}

	// apply on a copy so a failing message rolls the whole tx back
	denoms := append([]nft.Denom(nil), c.denoms...)
	tokens := make(map[string][]nft.Nft, len(c.tokens))
	for id, list := range c.tokens {
		tokens[id] = append([]nft.Nft(nil), list...)
	}

	for i, msg := range msgs {
		code, log := applyMsg(signer, msg, &denoms, tokens)
		if code != 0 {
			result.Code = code
			result.Codespace = nftCodespace
			result.RawLog = fmt.Sprintf("failed to execute message; message index: %d: %s", i, log)
			return result, nil
		}
	}

	c.denoms = denoms
	c.tokens = tokens
	c.accounts[signer] = true
	return result, nil
}

func applyMsg(signer string, msg tx.Msg, denoms *[]nft.Denom, tokens map[string][]nft.Nft) (uint32, string) {
	switch msg.TypeURL {
	case tx.TypeURLIssueDenom:
		issue, err := tx.UnmarshalIssueDenom(msg.Value)
		if err != nil {
			return CodeInvalidMsg, err.Error()
		}
		if issue.Sender != signer {
			return CodeUnauthorized, fmt.Sprintf("%s is not the signer", issue.Sender)
		}
		for _, d := range *denoms {
			switch {
			case d.ID == issue.ID:
				return CodeDenomExists, fmt.Sprintf("denomID %s has already exists: invalid denom", issue.ID)
			case d.Name == issue.Name:
				return CodeDenomExists, fmt.Sprintf("denomName %s has already exists: invalid denom", issue.Name)
			case d.Symbol == issue.Symbol:
				return CodeDenomExists, fmt.Sprintf("denomSymbol %s has already exists: invalid denom", issue.Symbol)
			}
		}
		*denoms = append(*denoms, nft.Denom{
			ID:      issue.ID,
			Name:    issue.Name,
			Schema:  issue.Schema,
			Creator: issue.Sender,
			Symbol:  issue.Symbol,
		})
		return 0, ""

	case tx.TypeURLMintNFT:
		mint, err := tx.UnmarshalMintNFT(msg.Value)
		if err != nil {
			return CodeInvalidMsg, err.Error()
		}
		if mint.Sender != signer {
			return CodeUnauthorized, fmt.Sprintf("%s is not the signer", mint.Sender)
		}
		found := false
		for _, d := range *denoms {
			if d.ID == mint.DenomID {
				found = true
				break
			}
		}
		if !found {
			return CodeInvalidDenom, fmt.Sprintf("not found denomID: %s: invalid denom", mint.DenomID)
		}
		owner := mint.Recipient
		if owner == "" {
			owner = mint.Sender
		}
		tokens[mint.DenomID] = append(tokens[mint.DenomID], nft.Nft{
			ID:    strconv.Itoa(len(tokens[mint.DenomID]) + defaultTokenStart),
			Name:  mint.Name,
			URI:   mint.URI,
			Data:  mint.Data,
			Owner: owner,
		})
		return 0, ""
	}
	return CodeInvalidMsg, fmt.Sprintf("unrecognized message type %s", msg.TypeURL)
}
