// Package workflow is the two-step mint flow: create a collection, then mint
// tokens into it.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Cogwheel-Validator/reified-portal/form"
	"github.com/Cogwheel-Validator/reified-portal/nft"
)

// Step of the flow.
type Step int

const (
	StepCreateCollection Step = 0
	StepMintToken        Step = 1
)

func (s Step) String() string {
	switch s {
	case StepCreateCollection:
		return "create-collection"
	case StepMintToken:
		return "mint-token"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

var (
	// ErrNoCollection is returned when minting before a collection exists.
	ErrNoCollection = errors.New("no collection selected, create a collection first")
	ErrWrongStep    = errors.New("collection already created, reset the workflow to create another")
	// ErrInFlight is returned when a step is submitted twice concurrently.
	ErrInFlight = errors.New("a submission for this step is already in flight")
)

// State is the observable state of a workflow.
type State struct {
	Step                Step   `json:"step"`
	DenomID             string `json:"denomId,omitempty"`
	CollectionSucceeded bool   `json:"collectionSucceeded"`
	MintSucceeded       bool   `json:"mintSucceeded"`
}

// Validator validates the two forms.
type Validator interface {
	ValidateDenom(ctx context.Context, f form.DenomForm) *form.Result
	ValidateNft(ctx context.Context, f form.NftForm) *form.Result
}

// AccountSource returns the connected account.
type AccountSource interface {
	Account() (nft.AccountDetails, bool)
}

// Deps are the collaborators of a Controller.
type Deps struct {
	ChainID   string
	Wallet    AccountSource
	Validator Validator
	Tx        nft.ChainTransaction
}

// Controller drives one user through the flow. It is safe for concurrent
// use.
type Controller struct {
	deps Deps

	mu    sync.Mutex
	state State
	// gen changes on Reset, results of submissions started before a
	// reset are dropped.
	gen uint64

	collection *form.Runner
	mint       *form.Runner
}

// New starts a workflow at the collection step.
func New(deps Deps) *Controller {
	return &Controller{
		deps:       deps,
		collection: form.NewRunner(),
		mint:       form.NewRunner(),
	}
}

// NewAt starts a workflow for an existing collection, directly at the mint
// step. An empty denomID is the same as New.
func NewAt(denomID string, deps Deps) *Controller {
	c := New(deps)
	if denomID != "" {
		c.state = State{Step: StepMintToken, DenomID: denomID}
	}
	return c
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CollectionForm exposes the state of the collection step's form.
func (c *Controller) CollectionForm() *form.Runner {
	return c.collection
}

// MintForm exposes the state of the mint step's form.
func (c *Controller) MintForm() *form.Runner {
	return c.mint
}

func (c *Controller) account() (nft.AccountDetails, error) {
	account, ok := c.deps.Wallet.Account()
	if !ok {
		return nft.AccountDetails{}, nft.ErrNotConnected
	}
	return account, nil
}

// CreateCollection validates and issues a denom. On success the workflow
// moves to the mint step for the new denom. On failure it stays where it is.
func (c *Controller) CreateCollection(ctx context.Context, f form.DenomForm) (string, error) {
	c.mu.Lock()
	if c.state.Step != StepCreateCollection {
		c.mu.Unlock()
		return "", ErrWrongStep
	}
	gen := c.gen
	c.mu.Unlock()

	account, err := c.account()
	if err != nil {
		return "", err
	}

	msg := form.ToIssueMessage(f, account, c.deps.ChainID)
	err = c.collection.Run(ctx,
		func(ctx context.Context) *form.Result { return c.deps.Validator.ValidateDenom(ctx, f) },
		func(ctx context.Context) error { return c.deps.Tx.IssueDenom(ctx, msg) },
	)
	if err != nil {
		if errors.Is(err, form.ErrBusy) {
			return "", ErrInFlight
		}
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.state = State{
			Step:                StepMintToken,
			DenomID:             msg.ID,
			CollectionSucceeded: true,
		}
	}
	return msg.ID, nil
}

// MintToken validates and mints a token into the workflow's collection.
// MintSucceeded is cleared when the attempt starts.
func (c *Controller) MintToken(ctx context.Context, f form.NftForm) error {
	c.mu.Lock()
	if c.state.Step != StepMintToken || c.state.DenomID == "" {
		c.mu.Unlock()
		return ErrNoCollection
	}
	denomID := c.state.DenomID
	gen := c.gen
	c.mu.Unlock()

	account, err := c.account()
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.gen == gen {
		c.state.MintSucceeded = false
	}
	c.mu.Unlock()

	msg := form.ToMintMessage(f, account, denomID, c.deps.ChainID)
	err = c.mint.Run(ctx,
		func(ctx context.Context) *form.Result { return c.deps.Validator.ValidateNft(ctx, f) },
		func(ctx context.Context) error { return c.deps.Tx.MintNFT(ctx, msg) },
	)
	if err != nil {
		if errors.Is(err, form.ErrBusy) {
			return ErrInFlight
		}
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen == gen {
		c.state.MintSucceeded = true
	}
	return nil
}

// Back clears the mint result so another token can be minted into the same
// collection.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.MintSucceeded = false
	_ = c.mint.Reset()
}

// Reset returns the workflow to the collection step with nothing recorded.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.state = State{}
	_ = c.collection.Reset()
	_ = c.mint.Reset()
}
