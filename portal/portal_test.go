package portal_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/reified-portal/chaintest"
	"github.com/Cogwheel-Validator/reified-portal/client"
	"github.com/Cogwheel-Validator/reified-portal/form"
	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/portal"
	"github.com/Cogwheel-Validator/reified-portal/wallet"
	"github.com/Cogwheel-Validator/reified-portal/workflow"
)

const chainID = "cudos-1"

func newPortal(t *testing.T) (*portal.Portal, *chaintest.Chain, string) {
	t.Helper()
	chain := chaintest.New(chainID, "cudos")
	addr := chaintest.Address("cudos", 0xab)
	session := wallet.NewManager(chainID, chaintest.NewWallet("alice", addr, chainID), chain.Connector())

	p, err := portal.New(portal.Config{
		ChainID:   chainID,
		Wallet:    session,
		Query:     chain,
		Tx:        client.New(session),
		Validator: form.NewValidator(chain, form.WithBech32Prefix("cudos")),
	})
	assert.NoError(t, err)
	return p, chain, addr
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := portal.New(portal.Config{})
	assert.Error(t, err)
}

func TestEndToEnd(t *testing.T) {
	p, _, addr := newPortal(t)
	ctx := context.Background()

	account, err := p.ConnectWallet(ctx)
	assert.NoError(t, err)
	assert.Equal(t, account, nft.AccountDetails{Address: addr, Username: "alice"})

	denomID, err := p.CreateDenom(ctx, nft.IssueMessage{ID: "asset01", Name: "Asset One", Symbol: "AST", From: addr})
	assert.NoError(t, err)
	assert.Equal(t, denomID, "asset01")

	denom, err := p.Denom(ctx, "asset01")
	assert.NoError(t, err)
	assert.Equal(t, denom, nft.Denom{ID: "asset01", Name: "Asset One", Symbol: "AST", Creator: addr})

	denomID, err = p.MintNft(ctx, nft.MintMessage{DenomID: "asset01", Name: "Chair", URI: "https://x/chair.json", Recipient: addr})
	assert.NoError(t, err)
	assert.Equal(t, denomID, "asset01")

	assets, err := p.AssetsOf(ctx, "asset01", addr)
	assert.NoError(t, err)
	assert.Equal(t, len(assets), 1)
	assert.Equal(t, assets[0].Name, "Chair")
	assert.Equal(t, assets[0].URI, "https://x/chair.json")
	assert.Equal(t, assets[0].Owner, addr)

	supply, err := p.Supply(ctx, "asset01")
	assert.NoError(t, err)
	assert.Equal(t, supply, uint64(1))

	token, err := p.Token(ctx, "asset01", assets[0].ID)
	assert.NoError(t, err)
	assert.Equal(t, token, assets[0])
}

func TestCollectionsOf(t *testing.T) {
	p, chain, addr := newPortal(t)
	other := chaintest.Address("cudos", 7)
	chain.AddDenom(nft.Denom{ID: "mine0001", Name: "Mine", Symbol: "MIN", Creator: addr})
	chain.AddDenom(nft.Denom{ID: "other001", Name: "Other", Symbol: "OTH", Creator: other})

	denoms, err := p.CollectionsOf(context.Background(), addr)
	assert.NoError(t, err)
	assert.Equal(t, len(denoms), 1)
	assert.Equal(t, denoms[0].ID, "mine0001")

	all, err := p.AllDenoms(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, len(all), 2)
}

func TestQueriesPropagateTransportErrors(t *testing.T) {
	p, chain, addr := newPortal(t)
	chain.FailQueries(errors.New("connection refused"))

	_, err := p.CollectionsOf(context.Background(), addr)
	assert.True(t, nft.IsTransport(err))
	_, err = p.AssetsOf(context.Background(), "asset01", addr)
	assert.True(t, nft.IsTransport(err))
}

func TestWriteRequiresWallet(t *testing.T) {
	p, chain, addr := newPortal(t)
	ctx := context.Background()

	_, err := p.CreateDenom(ctx, nft.IssueMessage{ID: "asset01", Name: "Asset One", Symbol: "AST", From: addr})
	assert.True(t, errors.Is(err, nft.ErrNotConnected))
	assert.Equal(t, chain.Submissions(), 0)

	_, err = p.ConnectWallet(ctx)
	assert.NoError(t, err)
	assert.True(t, p.IsConnected())

	p.DisconnectWallet()
	p.DisconnectWallet()
	_, ok := p.Account()
	assert.False(t, ok)

	_, err = p.MintNft(ctx, nft.MintMessage{DenomID: "asset01", Name: "Chair"})
	assert.True(t, errors.Is(err, nft.ErrNotConnected))
}

func TestMintIntoMissingDenom(t *testing.T) {
	p, _, _ := newPortal(t)
	ctx := context.Background()
	_, err := p.ConnectWallet(ctx)
	assert.NoError(t, err)

	_, err = p.MintNft(ctx, nft.MintMessage{DenomID: "missing1", Name: "Chair"})
	assert.True(t, errors.Is(err, nft.ErrDenomNotFound))

	var submissionErr *nft.SubmissionError
	assert.True(t, errors.As(err, &submissionErr))
	assert.NotEqual(t, submissionErr.Log, "")
}

func TestValidation(t *testing.T) {
	p, chain, _ := newPortal(t)
	chain.AddDenom(nft.Denom{ID: "abcd1234", Name: "Existing", Symbol: "EXT", Creator: chaintest.Address("cudos", 3)})
	ctx := context.Background()

	result := p.ValidateDenom(ctx, form.DenomForm{DenomID: "abcd1234", Name: "Fresh name", Symbol: "FRS"})
	assert.False(t, result.Valid())
	assert.DeepEqual(t, result.Fields[form.FieldDenomID], []string{"DenomId already in use."})

	result = p.ValidateDenom(ctx, form.DenomForm{DenomID: "zzzz9999", Name: "Fresh name", Symbol: "FRS"})
	assert.True(t, result.Valid())

	result = p.ValidateNft(ctx, form.NftForm{Name: "Chair", URI: "not a url"})
	assert.False(t, result.Valid())
}

func TestNewWorkflow(t *testing.T) {
	p, _, _ := newPortal(t)

	assert.Equal(t, p.NewWorkflow("").State(), workflow.State{})
	assert.Equal(t, p.NewWorkflow("asset01").State(), workflow.State{Step: workflow.StepMintToken, DenomID: "asset01"})
}
