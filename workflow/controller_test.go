package workflow_test

import (
	"context"
	"errors"
	"testing"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/reified-portal/chaintest"
	"github.com/Cogwheel-Validator/reified-portal/client"
	"github.com/Cogwheel-Validator/reified-portal/form"
	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/wallet"
	"github.com/Cogwheel-Validator/reified-portal/workflow"
)

type fixture struct {
	chain   *chaintest.Chain
	session *wallet.Manager
	deps    workflow.Deps
	addr    string
}

func newFixture(t *testing.T, connect bool) *fixture {
	t.Helper()
	chain := chaintest.New("cudos-1", "cudos")
	addr := chaintest.Address("cudos", 1)
	session := wallet.NewManager("cudos-1", chaintest.NewWallet("alice", addr, "cudos-1"), chain.Connector())
	if connect {
		_, err := session.Connect(context.Background())
		assert.NoError(t, err)
	}
	return &fixture{
		chain:   chain,
		session: session,
		addr:    addr,
		deps: workflow.Deps{
			ChainID:   "cudos-1",
			Wallet:    session,
			Validator: form.NewValidator(chain, form.WithBech32Prefix("cudos")),
			Tx:        client.New(session),
		},
	}
}

func TestMintBeforeCollectionFails(t *testing.T) {
	f := newFixture(t, true)
	controller := workflow.New(f.deps)

	err := controller.MintToken(context.Background(), form.NftForm{Name: "Red chair", URI: "https://example.com/1"})
	assert.True(t, errors.Is(err, workflow.ErrNoCollection))
	assert.Equal(t, f.chain.Submissions(), 0)
	assert.Equal(t, controller.State(), workflow.State{})
}

func TestFullFlow(t *testing.T) {
	f := newFixture(t, true)
	controller := workflow.New(f.deps)
	ctx := context.Background()

	denomID, err := controller.CreateCollection(ctx, form.DenomForm{DenomID: "asset01", Name: "Chair", Symbol: "CHR"})
	assert.NoError(t, err)
	assert.Equal(t, denomID, "asset01")
	assert.Equal(t, controller.State(), workflow.State{
		Step:                workflow.StepMintToken,
		DenomID:             "asset01",
		CollectionSucceeded: true,
	})

	denom, err := f.chain.Denom(ctx, "asset01")
	assert.NoError(t, err)
	assert.Equal(t, denom.Creator, f.addr)
	assert.Equal(t, denom.Name, "Chair")

	err = controller.MintToken(ctx, form.NftForm{Name: "Red chair", URI: "https://example.com/red.json"})
	assert.NoError(t, err)
	assert.True(t, controller.State().MintSucceeded)

	collection, err := f.chain.Collection(ctx, "asset01")
	assert.NoError(t, err)
	assert.Equal(t, len(collection.NFTs), 1)
	assert.Equal(t, collection.NFTs[0].Owner, f.addr)
	assert.Equal(t, collection.NFTs[0].Name, "Red chair")

	controller.Back()
	assert.False(t, controller.State().MintSucceeded)
	assert.Equal(t, controller.State().DenomID, "asset01")

	friend := chaintest.Address("cudos", 2)
	err = controller.MintToken(ctx, form.NftForm{Name: "Blue chair", URI: "https://example.com/blue.json", MintForAnotherAddress: true, Recipient: friend})
	assert.NoError(t, err)

	collection, err = f.chain.Collection(ctx, "asset01")
	assert.NoError(t, err)
	assert.Equal(t, len(collection.OwnedBy(friend)), 1)

	controller.Reset()
	assert.Equal(t, controller.State(), workflow.State{})
}

func TestInvalidCollectionStaysAtFirstStep(t *testing.T) {
	f := newFixture(t, true)
	f.chain.AddDenom(nft.Denom{ID: "abcd1234", Name: "Existing", Symbol: "EXT", Creator: chaintest.Address("cudos", 5)})
	controller := workflow.New(f.deps)

	_, err := controller.CreateCollection(context.Background(), form.DenomForm{DenomID: "abcd1234", Name: "Chair", Symbol: "CHR"})
	var validationErr *form.ValidationError
	assert.True(t, errors.As(err, &validationErr))
	assert.DeepEqual(t, validationErr.Fields[form.FieldDenomID], []string{"DenomId already in use."})
	assert.Equal(t, controller.State().Step, workflow.StepCreateCollection)
	assert.Equal(t, controller.CollectionForm().State(), form.Failed)
	assert.Equal(t, f.chain.Submissions(), 0)
}

func TestChainRejectionStaysAtStep(t *testing.T) {
	f := newFixture(t, true)
	controller := workflow.NewAt("asset01", f.deps)
	assert.Equal(t, controller.State().Step, workflow.StepMintToken)

	err := controller.MintToken(context.Background(), form.NftForm{Name: "Red chair", URI: "https://example.com/1"})
	assert.True(t, errors.Is(err, nft.ErrDenomNotFound))
	assert.Equal(t, controller.State(), workflow.State{Step: workflow.StepMintToken, DenomID: "asset01"})
}

func TestFailedMintClearsEarlierSuccess(t *testing.T) {
	f := newFixture(t, true)
	controller := workflow.New(f.deps)
	ctx := context.Background()

	_, err := controller.CreateCollection(ctx, form.DenomForm{DenomID: "asset01", Name: "Chair", Symbol: "CHR"})
	assert.NoError(t, err)
	assert.NoError(t, controller.MintToken(ctx, form.NftForm{Name: "Red chair", URI: "https://example.com/1"}))
	assert.True(t, controller.State().MintSucceeded)

	f.chain.RejectNext(5, "insufficient funds")
	err = controller.MintToken(ctx, form.NftForm{Name: "Blue chair", URI: "https://example.com/2"})
	assert.True(t, errors.Is(err, nft.ErrSubmissionFailed))
	assert.False(t, controller.State().MintSucceeded)
	assert.Equal(t, controller.State().Step, workflow.StepMintToken)
	assert.Equal(t, controller.State().DenomID, "asset01")
}

func TestCollectionStepOnlyOnce(t *testing.T) {
	f := newFixture(t, true)
	controller := workflow.New(f.deps)
	ctx := context.Background()

	_, err := controller.CreateCollection(ctx, form.DenomForm{DenomID: "asset01", Name: "Chair", Symbol: "CHR"})
	assert.NoError(t, err)
	_, err = controller.CreateCollection(ctx, form.DenomForm{DenomID: "asset02", Name: "Table", Symbol: "TBL"})
	assert.True(t, errors.Is(err, workflow.ErrWrongStep))
}

func TestRequiresConnectedWallet(t *testing.T) {
	f := newFixture(t, false)
	controller := workflow.New(f.deps)

	_, err := controller.CreateCollection(context.Background(), form.DenomForm{DenomID: "asset01", Name: "Chair", Symbol: "CHR"})
	assert.True(t, errors.Is(err, nft.ErrNotConnected))
	assert.Equal(t, controller.State().Step, workflow.StepCreateCollection)
}

// blockingTx holds IssueDenom until released.
type blockingTx struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingTx) IssueDenom(ctx context.Context, msg nft.IssueMessage) error {
	close(b.started)
	<-b.release
	return nil
}

func (b *blockingTx) MintNFT(ctx context.Context, msg nft.MintMessage) error {
	return nil
}

func TestConcurrentSubmissionIsRejected(t *testing.T) {
	f := newFixture(t, true)
	tx := &blockingTx{started: make(chan struct{}), release: make(chan struct{})}
	f.deps.Tx = tx
	controller := workflow.New(f.deps)
	ctx := context.Background()
	denomForm := form.DenomForm{DenomID: "asset01", Name: "Chair", Symbol: "CHR"}

	done := make(chan error, 1)
	go func() {
		_, err := controller.CreateCollection(ctx, denomForm)
		done <- err
	}()

	<-tx.started
	_, err := controller.CreateCollection(ctx, denomForm)
	assert.True(t, errors.Is(err, workflow.ErrInFlight))

	close(tx.release)
	assert.NoError(t, <-done)
	assert.Equal(t, controller.State().DenomID, "asset01")
}

func TestResetDropsInFlightResult(t *testing.T) {
	f := newFixture(t, true)
	tx := &blockingTx{started: make(chan struct{}), release: make(chan struct{})}
	f.deps.Tx = tx
	controller := workflow.New(f.deps)

	done := make(chan error, 1)
	go func() {
		_, err := controller.CreateCollection(context.Background(), form.DenomForm{DenomID: "asset01", Name: "Chair", Symbol: "CHR"})
		done <- err
	}()

	<-tx.started
	controller.Reset()
	close(tx.release)
	assert.NoError(t, <-done)
	assert.Equal(t, controller.State(), workflow.State{})
}

// denomLookupFailure answers every lookup with a transport error.
type denomLookupFailure struct{}

func (denomLookupFailure) Denom(ctx context.Context, id string) (nft.Denom, error) {
	return nft.Denom{}, &nft.TransportError{Op: "query denom", Err: errors.New("connection refused")}
}

func (d denomLookupFailure) DenomByName(ctx context.Context, name string) (nft.Denom, error) {
	return d.Denom(ctx, name)
}

func (d denomLookupFailure) DenomBySymbol(ctx context.Context, symbol string) (nft.Denom, error) {
	return d.Denom(ctx, symbol)
}

func TestDegradedValidationStillSubmits(t *testing.T) {
	f := newFixture(t, true)
	f.deps.Validator = form.NewValidator(denomLookupFailure{})
	controller := workflow.New(f.deps)

	denomID, err := controller.CreateCollection(context.Background(), form.DenomForm{DenomID: "asset01", Name: "Chair", Symbol: "CHR"})
	assert.NoError(t, err)
	assert.Equal(t, denomID, "asset01")

	snapshot := controller.CollectionForm().Snapshot()
	assert.Equal(t, snapshot.State, form.Succeeded)
	assert.DeepEqual(t, snapshot.Result.Degraded, []string{form.FieldDenomID, form.FieldName, form.FieldSymbol})
}
