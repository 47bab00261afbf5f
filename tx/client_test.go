package tx_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zeebo/assert"

	"github.com/Cogwheel-Validator/reified-portal/lcd"
	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/tx"
)

type fakeSigner struct{}

func (fakeSigner) Address() string { return "cudos1signer" }
func (fakeSigner) PubKey() []byte  { return append([]byte{0x02}, bytes.Repeat([]byte{1}, 32)...) }
func (fakeSigner) Sign(doc []byte) ([]byte, error) {
	return bytes.Repeat([]byte{0xee}, 64), nil
}

// fakeNode answers the REST calls made by the signing client.
type fakeNode struct {
	mu          sync.Mutex
	simulateErr error
	checkTx     tx.TxResult
	pendingPoll int
	neverFound  bool
	// deliverTx, when set, is the result found in the block.
	deliverTx  *tx.TxResult
	broadcasts []string
}

func (n *fakeNode) Get(ctx context.Context, path string, out any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	switch {
	case path == "/cosmos/auth/v1beta1/accounts/cudos1signer":
		return json.Unmarshal([]byte(`{"account":{"address":"cudos1signer","account_number":"12","sequence":"3"}}`), out)
	case path == "/cosmos/tx/v1beta1/txs/ABCDEF":
		if n.neverFound || n.pendingPoll > 0 {
			n.pendingPoll--
			return lcd.ErrNotFound
		}
		if n.deliverTx != nil {
			payload, _ := json.Marshal(map[string]any{"tx_response": n.deliverTx})
			return json.Unmarshal(payload, out)
		}
		return json.Unmarshal([]byte(`{"tx_response":{"txhash":"ABCDEF","height":"100","code":0,"gas_used":"90000","gas_wanted":"130000"}}`), out)
	}
	return lcd.ErrNotFound
}

func (n *fakeNode) Post(ctx context.Context, path string, in, out any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if path != "/cosmos/tx/v1beta1/simulate" {
		return errors.New("unexpected path " + path)
	}
	if n.simulateErr != nil {
		return n.simulateErr
	}
	return json.Unmarshal([]byte(`{"gas_info":{"gas_used":"100000"}}`), out)
}

func (n *fakeNode) PostOnce(ctx context.Context, path string, in, out any) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if path != "/cosmos/tx/v1beta1/txs" {
		return errors.New("unexpected path " + path)
	}
	n.broadcasts = append(n.broadcasts, in.(map[string]string)["tx_bytes"])
	payload, _ := json.Marshal(map[string]any{"tx_response": n.checkTx})
	return json.Unmarshal(payload, out)
}

func newSigningClient(t *testing.T, node *fakeNode) *tx.SigningClient {
	t.Helper()
	price, err := tx.ParseGasPrice("5000000000000acudos")
	assert.NoError(t, err)
	client, err := tx.NewSigningClient(node, fakeSigner{}, tx.Options{
		ChainID:          "cudos-1",
		GasPrice:         price,
		PollInterval:     time.Millisecond,
		BroadcastTimeout: 200 * time.Millisecond,
	})
	assert.NoError(t, err)
	return client
}

func issueMsg() []tx.Msg {
	return []tx.Msg{tx.NewIssueDenom(nft.IssueMessage{ID: "asset01", Name: "Chair", Symbol: "CHR", Sender: "cudos1signer"}).Msg()}
}

func TestSignAndBroadcastWaitsForInclusion(t *testing.T) {
	node := &fakeNode{checkTx: tx.TxResult{TxHash: "ABCDEF"}, pendingPoll: 2}
	client := newSigningClient(t, node)

	result, err := client.SignAndBroadcast(context.Background(), issueMsg(), "")
	assert.NoError(t, err)
	assert.True(t, result.IsSuccess())
	assert.Equal(t, result.Height, int64(100))
	assert.Equal(t, result.TxHash, "ABCDEF")

	assert.Equal(t, len(node.broadcasts), 1)
	raw, err := base64.StdEncoding.DecodeString(node.broadcasts[0])
	assert.NoError(t, err)
	assert.True(t, bytes.HasSuffix(raw, bytes.Repeat([]byte{0xee}, 64)))
}

func TestCheckTxFailureIsReturnedAsResult(t *testing.T) {
	node := &fakeNode{checkTx: tx.TxResult{TxHash: "ABCDEF", Code: 13, Codespace: "sdk", RawLog: "insufficient fee"}}
	client := newSigningClient(t, node)

	result, err := client.SignAndBroadcast(context.Background(), issueMsg(), "")
	assert.NoError(t, err)
	assert.False(t, result.IsSuccess())

	err = result.AssertSuccess()
	var submissionErr *nft.SubmissionError
	assert.True(t, errors.As(err, &submissionErr))
	assert.Equal(t, submissionErr.Log, "insufficient fee")
	assert.True(t, errors.Is(err, nft.ErrSubmissionFailed))
}

func TestDeliverTxFailureIsReturnedAsResult(t *testing.T) {
	node := &fakeNode{
		checkTx:   tx.TxResult{TxHash: "ABCDEF"},
		deliverTx: &tx.TxResult{TxHash: "ABCDEF", Height: 101, Code: 5, Codespace: "sdk", RawLog: "insufficient funds"},
	}
	client := newSigningClient(t, node)

	result, err := client.SignAndBroadcast(context.Background(), issueMsg(), "")
	assert.NoError(t, err)
	assert.False(t, result.IsSuccess())
	assert.Equal(t, result.Height, int64(101))

	err = result.AssertSuccess()
	var submissionErr *nft.SubmissionError
	assert.True(t, errors.As(err, &submissionErr))
	assert.Equal(t, submissionErr.Code, uint32(5))
	assert.Equal(t, submissionErr.Log, "insufficient funds")
	assert.Equal(t, submissionErr.TxHash, "ABCDEF")
	assert.True(t, errors.Is(err, nft.ErrSubmissionFailed))
}

func TestBroadcastIsSentOnce(t *testing.T) {
	var broadcasts atomic.Int32
	node := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/cosmos/auth/v1beta1/accounts/cudos1signer":
			_, _ = io.WriteString(w, `{"account":{"address":"cudos1signer","account_number":"12","sequence":"3"}}`)
		case r.URL.Path == "/cosmos/tx/v1beta1/simulate":
			_, _ = io.WriteString(w, `{"gas_info":{"gas_used":"100000"}}`)
		case r.URL.Path == "/cosmos/tx/v1beta1/txs" && r.Method == http.MethodPost:
			// the node takes the first copy into its mempool but the answer is lost
			if broadcasts.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			_, _ = io.WriteString(w, `{"tx_response":{"txhash":"ABCDEF","code":19,"raw_log":"tx already exists in cache"}}`)
		case strings.HasPrefix(r.URL.Path, "/cosmos/tx/v1beta1/txs/"):
			_, _ = io.WriteString(w, `{"tx_response":{"txhash":"ABCDEF","height":"100","code":0}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer node.Close()

	rest, err := lcd.NewWithFailover(node.URL, []string{node.URL}, lcd.FailoverConfig{
		MaxRetries:          2,
		RetryDelay:          time.Millisecond,
		HealthCheckInterval: time.Hour,
		Timeout:             2 * time.Second,
	})
	assert.NoError(t, err)
	defer rest.Close()

	price, err := tx.ParseGasPrice("5000000000000acudos")
	assert.NoError(t, err)
	client, err := tx.NewSigningClient(rest, fakeSigner{}, tx.Options{
		ChainID:          "cudos-1",
		GasPrice:         price,
		PollInterval:     time.Millisecond,
		BroadcastTimeout: 200 * time.Millisecond,
	})
	assert.NoError(t, err)

	_, err = client.SignAndBroadcast(context.Background(), issueMsg(), "")
	assert.True(t, nft.IsTransport(err))
	var submissionErr *nft.SubmissionError
	assert.False(t, errors.As(err, &submissionErr))
	assert.Equal(t, broadcasts.Load(), int32(1))
}

func TestSimulationRejection(t *testing.T) {
	node := &fakeNode{simulateErr: &lcd.APIError{StatusCode: 500, Code: 2, Message: "denomID asset01 has already exists"}}
	client := newSigningClient(t, node)

	_, err := client.SignAndBroadcast(context.Background(), issueMsg(), "")
	assert.True(t, errors.Is(err, nft.ErrSubmissionFailed))
	assert.False(t, nft.IsTransport(err))
	assert.Equal(t, len(node.broadcasts), 0)
}

func TestSimulationTransportFailure(t *testing.T) {
	node := &fakeNode{simulateErr: errors.New("connection refused")}
	client := newSigningClient(t, node)

	_, err := client.SignAndBroadcast(context.Background(), issueMsg(), "")
	assert.True(t, nft.IsTransport(err))
}

func TestBroadcastTimeout(t *testing.T) {
	node := &fakeNode{checkTx: tx.TxResult{TxHash: "ABCDEF"}, neverFound: true}
	client := newSigningClient(t, node)

	_, err := client.SignAndBroadcast(context.Background(), issueMsg(), "")
	assert.True(t, nft.IsTransport(err))
	assert.True(t, errors.Is(err, tx.ErrBroadcastTimeout))
}

func TestClosedClientRefusesSubmissions(t *testing.T) {
	client := newSigningClient(t, &fakeNode{})
	assert.NoError(t, client.Close())

	_, err := client.SignAndBroadcast(context.Background(), issueMsg(), "")
	assert.True(t, errors.Is(err, tx.ErrClientClosed))
}

func TestNewSigningClientRequiresChainID(t *testing.T) {
	price, err := tx.ParseGasPrice("1acudos")
	assert.NoError(t, err)
	_, err = tx.NewSigningClient(&fakeNode{}, fakeSigner{}, tx.Options{GasPrice: price})
	assert.Error(t, err)
}
