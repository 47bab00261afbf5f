// Package wallet manages the connection to a signing wallet: enabling the
// chain, reading the active key and binding a signing client to it.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/tx"
)

var log zerolog.Logger

func init() {
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	log = zerolog.New(out).With().Timestamp().Str("component", "wallet").Logger()
}

// SetLogger replaces the package logger.
func SetLogger(l zerolog.Logger) {
	log = l.With().Str("component", "wallet").Logger()
}

// State of a session.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Key is the active key of a wallet for one chain.
type Key struct {
	Name          string
	Bech32Address string
	PubKey        []byte
}

// Extension is the wallet the user signs with.
type Extension interface {
	// Enable asks the wallet to serve chainID. It fails with
	// nft.ErrChainRejected or nft.ErrUserDenied.
	Enable(ctx context.Context, chainID string) error
	GetKey(ctx context.Context, chainID string) (Key, error)
	OfflineSigner(ctx context.Context, chainID string) (tx.Signer, error)
}

// Connector binds a signer to the chain.
type Connector interface {
	ConnectWithSigner(ctx context.Context, signer tx.Signer) (tx.Broadcaster, error)
}

// ConnectorFunc adapts a function to Connector.
type ConnectorFunc func(ctx context.Context, signer tx.Signer) (tx.Broadcaster, error)

func (f ConnectorFunc) ConnectWithSigner(ctx context.Context, signer tx.Signer) (tx.Broadcaster, error) {
	return f(ctx, signer)
}

// SigningConnector connects signers through a tx.SigningClient.
type SigningConnector struct {
	Transport tx.Transport
	Options   tx.Options
}

func (c SigningConnector) ConnectWithSigner(ctx context.Context, signer tx.Signer) (tx.Broadcaster, error) {
	return tx.NewSigningClient(c.Transport, signer, c.Options)
}

var errConnectCanceled = errors.New("connection canceled by disconnect")

// Manager owns the single wallet session of the application. Account and
// signing client are either both set or both unset.
type Manager struct {
	chainID   string
	extension Extension
	connector Connector

	mu      sync.Mutex
	state   State
	account nft.AccountDetails
	client  tx.Broadcaster
	// gen changes on every disconnect so that a connect racing with it
	// does not resurrect the session.
	gen uint64
}

// NewManager creates a disconnected session for chainID. A nil extension
// means no wallet is installed.
func NewManager(chainID string, extension Extension, connector Connector) *Manager {
	return &Manager{
		chainID:   chainID,
		extension: extension,
		connector: connector,
	}
}

var _ nft.WalletSession = (*Manager)(nil)

// ChainID returns the chain the session is bound to.
func (m *Manager) ChainID() string {
	return m.chainID
}

// Connect enables the chain in the wallet, reads the active key and builds a
// signing client. On any failure the session stays disconnected.
func (m *Manager) Connect(ctx context.Context) (nft.AccountDetails, error) {
	m.mu.Lock()
	if m.extension == nil {
		m.mu.Unlock()
		return nft.AccountDetails{}, nft.ErrWalletUnavailable
	}
	if m.state != Disconnected {
		m.mu.Unlock()
		return nft.AccountDetails{}, nft.ErrAlreadyConnected
	}
	m.state = Connecting
	gen := m.gen
	m.mu.Unlock()

	account, client, err := m.connect(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		closeClient(client)
		return nft.AccountDetails{}, errConnectCanceled
	}
	if err != nil {
		m.state = Disconnected
		log.Warn().Err(err).Str("chain_id", m.chainID).Msg("Wallet connection failed")
		return nft.AccountDetails{}, err
	}

	m.state = Connected
	m.account = account
	m.client = client
	log.Info().Str("address", account.Address).Str("username", account.Username).Msg("Wallet connected")
	return account, nil
}

func (m *Manager) connect(ctx context.Context) (nft.AccountDetails, tx.Broadcaster, error) {
	if err := m.extension.Enable(ctx, m.chainID); err != nil {
		switch {
		case errors.Is(err, nft.ErrUserDenied), errors.Is(err, nft.ErrChainRejected),
			errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nft.AccountDetails{}, nil, err
		}
		return nft.AccountDetails{}, nil, fmt.Errorf("%w: enable %s: %w", nft.ErrWalletUnavailable, m.chainID, err)
	}

	signer, err := m.extension.OfflineSigner(ctx, m.chainID)
	if err != nil {
		return nft.AccountDetails{}, nil, fmt.Errorf("failed to get offline signer: %w", err)
	}
	client, err := m.connector.ConnectWithSigner(ctx, signer)
	if err != nil {
		return nft.AccountDetails{}, nil, fmt.Errorf("failed to connect signing client: %w", err)
	}
	key, err := m.extension.GetKey(ctx, m.chainID)
	if err != nil {
		closeClient(client)
		return nft.AccountDetails{}, nil, fmt.Errorf("failed to read wallet key: %w", err)
	}

	return nft.AccountDetails{Address: key.Bech32Address, Username: key.Name}, client, nil
}

// Disconnect clears the session and releases the signing client. It is a
// no-op when already disconnected.
func (m *Manager) Disconnect() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == Disconnected {
		return
	}
	m.gen++
	closeClient(m.client)
	if m.state == Connected {
		log.Info().Str("address", m.account.Address).Msg("Wallet disconnected")
	}
	m.state = Disconnected
	m.account = nft.AccountDetails{}
	m.client = nil
}

func closeClient(client tx.Broadcaster) {
	if closer, ok := client.(io.Closer); ok && closer != nil {
		if err := closer.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close signing client")
		}
	}
}

// Account returns the connected account.
func (m *Manager) Account() (nft.AccountDetails, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.account, m.state == Connected
}

func (m *Manager) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == Connected
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Signer returns the signing client and the account it signs for, or
// nft.ErrNotConnected.
func (m *Manager) Signer() (tx.Broadcaster, nft.AccountDetails, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != Connected {
		return nil, nft.AccountDetails{}, nft.ErrNotConnected
	}
	return m.client, m.account, nil
}
