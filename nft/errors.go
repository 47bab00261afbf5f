package nft

import (
	"errors"
	"fmt"
)

// Connection phase errors. None of them is retried automatically and all of
// them leave the session disconnected.
var (
	ErrWalletUnavailable = errors.New("wallet extension not installed")
	ErrChainRejected     = errors.New("wallet can't connect to this chain id")
	ErrUserDenied        = errors.New("wallet authorization was declined")
	ErrAlreadyConnected  = errors.New("wallet session already active, disconnect first")
)

var (
	// ErrNotConnected is returned when a state-changing operation is
	// attempted without an active wallet session.
	ErrNotConnected = errors.New("please connect your wallet")

	// ErrNotFound is the expected answer of a lookup for an object that does
	// not exist. It is a control value, not a failure.
	ErrNotFound = errors.New("not found")

	ErrSubmissionFailed = errors.New("transaction failed")
	ErrDenomNotFound    = errors.New("denom not found")
)

// TransportError wraps an infrastructure failure while talking to the chain.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// SubmissionError is a transaction the chain did not accept as fully
// successful. Log carries the chain's reason verbatim.
type SubmissionError struct {
	Code      uint32
	Codespace string
	Log       string
	TxHash    string
	Height    int64
	// Err is ErrSubmissionFailed or ErrDenomNotFound.
	Err error
}

func (e *SubmissionError) Error() string {
	if e.TxHash == "" {
		return fmt.Sprintf("transaction rejected. Code: %d; Raw log: %s", e.Code, e.Log)
	}
	return fmt.Sprintf("error when broadcasting tx %s at height %d. Code: %d; Raw log: %s",
		e.TxHash, e.Height, e.Code, e.Log)
}

func (e *SubmissionError) Unwrap() error {
	if e.Err == nil {
		return ErrSubmissionFailed
	}
	return e.Err
}

// IsNotFound reports whether err means the looked up object does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsTransport reports whether err is an infrastructure failure.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}
