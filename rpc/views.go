package rpc

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Cogwheel-Validator/reified-portal/form"
	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/workflow"
)

// errorBody is the JSON shape of every error answer.
type errorBody struct {
	Error  string              `json:"error"`
	Code   string              `json:"code"`
	Fields map[string][]string `json:"fields,omitempty"`
	Chain  *chainRejection     `json:"chain,omitempty"`
}

// chainRejection carries the chain's reason for refusing a transaction.
type chainRejection struct {
	Code      uint32 `json:"code"`
	Codespace string `json:"codespace,omitempty"`
	Log       string `json:"log"`
	TxHash    string `json:"tx_hash,omitempty"`
	Height    int64  `json:"height,omitempty"`
}

type formView struct {
	State  string       `json:"state"`
	Result *form.Result `json:"result,omitempty"`
	Error  string       `json:"error,omitempty"`
}

type workflowView struct {
	ID         string         `json:"id"`
	State      workflow.State `json:"state"`
	Step       string         `json:"step"`
	Collection formView       `json:"collection"`
	Mint       formView       `json:"mint"`
}

type walletView struct {
	Connected bool                `json:"connected"`
	Account   *nft.AccountDetails `json:"account,omitempty"`
}

type validationView struct {
	Valid bool `json:"valid"`
	*form.Result
}

func toFormView(s form.Snapshot) formView {
	view := formView{State: s.State.String(), Result: s.Result}
	if s.Err != nil {
		view.Error = s.Err.Error()
	}
	return view
}

func toWorkflowView(id string, c *workflow.Controller) workflowView {
	state := c.State()
	return workflowView{
		ID:         id,
		State:      state,
		Step:       state.Step.String(),
		Collection: toFormView(c.CollectionForm().Snapshot()),
		Mint:       toFormView(c.MintForm().Snapshot()),
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		Logger.Debug().Err(err).Msg("Failed to write response")
	}
}

// errorStatus maps an error to its HTTP status and a stable code for the
// front-end.
func errorStatus(err error) (int, errorBody) {
	body := errorBody{Error: err.Error()}

	var validationErr *form.ValidationError
	var submissionErr *nft.SubmissionError
	switch {
	case errors.As(err, &validationErr):
		body.Code = "invalid_argument"
		body.Fields = validationErr.Fields
		return http.StatusUnprocessableEntity, body

	case errors.Is(err, nft.ErrDenomNotFound):
		body.Code = "denom_not_found"
		if errors.As(err, &submissionErr) {
			body.Chain = toChainRejection(submissionErr)
		}
		return http.StatusNotFound, body

	case errors.As(err, &submissionErr):
		body.Code = "submission_failed"
		body.Chain = toChainRejection(submissionErr)
		return http.StatusBadGateway, body

	case errors.Is(err, nft.ErrNotFound), errors.Is(err, errSessionNotFound):
		body.Code = "not_found"
		return http.StatusNotFound, body

	case errors.Is(err, nft.ErrNotConnected):
		body.Code = "not_connected"
		return http.StatusConflict, body
	case errors.Is(err, nft.ErrAlreadyConnected):
		body.Code = "already_connected"
		return http.StatusConflict, body
	case errors.Is(err, workflow.ErrInFlight), errors.Is(err, form.ErrBusy):
		body.Code = "in_flight"
		return http.StatusConflict, body
	case errors.Is(err, workflow.ErrNoCollection), errors.Is(err, workflow.ErrWrongStep):
		body.Code = "failed_precondition"
		return http.StatusConflict, body

	case errors.Is(err, nft.ErrUserDenied):
		body.Code = "user_denied"
		return http.StatusForbidden, body
	case errors.Is(err, nft.ErrChainRejected):
		body.Code = "chain_rejected"
		return http.StatusForbidden, body
	case errors.Is(err, nft.ErrWalletUnavailable):
		body.Code = "wallet_unavailable"
		return http.StatusServiceUnavailable, body

	case nft.IsTransport(err):
		body.Code = "unavailable"
		return http.StatusServiceUnavailable, body
	}

	body.Code = "internal"
	body.Error = "internal server error"
	return http.StatusInternalServerError, body
}

func toChainRejection(err *nft.SubmissionError) *chainRejection {
	return &chainRejection{
		Code:      err.Code,
		Codespace: err.Codespace,
		Log:       err.Log,
		TxHash:    err.TxHash,
		Height:    err.Height,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := errorStatus(err)
	if status == http.StatusInternalServerError {
		Logger.Error().Err(err).Str("path", r.URL.Path).Msg("Unhandled error")
	}
	writeJSON(w, status, body)
}
