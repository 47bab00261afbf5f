package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Cogwheel-Validator/reified-portal/form"
	"github.com/Cogwheel-Validator/reified-portal/nft"
	"github.com/Cogwheel-Validator/reified-portal/portal"
	"github.com/Cogwheel-Validator/reified-portal/workflow"
)

// maxBodyBytes bounds request bodies, the largest is a mint with its data.
const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

type api struct {
	portal   *portal.Portal
	sessions *sessionStore
}

func newAPI(p *portal.Portal, sessions *sessionStore) *api {
	return &api{portal: p, sessions: sessions}
}

func (a *api) routes(r chi.Router) {
	r.Route("/wallet", func(r chi.Router) {
		r.Get("/", a.getWallet)
		r.Post("/connect", a.connectWallet)
		r.Post("/disconnect", a.disconnectWallet)
	})

	r.Route("/denoms", func(r chi.Router) {
		r.Get("/", a.listDenoms)
		r.Post("/", a.createDenom)
		r.Get("/name/{name}", a.getDenomByName)
		r.Get("/symbol/{symbol}", a.getDenomBySymbol)
		r.Get("/{id}", a.getDenom)
		r.Get("/{id}/supply", a.getSupply)
	})

	r.Get("/collections/{denomId}", a.getCollection)
	r.Get("/collections/{denomId}/nfts/{tokenId}", a.getToken)
	r.Post("/nfts", a.mintNft)
	r.Get("/accounts/{address}/valid", a.validAddress)

	r.Post("/validate/denom", a.validateDenom)
	r.Post("/validate/nft", a.validateNft)

	r.Route("/workflows", func(r chi.Router) {
		r.Post("/", a.createWorkflow)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", a.getWorkflow)
			r.Delete("/", a.deleteWorkflow)
			r.Post("/collection", a.workflowCollection)
			r.Post("/mint", a.workflowMint)
			r.Post("/reset", a.workflowReset)
			r.Post("/back", a.workflowBack)
		})
	})
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: "bad_request"})
}

// wallet

func (a *api) getWallet(w http.ResponseWriter, r *http.Request) {
	account, ok := a.portal.Account()
	view := walletView{Connected: ok}
	if ok {
		view.Account = &account
	}
	writeJSON(w, http.StatusOK, view)
}

func (a *api) connectWallet(w http.ResponseWriter, r *http.Request) {
	account, err := a.portal.ConnectWallet(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, walletView{Connected: true, Account: &account})
}

func (a *api) disconnectWallet(w http.ResponseWriter, r *http.Request) {
	a.portal.DisconnectWallet()
	w.WriteHeader(http.StatusNoContent)
}

// queries

func (a *api) listDenoms(w http.ResponseWriter, r *http.Request) {
	var (
		denoms []nft.Denom
		err    error
	)
	if creator := r.URL.Query().Get("creator"); creator != "" {
		denoms, err = a.portal.CollectionsOf(r.Context(), creator)
	} else {
		denoms, err = a.portal.AllDenoms(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"denoms": denoms})
}

func (a *api) getDenom(w http.ResponseWriter, r *http.Request) {
	denom, err := a.portal.Denom(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, denom)
}

func (a *api) getDenomByName(w http.ResponseWriter, r *http.Request) {
	denom, err := a.portal.DenomByName(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, denom)
}

func (a *api) getDenomBySymbol(w http.ResponseWriter, r *http.Request) {
	denom, err := a.portal.DenomBySymbol(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, denom)
}

func (a *api) getSupply(w http.ResponseWriter, r *http.Request) {
	denomID := chi.URLParam(r, "id")
	supply, err := a.portal.Supply(r.Context(), denomID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"denom_id": denomID, "supply": supply})
}

func (a *api) getCollection(w http.ResponseWriter, r *http.Request) {
	collection, err := a.portal.Collection(r.Context(), chi.URLParam(r, "denomId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	if owner := r.URL.Query().Get("owner"); owner != "" {
		collection.NFTs = collection.OwnedBy(owner)
	}
	writeJSON(w, http.StatusOK, collection)
}

func (a *api) getToken(w http.ResponseWriter, r *http.Request) {
	token, err := a.portal.Token(r.Context(), chi.URLParam(r, "denomId"), chi.URLParam(r, "tokenId"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (a *api) validAddress(w http.ResponseWriter, r *http.Request) {
	addr := chi.URLParam(r, "address")
	valid, err := a.portal.IsValidAddress(r.Context(), addr)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"address": addr, "valid": valid})
}

// transactions

func (a *api) createDenom(w http.ResponseWriter, r *http.Request) {
	var msg nft.IssueMessage
	if err := decode(r, &msg); err != nil {
		writeBadRequest(w, err)
		return
	}
	denomID, err := a.portal.CreateDenom(r.Context(), msg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"denom_id": denomID})
}

func (a *api) mintNft(w http.ResponseWriter, r *http.Request) {
	var msg nft.MintMessage
	if err := decode(r, &msg); err != nil {
		writeBadRequest(w, err)
		return
	}
	denomID, err := a.portal.MintNft(r.Context(), msg)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"denom_id": denomID})
}

// validation

func (a *api) validateDenom(w http.ResponseWriter, r *http.Request) {
	var f form.DenomForm
	if err := decode(r, &f); err != nil {
		writeBadRequest(w, err)
		return
	}
	result := a.portal.ValidateDenom(r.Context(), f)
	writeJSON(w, http.StatusOK, validationView{Valid: result.Valid(), Result: result})
}

func (a *api) validateNft(w http.ResponseWriter, r *http.Request) {
	var f form.NftForm
	if err := decode(r, &f); err != nil {
		writeBadRequest(w, err)
		return
	}
	result := a.portal.ValidateNft(r.Context(), f)
	writeJSON(w, http.StatusOK, validationView{Valid: result.Valid(), Result: result})
}

// workflows

func (a *api) createWorkflow(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DenomID string `json:"denom_id"`
	}
	if err := decode(r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	controller := a.portal.NewWorkflow(req.DenomID)
	id := a.sessions.create(controller)
	writeJSON(w, http.StatusCreated, toWorkflowView(id, controller))
}

// workflow resolves the session of the request, writing the error itself
// when there is none.
func (a *api) workflow(w http.ResponseWriter, r *http.Request) (string, *workflow.Controller, bool) {
	id := chi.URLParam(r, "id")
	controller, err := a.sessions.get(id)
	if err != nil {
		writeError(w, r, err)
		return "", nil, false
	}
	return id, controller, true
}

func (a *api) getWorkflow(w http.ResponseWriter, r *http.Request) {
	id, controller, ok := a.workflow(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toWorkflowView(id, controller))
}

func (a *api) deleteWorkflow(w http.ResponseWriter, r *http.Request) {
	if !a.sessions.remove(chi.URLParam(r, "id")) {
		writeError(w, r, errSessionNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) workflowCollection(w http.ResponseWriter, r *http.Request) {
	id, controller, ok := a.workflow(w, r)
	if !ok {
		return
	}
	var f form.DenomForm
	if err := decode(r, &f); err != nil {
		writeBadRequest(w, err)
		return
	}
	if _, err := controller.CreateCollection(r.Context(), f); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkflowView(id, controller))
}

func (a *api) workflowMint(w http.ResponseWriter, r *http.Request) {
	id, controller, ok := a.workflow(w, r)
	if !ok {
		return
	}
	var f form.NftForm
	if err := decode(r, &f); err != nil {
		writeBadRequest(w, err)
		return
	}
	if err := controller.MintToken(r.Context(), f); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toWorkflowView(id, controller))
}

func (a *api) workflowReset(w http.ResponseWriter, r *http.Request) {
	id, controller, ok := a.workflow(w, r)
	if !ok {
		return
	}
	controller.Reset()
	writeJSON(w, http.StatusOK, toWorkflowView(id, controller))
}

func (a *api) workflowBack(w http.ResponseWriter, r *http.Request) {
	id, controller, ok := a.workflow(w, r)
	if !ok {
		return
	}
	controller.Back()
	writeJSON(w, http.StatusOK, toWorkflowView(id, controller))
}
