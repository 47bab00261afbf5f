package lcd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// NodeStatus is the part of a Tendermint RPC status answer the portal reads.
type NodeStatus struct {
	Network           string
	Moniker           string
	LatestBlockHeight int64
	CatchingUp        bool
}

type rpcStatusResponse struct {
	Result struct {
		NodeInfo struct {
			Network string `json:"network"`
			Moniker string `json:"moniker"`
		} `json:"node_info"`
		SyncInfo struct {
			LatestBlockHeight string `json:"latest_block_height"`
			CatchingUp        bool   `json:"catching_up"`
		} `json:"sync_info"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    string `json:"data"`
	} `json:"error"`
}

// QueryStatus asks the Tendermint RPC endpoint at rpcURL for its status.
func QueryStatus(ctx context.Context, httpClient *http.Client, rpcURL string) (NodeStatus, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	body, err := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"method":  "status",
		"params":  map[string]any{},
		"id":      1,
	})
	if err != nil {
		return NodeStatus{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(rpcURL, "/"), bytes.NewReader(body))
	if err != nil {
		return NodeStatus{}, fmt.Errorf("failed to create status request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return NodeStatus{}, fmt.Errorf("failed to query status of %s: %w", rpcURL, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Debug().Err(err).Msg("Failed to close response body")
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return NodeStatus{}, fmt.Errorf("status of %s: unexpected HTTP %d", rpcURL, resp.StatusCode)
	}

	var response rpcStatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return NodeStatus{}, fmt.Errorf("failed to decode status response: %w", err)
	}
	if response.Error != nil {
		return NodeStatus{}, fmt.Errorf("status of %s: %s %s", rpcURL, response.Error.Message, response.Error.Data)
	}

	status := NodeStatus{
		Network:    response.Result.NodeInfo.Network,
		Moniker:    response.Result.NodeInfo.Moniker,
		CatchingUp: response.Result.SyncInfo.CatchingUp,
	}
	if h := response.Result.SyncInfo.LatestBlockHeight; h != "" {
		status.LatestBlockHeight, err = strconv.ParseInt(h, 10, 64)
		if err != nil {
			return NodeStatus{}, fmt.Errorf("invalid block height %q: %w", h, err)
		}
	}
	return status, nil
}

// CheckNetwork fails unless the node at rpcURL serves chainID and is synced.
func CheckNetwork(ctx context.Context, httpClient *http.Client, rpcURL, chainID string) error {
	status, err := QueryStatus(ctx, httpClient, rpcURL)
	if err != nil {
		return err
	}
	if status.Network != chainID {
		return fmt.Errorf("node %s serves %q, expected %q", rpcURL, status.Network, chainID)
	}
	if status.CatchingUp {
		return fmt.Errorf("node %s is catching up at height %d", rpcURL, status.LatestBlockHeight)
	}
	return nil
}
