package payments

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"
)

var addressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// RPCExecutor submits reimbursement marker transactions through a JSON-RPC
// endpoint. It is the "real" payment mode; the stub is the default.
type RPCExecutor struct {
	httpURL      string
	fromAddress  string
	contractAddr string
	gasLimit     uint64
	httpClient   *http.Client
}

func NewRPCExecutor(httpURL, fromAddress, contractAddr string, gasLimit uint64) (*RPCExecutor, error) {
	if strings.TrimSpace(httpURL) == "" {
		return nil, fmt.Errorf("missing PAYMENT_HTTP_RPC")
	}
	if !addressPattern.MatchString(strings.TrimSpace(fromAddress)) {
		return nil, fmt.Errorf("invalid PAYMENT_FROM_ADDRESS")
	}
	if !addressPattern.MatchString(strings.TrimSpace(contractAddr)) {
		return nil, fmt.Errorf("invalid PAYMENT_CONTRACT")
	}
	if gasLimit == 0 {
		gasLimit = 300000
	}
	return &RPCExecutor{
		httpURL:      strings.TrimSpace(httpURL),
		fromAddress:  strings.TrimSpace(fromAddress),
		contractAddr: strings.TrimSpace(contractAddr),
		gasLimit:     gasLimit,
		httpClient:   &http.Client{Timeout: 20 * time.Second},
	}, nil
}

func (e *RPCExecutor) ExecuteReimbursement(ctx context.Context, positionID int64, amount float64, tokenSymbol string) (string, error) {
	if positionID <= 0 || amount <= 0 || strings.TrimSpace(tokenSymbol) == "" {
		return "", fmt.Errorf("invalid reimbursement args")
	}

	dataBytes, _ := json.Marshal(map[string]any{
		"action": "reimburse",
		"payload": map[string]any{
			"position_id": positionID,
			"amount":      amount,
			"token":       strings.ToUpper(strings.TrimSpace(tokenSymbol)),
		},
	})
	txObj := map[string]string{
		"from":  e.fromAddress,
		"to":    e.contractAddr,
		"gas":   fmt.Sprintf("0x%x", e.gasLimit),
		"data":  "0x" + hex.EncodeToString(dataBytes),
		"value": "0x0",
	}

	var txHash string
	if err := e.rpc(ctx, "eth_sendTransaction", []any{txObj}, &txHash); err != nil {
		return "", err
	}
	if !strings.HasPrefix(txHash, "0x") {
		return "", fmt.Errorf("invalid tx hash response")
	}
	return txHash, nil
}

func (e *RPCExecutor) rpc(ctx context.Context, method string, params []any, out any) error {
	reqBody, _ := json.Marshal(map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.httpURL, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var payload struct {
		Result json.RawMessage `json:"result"`
		Error  *struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return err
	}
	if payload.Error != nil {
		return fmt.Errorf("rpc error %d: %s", payload.Error.Code, payload.Error.Message)
	}
	if len(payload.Result) == 0 {
		return fmt.Errorf("rpc empty result")
	}
	return json.Unmarshal(payload.Result, out)
}
