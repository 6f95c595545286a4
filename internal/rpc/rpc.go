package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrAccountNotFound = errors.New("account not found")
	ErrRPC             = errors.New("rpc error")
)

type RequestBody struct {
	Jsonrpc string      `json:"jsonrpc"`
	ID      int         `json:"id"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
}

type ResponseBody struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      int             `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

func (e *RPCError) Unwrap() error {
	return ErrRPC
}

// Client is a minimal JSON-RPC client for a single solana endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	Log        *logrus.Logger
}

func NewClient(endpoint string, log *logrus.Logger) *Client {
	if log == nil {
		log = logrus.New()
	}
	return &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		Log:        log,
	}
}

func (c *Client) WithHTTPClient(httpClient *http.Client) *Client {
	c.httpClient = httpClient
	return c
}

func (c *Client) CallRPC(ctx context.Context, method string, params interface{}) (*ResponseBody, error) {
	requestBody := RequestBody{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  method,
		Params:  params,
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept-Encoding", "gzip")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s", method)
	}
	defer resp.Body.Close()

	body, err := readBody(method, resp)
	if err != nil {
		return nil, err
	}

	var responseBody ResponseBody
	if err := json.Unmarshal(body, &responseBody); err != nil {
		return nil, errors.Wrapf(err, "%s: decode response", method)
	}

	if responseBody.Error != nil {
		return nil, errors.Wrapf(responseBody.Error, "%s", method)
	}

	return &responseBody, nil
}

// SendTransaction submits a signed transaction and returns its signature.
func (c *Client) SendTransaction(ctx context.Context, transaction *solana.Transaction, skipPreflight bool) (solana.Signature, error) {
	msg, err := transaction.MarshalBinary()
	if err != nil {
		return solana.Signature{}, err
	}
	txBase64 := base64.StdEncoding.EncodeToString(msg)

	params := []interface{}{
		txBase64,
		map[string]interface{}{
			"encoding":            "base64",
			"skipPreflight":       skipPreflight,
			"maxRetries":          1,
			"preflightCommitment": "confirmed",
		},
	}

	response, err := c.CallRPC(ctx, "sendTransaction", params)
	if err != nil {
		return solana.Signature{}, err
	}

	var signature string
	if err := json.Unmarshal(response.Result, &signature); err != nil {
		return solana.Signature{}, err
	}

	return solana.SignatureFromBase58(signature)
}

func (c *Client) GetLatestBlockhash(ctx context.Context) (solana.Hash, error) {
	params := []interface{}{
		map[string]interface{}{
			"commitment": "confirmed",
		},
	}

	response, err := c.CallRPC(ctx, "getLatestBlockhash", params)
	if err != nil {
		return solana.Hash{}, err
	}

	var result rpc.GetLatestBlockhashResult
	if err := json.Unmarshal(response.Result, &result); err != nil {
		return solana.Hash{}, err
	}
	if result.Value == nil {
		return solana.Hash{}, errors.Wrap(ErrRPC, "getLatestBlockhash returned no value")
	}

	return result.Value.Blockhash, nil
}

// GetAccountInfo returns the account, or ErrAccountNotFound when it does not exist.
func (c *Client) GetAccountInfo(ctx context.Context, publicKey solana.PublicKey, dataSlice *rpc.DataSlice) (*rpc.Account, error) {
	params := map[string]interface{}{
		"encoding":   "base64",
		"commitment": "confirmed",
	}

	if dataSlice != nil {
		params["dataSlice"] = dataSlice
	}

	reqParams := []interface{}{
		publicKey,
		params,
	}

	response, err := c.CallRPC(ctx, "getAccountInfo", reqParams)
	if err != nil {
		return nil, err
	}

	var accountInfo rpc.GetAccountInfoResult
	if err := json.Unmarshal(response.Result, &accountInfo); err != nil {
		return nil, err
	}
	if accountInfo.Value == nil || accountInfo.Value.Data == nil {
		return nil, errors.Wrap(ErrAccountNotFound, publicKey.String())
	}

	return accountInfo.Value, nil
}

// GetAccountData returns the decoded account data, or ErrAccountNotFound.
func (c *Client) GetAccountData(ctx context.Context, publicKey solana.PublicKey, dataSlice *rpc.DataSlice) ([]byte, error) {
	account, err := c.GetAccountInfo(ctx, publicKey, dataSlice)
	if err != nil {
		return nil, err
	}

	return account.Data.GetBinary(), nil
}

func (c *Client) GetBalance(ctx context.Context, publicKey solana.PublicKey) (uint64, error) {
	params := map[string]interface{}{
		"commitment": "confirmed",
	}

	reqParams := []interface{}{
		publicKey,
		params,
	}

	response, err := c.CallRPC(ctx, "getBalance", reqParams)
	if err != nil {
		return 0, err
	}

	var balance rpc.GetBalanceResult
	if err := json.Unmarshal(response.Result, &balance); err != nil {
		return 0, err
	}

	return balance.Value, nil
}
