package rpc

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type JitoRequestBody struct {
	Jsonrpc string        `json:"jsonrpc"`
	ID      int           `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

// JitoResponseBody represents the structure of the response from the block engine.
type JitoResponseBody struct {
	Jsonrpc string             `json:"jsonrpc"`
	ID      int                `json:"id"`
	Result  json.RawMessage    `json:"result,omitempty"`
	Error   *JitoErrorResponse `json:"error,omitempty"`
}

type JitoErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *JitoErrorResponse) Error() string {
	return fmt.Sprintf("jito error %d: %s", e.Code, e.Message)
}

type JitoClient struct {
	url        string
	httpClient *http.Client
	Log        *logrus.Logger
}

func NewJitoClient(blockEngineUrl string, log *logrus.Logger) *JitoClient {
	if log == nil {
		log = logrus.New()
	}
	return &JitoClient{
		url:        fmt.Sprintf("%s/api/v1/transactions", strings.TrimSuffix(blockEngineUrl, "/")),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		Log:        log,
	}
}

func (j *JitoClient) Name() string {
	return "jito"
}

// SendTransaction posts the base58 encoded transaction, gzip compressed,
// and returns the signature reported by the block engine.
func (j *JitoClient) SendTransaction(ctx context.Context, transaction *solana.Transaction) (string, error) {
	msg, err := transaction.MarshalBinary()
	if err != nil {
		return "", err
	}

	base58Msg := base58.Encode(msg)
	j.Log.Debugf("jito transaction %s", base58Msg)

	requestBody := JitoRequestBody{
		Jsonrpc: "2.0",
		ID:      1,
		Method:  "sendTransaction",
		Params:  []interface{}{base58Msg},
	}

	reqBody, err := json.Marshal(requestBody)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	gzipWriter := gzip.NewWriter(&buf)
	if _, err = gzipWriter.Write(reqBody); err != nil {
		return "", err
	}
	if err := gzipWriter.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, j.url, &buf)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Content-Encoding", "gzip")

	resp, err := j.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, "jito")
	}
	defer resp.Body.Close()

	var responseBody JitoResponseBody
	if err := json.NewDecoder(resp.Body).Decode(&responseBody); err != nil {
		return "", errors.Wrapf(err, "jito: status %d", resp.StatusCode)
	}

	if responseBody.Error != nil {
		return "", responseBody.Error
	}

	var signature string
	if err := json.Unmarshal(responseBody.Result, &signature); err != nil {
		return "", errors.Wrap(err, "jito: decode signature")
	}

	return signature, nil
}
