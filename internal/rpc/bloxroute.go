package rpc

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
)

var ErrNoSignature = errors.New("no signature returned from BloxRoute")

type bloxRouteTransaction struct {
	Content string `json:"content"`
}

type bloxRouteRequest struct {
	Transaction            bloxRouteTransaction `json:"transaction"`
	SkipPreFlight          bool                 `json:"skipPreFlight"`
	FrontRunningProtection bool                 `json:"frontRunningProtection"`
	FastBestEffort         bool                 `json:"fastBestEffort"`
	UseStakedRPCs          bool                 `json:"useStakedRPCs"`
}

type BloxRouteResponse struct {
	Signature string `json:"signature"`
}

// BloxRouteClient submits signed swaps through the bloXroute trader api.
// Preflight is always skipped there; confirmation happens over websocket.
type BloxRouteClient struct {
	url           string
	token         string
	useStakedRPCs bool
	httpClient    *http.Client
}

func NewBloxRouteClient(url, token string, useStakedRPCs bool) *BloxRouteClient {
	return &BloxRouteClient{
		url:           url,
		token:         token,
		useStakedRPCs: useStakedRPCs,
		httpClient:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (b *BloxRouteClient) Name() string {
	return "bloxroute"
}

func (b *BloxRouteClient) SendTransaction(ctx context.Context, transaction *solana.Transaction) (string, error) {
	raw, err := transaction.MarshalBinary()
	if err != nil {
		return "", err
	}

	payload, err := json.Marshal(bloxRouteRequest{
		Transaction:   bloxRouteTransaction{Content: base64.StdEncoding.EncodeToString(raw)},
		SkipPreFlight: true,
		UseStakedRPCs: b.useStakedRPCs,
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.url, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json;charset=UTF-8")
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Authorization", b.token)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return "", errors.Wrap(err, b.Name())
	}
	defer resp.Body.Close()

	body, err := readBody(b.Name(), resp)
	if err != nil {
		return "", err
	}

	var out BloxRouteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", errors.Wrap(err, "bloxroute: decode response")
	}
	if out.Signature == "" {
		return "", ErrNoSignature
	}

	return out.Signature, nil
}
