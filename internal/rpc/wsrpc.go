package rpc

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/iqbalbaharum/anyix-swap/internal/generators"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var ErrTransactionFailed = errors.New("transaction failed")

type SignatureStatus struct {
	Err json.RawMessage `json:"err"`
}

type wsMessage struct {
	ID     *int            `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *RPCError       `json:"error"`
	Method string          `json:"method"`
	Params *struct {
		Subscription uint64 `json:"subscription"`
		Result       struct {
			Value SignatureStatus `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

type signatureWaiter chan error

// WsRpc multiplexes signature subscriptions over one websocket connection.
type WsRpc struct {
	wsClient *generators.WSClient
	mutex    sync.Mutex
	nextID   int
	pending  map[int]signatureWaiter
	subs     map[uint64]signatureWaiter
	Log      *logrus.Logger
}

func NewWsRpc(ctx context.Context, url string, log *logrus.Logger) (*WsRpc, error) {
	if log == nil {
		log = logrus.New()
	}

	wsClient, err := generators.NewWSClient(ctx, url, "", log)
	if err != nil {
		return nil, err
	}

	w := &WsRpc{
		wsClient: wsClient,
		pending:  make(map[int]signatureWaiter),
		subs:     make(map[uint64]signatureWaiter),
		Log:      log,
	}

	go w.dispatch()

	return w, nil
}

func (w *WsRpc) dispatch() {
	for {
		select {
		case <-w.wsClient.Done():
			w.failAll(generators.ErrClosed)
			return
		case err := <-w.wsClient.Disconnects():
			w.failAll(err)
		case message := <-w.wsClient.Messages():
			w.handle(message)
		}
	}
}

// failAll releases every waiter; subscriptions do not survive a reconnect.
func (w *WsRpc) failAll(err error) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	for id, waiter := range w.pending {
		waiter <- err
		delete(w.pending, id)
	}
	for sub, waiter := range w.subs {
		waiter <- err
		delete(w.subs, sub)
	}
}

func (w *WsRpc) handle(message []byte) {
	var msg wsMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		w.Log.Warnf("failed to unmarshal websocket message: %v", err)
		return
	}

	w.mutex.Lock()
	defer w.mutex.Unlock()

	if msg.ID != nil {
		waiter, ok := w.pending[*msg.ID]
		if !ok {
			return
		}
		delete(w.pending, *msg.ID)

		if msg.Error != nil {
			waiter <- msg.Error
			return
		}

		var subscription uint64
		if err := json.Unmarshal(msg.Result, &subscription); err != nil {
			waiter <- errors.Wrap(err, "subscription id")
			return
		}
		w.subs[subscription] = waiter
		return
	}

	if msg.Method != "signatureNotification" || msg.Params == nil {
		return
	}

	waiter, ok := w.subs[msg.Params.Subscription]
	if !ok {
		return
	}
	delete(w.subs, msg.Params.Subscription)

	status := msg.Params.Result.Value
	if len(status.Err) > 0 && string(status.Err) != "null" {
		waiter <- errors.Wrapf(ErrTransactionFailed, "%s", string(status.Err))
		return
	}
	waiter <- nil
}

// SignatureSubscribe blocks until the signature reaches the confirmed
// commitment, the transaction fails, ctx is done or the connection drops.
func (w *WsRpc) SignatureSubscribe(ctx context.Context, signature solana.Signature) error {
	waiter := make(signatureWaiter, 1)

	w.mutex.Lock()
	w.nextID++
	id := w.nextID
	w.pending[id] = waiter
	w.mutex.Unlock()

	subscriptionRequest := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  "signatureSubscribe",
		"params": []interface{}{
			signature.String(),
			map[string]interface{}{"commitment": "confirmed"},
		},
	}

	requestData, err := json.Marshal(subscriptionRequest)
	if err != nil {
		w.forget(id, waiter)
		return err
	}

	if err := w.wsClient.SendMessage(ctx, requestData); err != nil {
		w.forget(id, waiter)
		return errors.Wrap(err, "signatureSubscribe")
	}

	select {
	case err := <-waiter:
		return err
	case <-ctx.Done():
		w.forget(id, waiter)
		return ctx.Err()
	case <-w.wsClient.Done():
		w.forget(id, waiter)
		return generators.ErrClosed
	}
}

func (w *WsRpc) forget(id int, waiter signatureWaiter) {
	w.mutex.Lock()
	defer w.mutex.Unlock()

	delete(w.pending, id)
	for sub, v := range w.subs {
		if v == waiter {
			delete(w.subs, sub)
		}
	}
}

func (w *WsRpc) Close() error {
	return w.wsClient.Close()
}
