package pool

import (
	"context"
	"sync"

	"github.com/gagliardetto/solana-go"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrNoRelays   = errors.New("no relays configured")
	ErrPoolClosed = errors.New("relay pool closed")
)

// Relay submits a signed transaction to a single landing service.
type Relay interface {
	Name() string
	SendTransaction(ctx context.Context, transaction *solana.Transaction) (string, error)
}

type RelayResult struct {
	Relay     string
	Signature string
	Err       error
}

type relayTask struct {
	ctx         context.Context
	transaction *solana.Transaction
	results     chan<- RelayResult
}

// RelayPool fans every transaction out to all relays. Each relay is served
// by its own workers so a slow relay does not hold back the others.
type RelayPool struct {
	relays  []Relay
	taskChs []chan *relayTask
	wg      sync.WaitGroup
	mutex   sync.RWMutex
	closed  bool
	Log     *logrus.Logger
}

func NewRelayPool(relays []Relay, workersPerRelay int, log *logrus.Logger) (*RelayPool, error) {
	if len(relays) == 0 {
		return nil, ErrNoRelays
	}
	if workersPerRelay < 1 {
		workersPerRelay = 1
	}
	if log == nil {
		log = logrus.New()
	}

	pool := &RelayPool{
		relays:  relays,
		taskChs: make([]chan *relayTask, len(relays)),
		Log:     log,
	}

	for i, relay := range relays {
		pool.taskChs[i] = make(chan *relayTask, 100)
		for j := 0; j < workersPerRelay; j++ {
			pool.wg.Add(1)
			go pool.worker(relay, pool.taskChs[i])
		}
	}

	return pool, nil
}

func (p *RelayPool) worker(relay Relay, taskCh <-chan *relayTask) {
	defer p.wg.Done()
	for task := range taskCh {
		signature, err := relay.SendTransaction(task.ctx, task.transaction)
		if err != nil {
			p.Log.Warnf("%s: failed to send transaction: %v", relay.Name(), err)
		}
		if task.results != nil {
			task.results <- RelayResult{Relay: relay.Name(), Signature: signature, Err: err}
		}
	}
}

// SendTransaction queues the transaction on every relay without waiting.
func (p *RelayPool) SendTransaction(ctx context.Context, transaction *solana.Transaction) error {
	return p.enqueue(ctx, transaction, nil)
}

// Broadcast sends the transaction through every relay and returns the first
// accepted signature. When every relay fails the last error is returned.
func (p *RelayPool) Broadcast(ctx context.Context, transaction *solana.Transaction) (string, error) {
	results := make(chan RelayResult, len(p.relays))
	if err := p.enqueue(ctx, transaction, results); err != nil {
		return "", err
	}

	var lastErr error
	for range p.relays {
		select {
		case res := <-results:
			if res.Err == nil {
				return res.Signature, nil
			}
			lastErr = errors.Wrap(res.Err, res.Relay)
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	return "", lastErr
}

func (p *RelayPool) enqueue(ctx context.Context, transaction *solana.Transaction, results chan<- RelayResult) error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if p.closed {
		return ErrPoolClosed
	}

	for _, taskCh := range p.taskChs {
		select {
		case taskCh <- &relayTask{ctx: ctx, transaction: transaction, results: results}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (p *RelayPool) Close() {
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		return
	}
	p.closed = true
	for _, taskCh := range p.taskChs {
		close(taskCh)
	}
	p.mutex.Unlock()

	p.wg.Wait()
}
