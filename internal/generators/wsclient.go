package generators

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	ErrClosed       = errors.New("websocket client closed")
	ErrDisconnected = errors.New("websocket connection lost")
)

const (
	redialAttempts = 5
	redialInterval = 250 * time.Millisecond
)

// WSClient is a reconnecting websocket connection that forwards every text
// frame it reads to Messages. A dropped connection is redialed and then
// reported on Disconnects. When redialing fails the client closes itself.
type WSClient struct {
	conn        *websocket.Conn
	url         string
	auth        string
	mutex       sync.Mutex
	messages    chan []byte
	disconnects chan error
	closed      chan struct{}
	once        sync.Once
	Log         *logrus.Logger
}

func NewWSClient(ctx context.Context, url string, auth string, log *logrus.Logger) (*WSClient, error) {
	if log == nil {
		log = logrus.New()
	}

	client := &WSClient{
		url:         url,
		auth:        auth,
		messages:    make(chan []byte, 64),
		disconnects: make(chan error, 1),
		closed:      make(chan struct{}),
		Log:         log,
	}

	conn, err := client.dial(ctx)
	if err != nil {
		return nil, err
	}
	client.conn = conn

	go client.listenMessages(conn)

	return client, nil
}

func (c *WSClient) dial(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	if c.auth != "" {
		header.Set("Authorization", c.auth)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, header)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", c.url)
	}
	return conn, nil
}

func (c *WSClient) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *WSClient) listenMessages(conn *websocket.Conn) {
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if c.isClosed() {
				return
			}

			c.mutex.Lock()
			current := c.conn == conn
			c.mutex.Unlock()
			if !current {
				return
			}

			c.Log.Warnf("websocket read: %v", err)
			c.redial(conn, err)
			return
		}

		select {
		case c.messages <- message:
		case <-c.closed:
			return
		}
	}
}

// notifyDisconnect coalesces with an undelivered notification.
func (c *WSClient) notifyDisconnect(err error) {
	select {
	case c.disconnects <- errors.Wrap(ErrDisconnected, err.Error()):
	default:
	}
}

// redial replaces old with a fresh connection, closing the client when every
// attempt fails.
func (c *WSClient) redial(old *websocket.Conn, cause error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-c.closed:
			cancel()
		case <-ctx.Done():
		}
	}()

	operation := func() error {
		conn, err := c.dial(ctx)
		if err != nil {
			c.Log.Warnf("websocket redial: %v", err)
			return err
		}

		c.mutex.Lock()
		defer c.mutex.Unlock()

		if c.isClosed() {
			conn.Close()
			return backoff.Permanent(ErrClosed)
		}
		if c.conn != old {
			conn.Close()
			return nil
		}
		c.swap(conn, cause)
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(redialInterval), redialAttempts-1),
		ctx,
	)
	if err := backoff.Retry(operation, policy); err != nil {
		if !c.isClosed() {
			c.Log.Errorf("websocket %s unavailable, closing: %v", c.url, err)
		}
		c.Close()
		return
	}

	c.Log.Infof("websocket %s reconnected", c.url)
}

// swap must be called with the mutex held. Anything written to the old
// connection is reported lost once the new one is in place.
func (c *WSClient) swap(conn *websocket.Conn, cause error) {
	c.conn.Close()
	c.conn = conn
	go c.listenMessages(conn)
	c.notifyDisconnect(cause)
}

// Messages returns the stream of frames read from the connection.
func (c *WSClient) Messages() <-chan []byte {
	return c.messages
}

// Disconnects reports each replaced connection. Requests in flight on the
// old connection will not be answered.
func (c *WSClient) Disconnects() <-chan error {
	return c.disconnects
}

// Done is closed once the client is closed, either by Close or after
// redialing gives up.
func (c *WSClient) Done() <-chan struct{} {
	return c.closed
}

// SendMessage writes message. When the write fails the connection is redialed
// and ErrDisconnected is returned, since the message may or may not have
// reached the server.
func (c *WSClient) SendMessage(ctx context.Context, message []byte) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.isClosed() {
		return ErrClosed
	}

	err := c.conn.WriteMessage(websocket.TextMessage, message)
	if err == nil {
		return nil
	}

	c.Log.Warnf("websocket write failed, reconnecting: %v", err)
	conn, dialErr := c.dial(ctx)
	if dialErr != nil {
		return errors.Wrap(ErrDisconnected, dialErr.Error())
	}
	c.swap(conn, err)

	return errors.Wrap(ErrDisconnected, err.Error())
}

func (c *WSClient) Close() error {
	var err error
	c.once.Do(func() {
		close(c.closed)

		c.mutex.Lock()
		defer c.mutex.Unlock()

		_ = c.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		err = c.conn.Close()
	})
	return err
}
