// Package krakenoracle implements a price oracle fed by the kraken ticker
// websocket stream.
package krakenoracle

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/core/ports"
)

const (
	// KrakenWebSocketURL is the url to open a connection with kraken.
	KrakenWebSocketURL = "wss://ws.kraken.com"

	source = "kraken"
)

// Market binds a kraken ticker (ie. COMP/USD) to a pair of assets.
type Market struct {
	Base   common.Address
	Quote  common.Address
	Ticker string
}

type pair struct {
	base  common.Address
	quote common.Address
}

// Oracle is a price oracle that must be started to receive quotes.
type Oracle interface {
	ports.PriceOracle
	Start() error
	Stop()
}

type service struct {
	url    string
	maxAge time.Duration
	conn   *websocket.Conn
	lock   *sync.RWMutex

	marketByTicker map[string]Market
	latestByPair   map[pair]ports.PriceQuote
	quitChan       chan struct{}
	now            func() time.Time
}

// NewKrakenOracle returns an oracle for the given markets. Quotes older than
// maxAge are considered stale.
func NewKrakenOracle(
	url string, maxAge time.Duration, markets []Market,
) (Oracle, error) {
	if len(markets) <= 0 {
		return nil, fmt.Errorf("missing markets")
	}
	if maxAge <= 0 {
		return nil, fmt.Errorf("max age must be greater than zero")
	}
	if url == "" {
		url = KrakenWebSocketURL
	}

	marketByTicker := make(map[string]Market)
	for _, mkt := range markets {
		if mkt.Ticker == "" {
			return nil, fmt.Errorf("missing market ticker")
		}
		marketByTicker[mkt.Ticker] = mkt
	}

	return &service{
		url:            url,
		maxAge:         maxAge,
		lock:           &sync.RWMutex{},
		marketByTicker: marketByTicker,
		latestByPair:   make(map[pair]ports.PriceQuote),
		quitChan:       make(chan struct{}, 1),
		now:            time.Now,
	}, nil
}

// Price returns the latest price for the pair, or its inverse if only the
// opposite market is known.
func (s *service) Price(
	_ context.Context, base, quote common.Address,
) (*ports.PriceQuote, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	q, ok := s.latestByPair[pair{base, quote}]
	if !ok {
		inverse, ok := s.latestByPair[pair{quote, base}]
		if !ok || inverse.Price.IsZero() {
			return nil, fmt.Errorf("%w: no quote for pair", domain.ErrStalePrice)
		}
		q = inverse
		q.Price = decimal.NewFromInt(1).DivRound(inverse.Price, 18)
	}
	if age := s.now().Sub(q.Timestamp); age > s.maxAge {
		return nil, fmt.Errorf("%w: last quote is %s old", domain.ErrStalePrice, age)
	}
	return &q, nil
}

// Start connects to kraken and keeps reading the ticker stream until Stop is
// called. Dropped connections are re-established.
func (s *service) Start() error {
	if err := s.connect(); err != nil {
		return err
	}

	mustReconnect, err := s.start()
	for mustReconnect {
		log.WithError(err).Warn("connection dropped unexpectedly. Trying to reconnect...")

		if err = s.connect(); err != nil {
			return err
		}

		log.Debug("connection and subscriptions re-established. Restarting...")
		mustReconnect, err = s.start()
	}

	return err
}

// Stop makes Start return once the connection is closed.
func (s *service) Stop() {
	s.quitChan <- struct{}{}

	s.lock.RLock()
	conn := s.conn
	s.lock.RUnlock()
	if conn != nil {
		//nolint
		conn.Close()
	}
}

func (s *service) start() (mustReconnect bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			mustReconnect = true
			err = fmt.Errorf("%v", rec)
		}
	}()

	s.lock.RLock()
	conn := s.conn
	s.lock.RUnlock()

	for {
		// Reading can panic instead of returning an UnexpectedCloseError
		// when kraken drops the connection. Either way the deferred recover
		// signals that the connection must be re-established.
		_, message, err := conn.ReadMessage()
		if err != nil {
			select {
			case <-s.quitChan:
				return false, nil
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return false, nil
			}
			panic(err)
		}

		mkt, price, ok := s.parseFeed(message)
		if !ok {
			continue
		}
		s.writeQuote(mkt, price)
	}
}

func (s *service) writeQuote(mkt Market, price decimal.Decimal) {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.latestByPair[pair{mkt.Base, mkt.Quote}] = ports.PriceQuote{
		Price:     price,
		Timestamp: s.now(),
		Source:    source,
	}
	log.Tracef("kraken: %s %s", mkt.Ticker, price)
}

// parseFeed extracts the last trade close price from a ticker message of
// the form [channelID, {"c": [price, volume], ...}, "ticker", pair].
func (s *service) parseFeed(msg []byte) (Market, decimal.Decimal, bool) {
	var i []interface{}
	if err := json.Unmarshal(msg, &i); err != nil {
		return Market{}, decimal.Zero, false
	}
	if len(i) != 4 {
		return Market{}, decimal.Zero, false
	}

	ticker, ok := i[3].(string)
	if !ok {
		return Market{}, decimal.Zero, false
	}
	mkt, ok := s.marketByTicker[ticker]
	if !ok {
		return Market{}, decimal.Zero, false
	}

	ii, ok := i[1].(map[string]interface{})
	if !ok {
		return Market{}, decimal.Zero, false
	}
	iii, ok := ii["c"].([]interface{})
	if !ok || len(iii) < 1 {
		return Market{}, decimal.Zero, false
	}
	priceStr, ok := iii[0].(string)
	if !ok {
		return Market{}, decimal.Zero, false
	}

	price, err := decimal.NewFromString(priceStr)
	if err != nil || !price.IsPositive() {
		return Market{}, decimal.Zero, false
	}
	return mkt, price, true
}

func (s *service) connect() error {
	tickers := make([]string, 0, len(s.marketByTicker))
	for ticker := range s.marketByTicker {
		tickers = append(tickers, ticker)
	}

	conn, _, err := websocket.DefaultDialer.Dial(s.url, nil)
	if err != nil {
		return err
	}

	msg := map[string]interface{}{
		"event": "subscribe",
		"pair":  tickers,
		"subscription": map[string]string{
			"name": "ticker",
		},
	}
	buf, _ := json.Marshal(msg)
	if err := conn.WriteMessage(websocket.TextMessage, buf); err != nil {
		return fmt.Errorf("cannot subscribe to given markets: %s", err)
	}

	s.lock.Lock()
	s.conn = conn
	s.lock.Unlock()
	return nil
}

var _ ports.PriceOracle = (*service)(nil)
