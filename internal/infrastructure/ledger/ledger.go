// Package ledger implements an in-process balance ledger for fungible assets.
// It backs the devnet: every asset, the lending market and the exchange keep
// their balances here, so that a controller operation can be rolled back as a
// whole just like a reverted transaction.
package ledger

import (
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/tdex-network/tdex-yield/internal/core/domain"
	"github.com/tdex-network/tdex-yield/internal/storageutil/uow"
)

// MaxAllowance is an approval that is never consumed.
var MaxAllowance = new(uint256.Int).Not(uint256.NewInt(0))

type allowanceKey struct {
	owner   common.Address
	spender common.Address
}

type state struct {
	balances   map[common.Address]map[common.Address]*uint256.Int
	allowances map[common.Address]map[allowanceKey]*uint256.Int
	supplies   map[common.Address]*uint256.Int
	slots      map[common.Address]map[string]*uint256.Int
}

func newState() *state {
	return &state{
		balances:   make(map[common.Address]map[common.Address]*uint256.Int),
		allowances: make(map[common.Address]map[allowanceKey]*uint256.Int),
		supplies:   make(map[common.Address]*uint256.Int),
		slots:      make(map[common.Address]map[string]*uint256.Int),
	}
}

func (s *state) clone() *state {
	c := newState()
	for token, accounts := range s.balances {
		m := make(map[common.Address]*uint256.Int, len(accounts))
		for account, amount := range accounts {
			m[account] = amount.Clone()
		}
		c.balances[token] = m
	}
	for token, allowances := range s.allowances {
		m := make(map[allowanceKey]*uint256.Int, len(allowances))
		for key, amount := range allowances {
			m[key] = amount.Clone()
		}
		c.allowances[token] = m
	}
	for token, supply := range s.supplies {
		c.supplies[token] = supply.Clone()
	}
	for contract, slots := range s.slots {
		m := make(map[string]*uint256.Int, len(slots))
		for key, value := range slots {
			m[key] = value.Clone()
		}
		c.slots[contract] = m
	}
	return c
}

// Ledger holds balances and allowances of every registered token.
// Writes made between Begin and Rollback are discarded as a whole.
type Ledger struct {
	lock *sync.RWMutex
	// txLock is held for the whole lifetime of a transaction so that no other
	// writer interleaves with it.
	txLock *sync.Mutex

	state    *state
	snapshot *state
	now      time.Time
}

// New returns an empty ledger whose clock starts at the given time.
func New(genesis time.Time) *Ledger {
	return &Ledger{
		lock:   &sync.RWMutex{},
		txLock: &sync.Mutex{},
		state:  newState(),
		now:    genesis,
	}
}

// Now implements ports.Clock.
func (l *Ledger) Now() time.Time {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.now
}

// Advance moves the ledger clock forward.
func (l *Ledger) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	l.lock.Lock()
	defer l.lock.Unlock()
	l.now = l.now.Add(d)
}

// Begin implements uow.Transactional.
func (l *Ledger) Begin() (uow.Tx, error) {
	l.txLock.Lock()

	l.lock.Lock()
	defer l.lock.Unlock()
	l.snapshot = l.state.clone()

	return &ledgerTx{ledger: l}, nil
}

// Atomic runs fn as a transaction of its own. It must not be used from
// within another transaction.
func (l *Ledger) Atomic(fn func() error) error {
	tx, _ := l.Begin()
	if err := fn(); err != nil {
		//nolint
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

// Load returns the value stored by contract under key, zero if unset.
// Slots are part of the ledger state and are rolled back with balances.
func (l *Ledger) Load(contract common.Address, key string) *uint256.Int {
	l.lock.RLock()
	defer l.lock.RUnlock()

	if v, ok := l.state.slots[contract][key]; ok {
		return v.Clone()
	}
	return uint256.NewInt(0)
}

// Store sets the value of the contract slot identified by key.
func (l *Ledger) Store(contract common.Address, key string, value *uint256.Int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	slots, ok := l.state.slots[contract]
	if !ok {
		slots = make(map[string]*uint256.Int)
		l.state.slots[contract] = slots
	}
	slots[key] = value.Clone()
}

func (l *Ledger) balanceOf(token, account common.Address) *uint256.Int {
	l.lock.RLock()
	defer l.lock.RUnlock()
	return l.balance(token, account).Clone()
}

func (l *Ledger) allowance(token, owner, spender common.Address) *uint256.Int {
	l.lock.RLock()
	defer l.lock.RUnlock()

	if a, ok := l.state.allowances[token][allowanceKey{owner, spender}]; ok {
		return a.Clone()
	}
	return uint256.NewInt(0)
}

func (l *Ledger) totalSupply(token common.Address) *uint256.Int {
	l.lock.RLock()
	defer l.lock.RUnlock()

	if s, ok := l.state.supplies[token]; ok {
		return s.Clone()
	}
	return uint256.NewInt(0)
}

func (l *Ledger) mint(token, to common.Address, amount *uint256.Int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	balance := l.balance(token, to)
	l.setBalance(token, to, new(uint256.Int).Add(balance, amount))

	supply, ok := l.state.supplies[token]
	if !ok {
		supply = uint256.NewInt(0)
	}
	l.state.supplies[token] = new(uint256.Int).Add(supply, amount)
}

func (l *Ledger) burn(token, from common.Address, amount *uint256.Int) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	balance := l.balance(token, from)
	if balance.Lt(amount) {
		return domain.ErrInsufficientBalance
	}
	l.setBalance(token, from, new(uint256.Int).Sub(balance, amount))
	l.state.supplies[token] = new(uint256.Int).Sub(l.state.supplies[token], amount)
	return nil
}

func (l *Ledger) transfer(token, from, to common.Address, amount *uint256.Int) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	return l.move(token, from, to, amount)
}

func (l *Ledger) transferFrom(
	token, spender, from, to common.Address, amount *uint256.Int,
) error {
	l.lock.Lock()
	defer l.lock.Unlock()

	key := allowanceKey{from, spender}
	allowance, ok := l.state.allowances[token][key]
	if !ok || allowance.Lt(amount) {
		return domain.ErrInsufficientAllowance
	}
	if err := l.move(token, from, to, amount); err != nil {
		return err
	}
	if !allowance.Eq(MaxAllowance) {
		l.state.allowances[token][key] = new(uint256.Int).Sub(allowance, amount)
	}
	return nil
}

func (l *Ledger) approve(token, owner, spender common.Address, amount *uint256.Int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	allowances, ok := l.state.allowances[token]
	if !ok {
		allowances = make(map[allowanceKey]*uint256.Int)
		l.state.allowances[token] = allowances
	}
	allowances[allowanceKey{owner, spender}] = amount.Clone()
}

// move must be called with the write lock held.
func (l *Ledger) move(token, from, to common.Address, amount *uint256.Int) error {
	fromBalance := l.balance(token, from)
	if fromBalance.Lt(amount) {
		return domain.ErrInsufficientBalance
	}
	if from == to {
		return nil
	}
	toBalance := l.balance(token, to)
	l.setBalance(token, from, new(uint256.Int).Sub(fromBalance, amount))
	l.setBalance(token, to, new(uint256.Int).Add(toBalance, amount))
	return nil
}

func (l *Ledger) balance(token, account common.Address) *uint256.Int {
	if b, ok := l.state.balances[token][account]; ok {
		return b
	}
	return uint256.NewInt(0)
}

func (l *Ledger) setBalance(token, account common.Address, amount *uint256.Int) {
	accounts, ok := l.state.balances[token]
	if !ok {
		accounts = make(map[common.Address]*uint256.Int)
		l.state.balances[token] = accounts
	}
	accounts[account] = amount
}

type ledgerTx struct {
	ledger *Ledger
	done   bool
}

func (t *ledgerTx) Commit() error {
	if t.done {
		return nil
	}
	t.done = true

	t.ledger.lock.Lock()
	t.ledger.snapshot = nil
	t.ledger.lock.Unlock()

	t.ledger.txLock.Unlock()
	return nil
}

func (t *ledgerTx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true

	t.ledger.lock.Lock()
	t.ledger.state = t.ledger.snapshot
	t.ledger.snapshot = nil
	t.ledger.lock.Unlock()

	t.ledger.txLock.Unlock()
	return nil
}
