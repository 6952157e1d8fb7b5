// Package ethledger implements duel.Ledger against an EVM JSON-RPC endpoint.
package ethledger

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog/log"

	"github.com/milk9111/goldrush/duel"
)

// DefaultChainID is Arbitrum Sepolia.
const DefaultChainID = 421614

var ErrReverted = errors.New("ethledger: transaction reverted")

type Config struct {
	RPCURL       string
	ChainID      int64
	PrivateKey   string
	DuelAddress  string
	TokenAddress string
	// Timeout bounds each call, including waiting for a transaction to be
	// mined. Zero means no extra bound.
	Timeout time.Duration
}

func (c Config) Validate() error {
	var problems []string
	if c.RPCURL == "" {
		problems = append(problems, "rpc url is empty")
	}
	if c.PrivateKey == "" {
		problems = append(problems, "private key is empty")
	}
	if !common.IsHexAddress(c.DuelAddress) {
		problems = append(problems, fmt.Sprintf("duel address %q is not a hex address", c.DuelAddress))
	}
	if c.TokenAddress != "" && !common.IsHexAddress(c.TokenAddress) {
		problems = append(problems, fmt.Sprintf("token address %q is not a hex address", c.TokenAddress))
	}
	if len(problems) > 0 {
		return fmt.Errorf("ethledger: config: %s", strings.Join(problems, "; "))
	}
	return nil
}

// Backend is what the ledger needs from a node connection.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

type Ledger struct {
	backend Backend
	closer  func()

	key     *ecdsa.PrivateKey
	from    common.Address
	chainID *big.Int
	timeout time.Duration

	duelAddr  common.Address
	tokenAddr common.Address
	duel      *bind.BoundContract
	token     *bind.BoundContract
}

var _ duel.Ledger = (*Ledger)(nil)

// Dial connects to cfg.RPCURL and binds the configured contracts.
func Dial(ctx context.Context, cfg Config) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	client, err := ethclient.DialContext(ctx, cfg.RPCURL)
	if err != nil {
		return nil, fmt.Errorf("ethledger: dial %s: %w", cfg.RPCURL, err)
	}
	l, err := New(client, cfg)
	if err != nil {
		client.Close()
		return nil, err
	}
	l.closer = client.Close
	return l, nil
}

// New binds the contracts on an existing backend.
func New(backend Backend, cfg Config) (*Ledger, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	key, err := parseKey(cfg.PrivateKey)
	if err != nil {
		return nil, err
	}
	duelABIParsed, err := abi.JSON(strings.NewReader(duelABI))
	if err != nil {
		return nil, fmt.Errorf("ethledger: parse duel abi: %w", err)
	}
	tokenABIParsed, err := abi.JSON(strings.NewReader(tokenABI))
	if err != nil {
		return nil, fmt.Errorf("ethledger: parse token abi: %w", err)
	}

	chainID := cfg.ChainID
	if chainID == 0 {
		chainID = DefaultChainID
	}

	l := &Ledger{
		backend:  backend,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		chainID:  big.NewInt(chainID),
		timeout:  cfg.Timeout,
		duelAddr: common.HexToAddress(cfg.DuelAddress),
	}
	l.duel = bind.NewBoundContract(l.duelAddr, duelABIParsed, backend, backend, backend)
	if cfg.TokenAddress != "" {
		l.tokenAddr = common.HexToAddress(cfg.TokenAddress)
		l.token = bind.NewBoundContract(l.tokenAddr, tokenABIParsed, backend, backend, backend)
	}
	return l, nil
}

func parseKey(hexKey string) (*ecdsa.PrivateKey, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(hexKey), "0x"))
	if err != nil {
		return nil, fmt.Errorf("ethledger: parse private key: %w", err)
	}
	return key, nil
}

// Close releases the node connection opened by Dial.
func (l *Ledger) Close() {
	if l.closer != nil {
		l.closer()
	}
}

func (l *Ledger) Address() string {
	return l.from.Hex()
}

func (l *Ledger) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if l.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, l.timeout)
}

func (l *Ledger) callOpts(ctx context.Context) *bind.CallOpts {
	return &bind.CallOpts{Context: ctx, From: l.from}
}

// transact sends method on c and waits for it to be mined.
func (l *Ledger) transact(ctx context.Context, c *bind.BoundContract, method string, args ...any) (*types.Receipt, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(l.key, l.chainID)
	if err != nil {
		return nil, fmt.Errorf("ethledger: %s: transactor: %w", method, err)
	}
	opts.Context = ctx

	tx, err := c.Transact(opts, method, args...)
	if err != nil {
		return nil, fmt.Errorf("ethledger: %s: send: %w", method, err)
	}
	log.Debug().Str("method", method).Str("tx", tx.Hash().Hex()).Msg("transaction sent")

	receipt, err := bind.WaitMined(ctx, l.backend, tx)
	if err != nil {
		return nil, fmt.Errorf("ethledger: %s: wait mined: %w", method, err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return receipt, fmt.Errorf("%w: %s in %s", ErrReverted, method, tx.Hash().Hex())
	}
	log.Debug().Str("method", method).Uint64("block", receipt.BlockNumber.Uint64()).Uint64("gas", receipt.GasUsed).Msg("transaction mined")
	return receipt, nil
}

// CreateDuel opens a duel and returns its id, read back from the counter
// after the transaction is mined.
func (l *Ledger) CreateDuel(ctx context.Context, stake *big.Int) (uint64, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	if _, err := l.transact(ctx, l.duel, "createDuel", stake); err != nil {
		return 0, err
	}
	return l.DuelCount(ctx)
}

func (l *Ledger) JoinDuel(ctx context.Context, id uint64) error {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	_, err := l.transact(ctx, l.duel, "joinDuel", new(big.Int).SetUint64(id))
	return err
}

func (l *Ledger) SubmitWinner(ctx context.Context, id uint64, winner string) error {
	if !common.IsHexAddress(winner) {
		return fmt.Errorf("ethledger: submitWinner: %q is not a hex address", winner)
	}
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	_, err := l.transact(ctx, l.duel, "submitWinner", new(big.Int).SetUint64(id), common.HexToAddress(winner))
	return err
}

func (l *Ledger) Duel(ctx context.Context, id uint64) (duel.Duel, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	var out []any
	if err := l.duel.Call(l.callOpts(ctx), &out, "duels", new(big.Int).SetUint64(id)); err != nil {
		return duel.Duel{}, fmt.Errorf("ethledger: duels(%d): %w", id, err)
	}
	return decodeDuel(id, out)
}

func decodeDuel(id uint64, out []any) (duel.Duel, error) {
	if len(out) != 5 {
		return duel.Duel{}, fmt.Errorf("ethledger: duels(%d): expected 5 values, got %d", id, len(out))
	}
	p1, ok1 := out[0].(common.Address)
	p2, ok2 := out[1].(common.Address)
	stake, ok3 := out[2].(*big.Int)
	winner, ok4 := out[3].(common.Address)
	state, ok5 := out[4].(uint8)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return duel.Duel{}, fmt.Errorf("ethledger: duels(%d): unexpected value types %T %T %T %T %T", id, out[0], out[1], out[2], out[3], out[4])
	}
	return duel.Duel{
		ID:      id,
		Player1: p1.Hex(),
		Player2: p2.Hex(),
		Stake:   stake,
		Winner:  winner.Hex(),
		State:   duel.State(state),
	}, nil
}

func (l *Ledger) DuelCount(ctx context.Context) (uint64, error) {
	v, err := l.callUint(ctx, l.duel, "duelCounter")
	if err != nil {
		return 0, err
	}
	if !v.IsUint64() {
		return 0, fmt.Errorf("ethledger: duelCounter: %s overflows uint64", v)
	}
	return v.Uint64(), nil
}

func (l *Ledger) Balance(ctx context.Context) (*big.Int, error) {
	if l.token == nil {
		return nil, fmt.Errorf("ethledger: balanceOf: %w", duel.ErrNotConnected)
	}
	return l.callUint(ctx, l.token, "balanceOf", l.from)
}

// Allowance is how much of the stake token the duel contract may pull from
// the connected account.
func (l *Ledger) Allowance(ctx context.Context) (*big.Int, error) {
	if l.token == nil {
		return nil, fmt.Errorf("ethledger: allowance: %w", duel.ErrNotConnected)
	}
	return l.callUint(ctx, l.token, "allowance", l.from, l.duelAddr)
}

func (l *Ledger) Approve(ctx context.Context, amount *big.Int) error {
	if l.token == nil {
		return fmt.Errorf("ethledger: approve: %w", duel.ErrNotConnected)
	}
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	_, err := l.transact(ctx, l.token, "approve", l.duelAddr, amount)
	return err
}

func (l *Ledger) callUint(ctx context.Context, c *bind.BoundContract, method string, args ...any) (*big.Int, error) {
	ctx, cancel := l.withTimeout(ctx)
	defer cancel()

	var out []any
	if err := c.Call(l.callOpts(ctx), &out, method, args...); err != nil {
		return nil, fmt.Errorf("ethledger: %s: %w", method, err)
	}
	if len(out) != 1 {
		return nil, fmt.Errorf("ethledger: %s: expected 1 value, got %d", method, len(out))
	}
	v, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("ethledger: %s: unexpected value type %T", method, out[0])
	}
	return v, nil
}
