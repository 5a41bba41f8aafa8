package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Typed wrappers over the node methods the analysis layer needs. Quantities
// stay as 0x-prefixed hex strings on the wire; use ParseHexUint64 when
// arithmetic is needed.

// BlockNumber returns the current head block number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var hex string
	if err := c.Call(ctx, "eth_blockNumber", nil, &hex); err != nil {
		return 0, err
	}
	return ParseHexUint64(hex)
}

// GetBalance returns the balance of the address at the given block tag
// ("latest" when empty) as a hex quantity.
func (c *Client) GetBalance(ctx context.Context, address, blockTag string) (string, error) {
	if blockTag == "" {
		blockTag = "latest"
	}
	var hex string
	if err := c.Call(ctx, "eth_getBalance", []any{address, blockTag}, &hex); err != nil {
		return "", err
	}
	return hex, nil
}

// GetTransactionCount returns the nonce of the address.
func (c *Client) GetTransactionCount(ctx context.Context, address, blockTag string) (uint64, error) {
	if blockTag == "" {
		blockTag = "latest"
	}
	var hex string
	if err := c.Call(ctx, "eth_getTransactionCount", []any{address, blockTag}, &hex); err != nil {
		return 0, err
	}
	return ParseHexUint64(hex)
}

// GetCode returns the deployed bytecode at the address. "0x" means no code.
func (c *Client) GetCode(ctx context.Context, address, blockTag string) (string, error) {
	if blockTag == "" {
		blockTag = "latest"
	}
	var code string
	if err := c.Call(ctx, "eth_getCode", []any{address, blockTag}, &code); err != nil {
		return "", err
	}
	return code, nil
}

// LogFilter selects logs for eth_getLogs.
type LogFilter struct {
	FromBlock string   `json:"fromBlock,omitempty"`
	ToBlock   string   `json:"toBlock,omitempty"`
	Address   string   `json:"address,omitempty"`
	Topics    []string `json:"topics,omitempty"`
}

// GetLogs returns the raw log objects matching the filter.
func (c *Client) GetLogs(ctx context.Context, filter LogFilter) ([]json.RawMessage, error) {
	var logs []json.RawMessage
	if err := c.Call(ctx, "eth_getLogs", []any{filter}, &logs); err != nil {
		return nil, err
	}
	return logs, nil
}

// GasPrice returns the current gas price as a hex quantity.
func (c *Client) GasPrice(ctx context.Context) (string, error) {
	var hex string
	if err := c.Call(ctx, "eth_gasPrice", nil, &hex); err != nil {
		return "", err
	}
	return hex, nil
}

// HasCode reports whether a code result indicates deployed bytecode.
func HasCode(code string) bool {
	return code != "" && code != "0x" && code != "0x0"
}

// ParseHexUint64 parses a 0x-prefixed hex quantity.
func ParseHexUint64(s string) (uint64, error) {
	trimmed := strings.TrimPrefix(s, "0x")
	if trimmed == "" {
		return 0, fmt.Errorf("empty hex quantity %q", s)
	}
	v, err := strconv.ParseUint(trimmed, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing hex quantity %q: %w", s, err)
	}
	return v, nil
}
