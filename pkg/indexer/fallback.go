package indexer

import "strings"

// rpcAlternatives maps Indexer path prefixes to equivalent node RPC methods.
// When the Indexer is unreachable after retries, the error suggests the RPC
// route instead of dead-ending the caller. Only paths with a true node-side
// equivalent are listed.
var rpcAlternatives = map[string]string{
	"/api/v1/account":     "eth_getBalance",
	"/api/v1/transaction": "eth_getTransactionByHash",
	"/api/v1/receipt":     "eth_getTransactionReceipt",
	"/api/v1/logs":        "eth_getLogs",
}

// RPCAlternative returns the node RPC method covering roughly the same data
// as the Indexer path, if one exists.
func RPCAlternative(path string) (string, bool) {
	for prefix, method := range rpcAlternatives {
		if strings.HasPrefix(path, prefix) {
			// account sub-resources have their own equivalents
			if prefix == "/api/v1/account" && strings.HasSuffix(path, "/logs") {
				return "eth_getLogs", true
			}
			return method, true
		}
	}
	return "", false
}
