// Copyright 2024 The go-equa Authors
// This file is part of the go-equa library.

package engine

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/equa/go-electoral/log"
	"github.com/golang-jwt/jwt/v4"
)

// RPCClient talks to a chain's own JSON-RPC surface for read-only
// queries and to its JWT-authenticated engine endpoint for the
// privileged calls an electoral system drives (balance ingress
// polling, broadcasting an aggregated signature, reading block
// headers for the Block-Height Witnesser).
type RPCClient struct {
	rpcEndpoint    string
	engineEndpoint string
	client         *http.Client
	jwtSecret      []byte
}

// NewRPCClient builds a client. jwtSecretPath, if non-empty, must name
// a file holding a hex-encoded shared secret (the Engine API uses 32
// bytes; the length is not checked here); engine calls are
// then signed with a freshly minted HS256 JWT per request, matching
// the execution-layer Engine API's authentication scheme.
func NewRPCClient(rpcEndpoint, engineEndpoint, jwtSecretPath string) (*RPCClient, error) {
	c := &RPCClient{
		rpcEndpoint:    rpcEndpoint,
		engineEndpoint: engineEndpoint,
		client:         &http.Client{Timeout: 30 * time.Second},
	}
	if jwtSecretPath == "" {
		return c, nil
	}
	secret, err := readJWTSecret(jwtSecretPath)
	if err != nil {
		return nil, err
	}
	c.jwtSecret = secret
	return c, nil
}

func readJWTSecret(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading jwt secret: %w", err)
	}
	hexStr := strings.TrimSpace(string(data))
	hexStr = strings.TrimPrefix(hexStr, "0x")
	secret, err := hex.DecodeString(hexStr)
	if err != nil {
		return nil, fmt.Errorf("decoding jwt secret: %w", err)
	}
	return secret, nil
}

func (rpc *RPCClient) bearerToken() (string, error) {
	claims := jwt.RegisteredClaims{IssuedAt: jwt.NewNumericDate(time.Now())}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(rpc.jwtSecret)
}

// CallRPC makes an unauthenticated JSON-RPC call against rpcEndpoint.
func (rpc *RPCClient) CallRPC(method string, params []interface{}) (interface{}, error) {
	return rpc.call(rpc.rpcEndpoint, method, params, false)
}

// CallEngine makes a JWT-authenticated call against engineEndpoint.
func (rpc *RPCClient) CallEngine(method string, params []interface{}) (interface{}, error) {
	return rpc.call(rpc.engineEndpoint, method, params, true)
}

// call retries transient network failures (connection refused, reset,
// timeout) with a short exponential backoff; a malformed response body
// or an RPC-level error object is never retried.
func (rpc *RPCClient) call(endpoint, method string, params []interface{}, authed bool) (interface{}, error) {
	reqBody := map[string]interface{}{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  method,
		"params":  params,
	}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	var result map[string]interface{}
	attempt := func() error {
		req, err := http.NewRequest(http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")

		if authed && len(rpc.jwtSecret) > 0 {
			token, err := rpc.bearerToken()
			if err != nil {
				return backoff.Permanent(fmt.Errorf("minting jwt: %w", err))
			}
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := rpc.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, &result); err != nil {
			log.Debug("failed to decode rpc response", "body", string(body))
			return backoff.Permanent(err)
		}
		return nil
	}

	policy := backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3)
	if err := backoff.Retry(attempt, policy); err != nil {
		return nil, err
	}
	if errObj, ok := result["error"]; ok {
		return nil, fmt.Errorf("rpc error calling %s: %v", method, errObj)
	}
	return result["result"], nil
}
