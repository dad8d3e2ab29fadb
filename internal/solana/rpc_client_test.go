package solana

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// rpcServer answers every JSON-RPC call with handle(method, params).
func rpcServer(t *testing.T, handle func(method string, params []json.RawMessage) interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     uint64            `json:"id"`
			Method string            `json:"method"`
			Params []json.RawMessage `json:"params"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			return
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  handle(req.Method, req.Params),
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
}

func TestHTTPClient_GetMinimumBalanceForRentExemption(t *testing.T) {
	server := rpcServer(t, func(method string, params []json.RawMessage) interface{} {
		if method != "getMinimumBalanceForRentExemption" {
			t.Errorf("expected method getMinimumBalanceForRentExemption, got %s", method)
		}
		if len(params) != 1 || string(params[0]) != "82" {
			t.Errorf("expected params [82], got %s", params)
		}
		return uint64(1461600)
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	lamports, err := client.GetMinimumBalanceForRentExemption(context.Background(), 82)
	if err != nil {
		t.Fatalf("GetMinimumBalanceForRentExemption: %v", err)
	}
	if lamports != 1461600 {
		t.Errorf("expected 1461600 lamports, got %d", lamports)
	}
}

func TestHTTPClient_GetLatestBlockhash(t *testing.T) {
	server := rpcServer(t, func(method string, _ []json.RawMessage) interface{} {
		if method != "getLatestBlockhash" {
			t.Errorf("expected method getLatestBlockhash, got %s", method)
		}
		return map[string]interface{}{
			"context": map[string]interface{}{"slot": 100},
			"value": map[string]interface{}{
				"blockhash":            "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N",
				"lastValidBlockHeight": uint64(3090),
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	bh, err := client.GetLatestBlockhash(context.Background())
	if err != nil {
		t.Fatalf("GetLatestBlockhash: %v", err)
	}
	if bh.Hash != "EkSnNWid2cvwEVnVx9aBqawnmiCNiDgp3gUdkDPTKN1N" {
		t.Errorf("unexpected blockhash %s", bh.Hash)
	}
	if bh.LastValidBlockHeight != 3090 {
		t.Errorf("expected lastValidBlockHeight 3090, got %d", bh.LastValidBlockHeight)
	}
}

func TestHTTPClient_SendTransaction(t *testing.T) {
	raw := []byte{1, 2, 3, 4}

	server := rpcServer(t, func(method string, params []json.RawMessage) interface{} {
		if method != "sendTransaction" {
			t.Errorf("expected method sendTransaction, got %s", method)
		}
		var encoded string
		if err := json.Unmarshal(params[0], &encoded); err != nil {
			t.Errorf("decode tx param: %v", err)
		}
		if encoded != base64.StdEncoding.EncodeToString(raw) {
			t.Errorf("unexpected tx payload %s", encoded)
		}
		var opts map[string]string
		json.Unmarshal(params[1], &opts)
		if opts["encoding"] != "base64" {
			t.Errorf("expected base64 encoding, got %q", opts["encoding"])
		}
		return "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW"
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	sig, err := client.SendTransaction(context.Background(), raw)
	if err != nil {
		t.Fatalf("SendTransaction: %v", err)
	}
	if sig != "5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW" {
		t.Errorf("unexpected signature %s", sig)
	}
}

func TestHTTPClient_GetSignatureStatuses(t *testing.T) {
	server := rpcServer(t, func(method string, _ []json.RawMessage) interface{} {
		if method != "getSignatureStatuses" {
			t.Errorf("expected method getSignatureStatuses, got %s", method)
		}
		return map[string]interface{}{
			"value": []interface{}{
				map[string]interface{}{
					"slot":               int64(72),
					"confirmations":      10,
					"err":                nil,
					"confirmationStatus": "confirmed",
				},
				nil,
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	statuses, err := client.GetSignatureStatuses(context.Background(), []string{"sig1", "sig2"})
	if err != nil {
		t.Fatalf("GetSignatureStatuses: %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("expected 2 statuses, got %d", len(statuses))
	}
	if statuses[0] == nil || statuses[0].ConfirmationStatus != CommitmentConfirmed {
		t.Errorf("expected confirmed status, got %+v", statuses[0])
	}
	if statuses[1] != nil {
		t.Errorf("expected nil for unknown signature, got %+v", statuses[1])
	}
}

func TestHTTPClient_Retry(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		count := attempts.Add(1)
		if count < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  uint64(999),
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL,
		WithMaxRetries(3),
		WithRetryDelay(10*time.Millisecond),
	)

	height, err := client.GetBlockHeight(context.Background())
	if err != nil {
		t.Fatalf("GetBlockHeight: %v", err)
	}
	if height != 999 {
		t.Errorf("expected height 999, got %d", height)
	}
	if attempts.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts.Load())
	}
}

func TestHTTPClient_SingleAttemptByDefault(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	if _, err := client.GetBlockHeight(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
	if attempts.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts.Load())
	}
}

func TestHTTPClient_RPCError(t *testing.T) {
	var attempts atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts.Add(1)

		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"error": map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed: Blockhash not found",
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, WithMaxRetries(3), WithRetryDelay(time.Millisecond))

	_, err := client.SendTransaction(context.Background(), []byte{1})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var rpcErr *RPCError
	if !errors.As(err, &rpcErr) {
		t.Fatalf("expected *RPCError, got %T", err)
	}
	if rpcErr.Code != -32002 {
		t.Errorf("expected code -32002, got %d", rpcErr.Code)
	}
	if attempts.Load() != 1 {
		t.Errorf("RPC errors must not be retried, got %d attempts", attempts.Load())
	}
}

func TestHTTPClient_GetAccountInfo(t *testing.T) {
	server := rpcServer(t, func(method string, _ []json.RawMessage) interface{} {
		if method != "getAccountInfo" {
			t.Errorf("expected method getAccountInfo, got %s", method)
		}
		return map[string]interface{}{
			"value": map[string]interface{}{
				"lamports":   uint64(1000000),
				"owner":      "11111111111111111111111111111111",
				"data":       []string{"SGVsbG8gV29ybGQ=", "base64"},
				"executable": false,
				"rentEpoch":  uint64(100),
			},
		}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "testpubkey")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info == nil {
		t.Fatal("expected account info, got nil")
	}
	if info.Lamports != 1000000 {
		t.Errorf("expected lamports 1000000, got %d", info.Lamports)
	}
	if info.Owner != "11111111111111111111111111111111" {
		t.Errorf("unexpected owner: %s", info.Owner)
	}
	if info.Data != "SGVsbG8gV29ybGQ=" {
		t.Errorf("unexpected data: %s", info.Data)
	}
}

func TestHTTPClient_GetAccountInfo_NotFound(t *testing.T) {
	server := rpcServer(t, func(string, []json.RawMessage) interface{} {
		return map[string]interface{}{"value": nil}
	})
	defer server.Close()

	client := NewHTTPClient(server.URL)
	info, err := client.GetAccountInfo(context.Background(), "nonexistent")
	if err != nil {
		t.Fatalf("GetAccountInfo: %v", err)
	}
	if info != nil {
		t.Errorf("expected nil for not found, got %+v", info)
	}
}

func TestHTTPClient_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := client.GetBlockHeight(ctx); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}
