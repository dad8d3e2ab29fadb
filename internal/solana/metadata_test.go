package solana

import (
	"context"
	"encoding/base64"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/blocto/solana-go-sdk/types"
)

func borshString(s string, pad int) []byte {
	b := make([]byte, 4, 4+len(s)+pad)
	binary.LittleEndian.PutUint32(b, uint32(len(s)+pad))
	b = append(b, s...)
	return append(b, make([]byte, pad)...)
}

func metadataData(update, mint common.PublicKey, name, symbol, uri string) []byte {
	data := []byte{metadataV1Key}
	data = append(data, update.Bytes()...)
	data = append(data, mint.Bytes()...)
	data = append(data, borshString(name, 32-len(name))...)
	data = append(data, borshString(symbol, 10-len(symbol))...)
	data = append(data, borshString(uri, 200-len(uri))...)
	// seller fee and the rest of the account follow
	return append(data, make([]byte, 16)...)
}

func TestParseMetadata(t *testing.T) {
	update := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	uri := "https://gateway.pinata.cloud/ipfs/QmMeta"

	md, err := ParseMetadata(metadataData(update, mint, "Demo", "DEMO", uri))
	if err != nil {
		t.Fatalf("ParseMetadata: %v", err)
	}
	if md.Name != "Demo" || md.Symbol != "DEMO" || md.URI != uri {
		t.Errorf("unexpected fields %+v", md)
	}
	if md.UpdateAuthority != update || md.Mint != mint {
		t.Error("authority or mint mismatch")
	}
}

func TestParseMetadata_Invalid(t *testing.T) {
	update := types.NewAccount().PublicKey
	mint := types.NewAccount().PublicKey
	good := metadataData(update, mint, "Demo", "DEMO", "uri")

	wrongKey := append([]byte(nil), good...)
	wrongKey[0] = 1

	hugeName := append([]byte(nil), good[:65]...)
	hugeName = append(hugeName, 0xff, 0xff, 0xff, 0xff)
	hugeName = append(hugeName, make([]byte, 64)...)

	cases := map[string][]byte{
		"empty":            nil,
		"wrong key":        wrongKey,
		"truncated":        good[:70],
		"max length field": hugeName,
	}
	for name, data := range cases {
		if _, err := ParseMetadata(data); !errors.Is(err, ErrNotMetadata) {
			t.Errorf("%s: expected ErrNotMetadata, got %v", name, err)
		}
	}
}

func TestGetMetadata(t *testing.T) {
	mint := types.NewAccount().PublicKey
	encoded := base64.StdEncoding.EncodeToString(metadataData(types.NewAccount().PublicKey, mint, "Demo", "DEMO", "uri"))
	want, _ := FindMetadataAddress(mint)

	server := rpcServer(t, func(method string, params []json.RawMessage) interface{} {
		var addr string
		json.Unmarshal(params[0], &addr)
		if addr != want.ToBase58() {
			t.Errorf("queried %s, want metadata PDA %s", addr, want.ToBase58())
		}
		return map[string]interface{}{
			"value": map[string]interface{}{
				"owner": MetadataProgramID.ToBase58(),
				"data":  []string{encoded, "base64"},
			},
		}
	})
	defer server.Close()

	md, err := GetMetadata(context.Background(), NewHTTPClient(server.URL), mint)
	if err != nil {
		t.Fatalf("GetMetadata: %v", err)
	}
	if md.Address != want.ToBase58() || md.Symbol != "DEMO" {
		t.Errorf("unexpected metadata %+v", md)
	}
}

func TestGetMetadata_NotFound(t *testing.T) {
	server := rpcServer(t, func(string, []json.RawMessage) interface{} {
		return map[string]interface{}{"value": nil}
	})
	defer server.Close()

	_, err := GetMetadata(context.Background(), NewHTTPClient(server.URL), types.NewAccount().PublicKey)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}
