package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestEncode(t *testing.T) {
	req := NewRequest(7, "system_chain", nil)
	data, err := req.Encode()
	require.NoError(t, err)

	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &m))
	require.JSONEq(t, `"2.0"`, string(m["jsonrpc"]))
	require.JSONEq(t, `7`, string(m["id"]))
	require.JSONEq(t, `"system_chain"`, string(m["method"]))
	// params must be [] on the wire, never null
	require.JSONEq(t, `[]`, string(m["params"]))
}

func TestRequestEncodeWithParams(t *testing.T) {
	req := NewRequest(1, "chain_getBlockHash", []any{42, "0xabc"})
	data, err := req.Encode()
	require.NoError(t, err)
	require.JSONEq(t, `{"jsonrpc":"2.0","id":1,"method":"chain_getBlockHash","params":[42,"0xabc"]}`, string(data))
}

func TestDecodeResponse(t *testing.T) {
	cases := []struct {
		name         string
		frame        string
		notification bool
		result       string
		errCode      int
	}{
		{name: "result", frame: `{"jsonrpc":"2.0","id":1,"result":"Development"}`, result: `"Development"`},
		{name: "null result", frame: `{"jsonrpc":"2.0","id":2,"result":null}`},
		{name: "error", frame: `{"jsonrpc":"2.0","id":3,"error":{"code":-32601,"message":"Method not found"}}`, errCode: -32601},
		{name: "notification", frame: `{"jsonrpc":"2.0","id":null,"result":{"changes":[]}}`, notification: true},
		{name: "missing id", frame: `{"jsonrpc":"2.0","result":1}`, notification: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := DecodeResponse([]byte(tc.frame))
			require.NoError(t, err)
			require.Equal(t, tc.notification, resp.Notification())
			if tc.result != "" {
				require.JSONEq(t, tc.result, string(resp.Result))
			}
			if tc.errCode != 0 {
				require.NotNil(t, resp.Error)
				require.Equal(t, tc.errCode, resp.Error.Code)
			}
		})
	}
}

func TestDecodeResponseMalformed(t *testing.T) {
	_, err := DecodeResponse([]byte(`{not json`))
	require.Error(t, err)

	_, err = DecodeResponse([]byte(`{"jsonrpc":"2.0","id":"not-a-number"}`))
	require.Error(t, err)
}

func TestErrorMessage(t *testing.T) {
	e := &Error{Code: -32700, Message: "Parse error"}
	if e.Error() != "jsonrpc error -32700: Parse error" {
		t.Fatalf("expect formatted message, got %q", e.Error())
	}
}
