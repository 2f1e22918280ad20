package hostfunc

import (
	"context"
	"encoding/json"
	"testing"
)

type echoReq struct {
	Value string `json:"value"`
}

type echoResp struct {
	Echoed string `json:"echoed"`
}

func TestRegistry_InvokeTyped(t *testing.T) {
	reg, err := NewRegistry(
		WithHandler("echo", NewJSONHandler(func(_ context.Context, req echoReq) echoResp {
			return echoResp{Echoed: req.Value}
		})),
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	out, err := reg.Invoke(context.Background(), "echo", []byte(`{"value":"hi"}`))
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}

	var resp echoResp
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Echoed != "hi" {
		t.Errorf("Echoed = %q, want hi", resp.Echoed)
	}
}

func TestRegistry_UnknownHandler(t *testing.T) {
	reg, err := NewRegistry()
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	out, err := reg.Invoke(context.Background(), "nope", nil)
	if err != nil {
		t.Fatalf("invoke must not fail for unknown names: %v", err)
	}

	var resp struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error.Code != "not_found" {
		t.Errorf("error code = %q, want not_found", resp.Error.Code)
	}
}

func TestRegistry_DuplicateName(t *testing.T) {
	handler := func(context.Context, []byte) ([]byte, error) { return nil, nil }
	if _, err := NewRegistry(WithHandler("x", handler), WithHandler("x", handler)); err == nil {
		t.Fatal("expected duplicate-name error")
	}
	if _, err := NewRegistry(WithHandler("", handler)); err == nil {
		t.Fatal("expected empty-name error")
	}
}

func TestRegistry_Names(t *testing.T) {
	handler := func(context.Context, []byte) ([]byte, error) { return nil, nil }
	reg, err := NewRegistry(WithHandler("b", handler), WithHandler("a", handler))
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	names := reg.Names()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Errorf("Names = %v, want [a b]", names)
	}
	if !reg.Has("a") || reg.Has("c") {
		t.Error("Has answered wrong")
	}
}

func TestRecovery(t *testing.T) {
	reg, err := NewRegistry(
		WithMiddleware(Recovery()),
		WithHandler("boom", func(context.Context, []byte) ([]byte, error) {
			panic("kaboom")
		}),
	)
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}

	out, err := reg.Invoke(context.Background(), "boom", nil)
	if err != nil {
		t.Fatalf("recovered handler must not return an error: %v", err)
	}

	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(out, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Error.Code != "panic" {
		t.Errorf("error code = %q, want panic", resp.Error.Code)
	}
}

func TestDefault(t *testing.T) {
	reg, err := Default()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	if !reg.Has(HTTPRequestName) {
		t.Errorf("default registry must provide %s", HTTPRequestName)
	}
}
