package config

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writePayload stores a base64 wrapped payload under <assets>/<id>/payload
// the way the control plane delivers it.
func writePayload(t *testing.T, assetsDir, id, inner string) {
	t.Helper()
	dir := filepath.Join(assetsDir, id)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	wrapped := base64.StdEncoding.EncodeToString([]byte(`{"data": ` + inner + `}`))
	if err := os.WriteFile(filepath.Join(dir, PayloadFile), []byte(wrapped), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDecodePayloadUnwrapsEnvelope(t *testing.T) {
	assets := t.TempDir()
	writePayload(t, assets, "step-1", `{"users": []}`)

	data, err := DecodePayload(assets, "step-1")
	if err != nil {
		t.Fatalf("DecodePayload failed: %v", err)
	}
	if string(data) != `{"users": []}` {
		t.Fatalf("data = %s, want the inner document", data)
	}
}

func TestDecodePayloadMissingFile(t *testing.T) {
	if _, err := DecodePayload(t.TempDir(), "step-1"); err == nil {
		t.Fatal("expected error for missing payload")
	}
}

func TestDecodePayloadRejectsGarbage(t *testing.T) {
	assets := t.TempDir()
	dir := filepath.Join(assets, "step-1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, PayloadFile), []byte("not base64!!"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodePayload(assets, "step-1"); err == nil {
		t.Fatal("expected error for non-base64 payload")
	}
}

func TestDecodePayloadRequiresDataDocument(t *testing.T) {
	assets := t.TempDir()
	dir := filepath.Join(assets, "step-1")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	wrapped := base64.StdEncoding.EncodeToString([]byte(`{"other": 1}`))
	if err := os.WriteFile(filepath.Join(dir, PayloadFile), []byte(wrapped), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := DecodePayload(assets, "step-1"); err == nil {
		t.Fatal("expected error for envelope without data")
	}
}

func TestUsersSourceLoad(t *testing.T) {
	assets := t.TempDir()
	writePayload(t, assets, "step-1", `{
		"users": [
			{"name": "user1", "key": "c29tZS1rZXk=", "sudo": true},
			{"name": "user2"}
		],
		"ignore": ["ubuntu"]
	}`)

	desired, err := NewUsersSource(assets, "step-1").Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(desired.Identities) != 2 {
		t.Fatalf("identities = %+v, want two", desired.Identities)
	}
	if desired.Identities[0].Name != "user1" || !desired.Identities[0].Sudo {
		t.Fatalf("user1 = %+v", desired.Identities[0])
	}
	if len(desired.Ignore) != 1 || desired.Ignore[0] != "ubuntu" {
		t.Fatalf("ignore = %v, want [ubuntu]", desired.Ignore)
	}
}

func TestUsersSourceRejectsNamelessUser(t *testing.T) {
	assets := t.TempDir()
	writePayload(t, assets, "step-1", `{"users": [{"key": "abcd"}]}`)

	_, err := NewUsersSource(assets, "step-1").Load(context.Background())
	if err == nil {
		t.Fatal("expected validation error for a user without a name")
	}
	if !strings.Contains(err.Error(), "invalid step") {
		t.Fatalf("error = %v, want a validation failure", err)
	}
}

func TestLoadVenv(t *testing.T) {
	assets := t.TempDir()
	writePayload(t, assets, "venv-1", `{"id": "venv-1", "ready": true}`)

	p, err := LoadVenv(assets, "venv-1")
	if err != nil {
		t.Fatalf("LoadVenv failed: %v", err)
	}
	if p.ID != "venv-1" || !p.Ready {
		t.Fatalf("payload = %+v", p)
	}
}

func TestLoadBootstrapRequiresWheel(t *testing.T) {
	assets := t.TempDir()
	writePayload(t, assets, "boot-1", `{"id": "boot-1", "venv_resource_id": "venv-1"}`)

	if _, err := LoadBootstrap(assets, "boot-1"); err == nil {
		t.Fatal("expected validation error for a bootstrap without a wheel")
	}
}

func TestLoadBootstrap(t *testing.T) {
	assets := t.TempDir()
	writePayload(t, assets, "boot-1", `{
		"id": "boot-1",
		"venv_resource_id": "venv-1",
		"whl": "/wheels/agent-1.0-py3-none-any.whl",
		"package_name": "agent"
	}`)

	p, err := LoadBootstrap(assets, "boot-1")
	if err != nil {
		t.Fatalf("LoadBootstrap failed: %v", err)
	}
	if p.VenvResourceID != "venv-1" || p.PackageName != "agent" || p.Installed {
		t.Fatalf("payload = %+v", p)
	}
}
