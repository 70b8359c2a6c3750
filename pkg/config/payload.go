package config

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/provisd/provisd/pkg/engine"
)

// PayloadFile is the payload file name under <assets>/<id>/.
const PayloadFile = "payload"

// envelope is the outer JSON document inside the base64 wrapping.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// DecodePayload reads <assetsDir>/<id>/payload, strips the base64 wrapping
// and returns the raw inner document.
func DecodePayload(assetsDir, id string) (json.RawMessage, error) {
	path := filepath.Join(assetsDir, id, PayloadFile)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read payload %s: %w", path, err)
	}
	decoded, err := base64.StdEncoding.DecodeString(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to decode payload %s: %w", path, err)
	}
	var env envelope
	if err := json.Unmarshal(decoded, &env); err != nil {
		return nil, fmt.Errorf("failed to parse payload %s: %w", path, err)
	}
	if env.Data == nil {
		return nil, fmt.Errorf("payload %s has no data document", path)
	}
	return env.Data, nil
}

// loadInto decodes the payload for id into v and validates it.
func loadInto(validate *validator.Validate, assetsDir, id string, v any) error {
	data, err := DecodePayload(assetsDir, id)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode step %s config: %w", id, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("invalid step %s config: %w", id, err)
	}
	return nil
}

// UsersSource loads the declared users configuration for a step id. It
// implements engine.Source.
type UsersSource struct {
	assetsDir string
	id        string
	validate  *validator.Validate
}

// NewUsersSource creates a source bound to a step id.
func NewUsersSource(assetsDir, id string) *UsersSource {
	return &UsersSource{
		assetsDir: assetsDir,
		id:        id,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Load implements engine.Source.
func (s *UsersSource) Load(ctx context.Context) (engine.DesiredSet, error) {
	var desired engine.DesiredSet
	if err := loadInto(s.validate, s.assetsDir, s.id, &desired); err != nil {
		return engine.DesiredSet{}, err
	}
	return desired, nil
}

// VenvPayload is the declared configuration of an interpreter environment.
type VenvPayload struct {
	ID    string `json:"id" validate:"required"`
	Ready bool   `json:"ready"`
}

// BootstrapPayload is the declared configuration of the agent-package
// bootstrap into an interpreter environment.
type BootstrapPayload struct {
	ID             string `json:"id" validate:"required"`
	VenvResourceID string `json:"venv_resource_id" validate:"required"`
	Whl            string `json:"whl" validate:"required"`
	PackageName    string `json:"package_name"`
	Installed      bool   `json:"installed"`
}

// LoadVenv decodes and validates a venv payload.
func LoadVenv(assetsDir, id string) (VenvPayload, error) {
	var p VenvPayload
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := loadInto(v, assetsDir, id, &p); err != nil {
		return VenvPayload{}, err
	}
	return p, nil
}

// LoadBootstrap decodes and validates a bootstrap payload.
func LoadBootstrap(assetsDir, id string) (BootstrapPayload, error) {
	var p BootstrapPayload
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := loadInto(v, assetsDir, id, &p); err != nil {
		return BootstrapPayload{}, err
	}
	return p, nil
}
