package config

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestValidateSchema(t *testing.T) {
	defaults, err := json.Marshal(DefaultConfig())
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{name: "defaults", data: string(defaults)},
		{name: "partial", data: `{"version": 1, "scrub": {"guids": false}}`},
		{name: "empty object", data: `{}`},
		{name: "unknown key", data: `{"verison": 1}`, wantErr: true},
		{name: "unknown nested key", data: `{"scrub": {"uuids": true}}`, wantErr: true},
		{name: "wrong type", data: `{"autoVerify": "yes"}`, wantErr: true},
		{name: "fractional version", data: `{"version": 1.5}`, wantErr: true},
		{name: "dotted extension", data: `{"extension": ".txt"}`, wantErr: true},
		{name: "unknown level", data: `{"logging": {"level": "trace"}}`, wantErr: true},
		{name: "not JSON", data: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSchema([]byte(tt.data))
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSchema() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_SchemaViolation(t *testing.T) {
	root := t.TempDir()
	writeConfigFile(t, root, "config.json", `{"version": 1, "ledger": {"enabled": "sometimes"}}`)

	_, err := LoadConfig(root)
	if err == nil {
		t.Fatal("LoadConfig() should reject values of the wrong type")
	}
	if !strings.Contains(err.Error(), "invalid .verify config") {
		t.Errorf("LoadConfig() error = %v", err)
	}
}
