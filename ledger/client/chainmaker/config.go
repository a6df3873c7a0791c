package chainmaker

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// NodeConfig stores detailed configuration for a single consensus node.
type NodeConfig struct {
	Address     string   `yaml:"address"`
	ConnCount   int      `yaml:"conn_count"`
	UseTLS      bool     `yaml:"use_tls"`
	TLSHostName string   `yaml:"tls_host_name"`
	CaPaths     []string `yaml:"ca_paths"`
}

// ChainMakerConfig stores the ChainMaker-specific network profile.
type ChainMakerConfig struct {
	// --- SDK Connection Required ---
	ChainID string `yaml:"chain_id"`
	OrgID   string `yaml:"org_id"`

	Nodes []NodeConfig `yaml:"nodes"`

	// --- Contract Binding ---
	ContractName         string `yaml:"contract_name"`
	VerifyMethodName     string `yaml:"verify_method_name"`
	GetStatusMethodName  string `yaml:"get_status_method_name"`
	ParamKeyDocID        string `yaml:"param_key_doc_id"`
	ParamKeyOwnerID      string `yaml:"param_key_owner_id"`
	ParamKeyDocHash      string `yaml:"param_key_doc_hash"`
	ParamKeyVerifiedBy   string `yaml:"param_key_verified_by"`
	ParamKeyTimestamp    string `yaml:"param_key_timestamp"`
	ParamKeyComments     string `yaml:"param_key_comments"`
	ParamKeyPayload      string `yaml:"param_key_payload"`
	VerifiedEventTopic   string `yaml:"verified_event_topic"`
}

// Validate checks the fields a gateway session cannot be opened without.
func (c *ChainMakerConfig) Validate() error {
	if c.ChainID == "" || c.OrgID == "" {
		return fmt.Errorf("chain_id and org_id are required")
	}
	if len(c.Nodes) == 0 {
		return fmt.Errorf("no node configurations provided")
	}
	if c.ContractName == "" || c.VerifyMethodName == "" || c.GetStatusMethodName == "" {
		return fmt.Errorf("contract binding fields not set")
	}
	return nil
}

// LoadChainMakerConfig loads the network profile from the specified YAML file
// path.
func LoadChainMakerConfig(path string) (*ChainMakerConfig, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("unable to get absolute path of ChainMaker config file: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read ChainMaker config file '%s': %w", absPath, err)
	}

	var cfg ChainMakerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse ChainMaker YAML config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ChainMaker network profile: %w", err)
	}
	return &cfg, nil
}
