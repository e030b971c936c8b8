package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vvka-141/belaz/pkg/belaz"
)

// ErrConfigNotFound is returned when the config file does not exist.
// It also matches belaz.ErrInvalidConfig.
var ErrConfigNotFound = fmt.Errorf("config file not found: %w", belaz.ErrInvalidConfig)

// Config is the parsed load descriptor.
type Config struct {
	Connection belaz.ConnectionConfig

	// Jobs holds the tables flagged for loading, in file order
	Jobs []belaz.LoadJob

	BatchSize int
}

// TableConfig is one entry of the tables array.
// Pointer fields distinguish an absent key from an empty value; an explicit
// null also leaves the pointer nil, so present records the keys written.
type TableConfig struct {
	Name     *string     `json:"name" yaml:"name"`
	File     *string     `json:"file" yaml:"file"`
	Columns  *ColumnList `json:"columns" yaml:"columns"`
	DumpFlag *DumpFlag   `json:"dump_flag" yaml:"dump_flag"`

	present map[string]bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *TableConfig) UnmarshalJSON(data []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(data, &keys); err != nil {
		return err
	}
	type plain TableConfig
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = TableConfig(p)
	t.present = make(map[string]bool, len(keys))
	for k := range keys {
		t.present[k] = true
	}
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *TableConfig) UnmarshalYAML(node *yaml.Node) error {
	type plain TableConfig
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*t = TableConfig(p)
	t.present = make(map[string]bool)
	if node.Kind == yaml.MappingNode {
		for i := 0; i+1 < len(node.Content); i += 2 {
			t.present[node.Content[i].Value] = true
		}
	}
	return nil
}

// Has reports whether key was written in the entry, even as null.
func (t TableConfig) Has(key string) bool {
	return t.present[key]
}

// FileConfig mirrors the on-disk descriptor.
type FileConfig struct {
	Host     *string        `json:"host" yaml:"host"`
	Database *string        `json:"database" yaml:"database"`
	Schema   *string        `json:"schema" yaml:"schema"`
	User     *string        `json:"user" yaml:"user"`
	Password *string        `json:"password" yaml:"password"`
	Port     *Port          `json:"port" yaml:"port"`
	Tables   *[]TableConfig `json:"tables" yaml:"tables"`

	SSLMode        string `json:"sslmode,omitempty" yaml:"sslmode,omitempty"`
	AuthMethod     string `json:"auth_method,omitempty" yaml:"auth_method,omitempty"`
	AWSRegion      string `json:"aws_region,omitempty" yaml:"aws_region,omitempty"`
	AzureTenantID  string `json:"azure_tenant_id,omitempty" yaml:"azure_tenant_id,omitempty"`
	AzureClientID  string `json:"azure_client_id,omitempty" yaml:"azure_client_id,omitempty"`
	GoogleInstance string `json:"google_instance,omitempty" yaml:"google_instance,omitempty"`
	BatchSize      int    `json:"batch_size,omitempty" yaml:"batch_size,omitempty"`
}

// Load reads the descriptor at path, using the process environment for fallbacks.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv reads the descriptor at path. getenv supplies fallbacks for
// empty credentials: PGPASSWORD, AWS_REGION, AZURE_TENANT_ID, AZURE_CLIENT_ID
// and AZURE_CLIENT_SECRET.
//
// Every returned error matches belaz.ErrInvalidConfig.
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrConfigNotFound)
		}
		return nil, fmt.Errorf("read %s: %v: %w", path, err, belaz.ErrInvalidConfig)
	}

	fc, err := Parse(data, formatFor(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	cfg, err := fc.build(getenv)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Format selects the descriptor syntax.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func formatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes a descriptor without validating it.
func Parse(data []byte, format Format) (*FileConfig, error) {
	var fc FileConfig
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, fmt.Errorf("malformed config: %v: %w", err, belaz.ErrInvalidConfig)
	}
	return &fc, nil
}

// build validates the descriptor and resolves it into a Config.
// It returns a joined error listing every problem found.
func (fc *FileConfig) build(getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = func(string) string { return "" }
	}

	var errs []error
	required := []struct {
		key     string
		present bool
	}{
		{"host", fc.Host != nil},
		{"database", fc.Database != nil},
		{"schema", fc.Schema != nil},
		{"user", fc.User != nil},
		{"password", fc.Password != nil},
		{"port", fc.Port != nil},
		{"tables", fc.Tables != nil},
	}
	for _, r := range required {
		if !r.present {
			errs = append(errs, fmt.Errorf("required key %q is missing: %w", r.key, belaz.ErrInvalidConfig))
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if err := ValidateIdentifier("schema", *fc.Schema); err != nil {
		errs = append(errs, err)
	}

	authMethod, err := belaz.ParseAuthMethod(fc.AuthMethod)
	if err != nil {
		errs = append(errs, err)
	}

	if fc.BatchSize < 0 {
		errs = append(errs, fmt.Errorf("batch_size cannot be negative: %w", belaz.ErrInvalidConfig))
	}

	jobs, jobErrs := fc.jobs()
	errs = append(errs, jobErrs...)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	conn := belaz.ConnectionConfig{
		Host:           *fc.Host,
		Port:           int(*fc.Port),
		Database:       *fc.Database,
		Schema:         *fc.Schema,
		Username:       *fc.User,
		Password:       *fc.Password,
		SSLMode:        fc.SSLMode,
		AuthMethod:     authMethod,
		AWSRegion:      fc.AWSRegion,
		GoogleInstance: fc.GoogleInstance,
		AzureTenantID:  fc.AzureTenantID,
		AzureClientID:  fc.AzureClientID,
	}
	applyEnvironment(&conn, getenv)

	batchSize := fc.BatchSize
	if batchSize == 0 {
		batchSize = belaz.DefaultBatchSize
	}

	return &Config{
		Connection: conn,
		Jobs:       jobs,
		BatchSize:  batchSize,
	}, nil
}

// jobs selects the flagged tables. A repeated table name replaces the earlier
// entry in place, so the first occurrence fixes the position.
func (fc *FileConfig) jobs() ([]belaz.LoadJob, []error) {
	var errs []error
	var jobs []belaz.LoadJob
	position := make(map[string]int)

	for i, t := range *fc.Tables {
		if !t.Has("dump_flag") {
			errs = append(errs, fmt.Errorf("tables[%d]: required key \"dump_flag\" is missing: %w", i, belaz.ErrInvalidConfig))
			continue
		}
		if t.DumpFlag == nil || !t.DumpFlag.Enabled() {
			continue
		}

		var missing []string
		if t.Name == nil {
			missing = append(missing, "name")
		}
		if t.File == nil {
			missing = append(missing, "file")
		}
		if t.Columns == nil {
			missing = append(missing, "columns")
		}
		if len(missing) > 0 {
			errs = append(errs, fmt.Errorf("tables[%d]: required keys missing: %s: %w",
				i, strings.Join(missing, ", "), belaz.ErrInvalidConfig))
			continue
		}

		if err := ValidateIdentifier("table", *t.Name); err != nil {
			errs = append(errs, fmt.Errorf("tables[%d]: %w", i, err))
			continue
		}
		if len(*t.Columns) == 0 {
			errs = append(errs, fmt.Errorf("tables[%d] %s: columns cannot be empty: %w", i, *t.Name, belaz.ErrInvalidConfig))
			continue
		}

		job := belaz.LoadJob{
			Schema:     *fc.Schema,
			Table:      *t.Name,
			SourceFile: *t.File,
			Columns:    append([]string(nil), (*t.Columns)...),
		}
		if pos, seen := position[job.Table]; seen {
			jobs[pos] = job
			continue
		}
		position[job.Table] = len(jobs)
		jobs = append(jobs, job)
	}
	return jobs, errs
}

// applyEnvironment fills empty credentials from the environment.
// The Azure client secret never comes from the config file.
func applyEnvironment(conn *belaz.ConnectionConfig, getenv func(string) string) {
	if conn.Password == "" {
		conn.Password = getenv("PGPASSWORD")
	}
	if conn.SSLMode == "" {
		conn.SSLMode = getenv("PGSSLMODE")
	}
	if conn.SSLMode == "" {
		conn.SSLMode = belaz.DefaultSSLMode
	}
	if conn.Port == 0 {
		conn.Port = belaz.DefaultPort
	}

	switch conn.AuthMethod {
	case belaz.AuthMethodAWSIAM:
		if conn.AWSRegion == "" {
			conn.AWSRegion = getenv("AWS_REGION")
		}
	case belaz.AuthMethodAzureEntraID:
		if conn.AzureTenantID == "" {
			conn.AzureTenantID = getenv("AZURE_TENANT_ID")
		}
		if conn.AzureClientID == "" {
			conn.AzureClientID = getenv("AZURE_CLIENT_ID")
		}
		conn.AzureClientSecret = getenv("AZURE_CLIENT_SECRET")
	}
}

// Select narrows Jobs to the named tables, keeping file order.
// An empty list keeps every job. Naming a table that is not flagged
// for loading is a configuration error.
func (c *Config) Select(tables []string) error {
	if len(tables) == 0 {
		return nil
	}

	wanted := make(map[string]bool, len(tables))
	for _, name := range tables {
		wanted[name] = true
	}

	var selected []belaz.LoadJob
	for _, job := range c.Jobs {
		if wanted[job.Table] {
			selected = append(selected, job)
			delete(wanted, job.Table)
		}
	}

	if len(wanted) > 0 {
		var unknown []string
		for _, name := range tables {
			if wanted[name] {
				unknown = append(unknown, name)
				delete(wanted, name)
			}
		}
		return fmt.Errorf("tables not flagged for loading: %s: %w", strings.Join(unknown, ", "), belaz.ErrInvalidConfig)
	}

	c.Jobs = selected
	return nil
}
