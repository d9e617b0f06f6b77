package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type Config struct {
	LogConfig       LogConfig       `json:"log_config"`
	DBConfig        DBConfig        `json:"db_config"`
	ChainConfig     ChainConfig     `json:"chain_config"`
	ProverConfig    ProverConfig    `json:"prover_config"`
	SubmitterConfig SubmitterConfig `json:"submitter_config"`
	L1Config        L1Config        `json:"l1_config"`
	MetricsConfig   MetricsConfig   `json:"metrics_config"`
}

func (c *Config) Validate() {
	c.LogConfig.Validate()
	c.DBConfig.Validate()
	c.ChainConfig.Validate()
	c.ProverConfig.Validate()
	c.SubmitterConfig.Validate()
	if c.SubmitterConfig.Sink == SinkL1 {
		c.L1Config.Validate()
	}
}

// ChainConfig describes where finalized-block notifications come from.
type ChainConfig struct {
	RPCAddrs       []string `json:"rpc_addrs"`        // RPCAddrs is a list of execution node RPC addresses, the first one is used
	StartHeight    uint64   `json:"start_height"`     // StartHeight is the last proved block, used when no checkpoint is recorded
	PollInterval   int64    `json:"poll_interval"`    // PollInterval in milliseconds between head polls
	MaxBatchSize   uint64   `json:"max_batch_size"`   // MaxBatchSize caps the blocks delivered in one Committed notification
	FinalizedOnly  bool     `json:"finalized_only"`   // FinalizedOnly follows the finalized head instead of latest
	ReorgCacheSize uint64   `json:"reorg_cache_size"` // ReorgCacheSize is the number of recent block hashes kept for reorg detection
}

func (cfg *ChainConfig) Validate() {
	if len(cfg.RPCAddrs) == 0 {
		panic("rpc_addrs should not be empty")
	}
}

func (cfg *ChainConfig) GetPollInterval() time.Duration {
	if cfg.PollInterval != 0 {
		return time.Duration(cfg.PollInterval) * time.Millisecond
	}
	return DefaultPollInterval
}

func (cfg *ChainConfig) GetMaxBatchSize() uint64 {
	if cfg.MaxBatchSize != 0 {
		return cfg.MaxBatchSize
	}
	return DefaultMaxBatchSize
}

func (cfg *ChainConfig) GetReorgCacheSize() uint64 {
	if cfg.ReorgCacheSize != 0 {
		return cfg.ReorgCacheSize
	}
	return DefaultReorgCacheSize
}

type ProverConfig struct {
	Binary       string `json:"binary"`        // Binary is the proving executable, resolved against PATH
	ProofPath    string `json:"proof_path"`    // ProofPath is the directory the prover writes execution_proof_{height}.proof into
	RPCURL       string `json:"rpc_url"`       // RPCURL is handed to the prover to fetch block witnesses
	ChainID      uint64 `json:"chain_id"`      // ChainID is handed to the prover
	ProveTimeout int64  `json:"prove_timeout"` // ProveTimeout in seconds, 0 means DefaultProveTimeout
}

func (cfg *ProverConfig) Validate() {
	if cfg.ProofPath == "" {
		panic("proof_path should not be empty")
	}
	if cfg.RPCURL == "" {
		panic("prover rpc_url should not be empty")
	}
	if cfg.ChainID == 0 {
		panic("prover chain_id should not be 0")
	}
}

func (cfg *ProverConfig) GetBinary() string {
	if cfg.Binary != "" {
		return cfg.Binary
	}
	return DefaultProverBinary
}

func (cfg *ProverConfig) GetProveTimeout() time.Duration {
	if cfg.ProveTimeout != 0 {
		return time.Duration(cfg.ProveTimeout) * time.Second
	}
	return DefaultProveTimeout
}

type SubmitterConfig struct {
	Sink           string `json:"sink"`            // Sink is either "aggregator" or "l1"
	AggregatorURL  string `json:"aggregator_url"`  // AggregatorURL receives twarb_sendProof requests
	Identifier     string `json:"identifier"`      // Identifier is the opaque submitter id sent to the aggregator
	MaxRetries     int    `json:"max_retries"`     // MaxRetries after the first attempt, 0 means DefaultMaxRetries
	RetryInterval  int64  `json:"retry_interval"`  // RetryInterval in milliseconds between attempts
	RequestTimeout int64  `json:"request_timeout"` // RequestTimeout in seconds for a single attempt
}

func (cfg *SubmitterConfig) Validate() {
	switch cfg.Sink {
	case SinkAggregator:
		if cfg.AggregatorURL == "" {
			panic("aggregator_url should not be empty if sink is aggregator")
		}
		if cfg.Identifier == "" {
			panic("identifier should not be empty if sink is aggregator")
		}
	case SinkL1:
	default:
		panic(fmt.Sprintf("only %s and %s sinks supported", SinkAggregator, SinkL1))
	}
	if cfg.MaxRetries < 0 {
		panic("max_retries should not be negative")
	}
}

func (cfg *SubmitterConfig) GetMaxRetries() int {
	if cfg.MaxRetries != 0 {
		return cfg.MaxRetries
	}
	return DefaultMaxRetries
}

func (cfg *SubmitterConfig) GetRetryInterval() time.Duration {
	if cfg.RetryInterval != 0 {
		return time.Duration(cfg.RetryInterval) * time.Millisecond
	}
	return DefaultRetryInterval
}

func (cfg *SubmitterConfig) GetRequestTimeout() time.Duration {
	if cfg.RequestTimeout != 0 {
		return time.Duration(cfg.RequestTimeout) * time.Second
	}
	return DefaultRequestTimeout
}

type L1Config struct {
	RPCAddr              string `json:"rpc_addr"`
	ContractAddress      string `json:"contract_address"` // ContractAddress is the verifier exposing verifyProof(bytes32,bytes,bytes)
	ChainID              uint64 `json:"chain_id"`
	GasLimit             uint64 `json:"gas_limit"`
	MaxFeePerGas         int64  `json:"max_fee_per_gas"`
	MaxPriorityFeePerGas int64  `json:"max_priority_fee_per_gas"`
	KeyType              string `json:"key_type"` // KeyType is local_private_key or aws_private_key
	PrivateKey           string `json:"private_key"`
	AWSRegion            string `json:"aws_region"`
	AWSSecretName        string `json:"aws_secret_name"`
}

func (cfg *L1Config) Validate() {
	if cfg.RPCAddr == "" {
		panic("l1 rpc_addr should not be empty")
	}
	if cfg.ContractAddress == "" {
		panic("l1 contract_address should not be empty")
	}
	if cfg.KeyType != KeyTypeLocalPrivateKey && cfg.KeyType != KeyTypeAWSPrivateKey {
		panic(fmt.Sprintf("only %s and %s key types supported", KeyTypeLocalPrivateKey, KeyTypeAWSPrivateKey))
	}
	if cfg.KeyType == KeyTypeAWSPrivateKey && (cfg.AWSRegion == "" || cfg.AWSSecretName == "") {
		panic("aws_region and aws_secret_name should be set if key type is aws_private_key")
	}
}

func (cfg *L1Config) GetChainID() uint64 {
	if cfg.ChainID != 0 {
		return cfg.ChainID
	}
	return DefaultL1ChainID
}

func (cfg *L1Config) GetGasLimit() uint64 {
	if cfg.GasLimit != 0 {
		return cfg.GasLimit
	}
	return DefaultL1GasLimit
}

func (cfg *L1Config) GetMaxFeePerGas() int64 {
	if cfg.MaxFeePerGas != 0 {
		return cfg.MaxFeePerGas
	}
	return DefaultMaxFeePerGas
}

func (cfg *L1Config) GetMaxPriorityFeePerGas() int64 {
	if cfg.MaxPriorityFeePerGas != 0 {
		return cfg.MaxPriorityFeePerGas
	}
	return DefaultMaxPriorityFeePerGas
}

type MetricsConfig struct {
	Enable      bool   `json:"enable"`
	HttpAddress string `json:"http_address"`
}

func (cfg *MetricsConfig) GetHttpAddress() string {
	if cfg.HttpAddress != "" {
		return cfg.HttpAddress
	}
	return DefaultMetricsAddress
}

type DBConfig struct {
	Dialect       string `json:"dialect"`
	KeyType       string `json:"key_type"`
	AWSRegion     string `json:"aws_region"`
	AWSSecretName string `json:"aws_secret_name"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Url           string `json:"url"`
	MaxIdleConns  int    `json:"max_idle_conns"`
	MaxOpenConns  int    `json:"max_open_conns"`
}

func (cfg *DBConfig) Validate() {
	if cfg.Dialect != DBDialectMysql && cfg.Dialect != DBDialectSqlite3 {
		panic(fmt.Sprintf("only %s and %s supported", DBDialectMysql, DBDialectSqlite3))
	}
	if cfg.Dialect == DBDialectMysql && (cfg.Username == "" || cfg.Url == "") {
		panic("db config is not correct, missing username and/or url")
	}
	if cfg.MaxIdleConns == 0 || cfg.MaxOpenConns == 0 {
		panic("db connections is not correct")
	}
}

type LogConfig struct {
	Level                        string `json:"level"`
	Filename                     string `json:"filename"`
	MaxFileSizeInMB              int    `json:"max_file_size_in_mb"`
	MaxBackupsOfLogFiles         int    `json:"max_backups_of_log_files"`
	MaxAgeToRetainLogFilesInDays int    `json:"max_age_to_retain_log_files_in_days"`
	UseConsoleLogger             bool   `json:"use_console_logger"`
	UseFileLogger                bool   `json:"use_file_logger"`
	Compress                     bool   `json:"compress"`
}

func (cfg *LogConfig) Validate() {
	if cfg.UseFileLogger {
		if cfg.Filename == "" {
			panic("filename should not be empty if use file logger")
		}
		if cfg.MaxFileSizeInMB <= 0 {
			panic("max_file_size_in_mb should be larger than 0 if use file logger")
		}
		if cfg.MaxBackupsOfLogFiles <= 0 {
			panic("max_backups_off_log_files should be larger than 0 if use file logger")
		}
	}
}

func ParseConfigFromJson(content string) *Config {
	var config Config
	if err := json.Unmarshal([]byte(content), &config); err != nil {
		panic(err)
	}
	return &config
}

func ParseConfigFromFile(filePath string) *Config {
	bz, err := os.ReadFile(filePath)
	if err != nil {
		panic(err)
	}
	return ParseConfigFromJson(string(bz))
}
