package config

import "time"

const (
	FlagConfigPath         = "config-path"
	FlagConfigType         = "config-type"
	FlagConfigAwsRegion    = "aws-region"
	FlagConfigAwsSecretKey = "aws-secret-key"
	FlagConfigPrivateKey   = "private-key"
	FlagConfigDbPass       = "db-pass"

	ConfigType       = "CONFIG_TYPE"
	ConfigFilePath   = "CONFIG_FILE_PATH"
	ConfigPrivateKey = "PRIVATE_KEY"
	ConfigDBPass     = "DB_PASSWORD"

	AWSConfig   = "aws"
	LocalConfig = "local"

	DBDialectMysql   = "mysql"
	DBDialectSqlite3 = "sqlite3"

	KeyTypeLocalPrivateKey = "local_private_key"
	KeyTypeAWSPrivateKey   = "aws_private_key"

	SinkAggregator = "aggregator"
	SinkL1         = "l1"

	DefaultProverBinary = "rsp"
	DefaultProveTimeout = 30 * time.Minute

	DefaultPollInterval   = 3 * time.Second
	DefaultMaxBatchSize   = 16
	DefaultReorgCacheSize = 256

	DefaultMaxRetries     = 10
	DefaultRetryInterval  = time.Second
	DefaultRequestTimeout = 30 * time.Second

	DefaultL1ChainID            = 1337
	DefaultL1GasLimit           = 25_000_000
	DefaultMaxFeePerGas         = 2_000_000_000_000
	DefaultMaxPriorityFeePerGas = 2_000_000

	DefaultMetricsAddress = "0.0.0.0:9090"
)
