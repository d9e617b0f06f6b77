package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/twarb/block-prover/config"
	"github.com/twarb/block-prover/db"
	"github.com/twarb/block-prover/external"
	"github.com/twarb/block-prover/logging"
	"github.com/twarb/block-prover/metrics"
	"github.com/twarb/block-prover/pipeline"
	"github.com/twarb/block-prover/proof"
	"github.com/twarb/block-prover/prover"
	"github.com/twarb/block-prover/service"
	"github.com/twarb/block-prover/submitter"
)

func initFlags() {
	flag.String(config.FlagConfigPath, "", "config file path")
	flag.String(config.FlagConfigType, "", "config type, local or aws")
	flag.String(config.FlagConfigAwsRegion, "", "aws region")
	flag.String(config.FlagConfigAwsSecretKey, "", "aws secret key")
	flag.String(config.FlagConfigPrivateKey, "", "block-prover l1 private key")
	flag.String(config.FlagConfigDbPass, "", "block-prover db password")

	pflag.CommandLine.AddGoFlagSet(flag.CommandLine)
	pflag.Parse()
	err := viper.BindPFlags(pflag.CommandLine)
	if err != nil {
		panic(err)
	}
	for flagName, env := range map[string]string{
		config.FlagConfigType:       config.ConfigType,
		config.FlagConfigPath:       config.ConfigFilePath,
		config.FlagConfigPrivateKey: config.ConfigPrivateKey,
		config.FlagConfigDbPass:     config.ConfigDBPass,
	} {
		if err = viper.BindEnv(flagName, env); err != nil {
			panic(err)
		}
	}
}

func printUsage() {
	fmt.Print("usage: ./block-prover --config-type local --config-path configFile\n")
	fmt.Print("usage: ./block-prover --config-type aws --aws-region awsRegion --aws-secret-key awsSecretKey\n")
}

func loadConfig() *config.Config {
	configType := viper.GetString(config.FlagConfigType)
	if configType == "" {
		configType = config.LocalConfig
	}
	switch configType {
	case config.AWSConfig:
		awsSecretKey := viper.GetString(config.FlagConfigAwsSecretKey)
		awsRegion := viper.GetString(config.FlagConfigAwsRegion)
		if awsSecretKey == "" || awsRegion == "" {
			return nil
		}
		configContent, err := config.GetSecret(awsSecretKey, awsRegion)
		if err != nil {
			fmt.Printf("get aws config error, err=%s", err.Error())
			return nil
		}
		return config.ParseConfigFromJson(configContent)
	case config.LocalConfig:
		configFilePath := viper.GetString(config.FlagConfigPath)
		if configFilePath == "" {
			return nil
		}
		return config.ParseConfigFromFile(configFilePath)
	default:
		return nil
	}
}

func newSubmitter(cfg *config.Config, store *proof.Store) pipeline.Submitter {
	if cfg.SubmitterConfig.Sink == config.SinkAggregator {
		return submitter.NewAggregatorSubmitter(&cfg.SubmitterConfig, store)
	}
	privateKey := viper.GetString(config.FlagConfigPrivateKey)
	if privateKey == "" {
		privateKey = config.GetL1PrivateKey(&cfg.L1Config)
	}
	client, err := ethclient.Dial(cfg.L1Config.RPCAddr)
	if err != nil {
		panic(fmt.Sprintf("dial l1 rpc error, err=%s", err.Error()))
	}
	l1Submitter, err := submitter.NewL1VerificationSubmitter(&cfg.L1Config, privateKey, client, store,
		cfg.SubmitterConfig.GetRequestTimeout())
	if err != nil {
		panic(err)
	}
	logging.Logger.Infof("submitting proofs to l1, contract=%s, from=%s", cfg.L1Config.ContractAddress, l1Submitter.From().Hex())
	return l1Submitter
}

func main() {
	initFlags()
	cfg := loadConfig()
	if cfg == nil {
		printUsage()
		return
	}
	cfg.Validate()
	logging.InitLogger(&cfg.LogConfig)

	password := viper.GetString(config.FlagConfigDbPass)
	if password == "" {
		password = config.GetDBPass(&cfg.DBConfig)
	}
	gormDB := config.InitDBWithConfig(&cfg.DBConfig, password)
	db.InitTables(gormDB)
	proofDB := db.NewProofSvcDB(gormDB)

	store := proof.NewStore(cfg.ProverConfig.ProofPath)
	gateway, err := prover.NewGateway(&cfg.ProverConfig, store)
	if err != nil {
		panic(err)
	}
	sub := newSubmitter(cfg, store)

	next, err := external.NextHeight(proofDB, cfg.ChainConfig.StartHeight)
	if err != nil {
		panic(err)
	}
	source, err := external.NewPollingSource(external.NewClient(&cfg.ChainConfig), &cfg.ChainConfig, next)
	if err != nil {
		panic(err)
	}

	recorder := pipeline.NewRecorder(proofDB)
	consumer := pipeline.NewChainEventConsumer(
		pipeline.NewBatchProcessor(gateway, recorder),
		sub,
		external.NewCheckpointAcknowledger(proofDB),
		proofDB,
		recorder,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return source.Run(ctx)
	})
	g.Go(func() error {
		return consumer.Run(ctx, source.Notifications())
	})
	if cfg.MetricsConfig.Enable {
		m := metrics.NewMetrics(cfg.MetricsConfig.GetHttpAddress())
		service.Mount(m, service.NewProofService(proofDB, store))
		g.Go(func() error {
			return m.Serve(ctx)
		})
	}

	logging.Logger.Infof("block prover started, sink=%s, next=%d", sub.Name(), next)
	if err = g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logging.Logger.Errorf("block prover stopped, err=%s", err.Error())
		os.Exit(1)
	}
	logging.Logger.Infof("block prover stopped, batches=%d", consumer.Batches())
}
