package config

import (
	"encoding/base64"
	"encoding/json"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
)

// GetSecret reads the current version of a secret from AWS Secrets Manager.
func GetSecret(secretName, region string) (string, error) {
	sess, err := session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return "", err
	}
	svc := secretsmanager.New(sess, aws.NewConfig().WithRegion(region))
	input := &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(secretName),
		VersionStage: aws.String("AWSCURRENT"),
	}
	result, err := svc.GetSecretValue(input)
	if err != nil {
		return "", err
	}
	if result.SecretString != nil {
		return *result.SecretString, nil
	}
	decoded := make([]byte, base64.StdEncoding.DecodedLen(len(result.SecretBinary)))
	l, err := base64.StdEncoding.Decode(decoded, result.SecretBinary)
	if err != nil {
		return "", err
	}
	return string(decoded[:l]), nil
}

// GetL1PrivateKey resolves the signing key of the L1 submitter, either from the config file or from AWS.
func GetL1PrivateKey(cfg *L1Config) string {
	if cfg.KeyType == KeyTypeAWSPrivateKey {
		result, err := GetSecret(cfg.AWSSecretName, cfg.AWSRegion)
		if err != nil {
			panic(err)
		}
		type awsPrivateKey struct {
			PrivateKey string `json:"private_key"`
		}
		var key awsPrivateKey
		if err = json.Unmarshal([]byte(result), &key); err != nil {
			panic(err)
		}
		return key.PrivateKey
	}
	return cfg.PrivateKey
}

// GetDBPass resolves the DB password, either from the config file or from AWS.
func GetDBPass(cfg *DBConfig) string {
	if cfg.KeyType == KeyTypeAWSPrivateKey {
		result, err := GetSecret(cfg.AWSSecretName, cfg.AWSRegion)
		if err != nil {
			panic(err)
		}
		type DBPass struct {
			DbPass string `json:"db_pass"`
		}
		var dbPassword DBPass
		if err = json.Unmarshal([]byte(result), &dbPassword); err != nil {
			panic(err)
		}
		return dbPassword.DbPass
	}
	return cfg.Password
}
