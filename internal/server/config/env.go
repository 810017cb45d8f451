package config

import "github.com/dmitrijs2005/familyrecipe/internal/flagx"

// parseEnv applies the deployment identifiers that the hosting environment
// traditionally injects.
//
//	TABLE_NAME      composite-key table
//	BUCKET_NAME     photo bucket
//	DATABASE_DSN    PostgreSQL DSN
//	KEY_PASSPHRASE  private key sealing passphrase
func parseEnv(config *Config) {
	flagx.ApplyEnv(map[string]*string{
		"TABLE_NAME":     &config.TableName,
		"BUCKET_NAME":    &config.S3Bucket,
		"DATABASE_DSN":   &config.DatabaseDSN,
		"KEY_PASSPHRASE": &config.KeyPassphrase,
	})
}
