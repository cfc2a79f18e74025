package config

import "github.com/spf13/viper"

// setDefaults sets the values used by the deployed preprod contract
func setDefaults(v *viper.Viper) {
	v.SetDefault("network.name", "preprod")

	v.SetDefault("contract.script_file", "build/contract/script.cbor")
	v.SetDefault("contract.language", "PlutusV2")

	// Orcfax ADA-USD feed on preprod
	v.SetDefault("oracle.address", "addr_test1wrtcecfy7np3sduzn99ffuv8qx2sa8v977l0xql8ca7lgkgmktuc0")
	v.SetDefault("oracle.auth_policy", "104d51dd927761bf5d50d32e1ede4b2cff477d475fe32f4f780a4b21")
	v.SetDefault("oracle.feed_name", "ADA-USD|USD-ADA")
	v.SetDefault("oracle.cache_size", 256)

	v.SetDefault("validator.threshold", "0.99")
	v.SetDefault("validator.max_exponent", 6)
	v.SetDefault("validator.truncation", "truncate-digits")

	v.SetDefault("tx.validity_window", 3600)
	v.SetDefault("tx.min_collateral", 3607615)
	v.SetDefault("tx.fee", 1000000)
	v.SetDefault("tx.deposit_amount", 2000000)
	v.SetDefault("tx.deploy_amount", 70000000)

	v.SetDefault("wallet.name", "payment")
	v.SetDefault("wallet.address", "")
	v.SetDefault("wallet.fee_address", "")

	v.SetDefault("ogmios.url", "ws://ogmios.preprod.orcfax.io:1337")
	v.SetDefault("ogmios.timeout", "30s")
	v.SetDefault("ogmios.poll_interval", "60s")

	v.SetDefault("snapshot.enabled", false)
	v.SetDefault("snapshot.backend", "pebble")
	v.SetDefault("snapshot.path", "data/snapshots")
	v.SetDefault("snapshot.compression", true)
	v.SetDefault("snapshot.max_age", "0s")

	v.SetDefault("decision_log.enabled", false)
	v.SetDefault("decision_log.driver", "sqlite")
	v.SetDefault("decision_log.dsn", "data/decisions.db")
	v.SetDefault("decision_log.max_open_conns", 1)

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.listen", "127.0.0.1:9464")
	v.SetDefault("metrics.namespace", "feedescrow")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
