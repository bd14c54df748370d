// Package config provides configuration loading for the Jung Home bridge.
//
// Configuration comes from three layers, later layers overriding earlier:
//
//  1. Built-in defaults
//  2. A YAML file (config.yaml)
//  3. Environment variables (JUNGHOME_* prefix)
//
// Secrets (gateway token, MQTT credentials, InfluxDB token) are expected
// via environment variables so the YAML file can be committed without them.
//
// # Usage
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//	timeout := cfg.GetRequestTimeout()
package config
