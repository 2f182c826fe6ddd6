package cliconfig

import "os"

// ApplyEnvConfig applies ZABBIX_SENDER_* environment variables.
// They override the config file but not explicitly set flags.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("zabbix-server", os.Getenv("ZABBIX_SENDER_SERVER"), &cfg.Server)
	s.setString("host", os.Getenv("ZABBIX_SENDER_HOST"), &cfg.Host)

	if err := s.setIntFromString("port", os.Getenv("ZABBIX_SENDER_PORT"), &cfg.Port); err != nil {
		return err
	}
	if err := s.setIntFromString("retries", os.Getenv("ZABBIX_SENDER_RETRIES"), &cfg.Retries); err != nil {
		return err
	}

	if err := s.setDuration("timeout", os.Getenv("ZABBIX_SENDER_TIMEOUT"), &cfg.Timeout); err != nil {
		return err
	}
	if err := s.setDuration("interval", os.Getenv("ZABBIX_SENDER_INTERVAL"), &cfg.Interval); err != nil {
		return err
	}

	s.setBoolFromString("keepalive", os.Getenv("ZABBIX_SENDER_KEEPALIVE"), &cfg.KeepAlive)
	s.setBoolFromString("verbose", os.Getenv("ZABBIX_SENDER_VERBOSE"), &cfg.Verbose)

	return nil
}
