package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DEFAULT_CLUB", "Hippo")
	t.Setenv("LICENSE_REGISTRY_TIMEOUT_MS", "not-a-number")
	t.Setenv("LICENSE_REGISTRY_RATE_LIMIT_RPS", "2")

	cfg, err := Load()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.DefaultClub != "Hippo" {
		t.Fatalf("club=%q", cfg.DefaultClub)
	}
	if cfg.LicenseRegistryTimeoutMs != 30000 {
		t.Fatalf("timeout=%d", cfg.LicenseRegistryTimeoutMs)
	}
	if cfg.LicenseRegistryRateRPS != 2 {
		t.Fatalf("rps=%d", cfg.LicenseRegistryRateRPS)
	}
}

func TestRequire(t *testing.T) {
	var cfg Config
	if err := cfg.Require("LICENSE_REGISTRY_URL", "  "); err == nil {
		t.Fatal("expected error for blank value")
	}
	if err := cfg.Require("LICENSE_REGISTRY_URL", "https://registry.test"); err != nil {
		t.Fatal(err)
	}
}
