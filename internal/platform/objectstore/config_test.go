package objectstore

import "testing"

func TestConfigValidate(t *testing.T) {
	valid := Config{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk", Region: "us-east-1", BucketManifests: "shipment-manifests"}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Validate() err=%v, want nil", err)
	}
}

func TestConfigValidateRejectsSchemeInEndpoint(t *testing.T) {
	cfg := Config{Endpoint: "http://localhost:9000", AccessKey: "ak", SecretKey: "sk", Region: "us-east-1", BucketManifests: "b"}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate() = nil, want error for endpoint with scheme")
	}
}

func TestConfigValidateRequiresEveryField(t *testing.T) {
	base := Config{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk", Region: "us-east-1", BucketManifests: "b"}

	cases := []func(*Config){
		func(c *Config) { c.Endpoint = "" },
		func(c *Config) { c.AccessKey = "" },
		func(c *Config) { c.SecretKey = "" },
		func(c *Config) { c.Region = "" },
		func(c *Config) { c.BucketManifests = "" },
	}
	for i, mutate := range cases {
		cfg := base
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: Validate() = nil, want error", i)
		}
	}
}

func TestNewMinIOClientConstructsWithoutNetworkCall(t *testing.T) {
	cfg := Config{Endpoint: "localhost:9000", AccessKey: "ak", SecretKey: "sk", Region: "us-east-1", BucketManifests: "b"}
	if _, err := NewMinIOClient(cfg); err != nil {
		t.Fatalf("NewMinIOClient() err=%v, want nil (construction does not dial)", err)
	}
}
