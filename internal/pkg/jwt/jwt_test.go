package jwt

import (
	"strings"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{Issuer: "loyalty-service", Audience: "loyalty-clients", TTL: time.Hour, KID: "test"}
}

func TestGenerateAndVerify(t *testing.T) {
	m, err := NewEphemeral(testConfig())
	if err != nil {
		t.Fatal(err)
	}

	issued, err := m.Generator.Generate("customer", "cust_1")
	if err != nil {
		t.Fatal(err)
	}
	if issued.JTI == "" || !issued.ExpiresAt.After(time.Now()) {
		t.Fatalf("unexpected issued token: %+v", issued)
	}

	claims, err := m.Verifier.Verify(issued.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Role != "customer" || claims.SubjectID != "cust_1" || claims.ID != issued.JTI {
		t.Errorf("claims = %+v", claims)
	}
}

func TestVerifyRejectsForeignKey(t *testing.T) {
	a, _ := NewEphemeral(testConfig())
	b, _ := NewEphemeral(testConfig())

	issued, err := a.Generator.Generate("staff", "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Verifier.Verify(issued.Token); err == nil {
		t.Fatal("expected signature failure")
	}
}

func TestVerifyRejectsWrongAudience(t *testing.T) {
	cfg := testConfig()
	m, _ := NewEphemeral(cfg)
	other := NewVerifier(&m.Generator.priv.PublicKey, cfg.Issuer, "someone-else")

	issued, _ := m.Generator.Generate("admin", "")
	_, err := other.Verify(issued.Token)
	if err == nil || !strings.Contains(err.Error(), "audience") {
		t.Fatalf("expected audience error, got %v", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	cfg := testConfig()
	cfg.TTL = -time.Minute
	m, _ := NewEphemeral(cfg)

	issued, _ := m.Generator.Generate("admin", "")
	if _, err := m.Verifier.Verify(issued.Token); err == nil {
		t.Fatal("expected expired token to fail")
	}
}

func TestLoadAndBuildMissingFiles(t *testing.T) {
	cfg := testConfig()
	cfg.PrivPath = t.TempDir() + "/missing.pem"
	if _, err := LoadAndBuild(cfg); err == nil {
		t.Fatal("expected error for missing key file")
	}
}
