package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"STORE_DRIVER", "POINTS_UNIT", "REDEMPTION_COST", "TIER_MATCH", "NOTIFY_DELAY", "KAFKA_BROKERS"} {
		t.Setenv(k, "")
	}
	cfg := Load()

	if cfg.StoreDriver != "memory" {
		t.Errorf("StoreDriver = %q", cfg.StoreDriver)
	}
	if cfg.PointsUnit != 10000 {
		t.Errorf("PointsUnit = %v", cfg.PointsUnit)
	}
	if cfg.RedemptionCost != 50 {
		t.Errorf("RedemptionCost = %d", cfg.RedemptionCost)
	}
	if cfg.TierMatch != "exact" {
		t.Errorf("TierMatch = %q", cfg.TierMatch)
	}
	if cfg.NotifyDelay != 2*time.Second {
		t.Errorf("NotifyDelay = %v", cfg.NotifyDelay)
	}
	if cfg.KafkaBrokers != nil {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("STORE_DRIVER", "Bolt")
	t.Setenv("REDEMPTION_COST", "75")
	t.Setenv("POINTS_UNIT", "-3")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("VENUE_TIMEZONE", "Asia/Jakarta")

	cfg := Load()
	if cfg.StoreDriver != "bolt" {
		t.Errorf("StoreDriver = %q", cfg.StoreDriver)
	}
	if cfg.RedemptionCost != 75 {
		t.Errorf("RedemptionCost = %d", cfg.RedemptionCost)
	}
	if cfg.PointsUnit != 10000 {
		t.Errorf("non-positive unit should fall back, got %v", cfg.PointsUnit)
	}
	if len(cfg.KafkaBrokers) != 2 || cfg.KafkaBrokers[1] != "k2:9092" {
		t.Errorf("KafkaBrokers = %v", cfg.KafkaBrokers)
	}
	if cfg.Location().String() != "Asia/Jakarta" {
		t.Errorf("Location = %v", cfg.Location())
	}
}

func TestLocationFallback(t *testing.T) {
	cfg := AppConfig{VenueTimezone: "Not/AZone"}
	if cfg.Location() != time.UTC {
		t.Errorf("expected UTC fallback, got %v", cfg.Location())
	}
}
