package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	os.Clearenv()
	cfg := Load()

	if cfg.AppPort != "8080" {
		t.Errorf("порт по умолчанию: ожидалось 8080, получено %s", cfg.AppPort)
	}
	if cfg.StarsPerRub != 2.0 {
		t.Errorf("курс по умолчанию: ожидалось 2.0, получено %v", cfg.StarsPerRub)
	}
	if cfg.InitDataMaxAge != time.Hour {
		t.Errorf("max age по умолчанию: ожидалось 1h, получено %v", cfg.InitDataMaxAge)
	}
	if cfg.TransferNoteLimit != 120 {
		t.Errorf("лимит заметки: ожидалось 120, получено %d", cfg.TransferNoteLimit)
	}
	if cfg.StarsPerTON != 250 {
		t.Errorf("stars за TON: ожидалось 250, получено %d", cfg.StarsPerTON)
	}
}

func TestLoadOverrides(t *testing.T) {
	os.Clearenv()
	os.Setenv("STARS_PER_RUB", "3.5")
	os.Setenv("INIT_DATA_MAX_AGE", "600")
	defer os.Clearenv()

	cfg := Load()
	if cfg.StarsPerRub != 3.5 {
		t.Errorf("ожидалось 3.5, получено %v", cfg.StarsPerRub)
	}
	if cfg.InitDataMaxAge != 10*time.Minute {
		t.Errorf("ожидалось 10m, получено %v", cfg.InitDataMaxAge)
	}
}

func TestLoadBadRate(t *testing.T) {
	os.Clearenv()
	os.Setenv("STARS_PER_RUB", "-1")
	defer os.Clearenv()

	// отрицательный курс игнорируется, остается дефолт
	if cfg := Load(); cfg.StarsPerRub != 2.0 {
		t.Errorf("ожидалось 2.0, получено %v", cfg.StarsPerRub)
	}
}

func TestParseIDList(t *testing.T) {
	cases := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"123", 1},
		{"123,456", 2},
		{" 123 , 456 ", 2},
		{"123,мусор,456", 2},
		{",,,", 0},
	}

	for _, tc := range cases {
		if got := parseIDList(tc.in); len(got) != tc.want {
			t.Errorf("parseIDList(%q): ожидалось %d id, получено %d", tc.in, tc.want, len(got))
		}
	}
}
