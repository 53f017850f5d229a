package logger

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap/zapcore"
)

func TestNew_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "bot.log")
	dated := filepath.Join(dir, "logs")

	log, err := New("debug", file, dated)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	log.Info("cycle finished")
	_ = log.Sync()

	for _, p := range []string{file, filepath.Join(dated, "trading_bot_"+time.Now().Format("20060102")+".log")} {
		data, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("read %s: %v", p, err)
		}
		if !strings.Contains(string(data), "cycle finished") {
			t.Errorf("%s missing log line: %s", p, data)
		}
	}
}

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	log, err := New("loud", "", "")
	if err != nil {
		t.Fatal(err)
	}
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be disabled at info level")
	}
}
