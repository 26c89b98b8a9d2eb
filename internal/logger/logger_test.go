package logger

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestInitEnvOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "json")

	var buf bytes.Buffer
	l := Init("warn", "text", &buf)
	if l.GetLevel() != logrus.DebugLevel {
		t.Fatalf("level = %v, want debug", l.GetLevel())
	}
	For("explorer").Debug("hello")
	if !strings.Contains(buf.String(), `"component":"explorer"`) {
		t.Fatalf("json output missing component: %s", buf.String())
	}
}

func TestInitBadLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FORMAT", "")
	l := Init("chatty", "text", &bytes.Buffer{})
	if l.GetLevel() != logrus.InfoLevel {
		t.Fatalf("level = %v, want info", l.GetLevel())
	}
}

func TestStatusBuffer(t *testing.T) {
	l := Discard()
	sb := NewStatusBuffer(2, logrus.InfoLevel)
	l.AddHook(sb)

	ch, cancel := sb.Subscribe()
	defer cancel()

	l.Debug("not kept")
	l.WithField("component", "workspace").Info("saved")
	l.WithError(errors.New("disk full")).Warn("save failed")
	l.Error("third")

	got := sb.Snapshot()
	if len(got) != 2 {
		t.Fatalf("entries = %+v", got)
	}
	if got[0].Msg != "save failed" || got[0].Err != "disk full" {
		t.Fatalf("first = %+v", got[0])
	}
	if last, ok := sb.Last(); !ok || last.Msg != "third" || last.Level != "error" {
		t.Fatalf("last = %+v", last)
	}

	first := <-ch
	if first.Component != "workspace" || first.Msg != "saved" {
		t.Fatalf("subscriber got %+v", first)
	}
}
