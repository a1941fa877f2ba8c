package main

import (
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/fastdissect/internal/config"
	"github.com/danmuck/fastdissect/internal/fast/dissect"
	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/danmuck/fastdissect/internal/fast/template"
	"github.com/danmuck/fastdissect/internal/testutil/testlog"
)

func TestGeneratedTemplatesValidate(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	for kind, name := range map[string]string{"dissector": "config.toml", "templates": "templates.yaml"} {
		path := filepath.Join(dir, name)
		if err := config.WriteTemplate(path, kind, false); err != nil {
			t.Fatalf("write %s: %v", kind, err)
		}
		if err := validateFile(kind, path); err != nil {
			t.Fatalf("validate %s: %v", kind, err)
		}
	}
}

func TestDefaultPathUnknownKind(t *testing.T) {
	testlog.Start(t)
	if _, err := defaultPath("mirage"); err == nil {
		t.Fatalf("expected unknown kind error")
	}
	if p, err := defaultPath("templates"); err != nil || p != "cmd/fastdump/templates.yaml" {
		t.Fatalf("path=%q err=%v", p, err)
	}
}

func TestSamplePacketsDecode(t *testing.T) {
	testlog.Start(t)

	dir := t.TempDir()
	tpath := filepath.Join(dir, "templates.yaml")
	if err := config.WriteTemplate(tpath, "templates", false); err != nil {
		t.Fatalf("write templates: %v", err)
	}
	set, err := template.LoadFile(tpath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	d, err := dissect.New(set, nil, dissect.DefaultConfig())
	if err != nil {
		t.Fatalf("dissector: %v", err)
	}

	ppath := filepath.Join(dir, "packets.hex")
	if err := writePackets(ppath, false); err != nil {
		t.Fatalf("write packets: %v", err)
	}
	if err := writePackets(ppath, false); err == nil {
		t.Fatalf("expected existing file error")
	}
	data, err := os.ReadFile(ppath)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	var msgs []*dissect.Message
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if strings.HasPrefix(line, "#") {
			continue
		}
		pkt, err := hex.DecodeString(line)
		if err != nil {
			t.Fatalf("hex: %v", err)
		}
		got, err := d.Dissect(pkt)
		if err != nil {
			t.Fatalf("dissect: %v", err)
		}
		msgs = append(msgs, got...)
	}
	if len(msgs) != 3 {
		t.Fatalf("messages=%d", len(msgs))
	}
	for _, m := range msgs {
		if errs := m.Errors(); len(errs) != 0 {
			t.Fatalf("%s errors: %v", m.Name(), errs)
		}
	}

	values := map[string][]field.Value{}
	for _, n := range msgs[0].Fields {
		n.Walk(func(x *dissect.Node) {
			if x.Data.Exists() {
				values[x.Type.Name] = append(values[x.Type.Name], x.Data.Value)
			}
		})
	}
	if syms := values["Symbol"]; len(syms) != 2 || string(syms[1].Bytes()) != "NQZ6" {
		t.Fatalf("symbols=%v", syms)
	}
	if px := values["MDEntryPx"]; len(px) != 2 || px[1].Mantissa() != 513525 || px[1].Exponent() != -2 {
		t.Fatalf("prices=%v", px)
	}
	if act := values["MDUpdateAction"]; len(act) != 2 || act[1].Uint32() != 0 {
		t.Fatalf("actions=%v", act)
	}
	if msgs[2].Name() != "Heartbeat" || msgs[2].Fields[0].Data.Value.Uint32() != 12 {
		t.Fatalf("last message=%s seq=%v", msgs[2].Name(), msgs[2].Fields[0].Data.Value)
	}
}
