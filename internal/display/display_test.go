package display

import (
	"bytes"
	"strings"
	"testing"

	"github.com/danmuck/fastdissect/internal/fast/dissect"
	"github.com/danmuck/fastdissect/internal/fast/field"
	"github.com/danmuck/fastdissect/internal/fast/template"
	"github.com/danmuck/fastdissect/internal/testutil/testlog"
	gojson "github.com/goccy/go-json"
)

func TestPlainDecimal(t *testing.T) {
	testlog.Start(t)

	cases := []struct {
		m    int64
		e    int32
		want string
	}{
		{12345, -2, "123.45"},
		{-12345, -2, "-123.45"},
		{123, -5, "0.00123"},
		{123, -3, "0.123"},
		{-5, -1, "-0.5"},
		{15, 0, "15"},
		{15, 3, "15000"},
		{0, 4, "0"},
		{7, 11, "7e11"},
		{7, -11, "7e-11"},
	}
	for _, tc := range cases {
		if got := Plain(tc.m, tc.e); got != tc.want {
			t.Fatalf("Plain(%d, %d)=%q want %q", tc.m, tc.e, got, tc.want)
		}
	}
	if got := Scientific(-15, -3); got != "-15e-3" {
		t.Fatalf("Scientific=%q", got)
	}
}

func TestFieldLine(t *testing.T) {
	testlog.Start(t)

	px := field.Scalar(field.KindUInt32, "Px", 270).Op(field.OpCopy)
	px.Dictionary = "template"
	px.Key = "Px"
	ok := field.Data{Status: field.StatusExists, Value: field.Uint32Value(42)}

	if got := FieldLine(px, ok, DefaultOptions()); got != "uInt32 - Px (270): 42" {
		t.Fatalf("plain line=%q", got)
	}
	opts := DefaultOptions()
	opts.ShowDictionary, opts.ShowKey, opts.ShowOperator, opts.ShowMandatory = true, true, true, true
	want := "uInt32 - Px (270)[dictionary=template key=Px operator=copy mandatory]: 42"
	if got := FieldLine(px, ok, opts); got != want {
		t.Fatalf("info line=%q want %q", got, want)
	}

	empty := field.Data{Status: field.StatusEmpty}
	if got := FieldLine(px, empty, DefaultOptions()); got != "Px (empty uInt32)" {
		t.Fatalf("empty line=%q", got)
	}
	hidden := DefaultOptions()
	hidden.ShowEmpty = false
	if got := FieldLine(px, empty, hidden); got != "" {
		t.Fatalf("hidden empty line=%q", got)
	}

	failed := field.Failed(field.KindUInt32, 0, 6, field.NewDynamic(field.CodeD2, ""))
	if got := FieldLine(px, failed, DefaultOptions()); !strings.HasPrefix(got, "ERROR - Px (270): [ERR D2]") {
		t.Fatalf("error line=%q", got)
	}

	vec := field.Scalar(field.KindByteVector, "Raw", 1)
	if got := FieldLine(vec, field.Data{Value: field.BytesValue([]byte{0x01, 0xff})}, DefaultOptions()); got != "byteVector - Raw (1): 01ff" {
		t.Fatalf("bytes line=%q", got)
	}
}

func sampleMessage(t *testing.T) *dissect.Message {
	t.Helper()
	px := field.Decimal("Px", 270)
	entries := field.Sequence("Entries", 268, field.Scalar(field.KindUInt32, "Size", 271))
	tmpl := template.New(3, "Book", px, entries)
	if err := template.Prepare(tmpl); err != nil {
		t.Fatalf("prepare: %v", err)
	}
	size := entries.Element().Children[0]
	elem := func(v uint32) *dissect.Node {
		return &dissect.Node{
			Type:     entries.Element(),
			Data:     field.Data{Status: field.StatusExists},
			Children: []*dissect.Node{{Type: size, Data: field.Data{Status: field.StatusExists, Value: field.Uint32Value(v)}}},
		}
	}
	return &dissect.Message{
		TemplateID: 3,
		Template:   tmpl,
		Len:        9,
		Fields: []*dissect.Node{
			{Type: px, Data: field.Data{Status: field.StatusExists, Value: field.DecimalValue(12345, -2)}},
			{Type: entries, Data: field.Data{Status: field.StatusExists, Value: field.Uint32Value(2)},
				Children: []*dissect.Node{elem(5), elem(6)}},
		},
	}
}

func TestTextRender(t *testing.T) {
	testlog.Start(t)

	var buf bytes.Buffer
	opts := DefaultOptions()
	opts.Scientific = false
	if err := NewText(&buf, opts).Render([]*dissect.Message{sampleMessage(t)}); err != nil {
		t.Fatalf("render: %v", err)
	}
	want := strings.Join([]string{
		"Book - tid: 3",
		"  decimal - Px (270): 123.45",
		"  sequence - Entries (268) length 2:",
		"    uInt32 - Size (271): 5",
		"    uInt32 - Size (271): 6",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("text output:\n%s\nwant:\n%s", buf.String(), want)
	}

	buf.Reset()
	bad := &dissect.Message{TemplateID: 99, Err: field.NewDynamic(field.CodeD9, "template id 99")}
	if err := NewText(&buf, opts).Render([]*dissect.Message{bad}); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "ERROR - tid: 99: [ERR D9] Template does not exist") {
		t.Fatalf("error output=%q", buf.String())
	}
}

func TestJSONRender(t *testing.T) {
	testlog.Start(t)

	var buf bytes.Buffer
	if err := NewJSON(&buf, DefaultOptions()).Render([]*dissect.Message{sampleMessage(t)}); err != nil {
		t.Fatalf("render: %v", err)
	}
	var got struct {
		Template   string `json:"template"`
		TemplateID uint32 `json:"template_id"`
		Fields     []struct {
			Name     string `json:"name"`
			Value    any    `json:"value"`
			Length   *int   `json:"length"`
			Elements [][]struct {
				Value float64 `json:"value"`
			} `json:"elements"`
		} `json:"fields"`
	}
	if err := gojson.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("decode %s: %v", buf.String(), err)
	}
	if got.Template != "Book" || got.TemplateID != 3 || len(got.Fields) != 2 {
		t.Fatalf("unexpected document: %s", buf.String())
	}
	if got.Fields[0].Value != "12345e-2" {
		t.Fatalf("decimal value=%v", got.Fields[0].Value)
	}
	seq := got.Fields[1]
	if seq.Length == nil || *seq.Length != 2 || len(seq.Elements) != 2 || seq.Elements[1][0].Value != 6 {
		t.Fatalf("sequence rendered wrong: %s", buf.String())
	}
}
