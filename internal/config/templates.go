package config

import (
	"fmt"
	"os"
	"strings"
)

// Template returns a sample file of the given kind: "dissector" for a
// fastdump config, "templates" for a YAML template definition.
func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "dissector", "fastdump":
		return dissectorTemplate, nil
	case "templates":
		return templatesTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

const dissectorTemplate = `templates = ["templates.yaml"]
implementation = "fast"
# preamble_bytes = 0
# reset_per_packet = false
session = "default"
error_log = "error_log.txt"
output = "text"
decimal_style = "scientific"
show_empty = true
show_dictionaries = false
show_keys = false
show_operators = false
show_mandatory = false
# metrics_addr = "127.0.0.1:9464"
`

const templatesTemplate = `templates:
  - id: 1
    name: MarketDataIncrementalRefresh
    dictionary: template
    fields:
      - name: MsgSeqNum
        id: 34
        type: uInt32
        operator: increment
      - name: SendingTime
        id: 52
        type: uInt64
        operator: delta
      - name: Entries
        id: 268
        type: sequence
        length:
          name: NoMDEntries
        fields:
          - name: MDUpdateAction
            id: 279
            type: uInt32
            operator: copy
            value: "0"
          - name: Symbol
            id: 55
            type: ascii
            operator: copy
          - name: MDEntryPx
            id: 270
            type: decimal
            presence: optional
            operator: delta
          - name: MDEntrySize
            id: 271
            type: int64
            operator: delta
            presence: optional
  - id: 2
    name: Heartbeat
    fields:
      - name: MsgSeqNum
        id: 34
        type: uInt32
        operator: increment
`
