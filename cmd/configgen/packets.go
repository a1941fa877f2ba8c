package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/fastdissect/internal/fast/stopbit"
)

// samplePackets encodes packets matching the sample template file, one hex
// packet per line as fastdump reads them.
func samplePackets() string {
	var first []byte
	// MarketDataIncrementalRefresh, two entries
	first = stopbit.AppendPMap(first, []bool{true, true})
	first = stopbit.AppendUint32(first, 1)
	first = stopbit.AppendUint32(first, 10)
	first = stopbit.AppendInt64(first, 1792315800000)
	first = stopbit.AppendUint32(first, 2)

	first = stopbit.AppendPMap(first, []bool{true, true})
	first = stopbit.AppendUint32(first, 0)
	first = stopbit.AppendASCII(first, []byte("ESZ6"))
	first = stopbit.AppendNullableInt64(first, -2)
	first = stopbit.AppendInt64(first, 512525)
	first = stopbit.AppendNullableInt64(first, 10)

	first = stopbit.AppendPMap(first, []bool{false, true})
	first = stopbit.AppendASCII(first, []byte("NQZ6"))
	first = stopbit.AppendNullableInt64(first, 0)
	first = stopbit.AppendInt64(first, 1000)
	first = stopbit.AppendNull(first)

	// Heartbeat in the same packet
	first = stopbit.AppendPMap(first, []bool{true, true})
	first = stopbit.AppendUint32(first, 2)
	first = stopbit.AppendUint32(first, 11)

	// Heartbeat with copied template id and incremented sequence number
	second := stopbit.AppendPMap(nil, []bool{false, false})

	var b strings.Builder
	b.WriteString("# hex encoded FAST packets, one per line; prefix with \"<session>:\" to pick a session\n")
	b.WriteString(hex.EncodeToString(first))
	b.WriteByte('\n')
	b.WriteString(hex.EncodeToString(second))
	b.WriteByte('\n')
	return b.String()
}

func writePackets(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(samplePackets()), 0o600)
}
