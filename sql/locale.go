package sql

import (
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// CollateText orders two strings by the process-default locale collator, as
// required by columns with uses_locale_collator set (§3). The collator is
// built once, lazily, on first use — the one piece of process-wide state
// this package needs, and it is immutable once constructed.
var (
	collatorOnce sync.Once
	collator     *collate.Collator
)

func defaultCollator() *collate.Collator {
	collatorOnce.Do(func() {
		collator = collate.New(language.Und)
	})
	return collator
}

// CollateText returns -1, 0, or 1 per the process-default locale collator.
func CollateText(a, b string) int {
	return defaultCollator().CompareString(a, b)
}

// CollationKey returns the locale collator's sort key for s, the byte
// sequence an index on a text column must store so that byte-sort order on
// the packed key matches CollateText order (§3 Index packing rules).
func CollationKey(s string) []byte {
	var buf collate.Buffer
	key := defaultCollator().Key(&buf, []byte(s))
	out := make([]byte, len(key))
	copy(out, key)
	return out
}
