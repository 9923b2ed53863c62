package proc

import (
	"os/user"
	"strconv"
	"sync"
)

var (
	userMu    sync.Mutex
	userCache = map[uint32]string{}
)

// Username resolves a uid to a login name, falling back to the numeric
// form when the uid has no passwd entry. Results are cached for the
// lifetime of the process.
func Username(uid uint32) string {
	userMu.Lock()
	defer userMu.Unlock()

	if name, ok := userCache[uid]; ok {
		return name
	}

	name := strconv.FormatUint(uint64(uid), 10)
	if u, err := user.LookupId(name); err == nil && u.Username != "" {
		name = u.Username
	}
	userCache[uid] = name
	return name
}
