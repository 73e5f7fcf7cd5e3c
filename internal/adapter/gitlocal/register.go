package gitlocal

import (
	"strconv"
	"time"

	"github.com/Strob0t/subete/internal/git"
	"github.com/Strob0t/subete/internal/port/vcs"
)

func init() {
	vcs.Register(openerName, func(config map[string]string) (vcs.Opener, error) {
		limit := 5
		if v, err := strconv.Atoi(config["max_concurrent"]); err == nil {
			limit = v
		}
		var timeout time.Duration
		if v, err := time.ParseDuration(config["timeout"]); err == nil {
			timeout = v
		}
		return NewOpener(git.NewPool(limit, timeout), config["clone_dir"]), nil
	})
}
