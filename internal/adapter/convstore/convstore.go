// Package convstore provides conversation history storage backends.
//
// All backends enforce the same cap: at most maxHistory user/assistant
// turns are kept, with the system turn pinned at index 0 when present.
package convstore

import (
	"github.com/flookyhq/flooky-tools/internal/domain"
)

// Trim applies the history cap to msgs. When the history exceeds
// maxHistory turns (plus the pinned system turn), only the system turn and
// the most recent maxHistory turns survive.
func Trim(msgs []domain.Message, maxHistory int) []domain.Message {
	if maxHistory <= 0 || len(msgs) <= maxHistory+1 {
		return msgs
	}
	if msgs[0].Role == domain.RoleSystem {
		out := make([]domain.Message, 0, maxHistory+1)
		out = append(out, msgs[0])
		out = append(out, msgs[len(msgs)-maxHistory:]...)
		return out
	}
	return msgs[len(msgs)-maxHistory:]
}
